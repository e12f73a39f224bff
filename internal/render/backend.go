// ABOUTME: Software rendering backend implementing the graph contract
// ABOUTME: Pull-based node graph with a sample-counter engine clock
package render

import (
	"fmt"
	"sync"

	"github.com/embergarde/chorus/pkg/decode"
	"github.com/embergarde/chorus/pkg/graph"
	"github.com/gopxl/beep/v2"
)

// Config holds backend configuration
type Config struct {
	// SampleRate is the device rate in Hz (default: 48000)
	SampleRate int
}

// Backend renders the node graph in software and pushes the mix to the
// sound card. The destination node implements beep.Streamer, so the
// whole graph can also be pulled offline (tests do exactly that).
//
// The engine clock is the count of samples pulled through the
// destination, which makes it monotonic and exactly as fast as the
// hardware consumes audio.
type Backend struct {
	mu   sync.Mutex
	rate beep.SampleRate

	dest *destination
	pos  int64 // samples rendered since start

	listenerX, listenerY float64

	out *output

	// callbacks collected during a render block, fired after the lock
	// is released so hooks can call back into their owner.
	pending []func()
}

// New opens the default audio device and starts pulling the graph.
func New(cfg Config) (*Backend, error) {
	b := newBackend(cfg)

	out, err := openOutput(int(b.rate), b.dest)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	b.out = out
	return b, nil
}

// newBackend builds the graph without a device; the caller pulls the
// destination streamer itself.
func newBackend(cfg Config) *Backend {
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 48000
	}
	b := &Backend{rate: beep.SampleRate(cfg.SampleRate)}
	b.dest = &destination{backend: b}
	return b
}

// Close stops the device. The node graph stays intact but silent.
func (b *Backend) Close() error {
	if b.out != nil {
		b.out.close()
	}
	return nil
}

func (b *Backend) NewGain() graph.GainNode {
	return &gainNode{baseNode: baseNode{backend: b}, gain: 1}
}

func (b *Backend) NewBufferSource(buf *graph.Buffer) graph.SourceNode {
	return &sourceNode{baseNode: baseNode{backend: b}, buf: buf, rate: 1}
}

func (b *Backend) NewStereoPanner() graph.StereoPannerNode {
	return &stereoPannerNode{baseNode: baseNode{backend: b}}
}

func (b *Backend) NewSpatialPanner(p graph.SpatialParams) graph.SpatialPannerNode {
	return &spatialPannerNode{baseNode: baseNode{backend: b}, params: p}
}

func (b *Backend) Destination() graph.Node { return b.dest }

func (b *Backend) Listener() graph.Listener { return (*listenerHandle)(b) }

// Now returns seconds of audio rendered since start.
func (b *Backend) Now() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return float64(b.pos) / float64(b.rate)
}

// Decode runs the real decoder suite. Safe from any goroutine.
func (b *Backend) Decode(data []byte) (*graph.Buffer, error) {
	return decode.Bytes(data)
}

// SampleRate returns the device rate.
func (b *Backend) SampleRate() beep.SampleRate { return b.rate }

// queueCallback defers fn to the end of the current render block.
// Caller holds the backend lock.
func (b *Backend) queueCallback(fn func()) {
	b.pending = append(b.pending, fn)
}

// listenerHandle mutates the backend listener position.
type listenerHandle Backend

func (l *listenerHandle) SetPosition(x, y float64) {
	b := (*Backend)(l)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listenerX, b.listenerY = x, y
}

// destination is the terminal mixing node. It implements beep.Streamer
// over the whole graph.
type destination struct {
	backend *Backend
	inputs  []renderer
	scratch [][2]float64
}

func (d *destination) Connect(graph.Node) {}
func (d *destination) Disconnect()        {}

func (d *destination) addInput(r renderer) {
	d.inputs = append(d.inputs, r)
}

func (d *destination) removeInput(r renderer) {
	for i, in := range d.inputs {
		if in == r {
			d.inputs = append(d.inputs[:i], d.inputs[i+1:]...)
			return
		}
	}
}

// Stream renders one block of the full mix. Always fills the whole
// slice: an idle graph is silence, not end-of-stream.
func (d *destination) Stream(samples [][2]float64) (int, bool) {
	b := d.backend
	b.mu.Lock()

	for i := range samples {
		samples[i] = [2]float64{}
	}
	for _, in := range d.inputs {
		in.render(samples)
	}
	b.pos += int64(len(samples))

	fire := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
	return len(samples), true
}

func (d *destination) Err() error { return nil }
