// ABOUTME: Fake rendering backend with a hand-cranked clock
// ABOUTME: Records node graphs so tests can assert chain topology
package audiotest

import (
	"errors"
	"sync"

	"github.com/embergarde/chorus/pkg/graph"
)

// Backend is an in-memory graph.Backend for engine tests. Time only
// moves when Advance is called; ended hooks fire from Advance on the
// calling goroutine, like a real backend firing from its render thread.
//
// Every node ever created is recorded, so tests can inspect chain
// topology even after the engine released the nodes.
type Backend struct {
	mu    sync.Mutex
	clock float64

	listenerX, listenerY float64

	// DecodeFunc overrides decoding. When nil, Decode returns a one
	// second silent buffer for non-empty input and an error for empty
	// input.
	DecodeFunc func(data []byte) (*graph.Buffer, error)

	decodeGate chan struct{}

	dest destNode

	Gains          []*Gain
	Sources        []*Source
	StereoPanners  []*StereoPanner
	SpatialPanners []*SpatialPanner
}

// New creates a fake backend with the clock at 0.
func New() *Backend {
	return &Backend{}
}

// Silence returns a silent stereo buffer of the given length, the
// standard fixture for instance tests.
func Silence(seconds float64) *graph.Buffer {
	const rate = 48000
	n := int(seconds * rate)
	return &graph.Buffer{
		Frames:     make([][2]float64, n),
		SampleRate: rate,
	}
}

// BlockDecode makes every following Decode call wait until
// ReleaseDecodes. Lets tests hold a source in the "still decoding"
// state deterministically.
func (b *Backend) BlockDecode() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.decodeGate = make(chan struct{})
}

// ReleaseDecodes unblocks all decodes held by BlockDecode.
func (b *Backend) ReleaseDecodes() {
	b.mu.Lock()
	gate := b.decodeGate
	b.decodeGate = nil
	b.mu.Unlock()
	if gate != nil {
		close(gate)
	}
}

// Advance moves the clock forward and fires ended hooks for every
// non-looping source whose playback ran out inside the new window.
func (b *Backend) Advance(seconds float64) {
	b.mu.Lock()
	b.clock += seconds
	var fire []func()
	for _, s := range b.Sources {
		if fn := s.dueLocked(b.clock); fn != nil {
			fire = append(fire, fn)
		}
	}
	b.mu.Unlock()

	for _, fn := range fire {
		fn()
	}
}

// Clock returns the current fake time.
func (b *Backend) Clock() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clock
}

// ListenerPosition returns the last position pushed to the listener.
func (b *Backend) ListenerPosition() (x, y float64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.listenerX, b.listenerY
}

func (b *Backend) NewGain() graph.GainNode {
	b.mu.Lock()
	defer b.mu.Unlock()
	g := &Gain{backend: b, Gain: 1}
	b.Gains = append(b.Gains, g)
	return g
}

func (b *Backend) NewBufferSource(buf *graph.Buffer) graph.SourceNode {
	b.mu.Lock()
	defer b.mu.Unlock()
	s := &Source{backend: b, Buf: buf, Rate: 1}
	b.Sources = append(b.Sources, s)
	return s
}

func (b *Backend) NewStereoPanner() graph.StereoPannerNode {
	b.mu.Lock()
	defer b.mu.Unlock()
	p := &StereoPanner{backend: b}
	b.StereoPanners = append(b.StereoPanners, p)
	return p
}

func (b *Backend) NewSpatialPanner(p graph.SpatialParams) graph.SpatialPannerNode {
	b.mu.Lock()
	defer b.mu.Unlock()
	sp := &SpatialPanner{backend: b, Params: p}
	b.SpatialPanners = append(b.SpatialPanners, sp)
	return sp
}

func (b *Backend) Destination() graph.Node { return &b.dest }

func (b *Backend) Listener() graph.Listener { return (*listener)(b) }

func (b *Backend) Now() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.clock
}

func (b *Backend) Decode(data []byte) (*graph.Buffer, error) {
	b.mu.Lock()
	gate := b.decodeGate
	fn := b.DecodeFunc
	b.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if fn != nil {
		return fn(data)
	}
	if len(data) == 0 {
		return nil, errors.New("audiotest: empty asset")
	}
	return Silence(1), nil
}

func (b *Backend) Close() error { return nil }

// LastSource returns the most recently created source node.
func (b *Backend) LastSource() *Source {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Sources) == 0 {
		return nil
	}
	return b.Sources[len(b.Sources)-1]
}

// LastGain returns the most recently created gain node.
func (b *Backend) LastGain() *Gain {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Gains) == 0 {
		return nil
	}
	return b.Gains[len(b.Gains)-1]
}

type destNode struct{}

func (*destNode) Connect(graph.Node) {}
func (*destNode) Disconnect()        {}

type listener Backend

func (l *listener) SetPosition(x, y float64) {
	b := (*Backend)(l)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listenerX, b.listenerY = x, y
}
