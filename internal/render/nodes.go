// ABOUTME: Render-graph nodes: gain, buffer source, stereo and spatial pan
// ABOUTME: Nodes add into their destination's mix under the backend lock
package render

import (
	"math"

	"github.com/embergarde/chorus/pkg/graph"
)

// renderer produces one block of audio, adding into dst. Called with
// the backend lock held, inside the destination's Stream.
type renderer interface {
	render(dst [][2]float64)
}

// sink accepts input connections. The destination and every
// intermediate node are sinks; sources are not.
type sink interface {
	addInput(r renderer)
	removeInput(r renderer)
}

// baseNode carries the wiring shared by all node types.
type baseNode struct {
	backend *Backend
	dst     sink
	inputs  []renderer
	scratch [][2]float64
}

func (n *baseNode) addInput(r renderer) {
	n.inputs = append(n.inputs, r)
}

func (n *baseNode) removeInput(r renderer) {
	for i, in := range n.inputs {
		if in == r {
			n.inputs = append(n.inputs[:i], n.inputs[i+1:]...)
			return
		}
	}
}

// connectAs rewires self into dst, detaching from any previous sink.
func (n *baseNode) connectAs(self renderer, dst graph.Node) {
	b := n.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if n.dst != nil {
		n.dst.removeInput(self)
		n.dst = nil
	}
	s, ok := dst.(sink)
	if !ok {
		return
	}
	s.addInput(self)
	n.dst = s
}

func (n *baseNode) disconnectAs(self renderer) {
	b := n.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if n.dst != nil {
		n.dst.removeInput(self)
		n.dst = nil
	}
}

// block returns a zeroed scratch buffer with the inputs mixed in.
func (n *baseNode) renderInputs(size int) [][2]float64 {
	if cap(n.scratch) < size {
		n.scratch = make([][2]float64, size)
	}
	s := n.scratch[:size]
	for i := range s {
		s[i] = [2]float64{}
	}
	for _, in := range n.inputs {
		in.render(s)
	}
	return s
}

// gainNode scales its mix by a scalar.
type gainNode struct {
	baseNode
	gain float64
}

func (g *gainNode) Connect(dst graph.Node) { g.connectAs(g, dst) }
func (g *gainNode) Disconnect()            { g.disconnectAs(g) }

func (g *gainNode) SetGain(gain float64) {
	g.backend.mu.Lock()
	defer g.backend.mu.Unlock()
	g.gain = gain
}

func (g *gainNode) render(dst [][2]float64) {
	s := g.renderInputs(len(dst))
	for i := range dst {
		dst[i][0] += s[i][0] * g.gain
		dst[i][1] += s[i][1] * g.gain
	}
}

// sourceNode plays one buffer with loop, rate and scheduled start.
type sourceNode struct {
	baseNode
	buf *graph.Buffer

	loop bool
	rate float64

	started bool
	stopped bool
	startAt int64   // device-sample time of first output frame
	cursor  float64 // fractional frame position in the buffer

	ended      func()
	endedFired bool
}

func (s *sourceNode) Connect(dst graph.Node) { s.connectAs(s, dst) }
func (s *sourceNode) Disconnect()            { s.disconnectAs(s) }

func (s *sourceNode) SetLoop(loop bool) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.loop = loop
}

func (s *sourceNode) SetRate(rate float64) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	if rate > 0 {
		s.rate = rate
	}
}

func (s *sourceNode) Start(when, offset float64) {
	b := s.backend
	b.mu.Lock()
	defer b.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.startAt = int64(when * float64(b.rate))
	if offset < 0 {
		offset = 0
	}
	s.cursor = offset * float64(s.buf.SampleRate)
}

func (s *sourceNode) Stop() {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.stopped = true
}

func (s *sourceNode) OnEnded(fn func()) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.ended = fn
}

func (s *sourceNode) render(dst [][2]float64) {
	if !s.started || s.stopped || s.buf == nil || len(s.buf.Frames) == 0 {
		return
	}

	b := s.backend
	// Buffer frames advanced per device frame: pitch times the ratio
	// of asset rate to device rate, so assets play at native speed on
	// any device.
	step := s.rate * float64(s.buf.SampleRate) / float64(b.rate)
	n := float64(len(s.buf.Frames))

	t := b.pos
	for i := range dst {
		if t+int64(i) < s.startAt {
			continue
		}
		if s.cursor >= n {
			if !s.loop {
				s.finishLocked()
				return
			}
			s.cursor = math.Mod(s.cursor, n)
		}
		l, r := s.sample(s.cursor)
		dst[i][0] += l
		dst[i][1] += r
		s.cursor += step
	}
	if s.cursor >= n && !s.loop {
		s.finishLocked()
	}
}

// sample reads the buffer at a fractional position with linear
// interpolation; the tail interpolates toward silence.
func (s *sourceNode) sample(pos float64) (l, r float64) {
	i := int(pos)
	frac := pos - float64(i)
	a := s.buf.Frames[i]
	var bfr [2]float64
	if j := i + 1; j < len(s.buf.Frames) {
		bfr = s.buf.Frames[j]
	} else if s.loop {
		bfr = s.buf.Frames[0]
	}
	l = a[0] + (bfr[0]-a[0])*frac
	r = a[1] + (bfr[1]-a[1])*frac
	return l, r
}

// finishLocked marks natural end-of-buffer and queues the ended hook.
// Caller holds the backend lock.
func (s *sourceNode) finishLocked() {
	s.stopped = true
	if s.ended != nil && !s.endedFired {
		s.endedFired = true
		s.backend.queueCallback(s.ended)
	}
}

// stereoPannerNode places the mix on the left-right axis, equal power.
type stereoPannerNode struct {
	baseNode
	pan float64
}

func (p *stereoPannerNode) Connect(dst graph.Node) { p.connectAs(p, dst) }
func (p *stereoPannerNode) Disconnect()            { p.disconnectAs(p) }

func (p *stereoPannerNode) SetPan(pan float64) {
	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	p.pan = math.Max(-1, math.Min(1, pan))
}

func (p *stereoPannerNode) render(dst [][2]float64) {
	s := p.renderInputs(len(dst))
	gl, gr := panGains(p.pan)
	for i := range dst {
		dst[i][0] += s[i][0] * gl
		dst[i][1] += s[i][1] * gr
	}
}

// spatialPannerNode derives gain and pan from listener distance, linear
// rolloff with factor 1.
type spatialPannerNode struct {
	baseNode
	params graph.SpatialParams
	x, y   float64
}

func (p *spatialPannerNode) Connect(dst graph.Node) { p.connectAs(p, dst) }
func (p *spatialPannerNode) Disconnect()            { p.disconnectAs(p) }

func (p *spatialPannerNode) SetPosition(x, y float64) {
	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	p.x, p.y = x, y
}

func (p *spatialPannerNode) render(dst [][2]float64) {
	s := p.renderInputs(len(dst))

	b := p.backend
	dx := p.x - b.listenerX
	dy := p.y - b.listenerY
	dist := math.Hypot(dx, dy)

	gain := distanceGain(dist, p.params.RefDistance, p.params.MaxDistance)
	pan := 0.0
	if dist > 1e-9 {
		pan = math.Max(-1, math.Min(1, dx/dist))
	}
	gl, gr := panGains(pan)

	for i := range dst {
		dst[i][0] += s[i][0] * gain * gl
		dst[i][1] += s[i][1] * gain * gr
	}
}

// panGains maps pan in [-1, 1] to equal-power channel gains.
func panGains(pan float64) (l, r float64) {
	x := (pan + 1) / 2 * math.Pi / 2
	return math.Cos(x), math.Sin(x)
}

// distanceGain is the linear distance model: 1 inside ref, 0 beyond
// max, a straight ramp between.
func distanceGain(dist, ref, max float64) float64 {
	if dist <= ref || max <= ref {
		return 1
	}
	if dist >= max {
		return 0
	}
	return 1 - (dist-ref)/(max-ref)
}
