// ABOUTME: Recorded fake nodes for the test backend
// ABOUTME: Each node remembers its wiring and every value pushed to it
package audiotest

import "github.com/embergarde/chorus/pkg/graph"

// Gain is a fake gain stage.
type Gain struct {
	backend *Backend

	Gain         float64
	Dst          graph.Node
	Disconnected bool
}

func (g *Gain) Connect(dst graph.Node) {
	g.backend.mu.Lock()
	defer g.backend.mu.Unlock()
	g.Dst = dst
	g.Disconnected = false
}

func (g *Gain) Disconnect() {
	g.backend.mu.Lock()
	defer g.backend.mu.Unlock()
	g.Dst = nil
	g.Disconnected = true
}

func (g *Gain) SetGain(gain float64) {
	g.backend.mu.Lock()
	defer g.backend.mu.Unlock()
	g.Gain = gain
}

// Value returns the current gain under the backend lock.
func (g *Gain) Value() float64 {
	g.backend.mu.Lock()
	defer g.backend.mu.Unlock()
	return g.Gain
}

// Source is a fake buffer source. Playback "runs" only as far as the
// fake clock is advanced; an ended hook fires once the clock passes the
// scheduled end of a non-looping source.
type Source struct {
	backend *Backend

	Buf  *graph.Buffer
	Loop bool
	Rate float64

	Started bool
	Stopped bool
	StartAt float64
	Offset  float64

	Dst          graph.Node
	Disconnected bool

	ended      func()
	endedFired bool
}

func (s *Source) Connect(dst graph.Node) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.Dst = dst
	s.Disconnected = false
}

func (s *Source) Disconnect() {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.Dst = nil
	s.Disconnected = true
}

func (s *Source) SetLoop(loop bool) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.Loop = loop
}

func (s *Source) SetRate(rate float64) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.Rate = rate
}

func (s *Source) Start(when, offset float64) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.Started = true
	s.StartAt = when
	s.Offset = offset
}

func (s *Source) Stop() {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.Stopped = true
}

func (s *Source) OnEnded(fn func()) {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.ended = fn
}

// IsStopped reports whether Stop was called, under the backend lock.
func (s *Source) IsStopped() bool {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	return s.Stopped
}

// dueLocked returns the ended hook if playback finished by the given
// clock time. Caller holds the backend lock.
func (s *Source) dueLocked(clock float64) func() {
	if !s.Started || s.Stopped || s.Loop || s.endedFired || s.ended == nil {
		return nil
	}
	remaining := (s.Buf.Duration() - s.Offset) / s.Rate
	if clock < s.StartAt+remaining {
		return nil
	}
	s.endedFired = true
	return s.ended
}

// StereoPanner is a fake left-right panner.
type StereoPanner struct {
	backend *Backend

	Pan          float64
	Dst          graph.Node
	Disconnected bool
}

func (p *StereoPanner) Connect(dst graph.Node) {
	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	p.Dst = dst
	p.Disconnected = false
}

func (p *StereoPanner) Disconnect() {
	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	p.Dst = nil
	p.Disconnected = true
}

func (p *StereoPanner) SetPan(pan float64) {
	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	p.Pan = pan
}

// SpatialPanner is a fake distance panner.
type SpatialPanner struct {
	backend *Backend

	Params       graph.SpatialParams
	X, Y         float64
	Dst          graph.Node
	Disconnected bool
}

func (p *SpatialPanner) Connect(dst graph.Node) {
	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	p.Dst = dst
	p.Disconnected = false
}

func (p *SpatialPanner) Disconnect() {
	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	p.Dst = nil
	p.Disconnected = true
}

func (p *SpatialPanner) SetPosition(x, y float64) {
	p.backend.mu.Lock()
	defer p.backend.mu.Unlock()
	p.X, p.Y = x, y
}
