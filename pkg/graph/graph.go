// ABOUTME: Boundary contract with the host audio rendering engine
// ABOUTME: Node, panner, clock and decode primitives the engine builds on
package graph

// Node is one stage of a rendering chain. Connect routes this node's
// output into dst; Disconnect detaches it from whatever it currently
// feeds. A node feeds at most one destination at a time.
type Node interface {
	Connect(dst Node)
	Disconnect()
}

// GainNode scales its mixed inputs by a scalar gain.
type GainNode interface {
	Node
	SetGain(gain float64)
}

// SourceNode plays one decoded buffer. Start schedules playback at the
// given clock time, seeking offset seconds into the buffer. The ended
// callback fires exactly once when playback reaches the end of the
// buffer naturally; it never fires after Stop, and never for a looping
// source.
type SourceNode interface {
	Node
	SetLoop(loop bool)
	SetRate(rate float64)
	Start(when, offset float64)
	Stop()
	OnEnded(fn func())
}

// StereoPannerNode places its input on the left-right axis, pan in [-1, 1].
type StereoPannerNode interface {
	Node
	SetPan(pan float64)
}

// SpatialPannerNode attenuates and pans its input from the distance and
// direction between its position and the backend listener.
type SpatialPannerNode interface {
	Node
	SetPosition(x, y float64)
}

// Listener is the single point all spatial panners measure against.
type Listener interface {
	SetPosition(x, y float64)
}

// SpatialParams configures a spatial panner at creation time. The
// rolloff model is linear with factor 1: gain falls from 1 at RefDistance
// to 0 at MaxDistance.
type SpatialParams struct {
	RefDistance float64
	MaxDistance float64
}

// Backend is the host rendering engine the playback core drives. Node
// constructors never fail; a backend that has lost its device renders
// silence instead. Decode is synchronous and may be called from any
// goroutine.
type Backend interface {
	NewGain() GainNode
	NewBufferSource(buf *Buffer) SourceNode
	NewStereoPanner() StereoPannerNode
	NewSpatialPanner(p SpatialParams) SpatialPannerNode

	// Destination is the terminal hardware output node.
	Destination() Node

	Listener() Listener

	// Now returns the monotonic engine clock in seconds.
	Now() float64

	Decode(data []byte) (*Buffer, error)

	Close() error
}
