// ABOUTME: Mix-bus graph feeding the master output
// ABOUTME: Bus 1 is the permanent master; mute preserves the volume value
package engine

import "github.com/embergarde/chorus/pkg/graph"

// bus is a named mixing point: one gain stage feeding the master (or,
// for the master itself, the hardware destination).
type bus struct {
	volume float64
	muted  bool
	gain   graph.GainNode
}

// CreateBus adds a new bus routed into the master, volume 1, unmuted.
func (e *Engine) CreateBus() uint32 {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0
	}

	g := e.backend.NewGain()
	g.SetGain(1)
	g.Connect(e.buses[MasterBus].gain)

	e.nextBus++
	h := e.nextBus
	e.buses[h] = &bus{volume: 1, gain: g}
	return h
}

// DestroyBus disconnects and removes a bus. Rejected for the master bus
// and below. Instances still routed to the bus keep their now-detached
// gain node; their future volume changes go nowhere, which is the
// documented permissive behavior.
func (e *Engine) DestroyBus(h uint32) {
	if e == nil || h <= MasterBus {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	b, ok := e.buses[h]
	if !ok {
		return
	}
	b.gain.Disconnect()
	delete(e.buses, h)
}

// SetBusVolume stores the bus volume and applies it unless muted.
func (e *Engine) SetBusVolume(h uint32, volume float64) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	b, ok := e.buses[h]
	if !ok {
		return
	}
	b.volume = volume
	if !b.muted {
		b.gain.SetGain(volume)
	}
}

// BusVolume returns the stored volume, 1.0 for unknown handles.
func (e *Engine) BusVolume(h uint32) float64 {
	if e == nil {
		return 1
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 1
	}
	b, ok := e.buses[h]
	if !ok {
		return 1
	}
	return b.volume
}

// SetBusMuted zeroes the effective gain without touching the stored
// volume, so unmuting restores it exactly.
func (e *Engine) SetBusMuted(h uint32, muted bool) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	b, ok := e.buses[h]
	if !ok {
		return
	}
	b.muted = muted
	if muted {
		b.gain.SetGain(0)
	} else {
		b.gain.SetGain(b.volume)
	}
}

// BusMuted reports the mute state, false for unknown handles.
func (e *Engine) BusMuted(h uint32) bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	b, ok := e.buses[h]
	if !ok {
		return false
	}
	return b.muted
}

// busOutput resolves an instance's audible bus at play time. Unknown
// handles and anything at or below the master fall back to the master.
func (e *Engine) busOutput(h uint32) graph.Node {
	if h > MasterBus {
		if b, ok := e.buses[h]; ok {
			return b.gain
		}
	}
	return e.buses[MasterBus].gain
}
