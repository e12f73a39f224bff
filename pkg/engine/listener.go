// ABOUTME: 2D listener position for spatial instances
// ABOUTME: A single point, overwritten in place, no interpolation
package engine

// SetListenerPosition moves the listener every spatial panner measures
// distance and direction against.
func (e *Engine) SetListenerPosition(x, y float64) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.listenerX, e.listenerY = x, y
	e.backend.Listener().SetPosition(x, y)
}

// ListenerPosition returns the last position set, (0, 0) initially.
func (e *Engine) ListenerPosition() (x, y float64) {
	if e == nil {
		return 0, 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.listenerX, e.listenerY
}
