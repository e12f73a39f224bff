// ABOUTME: Deferred play queue for sources still decoding
// ABOUTME: Timer-driven sweep, re-armed only while work remains
package engine

import (
	"log"
	"time"
)

// deferredPlay is a parked play request: a full parameter snapshot plus
// the handle the caller already holds.
type deferredPlay struct {
	handle  uint32
	params  PlayParams
	retries int
}

// enqueueDeferred parks a request and arms the sweep timer. Called with
// the engine lock held.
func (e *Engine) enqueueDeferred(h uint32, p PlayParams) {
	e.deferred = append(e.deferred, &deferredPlay{handle: h, params: p})
	e.armRetry()
}

// armRetry schedules a single sweep. Only one timer is ever in flight;
// the sweep re-arms itself while the queue is non-empty.
func (e *Engine) armRetry() {
	if e.retryArmed || e.closed {
		return
	}
	e.retryArmed = true
	time.AfterFunc(e.cfg.RetryInterval, e.sweepDeferred)
}

// sweepDeferred re-checks every parked request. Requests whose source
// became ready are promoted through the same construction path as an
// immediate play; the rest age, and past the retry ceiling they are
// abandoned for good.
func (e *Engine) sweepDeferred() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.retryArmed = false
	if e.closed {
		return
	}

	keep := e.deferred[:0]
	for _, d := range e.deferred {
		src, ok := e.sources[d.params.Source]
		if ok && src.buf != nil {
			e.startInstance(d.handle, d.params, src.buf)
			continue
		}
		d.retries++
		if d.retries >= e.cfg.RetryLimit {
			log.Printf("instance %d: source %d never became ready, abandoning play after %d retries",
				d.handle, d.params.Source, d.retries)
			continue
		}
		keep = append(keep, d)
	}
	e.deferred = keep

	if len(e.deferred) > 0 {
		e.armRetry()
	}
}

// cancelDeferred drops a parked request by instance handle. Called with
// the engine lock held.
func (e *Engine) cancelDeferred(h uint32) {
	for i, d := range e.deferred {
		if d.handle == h {
			e.deferred = append(e.deferred[:i], e.deferred[i+1:]...)
			return
		}
	}
}
