// ABOUTME: Finished-event FIFO drained by per-frame polling
// ABOUTME: Populated only by natural completion of callback instances
package engine

import "log"

// pushFinished appends a handle to the finished queue. Called with the
// engine lock held. The queue is bounded; overflow drops the oldest
// event rather than growing without limit.
func (e *Engine) pushFinished(h uint32) {
	if len(e.finished) >= e.cfg.FinishedQueueSize {
		log.Printf("finished-event queue full, dropping event for instance %d", e.finished[0])
		e.finished = e.finished[1:]
	}
	e.finished = append(e.finished, h)
}

// PollFinished pops the oldest finished-instance handle, or 0 when no
// event is pending. This is the only completion channel: the caller is
// expected to poll once per frame.
func (e *Engine) PollFinished() uint32 {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed || len(e.finished) == 0 {
		return 0
	}
	h := e.finished[0]
	e.finished = e.finished[1:]
	return h
}
