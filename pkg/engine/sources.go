// ABOUTME: Source registry with asynchronous decode population
// ABOUTME: Handles are issued synchronously, buffers arrive later
package engine

import (
	"log"

	"github.com/embergarde/chorus/pkg/graph"
)

// source is one registry entry. buf stays nil until decode completes;
// a failed decode leaves the entry permanently unresolved.
type source struct {
	buf    *graph.Buffer
	failed bool
}

// Load reserves a source handle and starts decoding in the background.
// The handle is valid immediately; Duration reports 0 and plays are
// parked until the decode lands. A decode failure is logged and the
// handle never becomes playable.
func (e *Engine) Load(data []byte) uint32 {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0
	}

	e.nextSource++
	h := e.nextSource
	e.sources[h] = &source{}

	go e.decodeSource(h, data)

	return h
}

// decodeSource runs off the engine context; the completion is marshaled
// back by taking the engine mutex before touching the registry.
func (e *Engine) decodeSource(h uint32, data []byte) {
	buf, err := e.backend.Decode(data)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	src, ok := e.sources[h]
	if !ok {
		// Destroyed while decoding.
		return
	}
	if err != nil {
		src.failed = true
		log.Printf("source %d: decode failed: %v", h, err)
		return
	}
	src.buf = buf
}

// DestroySource removes a source from the registry. Instances already
// playing from it are unaffected; destroying while referenced is the
// caller's problem to avoid.
func (e *Engine) DestroySource(h uint32) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	delete(e.sources, h)
}

// Duration returns the decoded length in seconds, or 0 if the handle is
// unknown or the source has not finished decoding.
func (e *Engine) Duration(h uint32) float64 {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0
	}
	src, ok := e.sources[h]
	if !ok || src.buf == nil {
		return 0
	}
	return src.buf.Duration()
}

// sourceDuration is the lock-held variant used by instance math.
func (e *Engine) sourceDuration(h uint32) float64 {
	src, ok := e.sources[h]
	if !ok || src.buf == nil {
		return 0
	}
	return src.buf.Duration()
}
