// ABOUTME: Instance table and the play/pause/resume state machine
// ABOUTME: Rendering chains are rebuilt from scratch on every resume
package engine

import (
	"math"

	"github.com/embergarde/chorus/pkg/graph"
)

// PlayParams describes one play request. Zero values that make no sense
// are normalized: Pitch <= 0 becomes 1, RefDistance <= 0 becomes 1,
// MaxDistance <= RefDistance becomes 10000, Bus 0 becomes the master.
type PlayParams struct {
	Source uint32
	Bus    uint32

	Volume float64
	Pan    float64
	Pitch  float64
	Loop   bool

	// Delay postpones the start by this many seconds of engine time.
	Delay float64

	Spatial     bool
	X, Y        float64
	RefDistance float64
	MaxDistance float64

	// Callback marks the instance for the finished-event queue on
	// natural completion.
	Callback bool
}

func (p PlayParams) normalized() PlayParams {
	if p.Bus < MasterBus {
		p.Bus = MasterBus
	}
	if p.Volume < 0 {
		p.Volume = 0
	}
	if p.Pitch <= 0 {
		p.Pitch = 1
	}
	if p.RefDistance <= 0 {
		p.RefDistance = 1
	}
	if p.MaxDistance <= p.RefDistance {
		p.MaxDistance = 10000
	}
	return p
}

// chainKind is the rendering-chain variant, fixed at play time. A pause
// and resume rebuilds the chain but never changes its variant.
type chainKind int

const (
	chainPlain chainKind = iota
	chainPanned
	chainSpatial
)

// chain owns the transient rendering nodes of one playback segment.
type chain struct {
	kind    chainKind
	src     graph.SourceNode
	stereo  graph.StereoPannerNode
	spatial graph.SpatialPannerNode
	gain    graph.GainNode
}

// release stops the source and detaches every owned node. Safe to call
// on a chain whose source already stopped.
func (c *chain) release() {
	c.src.Stop()
	c.src.Disconnect()
	if c.stereo != nil {
		c.stereo.Disconnect()
	}
	if c.spatial != nil {
		c.spatial.Disconnect()
	}
	c.gain.Disconnect()
}

// instance is one live playback of a source. The handle and logical
// state outlive any individual chain.
type instance struct {
	handle uint32
	source uint32
	bus    uint32
	kind   chainKind

	volume float64
	pan    float64
	pitch  float64
	loop   bool

	spatial          bool
	x, y             float64
	refDist, maxDist float64

	callback bool

	paused      bool
	startTime   float64
	pauseOffset float64

	chain *chain
}

// Play starts a new instance of a source and returns its handle, always
// synchronously. If the source is still decoding the request is parked
// in the deferred queue and the pre-allocated handle is returned; 0 is
// returned only for unknown sources or a dead engine.
func (e *Engine) Play(p PlayParams) uint32 {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0
	}

	p = p.normalized()
	src, ok := e.sources[p.Source]
	if !ok {
		return 0
	}

	e.nextInstance++
	h := e.nextInstance

	if src.buf == nil {
		// Still decoding (or failed; the sweep gives up either way).
		e.enqueueDeferred(h, p)
		return h
	}

	e.startInstance(h, p, src.buf)
	return h
}

// startInstance materializes a Playing instance. Shared by immediate
// play and deferred promotion so both build identical chains.
func (e *Engine) startInstance(h uint32, p PlayParams, buf *graph.Buffer) {
	inst := &instance{
		handle:   h,
		source:   p.Source,
		bus:      p.Bus,
		volume:   p.Volume,
		pan:      p.Pan,
		pitch:    p.Pitch,
		loop:     p.Loop,
		spatial:  p.Spatial,
		x:        p.X,
		y:        p.Y,
		refDist:  p.RefDistance,
		maxDist:  p.MaxDistance,
		callback: p.Callback,
	}
	switch {
	case p.Spatial:
		inst.kind = chainSpatial
	case p.Pan != 0:
		inst.kind = chainPanned
	default:
		inst.kind = chainPlain
	}

	now := e.backend.Now()
	inst.startTime = now + p.Delay
	inst.chain = e.buildChain(inst, buf, inst.startTime, 0)
	e.instances[h] = inst
}

// buildChain constructs source -> [panner] -> gain -> bus, installs the
// natural-completion hook and starts playback at the given offset.
func (e *Engine) buildChain(inst *instance, buf *graph.Buffer, when, offset float64) *chain {
	c := &chain{kind: inst.kind}

	c.src = e.backend.NewBufferSource(buf)
	c.src.SetLoop(inst.loop)
	c.src.SetRate(inst.pitch)

	c.gain = e.backend.NewGain()
	c.gain.SetGain(inst.volume)

	switch inst.kind {
	case chainSpatial:
		c.spatial = e.backend.NewSpatialPanner(graph.SpatialParams{
			RefDistance: inst.refDist,
			MaxDistance: inst.maxDist,
		})
		c.spatial.SetPosition(inst.x, inst.y)
		c.src.Connect(c.spatial)
		c.spatial.Connect(c.gain)
	case chainPanned:
		c.stereo = e.backend.NewStereoPanner()
		c.stereo.SetPan(inst.pan)
		c.src.Connect(c.stereo)
		c.stereo.Connect(c.gain)
	default:
		c.src.Connect(c.gain)
	}

	c.gain.Connect(e.busOutput(inst.bus))

	h := inst.handle
	node := c.src
	c.src.OnEnded(func() {
		e.finishNaturally(h, node)
	})
	c.src.Start(when, offset)
	return c
}

// finishNaturally handles the backend's end-of-buffer notification. The
// node identity check discards hooks from chains released by a pause or
// an explicit stop racing the notification.
func (e *Engine) finishNaturally(h uint32, node graph.SourceNode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	inst, ok := e.instances[h]
	if !ok || inst.chain == nil || inst.chain.src != node {
		return
	}
	if inst.loop {
		// Looping sources never end naturally.
		return
	}

	inst.chain.release()
	inst.chain = nil
	delete(e.instances, h)

	if inst.callback {
		e.pushFinished(h)
	}
}

// Pause freezes an instance: the playhead position is captured and the
// whole rendering chain is torn down, because the underlying source
// primitive cannot restart mid-buffer in place. No-op if already paused
// or unknown.
func (e *Engine) Pause(h uint32) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	inst, ok := e.instances[h]
	if !ok || inst.paused {
		return
	}

	elapsed := e.backend.Now() - inst.startTime
	if elapsed < 0 {
		elapsed = 0
	}
	dur := e.sourceDuration(inst.source)
	if dur > 0 {
		if inst.loop {
			elapsed = math.Mod(elapsed, dur)
		} else if elapsed > dur {
			elapsed = dur
		}
	}
	inst.pauseOffset = elapsed

	if inst.chain != nil {
		inst.chain.release()
		inst.chain = nil
	}
	inst.paused = true
}

// Resume rebuilds the rendering chain from the stored source buffer,
// seeking to the captured playhead, and restores the same panner/gain
// topology the instance had before the pause. No-op if not paused.
func (e *Engine) Resume(h uint32) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	inst, ok := e.instances[h]
	if !ok || !inst.paused {
		return
	}
	src, ok := e.sources[inst.source]
	if !ok || src.buf == nil {
		// Source destroyed while paused; the instance stays inert.
		return
	}

	now := e.backend.Now()
	inst.startTime = now - inst.pauseOffset
	inst.chain = e.buildChain(inst, src.buf, now, inst.pauseOffset)
	inst.paused = false
}

// Stop tears an instance down and removes it from the table. Explicit
// stops never emit a finished event. A pending deferred request for the
// handle is cancelled so a late decode cannot revive it.
func (e *Engine) Stop(h uint32) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	e.cancelDeferred(h)

	inst, ok := e.instances[h]
	if !ok {
		return
	}
	if inst.chain != nil {
		inst.chain.release()
		inst.chain = nil
	}
	delete(e.instances, h)
}

// StopAll stops every instance routed to the given bus, or every
// instance when bus is 0. Matching deferred requests are dropped too.
func (e *Engine) StopAll(bus uint32) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	for h, inst := range e.instances {
		if bus != 0 && inst.bus != bus {
			continue
		}
		if inst.chain != nil {
			inst.chain.release()
			inst.chain = nil
		}
		delete(e.instances, h)
	}

	keep := e.deferred[:0]
	for _, d := range e.deferred {
		if bus == 0 || d.params.Bus == bus {
			continue
		}
		keep = append(keep, d)
	}
	e.deferred = keep
}

// SetVolume sets an instance's own gain, independent of its bus.
func (e *Engine) SetVolume(h uint32, volume float64) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	inst, ok := e.instances[h]
	if !ok {
		return
	}
	if volume < 0 {
		volume = 0
	}
	inst.volume = volume
	if inst.chain != nil {
		inst.chain.gain.SetGain(volume)
	}
}

// SetPan adjusts left-right placement. Ignored on spatial instances and
// on instances that started with pan 0 (their chain has no pan stage).
func (e *Engine) SetPan(h uint32, pan float64) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	inst, ok := e.instances[h]
	if !ok || inst.kind != chainPanned {
		return
	}
	inst.pan = pan
	if inst.chain != nil && inst.chain.stereo != nil {
		inst.chain.stereo.SetPan(pan)
	}
}

// SetPitch changes the playback-rate scalar. Non-positive values are
// ignored.
func (e *Engine) SetPitch(h uint32, pitch float64) {
	if e == nil || pitch <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	inst, ok := e.instances[h]
	if !ok {
		return
	}
	inst.pitch = pitch
	if inst.chain != nil {
		inst.chain.src.SetRate(pitch)
	}
}

// SetLooping toggles looping on a live instance.
func (e *Engine) SetLooping(h uint32, loop bool) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	inst, ok := e.instances[h]
	if !ok {
		return
	}
	inst.loop = loop
	if inst.chain != nil {
		inst.chain.src.SetLoop(loop)
	}
}

// SetPosition moves a spatial instance. Ignored on non-spatial ones.
func (e *Engine) SetPosition(h uint32, x, y float64) {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	inst, ok := e.instances[h]
	if !ok || !inst.spatial {
		return
	}
	inst.x, inst.y = x, y
	if inst.chain != nil && inst.chain.spatial != nil {
		inst.chain.spatial.SetPosition(x, y)
	}
}

// IsPlaying reports whether the instance exists and is not paused.
func (e *Engine) IsPlaying(h uint32) bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	inst, ok := e.instances[h]
	return ok && !inst.paused
}

// IsPaused reports whether the instance exists and is paused.
func (e *Engine) IsPaused(h uint32) bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return false
	}
	inst, ok := e.instances[h]
	return ok && inst.paused
}

// Time returns the playhead in seconds: the captured offset while
// paused, elapsed clamped to the duration while playing, elapsed modulo
// duration for looping instances, and 0 for stopped or unknown handles.
func (e *Engine) Time(h uint32) float64 {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0
	}
	inst, ok := e.instances[h]
	if !ok {
		return 0
	}
	if inst.paused {
		return inst.pauseOffset
	}

	elapsed := e.backend.Now() - inst.startTime
	if elapsed < 0 {
		return 0
	}
	dur := e.sourceDuration(inst.source)
	if dur <= 0 {
		return 0
	}
	if inst.loop {
		return math.Mod(elapsed, dur)
	}
	return math.Min(elapsed, dur)
}
