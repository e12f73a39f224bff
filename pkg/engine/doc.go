// ABOUTME: Package documentation for the playback engine core
// ABOUTME: Handle-based sources, instances, buses and polling events
// Package engine is the playback core of the chorus audio runtime.
//
// The engine exposes a narrow handle-based call surface to game logic:
// sources are decoded assets, instances are live playbacks of a source,
// and buses are mixing points between instances and the master output.
// All handles are opaque positive integers; 0 always means "none".
//
// No call blocks and no call fails loudly. Load returns a handle before
// decoding finishes; Play on a still-decoding source parks the request
// and retries it on a timer; operations on unknown handles are silent
// no-ops. Completion of non-looping instances is reported through
// PollFinished, which the caller drains once per frame.
//
// Example:
//
//	eng, err := engine.New(backend, engine.Config{})
//	src := eng.Load(wavBytes)
//	inst := eng.Play(engine.PlayParams{Source: src, Volume: 0.8, Callback: true})
//	for eng.IsPlaying(inst) {
//	    if h := eng.PollFinished(); h != 0 {
//	        // instance h reached end of buffer
//	    }
//	}
package engine
