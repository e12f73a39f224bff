// ABOUTME: Audio engine context with init/shutdown lifecycle
// ABOUTME: Owns the source registry, bus graph, instance table and queues
package engine

import (
	"errors"
	"log"
	"sync"
	"time"

	"github.com/embergarde/chorus/pkg/graph"
)

// MasterBus is the handle of the permanent master bus. It always exists
// and can never be destroyed.
const MasterBus uint32 = 1

// Config holds engine configuration
type Config struct {
	// RetryInterval is how often parked play requests are re-checked
	// against the source registry (default: 100ms)
	RetryInterval time.Duration

	// RetryLimit is how many sweeps a parked play request survives
	// before it is abandoned (default: 10)
	RetryLimit int

	// FinishedQueueSize bounds the finished-event queue (default: 256)
	FinishedQueueSize int
}

// Engine is one isolated audio engine. All state is local to the
// instance; nothing is ambient, so tests can run several side by side.
//
// Every exported method is safe on a nil *Engine and after Close: calls
// degrade to no-ops returning their documented sentinel, never an error.
// Mutation is serialized by a single mutex; decode completions and the
// deferred-play sweep take it before touching shared tables.
type Engine struct {
	mu      sync.Mutex
	cfg     Config
	backend graph.Backend
	closed  bool

	// Handles are monotonic per category and never reused.
	nextSource   uint32
	nextInstance uint32
	nextBus      uint32

	sources   map[uint32]*source
	buses     map[uint32]*bus
	instances map[uint32]*instance

	deferred   []*deferredPlay
	retryArmed bool

	finished []uint32

	listenerX, listenerY float64
}

// New creates an engine on top of the given rendering backend. The
// backend's lifetime is the caller's: Close releases every node the
// engine created but leaves the backend itself open.
func New(backend graph.Backend, cfg Config) (*Engine, error) {
	if backend == nil {
		return nil, errors.New("engine: nil backend")
	}

	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = 100 * time.Millisecond
	}
	if cfg.RetryLimit == 0 {
		cfg.RetryLimit = 10
	}
	if cfg.FinishedQueueSize == 0 {
		cfg.FinishedQueueSize = 256
	}

	e := &Engine{
		cfg:       cfg,
		backend:   backend,
		nextBus:   MasterBus,
		sources:   make(map[uint32]*source),
		buses:     make(map[uint32]*bus),
		instances: make(map[uint32]*instance),
	}

	master := backend.NewGain()
	master.SetGain(1)
	master.Connect(backend.Destination())
	e.buses[MasterBus] = &bus{volume: 1, gain: master}

	return e, nil
}

// Close stops every live instance, drops all pending work and turns
// every further call into a no-op. It does not close the backend.
func (e *Engine) Close() {
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}

	for h, inst := range e.instances {
		if inst.chain != nil {
			inst.chain.release()
		}
		delete(e.instances, h)
	}
	for _, b := range e.buses {
		b.gain.Disconnect()
	}
	e.deferred = nil
	e.finished = nil
	e.closed = true

	log.Printf("audio engine shut down")
}

// Stats is a point-in-time snapshot of engine load.
type Stats struct {
	Sources  int
	Playing  int
	Paused   int
	Deferred int
	Finished int
	Buses    int
}

// Stats returns current engine counters.
func (e *Engine) Stats() Stats {
	if e == nil {
		return Stats{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	var s Stats
	s.Sources = len(e.sources)
	s.Deferred = len(e.deferred)
	s.Finished = len(e.finished)
	s.Buses = len(e.buses)
	for _, inst := range e.instances {
		if inst.paused {
			s.Paused++
		} else {
			s.Playing++
		}
	}
	return s
}

// Now exposes the backend clock, mainly for tooling.
func (e *Engine) Now() float64 {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return 0
	}
	return e.backend.Now()
}
