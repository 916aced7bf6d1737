package adapter

import (
	"log/slog"

	"github.com/weftlabs/weft/internal/event"
)

// Engine is the model-checking engine the adapter drives. The engine
// owns the execution graph, the consistency axioms of the chosen memory
// model, and the exploration algorithm; the adapter only relies on the
// contract spelled out per method here.
//
// Labels are owned by the engine once submitted. The OldValueSupplier
// arguments are only valid for the duration of the call they accompany.
type Engine interface {
	// SetInitValGetter registers the capability the engine uses to ask
	// for the initial value of not-yet-written addresses. Called once,
	// before any other method.
	SetInitValGetter(g event.InitValGetter)

	// HandleExecutionStart begins a fresh exploration of one candidate
	// interleaving.
	HandleExecutionStart()

	// HandleExecutionEnd finishes the current exploration. The action
	// table carries every thread's final position. A non-nil result is
	// the engine's verdict on the whole execution.
	HandleExecutionEnd(actions []event.Action) *event.ModelError

	// HandleLoad resolves a read label: an observed value, "no
	// consistent value exists" (Unresolved), or an error.
	HandleLoad(lab *event.ReadLabel, supply event.OldValueSupplier) event.LoadResult

	// HandleStore commits a write label or reports an error.
	HandleStore(lab *event.WriteLabel, supply event.OldValueSupplier) event.StoreResult

	// HandleFence records a fence label.
	HandleFence(lab *event.FenceLabel)

	// HandleMalloc records an allocation label and returns the
	// engine-chosen address, guaranteed non-zero on success.
	HandleMalloc(lab *event.MallocLabel) uint64

	// HandleFree records a deallocation label.
	HandleFree(lab *event.FreeLabel)

	// HandleThreadCreate records a creation label and returns the
	// graph-assigned child thread id.
	HandleThreadCreate(lab *event.ThreadCreateLabel) event.ThreadID

	// HandleThreadJoin resolves a join: the child's return value once it
	// has finished, or Unresolved while it has not.
	HandleThreadJoin(lab *event.ThreadJoinLabel) event.LoadResult

	// HandleThreadFinish records a thread's final label.
	HandleThreadFinish(lab *event.ThreadFinishLabel)

	// HandleBlock marks the issuing thread unschedulable.
	HandleBlock(lab *event.BlockLabel)

	// ScheduleNext picks the next runnable thread given every thread's
	// current position and instruction-kind hint, or reports that none
	// is runnable.
	ScheduleNext(actions []event.Action) (event.ThreadID, bool)

	// CoMax returns the coherence-order-maximal label recorded for addr:
	// a *event.WriteLabel, or event.InitLabel when no write has happened
	// yet. Consulted by the initial-value bridge.
	CoMax(addr uint64) event.Label
}

// Adapter is the translation layer between the interpreter's
// one-thread-at-a-time calls and the engine's global execution graph.
// All methods must be called from the single driving goroutine.
type Adapter struct {
	engine Engine
	pos    *positionTable
	log    *slog.Logger

	// initVals maps addresses to their confirmed initial value.
	// Write-once per address; a conflicting second record is fatal.
	initVals map[uint64]event.Scalar

	// annotIDs assigns each mutex address a stable small id used to tag
	// its spin-loop reads. Grows for the lifetime of the session.
	annotIDs    map[uint64]uint32
	nextAnnotID uint32
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(a *Adapter) {
		a.log = log
	}
}

// New wires an Adapter to its engine and registers the initial-value
// getter capability. The returned adapter is ready for
// HandleExecutionStart.
func New(engine Engine, opts ...Option) *Adapter {
	a := &Adapter{
		engine:   engine,
		pos:      newPositionTable(),
		log:      slog.Default(),
		initVals: make(map[uint64]event.Scalar),
		annotIDs: make(map[uint64]uint32),
	}
	for _, opt := range opts {
		opt(a)
	}
	engine.SetInitValGetter(&initValSource{adapter: a})
	return a
}

// HandleExecutionStart resets per-execution state for a fresh
// exploration run: the position table collapses back to the single main
// thread at its initial position. The initial-value and annotation
// tables survive across runs: they describe the program, not one
// interleaving.
func (a *Adapter) HandleExecutionStart() {
	a.pos.reset()
	a.engine.HandleExecutionStart()
}

// HandleExecutionEnd closes the current exploration run and returns the
// engine's verdict, nil when the execution was consistent.
func (a *Adapter) HandleExecutionEnd() error {
	if merr := a.engine.HandleExecutionEnd(a.pos.snapshot()); merr != nil {
		return merr
	}
	return nil
}

// ScheduleNext answers the interpreter's "which thread runs next" query.
// It refreshes the current thread's instruction-kind hint (the only
// hint that can have changed since the last query) and forwards the
// whole action table to the engine's scheduler. ok=false means no thread
// is runnable: this branch of the exploration is exhausted or blocked.
//
// Pure query with respect to adapter state: no position moves here.
func (a *Adapter) ScheduleNext(curr event.ThreadID, kind event.ActionKind) (next event.ThreadID, ok bool) {
	a.pos.setKind("ScheduleNext", curr, kind)
	return a.engine.ScheduleNext(a.pos.snapshot())
}
