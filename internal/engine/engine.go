package engine

import (
	"log/slog"

	"github.com/weftlabs/weft/internal/event"
)

// threadState is the engine-side view of one thread's schedulability.
type threadState struct {
	finished  bool
	blocked   bool
	blockAddr uint64 // mutex address for lock-not-acquired blocks
	waitingOn int    // child thread id an unresolved join parked us on, -1 otherwise
	retVal    event.Scalar
}

func newThreadState() threadState {
	return threadState{waitingOn: -1}
}

// allocBase is the first address the bump allocator hands out. Non-zero
// so a successful allocation can never collide with the null-address
// contract.
const allocBase uint64 = 0x10000

// Engine is a sequentially consistent reference engine. One Engine
// instance spans a whole verification session; per-execution state (the
// graph, thread table, allocator) resets at every execution start while
// the exploration counters accumulate across runs.
//
// Not safe for concurrent use: the adapter drives it from one goroutine.
type Engine struct {
	policy  Policy
	sched   *scheduler
	log     *slog.Logger
	getter  event.InitValGetter
	verdict *event.ModelError

	graph    *graph
	threads  []threadState
	nextAddr uint64

	explored uint64
	blocked  uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) {
		e.log = log
	}
}

// New creates an Engine with the given scheduling policy and seed.
func New(policy Policy, seed int64, opts ...Option) *Engine {
	e := &Engine{
		policy: policy,
		sched:  newScheduler(policy, seed),
		log:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.resetExecution()
	return e
}

func (e *Engine) resetExecution() {
	e.graph = newGraph()
	e.threads = e.threads[:0]
	e.threads = append(e.threads, newThreadState())
	e.nextAddr = allocBase
	e.verdict = nil
	e.sched.reset()
}

// Reseed replaces the scheduler's random source. The exploration driver
// calls this between runs so PolicyRandom samples fresh interleavings.
func (e *Engine) Reseed(seed int64) {
	e.sched.reseed(seed)
}

// SetInitValGetter registers the adapter's initial-value capability.
func (e *Engine) SetInitValGetter(g event.InitValGetter) {
	e.getter = g
}

// HandleExecutionStart discards per-execution state for a fresh run.
func (e *Engine) HandleExecutionStart() {
	e.log.Debug("execution start")
	e.resetExecution()
}

// HandleExecutionEnd closes the run and updates the exploration
// counters: a run with any still-blocked unfinished thread counts as
// blocked, everything else as a complete execution.
func (e *Engine) HandleExecutionEnd(actions []event.Action) *event.ModelError {
	stuck := false
	for tid := range e.threads {
		if e.threads[tid].blocked && !e.threads[tid].finished {
			stuck = true
			break
		}
	}
	if stuck {
		e.blocked++
	} else {
		e.explored++
	}
	e.log.Debug("execution end", "stuck", stuck, "explored", e.explored, "blocked", e.blocked)
	return e.verdict
}

// HandleLoad resolves a read against the coherence-order-maximal write,
// falling back to the registered initial-value getter for untouched
// addresses. The old-value supplier runs first so the adapter can learn
// the address's previously-known value before resolution needs it.
func (e *Engine) HandleLoad(lab *event.ReadLabel, supply event.OldValueSupplier) event.LoadResult {
	e.graph.add(lab)
	supply(lab.Access.Addr)

	var val event.Scalar
	switch co := e.graph.coMax(lab.Access.Addr).(type) {
	case *event.WriteLabel:
		val = co.Value
	case event.InitLabel:
		val = e.getter.InitVal(lab.Access.Addr)
	}
	e.log.Debug("load resolved", "pos", lab.Pos(), "addr", lab.Access.Addr, "value", val)
	return event.LoadValue(val)
}

// HandleStore commits a write as the new coherence-order-maximal write
// for its address. Unlock writes wake every thread parked on the mutex.
func (e *Engine) HandleStore(lab *event.WriteLabel, supply event.OldValueSupplier) event.StoreResult {
	supply(lab.Access.Addr)
	e.graph.addWrite(lab)

	if lab.Kind == event.StoreMutexUnlock {
		e.wake(lab.Access.Addr)
	}
	e.log.Debug("store committed", "pos", lab.Pos(), "addr", lab.Access.Addr, "value", lab.Value)
	return event.StoreResult{CoMaxWrite: true}
}

// wake unparks threads blocked on a lock-not-acquired label for addr.
// A woken thread retries its acquisition and parks again if it loses
// the race.
func (e *Engine) wake(addr uint64) {
	for tid := range e.threads {
		st := &e.threads[tid]
		if st.blocked && st.blockAddr == addr {
			st.blocked = false
			e.log.Debug("thread woken", "thread", tid, "addr", addr)
		}
	}
}

// HandleFence records a fence. Fences order nothing under sequential
// consistency, so recording is all there is to do.
func (e *Engine) HandleFence(lab *event.FenceLabel) {
	e.graph.add(lab)
}

// HandleMalloc assigns addresses from a deterministic bump allocator:
// the same program issues the same allocation sequence in every run, so
// addresses are stable across the whole exploration.
func (e *Engine) HandleMalloc(lab *event.MallocLabel) uint64 {
	e.graph.add(lab)

	align := lab.Alignment
	if align == 0 {
		align = 1
	}
	addr := (e.nextAddr + align - 1) / align * align
	e.nextAddr = addr + lab.Size
	return addr
}

// HandleFree records a deallocation.
func (e *Engine) HandleFree(lab *event.FreeLabel) {
	e.graph.add(lab)
}

// HandleThreadCreate assigns the next dense thread id and records the
// creation event under the parent.
func (e *Engine) HandleThreadCreate(lab *event.ThreadCreateLabel) event.ThreadID {
	e.graph.add(lab)
	tid := event.ThreadID(len(e.threads))
	e.threads = append(e.threads, newThreadState())
	return tid
}

// HandleThreadJoin resolves once the child has finished; before that
// the join is unresolved, the adapter withdraws it, and the joining
// thread is parked until the child's finish event wakes it.
func (e *Engine) HandleThreadJoin(lab *event.ThreadJoinLabel) event.LoadResult {
	child := int(lab.Child)
	if child < 0 || child >= len(e.threads) {
		return event.LoadUnresolved()
	}
	if !e.threads[child].finished {
		e.threads[int(lab.Pos().Thread)].waitingOn = child
		return event.LoadUnresolved()
	}
	e.graph.add(lab)
	return event.LoadValue(e.threads[child].retVal)
}

// HandleThreadFinish marks the thread terminated and stores its return
// value for joiners.
func (e *Engine) HandleThreadFinish(lab *event.ThreadFinishLabel) {
	e.graph.add(lab)
	tid := int(lab.Pos().Thread)
	e.threads[tid].finished = true
	e.threads[tid].retVal = lab.RetVal
	for i := range e.threads {
		if e.threads[i].waitingOn == tid {
			e.threads[i].waitingOn = -1
		}
	}
}

// HandleBlock parks the issuing thread. Lock-not-acquired blocks
// remember the mutex address so the matching unlock can wake them; user
// blocks stay parked for the rest of the run.
func (e *Engine) HandleBlock(lab *event.BlockLabel) {
	e.graph.add(lab)
	tid := int(lab.Pos().Thread)
	e.threads[tid].blocked = true
	e.threads[tid].blockAddr = lab.Addr
}

// ScheduleNext picks the next runnable thread under the configured
// policy, or reports none when every thread is finished or blocked.
func (e *Engine) ScheduleNext(actions []event.Action) (event.ThreadID, bool) {
	var eligible []event.ThreadID
	for tid := range e.threads {
		if tid >= len(actions) {
			break
		}
		st := &e.threads[tid]
		if st.finished || st.blocked {
			continue
		}
		if st.waitingOn >= 0 && !e.threads[st.waitingOn].finished {
			continue
		}
		eligible = append(eligible, event.ThreadID(tid))
	}
	if len(eligible) == 0 {
		return 0, false
	}
	return e.sched.pick(actions, eligible), true
}

// CoMax exposes the coherence-order-maximal label for the adapter's
// initial-value bridge.
func (e *Engine) CoMax(addr uint64) event.Label {
	return e.graph.coMax(addr)
}

// ExploredCount returns the number of complete executions so far.
func (e *Engine) ExploredCount() uint64 {
	return e.explored
}

// BlockedCount returns the number of runs that ended with a thread
// still parked.
func (e *Engine) BlockedCount() uint64 {
	return e.blocked
}

// DumpGraph renders the current execution graph for diagnostics.
func (e *Engine) DumpGraph() string {
	return e.graph.String()
}
