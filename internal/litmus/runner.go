package litmus

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/weftlabs/weft/internal/adapter"
	"github.com/weftlabs/weft/internal/engine"
	"github.com/weftlabs/weft/internal/event"
)

// maxStepsPerRun bounds a single execution. A well-formed scenario
// finishes long before this; hitting the bound means the driver and the
// engine disagree about runnability.
const maxStepsPerRun = 100_000

// Runner explores a scenario: it executes it repeatedly under fresh
// schedules and accumulates the distinct final states.
type Runner struct {
	log    *slog.Logger
	eng    *engine.Engine
	ad     *adapter.Adapter
	policy engine.Policy
	seed   int64
	runs   int
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(log *slog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// NewRunner builds a runner that performs runs executions under the
// given scheduling policy, reseeding the schedule for every execution.
func NewRunner(policy engine.Policy, seed int64, runs int, opts ...RunnerOption) *Runner {
	r := &Runner{
		log:    slog.Default(),
		policy: policy,
		seed:   seed,
		runs:   runs,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.eng = engine.New(policy, seed, engine.WithLogger(r.log))
	r.ad = adapter.New(r.eng, adapter.WithLogger(r.log))
	return r
}

// DumpGraph renders the engine's execution graph from the last run.
func (r *Runner) DumpGraph() string {
	return r.eng.DumpGraph()
}

// Result aggregates the outcomes of exploring one scenario.
type Result struct {
	Scenario   string
	Policy     engine.Policy
	Seed       int64
	Executions uint64
	Blocked    uint64

	// Outcomes counts executions per final state. Keys are canonical
	// outcome strings such as "c=3 x=1"; executions that ended in a
	// recoverable model error count under "error:<CODE>".
	Outcomes map[string]int
}

// Format renders the result as deterministic text, outcomes sorted by
// key. Golden tests and the CLI both print this form.
func (res *Result) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario %s\n", res.Scenario)
	fmt.Fprintf(&b, "policy %s seed %d\n", res.Policy, res.Seed)
	fmt.Fprintf(&b, "executions %d blocked %d\n", res.Executions, res.Blocked)

	keys := make([]string, 0, len(res.Outcomes))
	for k := range res.Outcomes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "  %s  %d\n", k, res.Outcomes[k])
	}
	return b.String()
}

// Explore runs the scenario for the configured number of executions.
func (r *Runner) Explore(scn *Scenario) (*Result, error) {
	if err := scn.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		Scenario: scn.Name,
		Policy:   r.policy,
		Seed:     r.seed,
		Outcomes: make(map[string]int),
	}

	for run := 0; run < r.runs; run++ {
		r.eng.Reseed(r.seed + int64(run))
		outcome, err := r.runOnce(scn)
		if err != nil {
			return nil, fmt.Errorf("scenario %s execution %d: %w", scn.Name, run, err)
		}
		res.Outcomes[outcome]++
	}

	res.Executions = r.eng.ExploredCount()
	res.Blocked = r.eng.BlockedCount()
	r.log.Info("exploration done",
		"scenario", scn.Name,
		"executions", res.Executions,
		"blocked", res.Blocked,
		"outcomes", len(res.Outcomes))
	return res, nil
}

// Estimate summarizes a sampling pass over the schedule space.
type Estimate struct {
	Scenario         string
	Runs             uint64
	Blocked          uint64
	DistinctOutcomes int
}

// Estimate samples the scenario and reports how many distinct final
// states the sample surfaced. A cheap proxy for the size of the
// schedule space before committing to a long exploration.
func (r *Runner) Estimate(scn *Scenario) (*Estimate, error) {
	res, err := r.Explore(scn)
	if err != nil {
		return nil, err
	}
	return &Estimate{
		Scenario:         scn.Name,
		Runs:             res.Executions + res.Blocked,
		Blocked:          res.Blocked,
		DistinctOutcomes: len(res.Outcomes),
	}, nil
}

// execution holds the per-run driver state: one register and one
// program counter per scenario thread, plus the main thread's join
// progress. vals mirrors the interpreter's memory: the last value each
// variable resolved to, fed back as the "old value" of the next access.
type execution struct {
	r     *Runner
	scn   *Scenario
	addrs map[string]uint64
	sizes map[string]uint64
	inits map[string]uint64
	vals  map[string]uint64

	regs []uint64
	pcs  []int

	joinIdx  int
	mainDone bool
	modelErr *event.ModelError
}

func (r *Runner) runOnce(scn *Scenario) (string, error) {
	r.ad.HandleExecutionStart()

	x := &execution{
		r:     r,
		scn:   scn,
		addrs: make(map[string]uint64, len(scn.Vars)),
		sizes: make(map[string]uint64, len(scn.Vars)),
		inits: make(map[string]uint64, len(scn.Vars)),
		vals:  make(map[string]uint64, len(scn.Vars)),
		regs:  make([]uint64, len(scn.Threads)+1),
		pcs:   make([]int, len(scn.Threads)+1),
	}

	// The main thread allocates every variable and spawns the workers
	// before the scheduler takes over. Allocation is deterministic, so
	// addresses are identical across executions and the initial-value
	// table built on the first run stays valid.
	for _, v := range scn.Vars {
		addr := r.ad.HandleMalloc(event.MainThreadID, v.Size, v.Size)
		x.addrs[v.Name] = addr
		x.sizes[v.Name] = v.Size
		x.inits[v.Name] = v.Init
		x.vals[v.Name] = v.Init
	}
	for i := range scn.Threads {
		r.ad.HandleThreadCreate(event.ThreadID(i+1), event.MainThreadID)
	}

	curr := event.MainThreadID
	for steps := 0; ; steps++ {
		if steps >= maxStepsPerRun {
			return "", fmt.Errorf("step limit reached, driver and engine disagree about runnability")
		}
		next, ok := r.ad.ScheduleNext(curr, x.nextKind(curr))
		if !ok {
			break
		}
		x.step(next)
		curr = next
		if x.modelErr != nil {
			break
		}
	}

	if err := r.ad.HandleExecutionEnd(); err != nil {
		var merr *event.ModelError
		if errors.As(err, &merr) && x.modelErr == nil {
			x.modelErr = merr
		}
	}

	if x.modelErr != nil {
		return fmt.Sprintf("error:%s", x.modelErr.Code), nil
	}
	return x.outcome(), nil
}

// nextKind reports whether the thread's next operation begins with a
// load, which is the hint the scheduler's writes-first policy keys on.
func (x *execution) nextKind(tid event.ThreadID) event.ActionKind {
	if tid == event.MainThreadID {
		if x.joinIdx < len(x.scn.Threads) {
			return event.KindLoad // join reads the child's return value
		}
		return event.KindNonLoad
	}
	prog := x.scn.Threads[int(tid)-1]
	pc := x.pcs[tid]
	if pc >= len(prog.Ops) {
		return event.KindNonLoad
	}
	switch prog.Ops[pc].Kind {
	case OpLoad, OpRMW, OpCAS, OpLock, OpTrylock:
		return event.KindLoad
	default:
		return event.KindNonLoad
	}
}

// step executes one operation of the chosen thread.
func (x *execution) step(tid event.ThreadID) {
	if tid == event.MainThreadID {
		x.stepMain()
		return
	}

	prog := x.scn.Threads[int(tid)-1]
	pc := x.pcs[tid]
	if pc >= len(prog.Ops) {
		x.r.ad.HandleThreadFinish(tid, event.NewScalar(x.regs[tid]))
		x.pcs[tid] = pc + 1
		return
	}
	if x.stepOp(tid, prog.Ops[pc]) {
		x.pcs[tid] = pc + 1
	}
}

// stepMain joins the workers in spawn order, then finishes. An
// unresolved join parks the main thread inside the engine, so staying
// on the same join index cannot spin.
func (x *execution) stepMain() {
	if x.joinIdx < len(x.scn.Threads) {
		child := event.ThreadID(x.joinIdx + 1)
		res := x.r.ad.HandleThreadJoin(event.MainThreadID, child)
		if res.Err != nil {
			x.modelErr = res.Err
			return
		}
		if res.Unresolved {
			return
		}
		x.joinIdx++
		return
	}
	if !x.mainDone {
		x.r.ad.HandleThreadFinish(event.MainThreadID, event.UninitScalar)
		x.mainDone = true
	}
}

// stepOp performs a single scenario operation and reports whether the
// program counter advances. A lock that did not acquire keeps its pc so
// the thread retries after the holder's unlock wakes it, and an
// unresolved load keeps its pc the same way. Every resolution also
// updates vals, since the old value supplied with the next access must
// be the value currently at the address, not the variable's initial
// value: for a coherence-maximal non-atomic write a stale old value
// would be written back over the committed store.
func (x *execution) stepOp(tid event.ThreadID, op Op) bool {
	access := event.MemAccess{Addr: x.addrs[op.Var], Size: x.sizes[op.Var]}
	ord, _ := ParseOrdering(op.Ordering)
	oldVal := event.NewScalar(x.vals[op.Var])

	switch op.Kind {
	case OpLoad:
		res := x.r.ad.HandleLoad(tid, access, ord, oldVal)
		if res.Err != nil {
			x.modelErr = res.Err
			return true
		}
		if res.Unresolved {
			return false
		}
		x.regs[tid] = res.Value.Value
		x.vals[op.Var] = res.Value.Value
		return true

	case OpStore:
		val := op.Value
		if op.FromReg {
			val += x.regs[tid]
		}
		res := x.r.ad.HandleStore(tid, access, ord, event.NewScalar(val), oldVal, event.StoreNormal)
		if res.Err != nil {
			x.modelErr = res.Err
			return true
		}
		x.vals[op.Var] = val
		return true

	case OpRMW:
		rmwOp, _ := ParseRMWOp(op.Op)
		res := x.r.ad.HandleReadModifyWrite(tid, access, ord, ord, rmwOp, event.NewScalar(op.Value), oldVal)
		if res.Err != nil {
			x.modelErr = res.Err
			return true
		}
		x.regs[tid] = res.Old.Value
		x.vals[op.Var] = res.New.Value
		return true

	case OpCAS:
		res := x.r.ad.HandleCompareExchange(tid, access, ord, ord, ord,
			event.NewScalar(op.Expected), event.NewScalar(op.Value), oldVal, false)
		if res.Err != nil {
			x.modelErr = res.Err
			return true
		}
		x.regs[tid] = res.Old.Value
		if res.Success {
			x.vals[op.Var] = op.Value
		} else {
			x.vals[op.Var] = res.Old.Value
		}
		return true

	case OpFence:
		x.r.ad.HandleFence(tid, ord)
		return true

	case OpLock:
		res := x.r.ad.HandleMutexLock(tid, access)
		if res.Err != nil {
			x.modelErr = res.Err
			return true
		}
		if res.Acquired {
			x.vals[op.Var] = 1
		}
		return res.Acquired

	case OpTrylock:
		res := x.r.ad.HandleMutexTryLock(tid, access)
		if res.Err != nil {
			x.modelErr = res.Err
			return true
		}
		if res.Acquired {
			x.regs[tid] = 1
			x.vals[op.Var] = 1
		} else {
			x.regs[tid] = 0
		}
		return true

	case OpUnlock:
		res := x.r.ad.HandleMutexUnlock(tid, access)
		if res.Err != nil {
			x.modelErr = res.Err
			return true
		}
		x.vals[op.Var] = 0
		return true
	}
	return true
}

// outcome reads the coherence-order-maximal value of every variable and
// renders the canonical final-state string, variables sorted by name.
func (x *execution) outcome() string {
	names := make([]string, 0, len(x.addrs))
	for name := range x.addrs {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		var val uint64
		switch lab := x.r.eng.CoMax(x.addrs[name]).(type) {
		case *event.WriteLabel:
			val = lab.Value.Value
		case event.InitLabel:
			val = x.inits[name]
		}
		parts = append(parts, fmt.Sprintf("%s=%d", name, val))
	}
	return strings.Join(parts, " ")
}
