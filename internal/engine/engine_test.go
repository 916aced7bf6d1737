package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weftlabs/weft/internal/adapter"
	"github.com/weftlabs/weft/internal/event"
)

var _ adapter.Engine = (*Engine)(nil)

// constGetter answers every initial-value query with one scalar.
type constGetter struct {
	val event.Scalar
}

func (g constGetter) InitVal(addr uint64) event.Scalar { return g.val }

// noSupply is an old-value supplier that does nothing.
func noSupply(addr uint64) {}

func newTestEngine() *Engine {
	e := New(PolicyWritesFirst, 1)
	e.SetInitValGetter(constGetter{val: event.NewScalar(0)})
	e.HandleExecutionStart()
	return e
}

func read(tid event.ThreadID, idx int, addr uint64) *event.ReadLabel {
	return &event.ReadLabel{
		Position: event.Event{Thread: tid, Index: idx},
		Ordering: event.OrderingRelaxed,
		Access:   event.MemAccess{Addr: addr, Size: 8},
	}
}

func write(tid event.ThreadID, idx int, addr, val uint64) *event.WriteLabel {
	return &event.WriteLabel{
		Position: event.Event{Thread: tid, Index: idx},
		Ordering: event.OrderingRelaxed,
		Access:   event.MemAccess{Addr: addr, Size: 8},
		Value:    event.NewScalar(val),
	}
}

func TestHandleLoad_ReadsCoherenceMaximalWrite(t *testing.T) {
	e := newTestEngine()

	e.HandleStore(write(0, 1, 0x40, 7), noSupply)
	e.HandleStore(write(0, 2, 0x40, 9), noSupply)

	res := e.HandleLoad(read(0, 3, 0x40), noSupply)
	require.Nil(t, res.Err)
	assert.Equal(t, event.NewScalar(9), res.Value)
}

func TestHandleLoad_FallsBackToInitValGetter(t *testing.T) {
	e := New(PolicyWritesFirst, 1)
	e.SetInitValGetter(constGetter{val: event.NewScalar(123)})
	e.HandleExecutionStart()

	res := e.HandleLoad(read(0, 1, 0x40), noSupply)
	require.Nil(t, res.Err)
	assert.Equal(t, event.NewScalar(123), res.Value,
		"untouched addresses resolve through the registered getter")
}

func TestHandleLoad_RunsSupplierBeforeResolution(t *testing.T) {
	e := newTestEngine()

	var supplied []uint64
	e.HandleLoad(read(0, 1, 0x40), func(addr uint64) {
		supplied = append(supplied, addr)
	})

	assert.Equal(t, []uint64{0x40}, supplied)
}

func TestCoMax_InitLabelForUntouchedAddress(t *testing.T) {
	e := newTestEngine()

	assert.IsType(t, event.InitLabel{}, e.CoMax(0x99))

	w := write(0, 1, 0x99, 1)
	e.HandleStore(w, noSupply)
	assert.Same(t, w, e.CoMax(0x99))
}

func TestHandleMalloc_DeterministicAcrossRuns(t *testing.T) {
	e := newTestEngine()

	m := &event.MallocLabel{Position: event.Event{Thread: 0, Index: 1}, Size: 24, Alignment: 8}
	first := e.HandleMalloc(m)
	require.NotZero(t, first)
	assert.Zero(t, first%8, "allocation respects alignment")

	e.HandleExecutionStart()
	again := e.HandleMalloc(m)
	assert.Equal(t, first, again,
		"the same allocation sequence yields the same addresses every run")
}

func TestHandleThreadCreate_AssignsDenseIDs(t *testing.T) {
	e := newTestEngine()

	c1 := &event.ThreadCreateLabel{Position: event.Event{Thread: 0, Index: 1}, Child: 1, Parent: 0}
	c2 := &event.ThreadCreateLabel{Position: event.Event{Thread: 0, Index: 2}, Child: 2, Parent: 0}

	assert.Equal(t, event.ThreadID(1), e.HandleThreadCreate(c1))
	assert.Equal(t, event.ThreadID(2), e.HandleThreadCreate(c2))
}

func TestHandleThreadJoin_UnresolvedUntilChildFinishes(t *testing.T) {
	e := newTestEngine()
	e.HandleThreadCreate(&event.ThreadCreateLabel{Position: event.Event{Thread: 0, Index: 1}, Child: 1, Parent: 0})

	join := &event.ThreadJoinLabel{Position: event.Event{Thread: 0, Index: 2}, Child: 1}
	res := e.HandleThreadJoin(join)
	assert.True(t, res.Unresolved)

	e.HandleThreadFinish(&event.ThreadFinishLabel{
		Position: event.Event{Thread: 1, Index: 1},
		RetVal:   event.NewScalar(55),
	})

	res = e.HandleThreadJoin(join)
	require.False(t, res.Unresolved)
	assert.Equal(t, event.NewScalar(55), res.Value)
}

func TestUnresolvedJoinParksParent(t *testing.T) {
	e := newTestEngine()
	e.HandleThreadCreate(&event.ThreadCreateLabel{Position: event.Event{Thread: 0, Index: 1}, Child: 1, Parent: 0})

	res := e.HandleThreadJoin(&event.ThreadJoinLabel{Position: event.Event{Thread: 0, Index: 2}, Child: 1})
	require.True(t, res.Unresolved)

	actions := []event.Action{event.NewAction(0), event.NewAction(1)}
	next, ok := e.ScheduleNext(actions)
	require.True(t, ok)
	assert.Equal(t, event.ThreadID(1), next, "the joining thread waits for its child")

	e.HandleThreadFinish(&event.ThreadFinishLabel{Position: event.Event{Thread: 1, Index: 1}})
	next, ok = e.ScheduleNext(actions)
	require.True(t, ok)
	assert.Equal(t, event.ThreadID(0), next, "the finish wakes the joiner")
}

func TestUnlockWakesParkedThreads(t *testing.T) {
	e := newTestEngine()
	e.HandleThreadCreate(&event.ThreadCreateLabel{Position: event.Event{Thread: 0, Index: 1}, Child: 1, Parent: 0})

	e.HandleBlock(&event.BlockLabel{
		Position: event.Event{Thread: 1, Index: 1},
		Kind:     event.BlockLockNotAcquired,
		Addr:     0x500,
	})

	actions := []event.Action{event.NewAction(0), event.NewAction(1)}
	next, ok := e.ScheduleNext(actions)
	require.True(t, ok)
	assert.Equal(t, event.ThreadID(0), next, "only the unblocked thread is eligible")

	unlock := write(0, 2, 0x500, 0)
	unlock.Kind = event.StoreMutexUnlock
	e.HandleStore(unlock, noSupply)

	e.HandleThreadFinish(&event.ThreadFinishLabel{Position: event.Event{Thread: 0, Index: 3}})
	next, ok = e.ScheduleNext(actions)
	require.True(t, ok)
	assert.Equal(t, event.ThreadID(1), next, "the unlock woke the parked thread")
}

func TestUserBlockStaysParked(t *testing.T) {
	e := newTestEngine()
	e.HandleBlock(&event.BlockLabel{Position: event.Event{Thread: 0, Index: 1}, Kind: event.BlockUser})

	_, ok := e.ScheduleNext([]event.Action{event.NewAction(0)})
	assert.False(t, ok, "a plain write does not wake user blocks")
}

func TestScheduleNext_NoneRunnable(t *testing.T) {
	e := newTestEngine()
	e.HandleThreadFinish(&event.ThreadFinishLabel{Position: event.Event{Thread: 0, Index: 1}})

	_, ok := e.ScheduleNext([]event.Action{event.NewAction(0)})
	assert.False(t, ok)
}

func TestPolicyWritesFirst_PrefersNonLoad(t *testing.T) {
	e := newTestEngine()
	e.HandleThreadCreate(&event.ThreadCreateLabel{Position: event.Event{Thread: 0, Index: 1}, Child: 1, Parent: 0})

	actions := []event.Action{event.NewAction(0), event.NewAction(1)}
	actions[0].Kind = event.KindLoad
	actions[1].Kind = event.KindNonLoad

	next, ok := e.ScheduleNext(actions)
	require.True(t, ok)
	assert.Equal(t, event.ThreadID(1), next)
}

func TestPolicyRoundRobin_Rotates(t *testing.T) {
	e := New(PolicyRoundRobin, 1)
	e.SetInitValGetter(constGetter{val: event.NewScalar(0)})
	e.HandleExecutionStart()
	e.HandleThreadCreate(&event.ThreadCreateLabel{Position: event.Event{Thread: 0, Index: 1}, Child: 1, Parent: 0})

	actions := []event.Action{event.NewAction(0), event.NewAction(1)}

	first, ok := e.ScheduleNext(actions)
	require.True(t, ok)
	second, ok := e.ScheduleNext(actions)
	require.True(t, ok)

	assert.NotEqual(t, first, second, "round robin alternates between two runnable threads")
}

func TestPolicyRandom_SameSeedSameSchedule(t *testing.T) {
	schedule := func(seed int64) []event.ThreadID {
		e := New(PolicyRandom, seed)
		e.SetInitValGetter(constGetter{val: event.NewScalar(0)})
		e.HandleExecutionStart()
		e.HandleThreadCreate(&event.ThreadCreateLabel{Position: event.Event{Thread: 0, Index: 1}, Child: 1, Parent: 0})
		e.HandleThreadCreate(&event.ThreadCreateLabel{Position: event.Event{Thread: 0, Index: 2}, Child: 2, Parent: 0})

		actions := []event.Action{event.NewAction(0), event.NewAction(1), event.NewAction(2)}
		var out []event.ThreadID
		for i := 0; i < 10; i++ {
			tid, ok := e.ScheduleNext(actions)
			require.True(t, ok)
			out = append(out, tid)
		}
		return out
	}

	assert.Equal(t, schedule(42), schedule(42), "identical seeds replay identical schedules")
}

func TestExecutionCounters(t *testing.T) {
	e := newTestEngine()
	actions := []event.Action{event.NewAction(0)}

	require.Nil(t, e.HandleExecutionEnd(actions))
	assert.Equal(t, uint64(1), e.ExploredCount())
	assert.Equal(t, uint64(0), e.BlockedCount())

	e.HandleExecutionStart()
	e.HandleBlock(&event.BlockLabel{Position: event.Event{Thread: 0, Index: 1}, Kind: event.BlockUser})
	require.Nil(t, e.HandleExecutionEnd(actions))
	assert.Equal(t, uint64(1), e.ExploredCount())
	assert.Equal(t, uint64(1), e.BlockedCount(), "a run ending with a parked thread counts as blocked")
}

func TestDumpGraph_ListsLabelsPerThread(t *testing.T) {
	e := newTestEngine()
	e.HandleStore(write(0, 1, 0x40, 7), noSupply)

	out := e.DumpGraph()
	assert.Contains(t, out, "thread 0:")
	assert.Contains(t, out, "Write")
}
