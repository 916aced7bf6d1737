package adapter

import (
	"github.com/weftlabs/weft/internal/event"
)

// positionTable owns one Action per live thread: the thread's last event
// position and its next-instruction scheduling hint. It is a dense arena
// indexed by thread id (thread ids are engine-assigned small integers,
// assigned contiguously) with explicit bounds checks. The table grows
// as threads are created and never shrinks during one execution; it is
// cleared in bulk when a fresh exploration starts.
type positionTable struct {
	actions []event.Action
}

func newPositionTable() *positionTable {
	t := &positionTable{actions: make([]event.Action, 0, 8)}
	t.reset()
	return t
}

// reset clears the table down to the single main thread at its initial
// position. Called at the start of every exploration run.
func (t *positionTable) reset() {
	t.actions = t.actions[:0]
	t.actions = append(t.actions, event.NewAction(event.MainThreadID))
}

// check panics if tid has no registered Action.
func (t *positionTable) check(op string, tid event.ThreadID) {
	if tid < 0 || int(tid) >= len(t.actions) {
		invariantf(op, "thread id %d out of bounds (%d threads registered)", tid, len(t.actions))
	}
}

// advance increments tid's event index and returns the new position.
// Every operation the adapter lowers claims its position this way before
// the label is built.
func (t *positionTable) advance(op string, tid event.ThreadID) event.Event {
	t.check(op, tid)
	t.actions[tid].Last.Index++
	return t.actions[tid].Last
}

// retreat undoes a speculative advance and returns the restored
// position. Only ever called to withdraw an operation the engine did not
// commit (an unresolved read, a rejected lock attempt, a join on an
// unfinished thread).
func (t *positionTable) retreat(op string, tid event.ThreadID) event.Event {
	t.check(op, tid)
	t.actions[tid].Last.Index--
	return t.actions[tid].Last
}

// setKind updates tid's next-instruction hint before a scheduling query.
func (t *positionTable) setKind(op string, tid event.ThreadID, kind event.ActionKind) {
	t.check(op, tid)
	t.actions[tid].Kind = kind
}

// register installs (or resets) the Action of a newly created thread at
// position zero. The engine assigns child ids contiguously, so the only
// legal ids are an existing slot or the next free one.
func (t *positionTable) register(op string, tid event.ThreadID) {
	if tid < 0 || int(tid) > len(t.actions) {
		invariantf(op, "cannot register thread id %d (%d threads registered)", tid, len(t.actions))
	}
	if int(tid) == len(t.actions) {
		t.actions = append(t.actions, event.NewAction(tid))
		return
	}
	t.actions[tid] = event.NewAction(tid)
}

// snapshot returns a copy of the action table for handing to the engine.
// The engine never gets a reference into adapter-owned state.
func (t *positionTable) snapshot() []event.Action {
	out := make([]event.Action, len(t.actions))
	copy(out, t.actions)
	return out
}

// guard implements the speculative-advance pattern as a scoped two-phase
// commit: claim a position, submit the label, and wind the position back
// on every early-exit path unless the operation was explicitly
// committed. Centralizing the retreat here keeps an overlooked error
// path from leaving a thread's position diverged.
type guard struct {
	table     *positionTable
	op        string
	tid       event.ThreadID
	committed bool
}

// advanceGuarded advances tid and returns the claimed position plus a
// guard armed to retreat it.
func (t *positionTable) advanceGuarded(op string, tid event.ThreadID) (event.Event, *guard) {
	pos := t.advance(op, tid)
	return pos, &guard{table: t, op: op, tid: tid}
}

// commit keeps the claimed position.
func (g *guard) commit() {
	g.committed = true
}

// abort retreats the claimed position unless commit was called. Safe to
// defer: aborting twice or after commit is a no-op.
func (g *guard) abort() {
	if g.committed {
		return
	}
	g.committed = true
	g.table.retreat(g.op, g.tid)
}
