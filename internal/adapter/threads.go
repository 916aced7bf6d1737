package adapter

import (
	"github.com/weftlabs/weft/internal/event"
)

// HandleThreadCreate records the creation of child by parent. Creation
// is a parent-thread event: the parent's position advances, the child
// starts at position zero with a fresh Action entry.
//
// The engine assigns the child's graph thread id itself; the caller's
// and the engine's id for the same thread must agree, and a mismatch
// means the two thread tables have diverged, which is fatal.
func (a *Adapter) HandleThreadCreate(child, parent event.ThreadID) {
	a.log.Debug("thread create", "child", child, "parent", parent)

	pos := a.pos.advance("ThreadCreate", parent)
	lab := &event.ThreadCreateLabel{Position: pos, Child: child, Parent: parent}

	assigned := a.engine.HandleThreadCreate(lab)
	if assigned < 0 {
		invariantf("ThreadCreate", "engine assigned invalid thread id %d", assigned)
	}
	if assigned != child {
		invariantf("ThreadCreate", "engine assigned thread id %d, caller expected %d", assigned, child)
	}

	a.pos.register("ThreadCreate", assigned)
}

// HandleThreadJoin records parent joining child. If the child has not
// finished yet the join cannot resolve: the speculative advance is wound
// back and the caller retries after the scheduler has run the child.
func (a *Adapter) HandleThreadJoin(parent, child event.ThreadID) event.JoinResult {
	a.log.Debug("thread join", "parent", parent, "child", child)

	pos, g := a.pos.advanceGuarded("ThreadJoin", parent)
	defer g.abort()

	res := a.engine.HandleThreadJoin(&event.ThreadJoinLabel{Position: pos, Child: child})
	if res.Err != nil {
		return event.JoinResult{Err: res.Err}
	}
	if res.Unresolved {
		return event.JoinResult{Unresolved: true}
	}
	g.commit()
	return event.JoinResult{RetVal: res.Value}
}

// HandleThreadFinish records a thread's final event with its return
// value. No further operations are valid on the thread afterward.
func (a *Adapter) HandleThreadFinish(tid event.ThreadID, retVal event.Scalar) {
	a.log.Debug("thread finish", "thread", tid, "ret", retVal)

	pos := a.pos.advance("ThreadFinish", tid)
	a.engine.HandleThreadFinish(&event.ThreadFinishLabel{Position: pos, RetVal: retVal})
}

// HandleUserBlock records a generic blocking wait not covered by the
// mutex protocol. The thread becomes unschedulable until the engine
// decides otherwise.
func (a *Adapter) HandleUserBlock(tid event.ThreadID) {
	a.log.Debug("user block", "thread", tid)

	pos := a.pos.advance("UserBlock", tid)
	a.engine.HandleBlock(&event.BlockLabel{Position: pos, Kind: event.BlockUser})
}
