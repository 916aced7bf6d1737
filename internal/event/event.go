package event

import "fmt"

// ThreadID identifies one logical thread of the program under test.
// Thread ids are engine-assigned small dense integers starting at
// MainThreadID; the adapter's per-thread tables are indexed by them.
type ThreadID int32

// MainThreadID is the id of the initial thread. It exists before any
// ThreadCreate event.
const MainThreadID ThreadID = 0

// Event is a position in one thread's local history: the pair of the
// thread id and a monotonically increasing index within that thread.
//
// Index 0 is the thread-start position; the first real event of a thread
// has index 1. An Event is never reused and its index only ever moves
// backward to undo a speculative advance that was abandoned before being
// committed to the engine.
type Event struct {
	Thread ThreadID
	Index  int
}

// Init returns the initial position of the main thread.
func Init() Event {
	return Event{Thread: MainThreadID, Index: 0}
}

// Start returns the thread-start position of the given thread.
func Start(tid ThreadID) Event {
	return Event{Thread: tid, Index: 0}
}

func (e Event) String() string {
	return fmt.Sprintf("(%d, %d)", e.Thread, e.Index)
}

// ActionKind is the scheduling hint for a thread's next instruction.
// The engine's scheduler only distinguishes loads from everything else:
// a load may have to be revisited (its value depends on the writes the
// exploration has chosen so far), any other instruction is committed on
// first execution.
type ActionKind uint8

const (
	// KindLoad marks a next instruction with load semantics.
	KindLoad ActionKind = iota
	// KindNonLoad marks anything that is not a load.
	KindNonLoad
)

func (k ActionKind) String() string {
	switch k {
	case KindLoad:
		return "Load"
	case KindNonLoad:
		return "NonLoad"
	default:
		return fmt.Sprintf("ActionKind(%d)", uint8(k))
	}
}

// Action is the per-thread record the scheduler works from: the last
// event position of the thread and the kind of its next instruction.
// One Action exists per live thread; the table of all Actions is passed
// to the engine on every scheduling query and at execution end.
type Action struct {
	Kind ActionKind
	Last Event
}

// NewAction returns an Action at the thread-start position of tid with a
// Load hint, the state every thread begins in.
func NewAction(tid ThreadID) Action {
	return Action{Kind: KindLoad, Last: Start(tid)}
}

// MemOrdering is a memory-model-level constraint attached to an
// operation. The adapter treats orderings opaquely; only the engine
// interprets them. The numeric values leave room for consume.
type MemOrdering uint8

const (
	OrderingNotAtomic              MemOrdering = 0
	OrderingRelaxed                MemOrdering = 1
	OrderingAcquire                MemOrdering = 3
	OrderingRelease                MemOrdering = 4
	OrderingAcquireRelease         MemOrdering = 5
	OrderingSequentiallyConsistent MemOrdering = 6
)

func (o MemOrdering) String() string {
	switch o {
	case OrderingNotAtomic:
		return "NotAtomic"
	case OrderingRelaxed:
		return "Relaxed"
	case OrderingAcquire:
		return "Acquire"
	case OrderingRelease:
		return "Release"
	case OrderingAcquireRelease:
		return "AcquireRelease"
	case OrderingSequentiallyConsistent:
		return "SequentiallyConsistent"
	default:
		return fmt.Sprintf("MemOrdering(%d)", uint8(o))
	}
}

// IsAtomic reports whether the ordering describes an atomic access.
func (o MemOrdering) IsAtomic() bool {
	return o != OrderingNotAtomic
}

// MemAccess describes the target of one memory operation. Constructed
// fresh per call and not persisted anywhere.
type MemAccess struct {
	Addr uint64
	Size uint64
}

func (a MemAccess) String() string {
	return fmt.Sprintf("[addr=%#x size=%d]", a.Addr, a.Size)
}
