package event

import "fmt"

// Label is the sealed interface over all graph-label kinds. A label
// describes exactly one event: its position within the issuing thread,
// plus the kind-specific payload. Only the types in this file implement
// it.
//
// Labels are constructed by the adapter and submitted to the engine; the
// engine owns them afterwards. The one sanctioned mutation after
// submission is WriteLabel.SetValue, used by the initial-value bridge to
// retroactively fix up a still-mutable non-atomic write.
type Label interface {
	Pos() Event
	label()
}

// ReadKind distinguishes the structurally different read labels. The
// engine attaches different consistency obligations to each.
type ReadKind uint8

const (
	// ReadPlain is an ordinary (atomic or non-atomic) load.
	ReadPlain ReadKind = iota
	// ReadRMW is the read half of a read-modify-write.
	ReadRMW
	// ReadCAS is the read half of a compare-exchange.
	ReadCAS
	// ReadLockCAS is the read half of a blocking mutex acquisition.
	ReadLockCAS
	// ReadTrylockCAS is the read half of a non-blocking mutex acquisition.
	ReadTrylockCAS
)

func (k ReadKind) String() string {
	switch k {
	case ReadPlain:
		return "Read"
	case ReadRMW:
		return "FaiRead"
	case ReadCAS:
		return "CasRead"
	case ReadLockCAS:
		return "LockCasRead"
	case ReadTrylockCAS:
		return "TrylockCasRead"
	default:
		return fmt.Sprintf("ReadKind(%d)", uint8(k))
	}
}

// Annotation tags a spin-loop-style conditional read so the engine can
// recognize busy-wait patterns: the reading thread only makes progress
// when the observed value differs from NotEq. Widths are in bits. IDs are
// assigned per address by the adapter's annotation table and stay stable
// for the whole verification session.
type Annotation struct {
	ID    uint32
	Bits  uint32
	NotEq uint64
}

// ReadLabel describes one read event. Operator/Rhs are set for ReadRMW;
// Expected/New are set for the compare-and-swap kinds; Annot is set only
// for annotated lock acquisitions.
type ReadLabel struct {
	Position Event
	Ordering MemOrdering
	Access   MemAccess
	Kind     ReadKind

	Operator RMWOp
	Rhs      Scalar

	Expected Scalar
	New      Scalar

	Annot *Annotation
}

func (l *ReadLabel) Pos() Event { return l.Position }
func (*ReadLabel) label()       {}

// StoreKind distinguishes the structurally different write labels.
type StoreKind uint8

const (
	// StoreNormal is a plain store.
	StoreNormal StoreKind = iota
	// StoreRMW is the write half of a read-modify-write.
	StoreRMW
	// StoreCAS is the write half of a successful compare-exchange.
	StoreCAS
	// StoreLockCAS is the write half of a successful mutex acquisition.
	StoreLockCAS
	// StoreTrylockCAS is the write half of a successful try-lock.
	StoreTrylockCAS
	// StoreMutexUnlock is a mutex release.
	StoreMutexUnlock
)

func (k StoreKind) String() string {
	switch k {
	case StoreNormal:
		return "Write"
	case StoreRMW:
		return "FaiWrite"
	case StoreCAS:
		return "CasWrite"
	case StoreLockCAS:
		return "LockCasWrite"
	case StoreTrylockCAS:
		return "TrylockCasWrite"
	case StoreMutexUnlock:
		return "UnlockWrite"
	default:
		return fmt.Sprintf("StoreKind(%d)", uint8(k))
	}
}

// WriteLabel describes one write event.
type WriteLabel struct {
	Position Event
	Ordering MemOrdering
	Access   MemAccess
	Kind     StoreKind
	Value    Scalar
}

func (l *WriteLabel) Pos() Event { return l.Position }
func (*WriteLabel) label()       {}

// IsAtomic reports whether the write is an atomic access.
func (l *WriteLabel) IsAtomic() bool { return l.Ordering.IsAtomic() }

// SetValue overwrites the stored value. Only valid for non-atomic writes
// that are still coherence-order-maximal; the initial-value bridge uses
// it to fix up lazily learned values.
func (l *WriteLabel) SetValue(v Scalar) { l.Value = v }

// InitLabel is the per-address initializing pseudo-event: the
// coherence-order predecessor of every real write. The engine returns it
// from co-max queries for locations no write has touched yet.
type InitLabel struct{}

func (InitLabel) Pos() Event { return Init() }
func (InitLabel) label()     {}

// FenceLabel describes a fence event.
type FenceLabel struct {
	Position Event
	Ordering MemOrdering
}

func (l *FenceLabel) Pos() Event { return l.Position }
func (*FenceLabel) label()       {}

// StorageDuration, StorageKind and AddressSpace are allocation
// attributes. The adapter currently issues every allocation as durable
// user-space heap memory; the fields exist because the label vocabulary
// carries them and engines may care.
type StorageDuration uint8

const (
	StorageStatic StorageDuration = iota
	StorageAutomatic
	StorageHeap
)

type StorageKind uint8

const (
	StorageVolatile StorageKind = iota
	StorageDurable
)

type AddressSpace uint8

const (
	AddressSpaceUser AddressSpace = iota
	AddressSpaceInternal
)

// MallocLabel describes an allocation event.
type MallocLabel struct {
	Position  Event
	Size      uint64
	Alignment uint64
	Duration  StorageDuration
	Kind      StorageKind
	Space     AddressSpace
}

func (l *MallocLabel) Pos() Event { return l.Position }
func (*MallocLabel) label()       {}

// FreeLabel describes a deallocation event.
type FreeLabel struct {
	Position Event
	Addr     uint64
	Size     uint64
}

func (l *FreeLabel) Pos() Event { return l.Position }
func (*FreeLabel) label()       {}

// ThreadCreateLabel describes a thread-creation event. The event happens
// in the parent thread; Child is the id the caller expects the engine to
// assign.
type ThreadCreateLabel struct {
	Position Event
	Child    ThreadID
	Parent   ThreadID
}

func (l *ThreadCreateLabel) Pos() Event { return l.Position }
func (*ThreadCreateLabel) label()       {}

// ThreadJoinLabel describes a join event; it happens in the joining
// (parent) thread.
type ThreadJoinLabel struct {
	Position Event
	Child    ThreadID
}

func (l *ThreadJoinLabel) Pos() Event { return l.Position }
func (*ThreadJoinLabel) label()       {}

// ThreadFinishLabel describes a thread's final event, carrying its
// return value.
type ThreadFinishLabel struct {
	Position Event
	RetVal   Scalar
}

func (l *ThreadFinishLabel) Pos() Event { return l.Position }
func (*ThreadFinishLabel) label()       {}

// BlockKind distinguishes why a thread became unschedulable.
type BlockKind uint8

const (
	// BlockUser is a blocking wait issued by the program itself.
	BlockUser BlockKind = iota
	// BlockLockNotAcquired marks a thread parked on a held mutex.
	BlockLockNotAcquired
)

func (k BlockKind) String() string {
	switch k {
	case BlockUser:
		return "UserBlock"
	case BlockLockNotAcquired:
		return "LockNotAcqBlock"
	default:
		return fmt.Sprintf("BlockKind(%d)", uint8(k))
	}
}

// BlockLabel marks the issuing thread unschedulable until a later event
// releases it. Addr is the mutex address for BlockLockNotAcquired and
// zero otherwise.
type BlockLabel struct {
	Position Event
	Kind     BlockKind
	Addr     uint64
}

func (l *BlockLabel) Pos() Event { return l.Position }
func (*BlockLabel) label()       {}
