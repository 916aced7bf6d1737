package litmus

import (
	"fmt"

	"golang.org/x/text/unicode/norm"

	"github.com/weftlabs/weft/internal/event"
)

// Scenario is a litmus program: shared variables plus one straight-line
// operation list per spawned thread. The main thread is implicit; it
// allocates the variables, spawns the listed threads and joins them.
type Scenario struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`

	Vars    []Var  `json:"vars"`
	Threads []Prog `json:"threads"`
}

// Var declares a shared variable with its size in bytes and the value
// it holds before any thread writes to it.
type Var struct {
	Name string `json:"name"`
	Size uint64 `json:"size"`
	Init uint64 `json:"init"`
}

// Prog is the operation list of a single thread.
type Prog struct {
	Ops []Op `json:"ops"`
}

// OpKind enumerates the operations a scenario thread can perform.
type OpKind string

const (
	OpLoad    OpKind = "load"
	OpStore   OpKind = "store"
	OpRMW     OpKind = "rmw"
	OpCAS     OpKind = "cas"
	OpFence   OpKind = "fence"
	OpLock    OpKind = "lock"
	OpTrylock OpKind = "trylock"
	OpUnlock  OpKind = "unlock"
)

// Op is one instruction of a thread program.
//
// A load writes the observed value into the thread's single register.
// A store with FromReg set writes register+Value instead of Value,
// which is how scenarios express load-modify-store sequences.
type Op struct {
	Kind OpKind `json:"kind"`
	Var  string `json:"var,omitempty"`

	// Ordering is a memory ordering name: "na", "relaxed", "acquire",
	// "release", "acqrel" or "seqcst". Fences and plain accesses use it
	// directly; rmw and cas use it for both halves.
	Ordering string `json:"ordering,omitempty"`

	Value    uint64 `json:"value,omitempty"`
	Expected uint64 `json:"expected,omitempty"`
	FromReg  bool   `json:"from_reg,omitempty"`

	// Op names the read-modify-write operator for kind "rmw":
	// xchg, add, sub, and, nand, or, xor, max, min, umax, umin.
	Op string `json:"op,omitempty"`
}

// orderings maps the scenario-file spellings onto the wire values.
var orderings = map[string]event.MemOrdering{
	"na":      event.OrderingNotAtomic,
	"relaxed": event.OrderingRelaxed,
	"acquire": event.OrderingAcquire,
	"release": event.OrderingRelease,
	"acqrel":  event.OrderingAcquireRelease,
	"seqcst":  event.OrderingSequentiallyConsistent,
}

var rmwOps = map[string]event.RMWOp{
	"xchg": event.RMWXchg,
	"add":  event.RMWAdd,
	"sub":  event.RMWSub,
	"and":  event.RMWAnd,
	"nand": event.RMWNand,
	"or":   event.RMWOr,
	"xor":  event.RMWXor,
	"max":  event.RMWMax,
	"min":  event.RMWMin,
	"umax": event.RMWUMax,
	"umin": event.RMWUMin,
}

// ParseOrdering resolves a scenario ordering name. The empty string
// defaults to seqcst, the safe choice for hand-written litmus files.
func ParseOrdering(s string) (event.MemOrdering, error) {
	if s == "" {
		return event.OrderingSequentiallyConsistent, nil
	}
	ord, ok := orderings[s]
	if !ok {
		return 0, fmt.Errorf("unknown memory ordering %q", s)
	}
	return ord, nil
}

// ParseRMWOp resolves a read-modify-write operator name.
func ParseRMWOp(s string) (event.RMWOp, error) {
	op, ok := rmwOps[s]
	if !ok {
		return 0, fmt.Errorf("unknown rmw operator %q", s)
	}
	return op, nil
}

// Normalize brings the scenario into canonical form. Names are NFC
// normalized so that scenario files written on different systems refer
// to the same variables and golden files.
func (s *Scenario) Normalize() {
	s.Name = norm.NFC.String(s.Name)
	for i := range s.Vars {
		s.Vars[i].Name = norm.NFC.String(s.Vars[i].Name)
	}
	for ti := range s.Threads {
		for oi := range s.Threads[ti].Ops {
			s.Threads[ti].Ops[oi].Var = norm.NFC.String(s.Threads[ti].Ops[oi].Var)
		}
	}
}

// Validate checks structural consistency: every operation must name a
// declared variable, orderings and operators must parse, and sizes must
// be power-of-two scalar widths.
func (s *Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if len(s.Threads) == 0 {
		return fmt.Errorf("scenario %s: no threads", s.Name)
	}

	vars := make(map[string]Var, len(s.Vars))
	for _, v := range s.Vars {
		if v.Name == "" {
			return fmt.Errorf("scenario %s: unnamed variable", s.Name)
		}
		if _, dup := vars[v.Name]; dup {
			return fmt.Errorf("scenario %s: duplicate variable %s", s.Name, v.Name)
		}
		switch v.Size {
		case 1, 2, 4, 8:
		default:
			return fmt.Errorf("scenario %s: variable %s has unsupported size %d", s.Name, v.Name, v.Size)
		}
		vars[v.Name] = v
	}

	for ti, th := range s.Threads {
		for oi, op := range th.Ops {
			where := fmt.Sprintf("scenario %s: thread %d op %d", s.Name, ti, oi)
			switch op.Kind {
			case OpFence:
				if op.Var != "" {
					return fmt.Errorf("%s: fence must not name a variable", where)
				}
			case OpLoad, OpStore, OpRMW, OpCAS, OpLock, OpTrylock, OpUnlock:
				if _, ok := vars[op.Var]; !ok {
					return fmt.Errorf("%s: undeclared variable %q", where, op.Var)
				}
			default:
				return fmt.Errorf("%s: unknown kind %q", where, op.Kind)
			}
			if _, err := ParseOrdering(op.Ordering); err != nil {
				return fmt.Errorf("%s: %w", where, err)
			}
			if op.Kind == OpRMW {
				if _, err := ParseRMWOp(op.Op); err != nil {
					return fmt.Errorf("%s: %w", where, err)
				}
			}
		}
	}
	return nil
}
