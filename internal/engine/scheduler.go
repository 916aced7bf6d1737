package engine

import (
	"fmt"
	"math/rand"

	"github.com/weftlabs/weft/internal/event"
)

// Policy selects which eligible thread runs next.
type Policy string

const (
	// PolicyWritesFirst prefers threads whose next instruction is not a
	// load: non-loads commit on first execution, loads may have to be
	// revisited, so draining non-loads first keeps graphs small.
	PolicyWritesFirst Policy = "wf"

	// PolicyRoundRobin rotates through eligible threads in id order.
	PolicyRoundRobin Policy = "rr"

	// PolicyRandom picks uniformly among eligible threads using the
	// engine's seeded source. Rerunning with fresh seeds is how the
	// reference engine samples the interleaving space.
	PolicyRandom Policy = "random"
)

// ValidPolicy reports whether p names a known scheduling policy.
func ValidPolicy(p Policy) bool {
	switch p {
	case PolicyWritesFirst, PolicyRoundRobin, PolicyRandom:
		return true
	}
	return false
}

// scheduler applies a Policy over the per-thread eligibility state.
type scheduler struct {
	policy Policy
	rng    *rand.Rand
	last   event.ThreadID
}

func newScheduler(policy Policy, seed int64) *scheduler {
	return &scheduler{
		policy: policy,
		rng:    rand.New(rand.NewSource(seed)),
	}
}

func (s *scheduler) reseed(seed int64) {
	s.rng = rand.New(rand.NewSource(seed))
}

func (s *scheduler) reset() {
	s.last = 0
}

// pick chooses among eligible thread ids. actions supplies the
// instruction-kind hints; eligible is in ascending id order.
func (s *scheduler) pick(actions []event.Action, eligible []event.ThreadID) event.ThreadID {
	if len(eligible) == 1 {
		s.last = eligible[0]
		return eligible[0]
	}

	var chosen event.ThreadID
	switch s.policy {
	case PolicyWritesFirst:
		chosen = eligible[0]
		for _, tid := range eligible {
			if actions[tid].Kind == event.KindNonLoad {
				chosen = tid
				break
			}
		}
	case PolicyRoundRobin:
		chosen = eligible[0]
		for _, tid := range eligible {
			if tid > s.last {
				chosen = tid
				break
			}
		}
	case PolicyRandom:
		chosen = eligible[s.rng.Intn(len(eligible))]
	default:
		panic(fmt.Sprintf("engine: unknown scheduling policy %q", s.policy))
	}

	s.last = chosen
	return chosen
}
