package ring

import (
	"math/rand/v2"
	"time"

	"github.com/Distrotech/asterisk/member"
)

// Cursor is the small stateful counter a strategy advances between
// rounds: the per-caller linear cursor for Linear, or the queue-wide
// rr_pos/rr_wrapped pair for RRMemory/RROrdered. WaitingClient and
// QueueData each implement this directly so ring never imports queue.
type Cursor interface {
	Value() int
	SetValue(int)
	Wrapped() bool
	SetWrapped(bool)
}

// Candidate is one Member under consideration for a ring round, along
// with its stable insertion-order position (used by Linear/RRMemory/
// RROrdered).
type Candidate struct {
	Member   *member.Member
	Position int
}

// Scored is a Candidate with its computed metric, or Excluded=true if
// the penalty window gate removed it entirely.
type Scored struct {
	Candidate
	Metric   int
	Excluded bool
}

// Selector computes metrics and selects ring candidates for one
// strategy.
type Selector struct {
	Strategy      Strategy
	PenaltyLimit  int // "L" in spec.md §4.3: membercount threshold for usepenalty
	Rand          *rand.Rand
}

// NewSelector creates a Selector. With a nil Rand, each selection uses
// a fresh math/rand/v2 PCG source seeded from the global generator, so
// no caller-supplied source is needed in the common case.
func NewSelector(strategy Strategy, penaltyLimit int) *Selector {
	return &Selector{Strategy: strategy, PenaltyLimit: penaltyLimit}
}

func (s *Selector) rng() *rand.Rand {
	if s.Rand != nil {
		return s.Rand
	}
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// usePenalty implements spec.md §4.3: "usepenalty = 1 iff M > L".
func (s *Selector) usePenalty(memberCount int) bool {
	return memberCount > s.PenaltyLimit
}

// Score computes the metric for every candidate for one ring round.
// minPenalty/maxPenalty is the caller's current penalty window (0 means
// unbounded on that side, per spec.md §4.3's penalty window gate).
func (s *Selector) Score(candidates []Candidate, cursor Cursor, minPenalty, maxPenalty int, now time.Time) []Scored {
	usePen := s.usePenalty(len(candidates))
	out := make([]Scored, 0, len(candidates))

	for _, c := range candidates {
		penalty := c.Member.Penalty
		if usePen && ((minPenalty != 0 && penalty < minPenalty) || (maxPenalty != 0 && penalty > maxPenalty)) {
			out = append(out, Scored{Candidate: c, Excluded: true})
			continue
		}

		band := 0
		if usePen {
			band = penalty * PenaltyBand
		}

		var metric int
		switch s.Strategy {
		case RingAll:
			metric = band
		case Linear, RRMemory, RROrdered:
			pos := c.Position
			cur := cursor.Value()
			if pos < cur {
				metric = 1000 + pos
			} else {
				metric = pos
				if pos > cur {
					cursor.SetWrapped(true)
				}
			}
			metric += band
		case Random:
			metric = s.rng().IntN(1000) + band
		case WeightedRandom:
			// A negative penalty (spec.md §3: invalid/excluded outside the
			// usePenalty gate) can drive the spread to zero or below;
			// IntN panics on a non-positive argument, so floor it at 1.
			spread := 1000 * (1 + penalty)
			if spread < 1 {
				spread = 1
			}
			metric = s.rng().IntN(spread)
		case FewestCalls:
			metric = int(c.Member.CallCount()) + band
		case LeastRecent:
			secs := c.Member.SecondsSinceLastCall(now)
			if secs < 0 {
				metric = 0
			} else {
				metric = 1_000_000 - int(secs)
			}
			metric += band
		}

		out = append(out, Scored{Candidate: c, Metric: metric})
	}

	return out
}

// Round selects the candidates to ring this round: for RingAll, every
// still-eligible candidate within the top metric band; for every other
// strategy, only the single best. still restricts consideration to
// candidates that are still in play (not already placed/retired) by
// interface.
func (s *Selector) Round(scored []Scored, still func(iface string) bool) []Scored {
	var best *Scored
	for i := range scored {
		sc := &scored[i]
		if sc.Excluded || !still(sc.Member.Interface) {
			continue
		}
		if best == nil || sc.Metric < best.Metric {
			best = sc
		}
	}
	if best == nil {
		return nil
	}

	if s.Strategy == RingAll {
		var selected []Scored
		for i := range scored {
			sc := &scored[i]
			if sc.Excluded || !still(sc.Member.Interface) {
				continue
			}
			if sc.Metric <= best.Metric {
				selected = append(selected, *sc)
			}
		}
		return selected
	}

	return []Scored{*best}
}

// AdvanceCursor implements spec.md §4.3's post-round cursor update:
// RRMemory/RROrdered write back rr_pos stripped of the penalty band;
// Linear writes back the caller's cursor. If the round selected no
// candidate, the cursor resets to 0 unless already wrapped, in which
// case it increments (per the Open Question decision in DESIGN.md: the
// source increments even though this may starve — this module keeps
// that behavior for fidelity and documents the risk).
func (s *Selector) AdvanceCursor(cursor Cursor, selected []Scored) {
	if len(selected) == 0 {
		if cursor.Wrapped() {
			cursor.SetValue(cursor.Value() + 1)
		} else {
			cursor.SetValue(0)
		}
		return
	}

	switch s.Strategy {
	case RRMemory, RROrdered:
		best := selected[0]
		cursor.SetValue(best.Metric % 1000)
	case Linear:
		best := selected[0]
		cursor.SetValue(best.Position)
	}
}
