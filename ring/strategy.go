// Package ring implements the RingSelector described in spec.md §4.3:
// a per-strategy metric calculator and candidate selector. Lower metric
// means higher preference. The package is pure logic — it knows nothing
// about queues or callers, only about member.Member values, a cursor,
// and a penalty window, so it composes cleanly under the queue and
// dispatcher packages without an import cycle.
//
// Grounded on the interface shape of dyprodg-MONTI's RoutingStrategy
// (SelectAgent over a candidate slice) and on backoff.Strategy's
// pluggable-interface idiom for per-strategy behavior.
package ring

// Strategy selects how RingSelector computes per-member metrics.
type Strategy int

const (
	RingAll Strategy = iota
	LeastRecent
	FewestCalls
	Random
	RRMemory
	Linear
	WeightedRandom
	RROrdered
)

func (s Strategy) String() string {
	switch s {
	case RingAll:
		return "ringall"
	case LeastRecent:
		return "leastrecent"
	case FewestCalls:
		return "fewestcalls"
	case Random:
		return "random"
	case RRMemory:
		return "rrmemory"
	case Linear:
		return "linear"
	case WeightedRandom:
		return "wrandom"
	case RROrdered:
		return "rrordered"
	default:
		return "unknown"
	}
}

// ParseStrategy parses a strategy name, defaulting to RingAll on an
// unrecognized value's caller not checking ok.
func ParseStrategy(s string) (Strategy, bool) {
	switch s {
	case "ringall":
		return RingAll, true
	case "leastrecent":
		return LeastRecent, true
	case "fewestcalls":
		return FewestCalls, true
	case "random":
		return Random, true
	case "rrmemory":
		return RRMemory, true
	case "linear":
		return Linear, true
	case "wrandom":
		return WeightedRandom, true
	case "rrordered":
		return RROrdered, true
	default:
		return RingAll, false
	}
}

// PenaltyBand is the portion of a metric contributed by penalty
// (spec.md GLOSSARY: penalty × 1,000,000).
const PenaltyBand = 1_000_000
