package member

import "sort"

// PenaltyRule is one entry in a RuleSet (spec.md §3 PenaltyRule).
type PenaltyRule struct {
	Time         int // seconds since caller start at which to apply
	MaxValue     int
	MinValue     int
	MaxRelative  bool
	MinRelative  bool
}

// Apply mutates (min, max) according to this rule's semantics: relative
// rules add to the existing bound, absolute rules replace it; both
// bounds are floored at 0 and min is clamped to be <= max.
func (r PenaltyRule) Apply(min, max int) (newMin, newMax int) {
	if r.MaxRelative {
		newMax = max + r.MaxValue
	} else {
		newMax = r.MaxValue
	}
	if r.MinRelative {
		newMin = min + r.MinValue
	} else {
		newMin = r.MinValue
	}
	if newMax < 0 {
		newMax = 0
	}
	if newMin < 0 {
		newMin = 0
	}
	if newMin > newMax {
		newMin = newMax
	}
	return newMin, newMax
}

// RuleSet is a named, ordered collection of PenaltyRules keyed by
// elapsed-wait time (spec.md §4.2).
type RuleSet struct {
	Name  string
	Rules []PenaltyRule
}

// NewRuleSet creates a RuleSet, sorting its rules by Time ascending so
// BestRuleAfter can binary search / scan monotonically.
func NewRuleSet(name string, rules ...PenaltyRule) *RuleSet {
	sorted := append([]PenaltyRule(nil), rules...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })
	return &RuleSet{Name: name, Rules: sorted}
}

// BestRuleAfter returns the rule with the smallest Time value that is
// >= elapsed, and its index, or ok=false if none remain. The returned
// rule is the upcoming one, not yet due; the dispatcher's penalty-rule
// cursor walks Rules in order with RuleAt instead.
func (rs *RuleSet) BestRuleAfter(elapsed int) (rule PenaltyRule, index int, ok bool) {
	for i, r := range rs.Rules {
		if r.Time >= elapsed {
			return r, i, true
		}
	}
	return PenaltyRule{}, -1, false
}

// RuleAt returns the rule at cursor index, or ok=false if out of range.
func (rs *RuleSet) RuleAt(index int) (rule PenaltyRule, ok bool) {
	if index < 0 || index >= len(rs.Rules) {
		return PenaltyRule{}, false
	}
	return rs.Rules[index], true
}

// Registry is a named collection of RuleSets, mirroring how Queues
// reference a default rule name.
type Registry struct {
	sets map[string]*RuleSet
}

// NewRegistry creates an empty RuleSet registry.
func NewRegistry() *Registry {
	return &Registry{sets: make(map[string]*RuleSet)}
}

// Register adds or replaces a named RuleSet.
func (r *Registry) Register(rs *RuleSet) { r.sets[rs.Name] = rs }

// Get returns a RuleSet by name.
func (r *Registry) Get(name string) (*RuleSet, bool) {
	rs, ok := r.sets[name]
	return rs, ok
}

// List returns every registered RuleSet, for the management surface's
// "show rules" operation.
func (r *Registry) List() []*RuleSet {
	out := make([]*RuleSet, 0, len(r.sets))
	for _, rs := range r.sets {
		out = append(out, rs)
	}
	return out
}
