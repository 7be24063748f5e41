package member

import "testing"

func TestInsertProvenancePrecedence(t *testing.T) {
	s := NewSet()

	if res, err := s.Insert(&Member{Interface: "SIP/100", Provenance: ProvenanceDynamic}); err != nil || res != AddResultInserted {
		t.Fatalf("initial insert: res=%v err=%v", res, err)
	}

	// Dynamic must never overwrite an existing dynamic registration's
	// place in provenance terms other than a plain update... but per
	// spec, "Dynamic never overwrites" refers to conflicting
	// registrations from a *different* provenance; a same-provenance
	// re-add is a normal update.
	if res, _ := s.Insert(&Member{Interface: "SIP/100", Provenance: ProvenanceRealtime}); res != AddResultUpdated {
		t.Fatalf("realtime should overwrite dynamic, got %v", res)
	}

	if res, _ := s.Insert(&Member{Interface: "SIP/100", Provenance: ProvenanceDynamic}); res != AddResultRejected {
		t.Fatalf("dynamic must not overwrite realtime, got %v", res)
	}

	if res, _ := s.Insert(&Member{Interface: "SIP/100", Provenance: ProvenanceStatic}); res != AddResultUpdated {
		t.Fatalf("static should overwrite realtime, got %v", res)
	}

	if res, _ := s.Insert(&Member{Interface: "SIP/100", Provenance: ProvenanceRealtime}); res != AddResultRejected {
		t.Fatalf("realtime must not overwrite static, got %v", res)
	}
}

func TestInsertionOrderPreservedForLinear(t *testing.T) {
	s := NewSet()
	for _, iface := range []string{"A", "B", "C"} {
		if _, err := s.Insert(&Member{Interface: iface, Provenance: ProvenanceStatic}); err != nil {
			t.Fatal(err)
		}
	}
	members := s.Members()
	if len(members) != 3 || members[0].Interface != "A" || members[1].Interface != "B" || members[2].Interface != "C" {
		t.Fatalf("unexpected order: %+v", members)
	}
}

// TestRealtimeReconcile implements scenario S6: initial realtime members
// {x, y, z}; reload with {y, w}; x and z are removed, w is added, y is
// unchanged (no spurious events).
func TestRealtimeReconcile(t *testing.T) {
	s := NewSet()
	for _, iface := range []string{"x", "y", "z"} {
		if _, err := s.Insert(&Member{Interface: iface, Provenance: ProvenanceRealtime}); err != nil {
			t.Fatal(err)
		}
	}

	s.MarkDead()

	for _, iface := range []string{"y"} {
		if !s.Reconcile(iface) {
			t.Fatalf("expected %s to already exist", iface)
		}
	}
	if _, err := s.Insert(&Member{Interface: "w", Provenance: ProvenanceRealtime}); err != nil {
		t.Fatal(err)
	}

	removed := s.SweepDead()
	if len(removed) != 2 || removed[0] != "x" || removed[1] != "z" {
		t.Fatalf("expected x and z removed, got %v", removed)
	}

	if _, ok := s.Get("y"); !ok {
		t.Fatal("y should remain")
	}
	if _, ok := s.Get("w"); !ok {
		t.Fatal("w should be present")
	}
	if _, ok := s.Get("x"); ok {
		t.Fatal("x should be removed")
	}
}

func TestPenaltyRuleIdempotence(t *testing.T) {
	// Property 7: advancing the cursor and then advancing again with no
	// time elapsed must produce no further mutation.
	rs := NewRuleSet("default", PenaltyRule{Time: 10, MaxRelative: true, MaxValue: 5})

	rule, idx, ok := rs.BestRuleAfter(10)
	if !ok || idx != 0 {
		t.Fatalf("expected rule 0 to apply at elapsed=10, got idx=%d ok=%v", idx, ok)
	}
	min, max := rule.Apply(0, 0)
	if min != 0 || max != 5 {
		t.Fatalf("expected min=0 max=5, got min=%d max=%d", min, max)
	}

	// Re-applying the same rule (simulating a second tick with the same
	// elapsed time) must be a no-op relative to the already-mutated window
	// only if the caller does not re-invoke Apply — the cursor advance is
	// the caller's responsibility. Verify BestRuleAfter itself is stable.
	rule2, idx2, ok2 := rs.BestRuleAfter(10)
	if !ok2 || idx2 != idx || rule2 != rule {
		t.Fatal("BestRuleAfter must be a pure function of elapsed")
	}
}

func TestPenaltyRuleFloorsAtZero(t *testing.T) {
	r := PenaltyRule{MaxRelative: true, MaxValue: -100, MinRelative: true, MinValue: -100}
	min, max := r.Apply(10, 10)
	if min != 0 || max != 0 {
		t.Fatalf("expected floor at 0, got min=%d max=%d", min, max)
	}
}

func TestPenaltyRuleMinNeverExceedsMax(t *testing.T) {
	r := PenaltyRule{MaxValue: 2, MinValue: 5}
	min, max := r.Apply(0, 0)
	if min > max {
		t.Fatalf("min must never exceed max: min=%d max=%d", min, max)
	}
}
