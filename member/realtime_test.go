package member_test

import (
	"testing"

	"github.com/Distrotech/asterisk/device"
	"github.com/Distrotech/asterisk/member"
)

type fakeDevices struct{ registry *device.Registry }

func (f fakeDevices) Acquire(key string) *device.Device { return f.registry.Acquire(key) }

func TestReconcileFrom_AddsNewAndRemovesMissing(t *testing.T) {
	s := member.NewSet()
	registry := device.NewRegistry()
	devices := fakeDevices{registry: registry}

	s.Insert(&member.Member{Interface: "SIP/x", Provenance: member.ProvenanceRealtime, Dev: registry.Acquire("SIP/x")})
	s.Insert(&member.Member{Interface: "SIP/y", Provenance: member.ProvenanceRealtime, Dev: registry.Acquire("SIP/y")})

	added, removed := s.ReconcileFrom([]member.RealtimeMember{
		{Interface: "SIP/y"},
		{Interface: "SIP/z"},
	}, devices)

	if len(added) != 1 || added[0] != "SIP/z" {
		t.Errorf("expected SIP/z added, got %v", added)
	}
	if len(removed) != 1 || removed[0] != "SIP/x" {
		t.Errorf("expected SIP/x removed, got %v", removed)
	}
	if _, ok := s.Get("SIP/x"); ok {
		t.Error("SIP/x should have been removed")
	}
	if _, ok := s.Get("SIP/y"); !ok {
		t.Error("SIP/y should still be present")
	}
	if _, ok := s.Get("SIP/z"); !ok {
		t.Error("SIP/z should have been added")
	}
}

func TestReconcileFrom_UpdatesPenaltyAndPauseOnExisting(t *testing.T) {
	s := member.NewSet()
	registry := device.NewRegistry()
	devices := fakeDevices{registry: registry}

	s.Insert(&member.Member{Interface: "SIP/x", Provenance: member.ProvenanceRealtime, Dev: registry.Acquire("SIP/x")})

	s.ReconcileFrom([]member.RealtimeMember{
		{Interface: "SIP/x", Penalty: 5, Paused: true},
	}, devices)

	m, ok := s.Get("SIP/x")
	if !ok {
		t.Fatal("expected SIP/x to remain")
	}
	if m.Penalty != 5 {
		t.Errorf("expected penalty 5, got %d", m.Penalty)
	}
	if !m.IsPaused() {
		t.Error("expected member to be paused")
	}
}

func TestReconcileFrom_NeverTouchesStaticOrDynamic(t *testing.T) {
	s := member.NewSet()
	registry := device.NewRegistry()
	devices := fakeDevices{registry: registry}

	s.Insert(&member.Member{Interface: "SIP/static", Provenance: member.ProvenanceStatic, Dev: registry.Acquire("SIP/static")})
	s.Insert(&member.Member{Interface: "SIP/dynamic", Provenance: member.ProvenanceDynamic, Dev: registry.Acquire("SIP/dynamic")})

	_, removed := s.ReconcileFrom(nil, devices)

	if len(removed) != 0 {
		t.Errorf("expected no removals, got %v", removed)
	}
	if _, ok := s.Get("SIP/static"); !ok {
		t.Error("static member should be untouched")
	}
	if _, ok := s.Get("SIP/dynamic"); !ok {
		t.Error("dynamic member should be untouched")
	}
}
