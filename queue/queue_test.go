package queue

import (
	"testing"
	"time"

	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/ring"
)

func TestNewAppliesOptions(t *testing.T) {
	q := New("support", WithStrategy(ring.Linear), WithMaxLen(5), WithWeight(3))
	if q.Strategy != ring.Linear || q.MaxLen != 5 || q.Weight != 3 {
		t.Fatalf("unexpected config: %+v", q.Config)
	}
}

func TestReloadSharesDataAndMembers(t *testing.T) {
	q := New("support")
	q.Members.Insert(&member.Member{Interface: "A", Provenance: member.ProvenanceStatic})
	q.Data.Insert(NewWaitingClient("c1", 0, time.Now()), 0)

	reloaded := q.Reload(DefaultConfig("support"))
	if reloaded.Data != q.Data {
		t.Fatal("expected Reload to share the same Data pointer")
	}
	if reloaded.Members != q.Members {
		t.Fatal("expected Reload to share the same Members pointer")
	}
	if reloaded.Data.Len() != 1 {
		t.Fatalf("expected the in-flight caller to survive reload, got %d waiting", reloaded.Data.Len())
	}
}

func TestNumAvailableMembersExcludesPaused(t *testing.T) {
	q := New("support")
	a := &member.Member{Interface: "A", Provenance: member.ProvenanceStatic}
	b := &member.Member{Interface: "B", Provenance: member.ProvenanceStatic}
	b.SetPaused(true)
	q.Members.Insert(a)
	q.Members.Insert(b)

	if got := q.NumAvailableMembers(); got != 1 {
		t.Fatalf("expected 1 available member, got %d", got)
	}
}
