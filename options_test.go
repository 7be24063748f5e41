package asterisk

import (
	"context"
	"testing"

	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/persistence"
	"github.com/Distrotech/asterisk/persistence/memory"
	"github.com/Distrotech/asterisk/queue"
	"github.com/Distrotech/asterisk/ring"
	"github.com/Distrotech/asterisk/transport"
)

type nopDriver struct{}

func (nopDriver) Request(ctx context.Context, iface string) (string, error) { return "", nil }
func (nopDriver) Call(ctx context.Context, channelID, callerID, digits string) error { return nil }
func (nopDriver) Hangup(ctx context.Context, channelID string, cause int) error      { return nil }
func (nopDriver) Indicate(ctx context.Context, channelID string, ind transport.Indication) error {
	return nil
}
func (nopDriver) Bridge(ctx context.Context, a, b string) error { return nil }
func (nopDriver) WaitForEvents(ctx context.Context) (<-chan transport.Event, error) {
	return make(chan transport.Event), nil
}
func (nopDriver) Read(ctx context.Context, channelID string) ([]byte, error) { return nil, nil }

// TestStartLoadsDynamicMembersFromPersistence covers the startup half of
// spec.md §4.6: a queue registered before Start picks up a previously
// dumped dynamic-member set.
func TestStartLoadsDynamicMembersFromPersistence(t *testing.T) {
	store := memory.New()
	line := persistence.EncodeDynamicMembers([]persistence.DynamicMemberRecord{
		{Interface: "SIP/erin", Penalty: 1, Paused: true, DisplayName: "Erin", StateKey: "SIP/erin", CallInUse: false},
	})
	if err := store.DumpMembers(context.Background(), "support", line); err != nil {
		t.Fatalf("seed dump: %v", err)
	}

	e, err := New(WithDriver(nopDriver{}), WithPersistence(store))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	q := queue.New("support", queue.WithStrategy(ring.RingAll))
	e.Queues.Add(q)

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop(context.Background())

	m, found := q.Members.Get("SIP/erin")
	if !found {
		t.Fatal("expected the dynamic member to be restored from the persisted dump")
	}
	if m.Penalty != 1 || !m.IsPaused() || m.DisplayName != "Erin" {
		t.Fatalf("restored member does not match the dump: %+v", m)
	}
	if m.Provenance != member.ProvenanceDynamic {
		t.Fatalf("expected the restored member to carry dynamic provenance, got %v", m.Provenance)
	}
}

// TestStartWithoutPersistenceIsNoop confirms a nil persistence adapter
// leaves queues untouched at startup.
func TestStartWithoutPersistenceIsNoop(t *testing.T) {
	e, err := New(WithDriver(nopDriver{}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	q := queue.New("support", queue.WithStrategy(ring.RingAll))
	e.Queues.Add(q)

	if err := e.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop(context.Background())

	if q.Members.Len() != 0 {
		t.Fatalf("expected no members without a persistence adapter, got %d", q.Members.Len())
	}
}
