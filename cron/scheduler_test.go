package cron_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Distrotech/asterisk/cron"
	"github.com/Distrotech/asterisk/device"
	"github.com/Distrotech/asterisk/member"
)

type fakeSource struct {
	mu   sync.Mutex
	rows []member.RealtimeMember
}

func (f *fakeSource) FetchMembers(_ context.Context, _ string) ([]member.RealtimeMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]member.RealtimeMember, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

type fakeDevices struct{ registry *device.Registry }

func (f fakeDevices) Acquire(key string) *device.Device { return f.registry.Acquire(key) }

func TestScheduler_ReconcilesOnTick(t *testing.T) {
	registry := device.NewRegistry()
	devices := fakeDevices{registry: registry}
	set := member.NewSet()
	source := &fakeSource{rows: []member.RealtimeMember{{Interface: "SIP/1"}}}

	var mu sync.Mutex
	var lastAdded []string
	sched := cron.NewScheduler(devices, cron.WithReconcileFunc(
		func(ctx context.Context, queue string, s *member.Set, src member.RealtimeSource, d member.DeviceAcquirer) (added, removed []string) {
			added, removed = cron.DefaultReconcile(ctx, queue, s, src, d)
			mu.Lock()
			lastAdded = added
			mu.Unlock()
			return added, removed
		},
	))

	if err := sched.AddQueue("support", "@every 30ms", set, source); err != nil {
		t.Fatalf("AddQueue: %v", err)
	}
	sched.Start()

	deadline := time.After(2 * time.Second)
	for {
		mu.Lock()
		got := len(lastAdded) > 0
		mu.Unlock()
		if got {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for reconciliation tick")
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	sched.Stop()

	if _, ok := set.Get("SIP/1"); !ok {
		t.Error("expected SIP/1 to be reconciled into the set")
	}
}

func TestScheduler_RemoveQueueStopsReconciliation(t *testing.T) {
	registry := device.NewRegistry()
	devices := fakeDevices{registry: registry}
	set := member.NewSet()
	source := &fakeSource{}

	sched := cron.NewScheduler(devices)
	if err := sched.AddQueue("support", "@every 1h", set, source); err != nil {
		t.Fatalf("AddQueue: %v", err)
	}
	sched.RemoveQueue("support")
	sched.Start()
	defer sched.Stop()

	// No entries left to fire; nothing to assert beyond no panic and a
	// clean Start/Stop cycle with the entry removed before it could run.
}

func TestScheduler_ReplacingQueueEntryDoesNotDuplicate(t *testing.T) {
	registry := device.NewRegistry()
	devices := fakeDevices{registry: registry}
	set := member.NewSet()
	source := &fakeSource{}

	sched := cron.NewScheduler(devices)
	if err := sched.AddQueue("support", "@every 1h", set, source); err != nil {
		t.Fatalf("AddQueue: %v", err)
	}
	if err := sched.AddQueue("support", "@every 2h", set, source); err != nil {
		t.Fatalf("AddQueue (replace): %v", err)
	}
}
