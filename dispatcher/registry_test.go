package dispatcher

import (
	"testing"
	"time"

	"github.com/Distrotech/asterisk/queue"
)

func TestRegistryAddGetRemove(t *testing.T) {
	r := NewRegistry()
	q := queue.New("support")
	r.Add(q)

	got, ok := r.Get("support")
	if !ok || got != q {
		t.Fatalf("expected to get back the same queue, got %+v ok=%v", got, ok)
	}

	r.Remove("support")
	if _, ok := r.Get("support"); ok {
		t.Fatal("expected queue to be gone after Remove")
	}
}

func TestRegistryReloadSharesDataAndMembers(t *testing.T) {
	r := NewRegistry()
	q := queue.New("support", queue.WithWeight(1))
	r.Add(q)
	q.Data.Insert(queue.NewWaitingClient("chan-1", 0, time.Now()), 0)

	reloaded, err := r.Reload("support", func(cfg queue.Config) queue.Config {
		cfg.Weight = 5
		return cfg
	})
	if err != nil {
		t.Fatal(err)
	}
	if reloaded.Weight != 5 {
		t.Fatalf("expected reloaded weight 5, got %d", reloaded.Weight)
	}
	if reloaded.Data != q.Data || reloaded.Members != q.Members {
		t.Fatal("expected Reload to share Data and Members with the old Queue value")
	}

	got, _ := r.Get("support")
	if got != reloaded {
		t.Fatal("expected the registry to hold the reloaded Queue value")
	}
}

func TestRegistryReloadUnknownQueue(t *testing.T) {
	r := NewRegistry()
	_, err := r.Reload("ghost", func(cfg queue.Config) queue.Config { return cfg })
	if err == nil {
		t.Fatal("expected an error reloading an unregistered queue")
	}
}

func TestRegistrySnapshotAndList(t *testing.T) {
	r := NewRegistry()
	r.Add(queue.New("support"))
	r.Add(queue.New("sales"))

	names := r.List()
	if len(names) != 2 {
		t.Fatalf("expected 2 names, got %v", names)
	}

	snap := r.Snapshot()
	if len(snap) != 2 {
		t.Fatalf("expected 2 queues in snapshot, got %d", len(snap))
	}
}
