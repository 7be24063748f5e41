package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Distrotech/asterisk/events"
)

func TestDeliverPostsToMatchingTarget(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	notifier := New([]Target{{URL: srv.URL, Kinds: map[events.Kind]bool{events.KindJoin: true}}})
	raw, _ := json.Marshal(events.CallerEventData{Queue: "support"})
	notifier.Deliver(context.Background(), &events.Event{Kind: events.KindJoin, Data: raw})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if received.Load() == 1 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected exactly one delivery")
}

func TestDeliverSkipsUnmatchedKind(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
	}))
	defer srv.Close()

	notifier := New([]Target{{URL: srv.URL, Kinds: map[events.Kind]bool{events.KindLeave: true}}})
	notifier.Deliver(context.Background(), &events.Event{Kind: events.KindJoin})

	time.Sleep(50 * time.Millisecond)
	if received.Load() != 0 {
		t.Fatal("expected no delivery for unmatched kind")
	}
}
