package manageclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestListQueuesDecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/queues" || r.Method != http.MethodGet {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]QueueSnapshot{{Name: "support", Strategy: "ringall"}})
	}))
	defer srv.Close()

	c := New(srv.URL)
	queues, err := c.ListQueues(context.Background())
	if err != nil {
		t.Fatalf("ListQueues: %v", err)
	}
	if len(queues) != 1 || queues[0].Name != "support" {
		t.Fatalf("unexpected result: %+v", queues)
	}
}

func TestAddMemberSendsExpectedBody(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/queues/support/members" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if err := c.AddMember(context.Background(), "support", "SIP/alice", "Alice", 2); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if gotBody["interface"] != "SIP/alice" || gotBody["display_name"] != "Alice" {
		t.Fatalf("unexpected body: %+v", gotBody)
	}
}

func TestShowQueueNotFoundReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "queue not found: ghost"})
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.ShowQueue(context.Background(), "ghost"); err == nil {
		t.Fatal("expected an error for a missing queue")
	}
}
