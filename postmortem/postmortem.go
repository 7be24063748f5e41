// Package postmortem implements the abandoned/timed-out caller log
// supplementing spec.md's data model: every caller who leaves a queue
// without being bridged (abandon, ring-timeout, or key-triggered exit)
// gets one durable Entry an operator can list or purge later.
//
// Grounded on postmortem_src/service.go's Service/Store split (formerly
// dlq's dead-letter-queue for failed jobs), generalized from "job
// exhausted its retry budget" to "caller left a queue without being
// served". The Replay operation dlq.Service exposed for re-enqueueing a
// job has no analogue here — a hung-up caller channel cannot be
// resubmitted — so postmortem drops it in favor of a plain postmortem
// log (see DESIGN.md).
package postmortem

import (
	"context"
	"time"

	"github.com/Distrotech/asterisk/id"
)

// Reason categorizes why a caller left without being served.
type Reason string

const (
	ReasonAbandon    Reason = "abandon"
	ReasonTimeout    Reason = "timeout"
	ReasonExitKey    Reason = "exit_key"
	ReasonExitEmpty  Reason = "exit_empty"
	ReasonFullAtJoin Reason = "full_at_join"
)

// Entry is one postmortem record.
type Entry struct {
	ID        id.PostmortemID `json:"id"`
	Queue     string          `json:"queue"`
	ChannelID string          `json:"channel_id"`
	Position  int             `json:"position"`
	Waited    time.Duration   `json:"waited"`
	Reason    Reason          `json:"reason"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListOpts controls pagination and filtering for postmortem queries.
type ListOpts struct {
	Limit  int
	Offset int
	Queue  string
}

// Store defines the persistence contract for postmortem entries.
type Store interface {
	Push(ctx context.Context, entry *Entry) error
	List(ctx context.Context, opts ListOpts) ([]*Entry, error)
	Get(ctx context.Context, entryID id.PostmortemID) (*Entry, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// Service provides high-level postmortem operations over a Store.
type Service struct {
	store Store
}

// NewService creates a postmortem service.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Record builds and persists an Entry for a caller that left queue
// without being bridged.
func (s *Service) Record(ctx context.Context, queue, channelID string, position int, waited time.Duration, reason Reason) error {
	entry := &Entry{
		ID:        id.NewPostmortemID(),
		Queue:     queue,
		ChannelID: channelID,
		Position:  position,
		Waited:    waited,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	return s.store.Push(ctx, entry)
}

// List delegates to the underlying Store.
func (s *Service) List(ctx context.Context, opts ListOpts) ([]*Entry, error) {
	return s.store.List(ctx, opts)
}

// Purge delegates to the underlying Store.
func (s *Service) Purge(ctx context.Context, before time.Time) (int64, error) {
	return s.store.Purge(ctx, before)
}
