// Package persistence defines the storage contracts the call-queue engine
// consumes: a lifecycle (Migrate/Ping/Close), a family-keyed KV store for
// the external key/value collaborator described by the spec, a
// dynamic-member dump/load adapter, and a moving-average stats recorder.
//
// Concrete backends live in subpackages (memory, redis, postgres,
// bunstore); each implements every interface in this file via a single
// concrete type, the same shape the teacher codebase used for its
// composite store.Store.
package persistence

import (
	"context"
	"time"
)

// Store is the lifecycle every persistence backend must support.
type Store interface {
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// KV is the external key/value collaborator from spec.md §6: put, get,
// delete keyed by a family (namespace) and a key within it.
type KV interface {
	Put(ctx context.Context, family, key, value string) error
	Get(ctx context.Context, family, key string) (string, bool, error)
	Delete(ctx context.Context, family, key string) error
}

// MemberPersister implements the Persistence adapter of spec.md §4.6:
// dynamic members are serialized to a single pipe-delimited string per
// queue and written/read as a unit. Realtime and static members are
// never persisted here.
type MemberPersister interface {
	// DumpMembers writes the serialized dynamic-member line for queue.
	// An empty line clears any previously stored dump.
	DumpMembers(ctx context.Context, queue, line string) error

	// LoadMembers reads back the serialized dynamic-member line for
	// queue. ok is false if nothing has been dumped for this queue.
	LoadMembers(ctx context.Context, queue string) (line string, ok bool, err error)
}

// QueueStatsSnapshot is the subset of QueueData statistics that survive
// a process restart when a backend records history.
type QueueStatsSnapshot struct {
	Queue         string
	Completed     int64
	CompletedInSL int64
	Abandoned     int64
	HoldtimeAvg   time.Duration
	TalktimeAvg   time.Duration
	RecordedAt    time.Time
}

// StatsRecorder persists completion/abandon events for historical
// reporting independent of the in-memory QueueData moving averages,
// which reset on restart.
type StatsRecorder interface {
	RecordCompletion(ctx context.Context, queue string, holdtime, talktime time.Duration, inSL bool) error
	RecordAbandon(ctx context.Context, queue string, position int, holdtime time.Duration) error
	Snapshot(ctx context.Context, queue string) (QueueStatsSnapshot, error)
}

// Backend is the full contract a concrete persistence implementation
// satisfies — the composition every backend type asserts against at
// compile time, mirroring the teacher's `var _ job.Store = (*Store)(nil)`
// convention.
type Backend interface {
	Store
	KV
	MemberPersister
	StatsRecorder
}
