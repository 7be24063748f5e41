// Package redis implements persistence.Backend on top of Redis. It is
// the primary binding for the spec's KV-store collaborator: Redis's
// SET/GET/DEL map directly onto put/get/delete.
//
// Grounded on the teacher's store/redis.Store (same Option/New shape,
// same Cmdable-over-concrete-client indirection for testability).
package redis

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Distrotech/asterisk/persistence"
)

var _ persistence.Backend = (*Store)(nil)

// Option configures the Store.
type Option func(*Store)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store implements persistence.Backend backed by Redis.
type Store struct {
	client redis.Cmdable
	logger *slog.Logger
}

// New creates a Redis-backed store. The caller owns the client lifecycle.
func New(client redis.Cmdable, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Client returns the underlying Redis client for advanced usage.
func (s *Store) Client() redis.Cmdable { return s.client }

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error { return nil }

func (s *Store) Put(ctx context.Context, family, key, value string) error {
	return s.client.Set(ctx, kvKey(family, key), value, 0).Err()
}

func (s *Store) Get(ctx context.Context, family, key string) (string, bool, error) {
	v, err := s.client.Get(ctx, kvKey(family, key)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) Delete(ctx context.Context, family, key string) error {
	return s.client.Del(ctx, kvKey(family, key)).Err()
}

func (s *Store) DumpMembers(ctx context.Context, queue, line string) error {
	if line == "" {
		return s.client.Del(ctx, dumpKey(queue)).Err()
	}
	return s.client.Set(ctx, dumpKey(queue), line, 0).Err()
}

func (s *Store) LoadMembers(ctx context.Context, queue string) (string, bool, error) {
	v, err := s.client.Get(ctx, dumpKey(queue)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *Store) RecordCompletion(ctx context.Context, queue string, holdtime, talktime time.Duration, inSL bool) error {
	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, statsKey(queue), "completed", 1)
	if inSL {
		pipe.HIncrBy(ctx, statsKey(queue), "completed_in_sl", 1)
	}
	pipe.HSet(ctx, statsKey(queue), "holdtime_ns", int64(holdtime))
	pipe.HSet(ctx, statsKey(queue), "talktime_ns", int64(talktime))
	pipe.HSet(ctx, statsKey(queue), "recorded_at", time.Now().UTC().Format(time.RFC3339))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) RecordAbandon(ctx context.Context, queue string, _ int, _ time.Duration) error {
	pipe := s.client.Pipeline()
	pipe.HIncrBy(ctx, statsKey(queue), "abandoned", 1)
	pipe.HSet(ctx, statsKey(queue), "recorded_at", time.Now().UTC().Format(time.RFC3339))
	_, err := pipe.Exec(ctx)
	return err
}

func (s *Store) Snapshot(ctx context.Context, queue string) (persistence.QueueStatsSnapshot, error) {
	res, err := s.client.HGetAll(ctx, statsKey(queue)).Result()
	if err != nil {
		return persistence.QueueStatsSnapshot{}, err
	}
	snap := persistence.QueueStatsSnapshot{Queue: queue}
	if v, ok := res["completed"]; ok {
		snap.Completed = parseInt64(v)
	}
	if v, ok := res["completed_in_sl"]; ok {
		snap.CompletedInSL = parseInt64(v)
	}
	if v, ok := res["abandoned"]; ok {
		snap.Abandoned = parseInt64(v)
	}
	if v, ok := res["holdtime_ns"]; ok {
		snap.HoldtimeAvg = time.Duration(parseInt64(v))
	}
	if v, ok := res["talktime_ns"]; ok {
		snap.TalktimeAvg = time.Duration(parseInt64(v))
	}
	if v, ok := res["recorded_at"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			snap.RecordedAt = t
		}
	}
	return snap, nil
}

func parseInt64(s string) int64 {
	var n int64
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int64(c-'0')
	}
	return n
}
