package cron

import (
	"context"
	"log/slog"
	"sync"

	cronlib "github.com/robfig/cron/v3"

	"github.com/Distrotech/asterisk/member"
)

// ReconcileFunc is invoked on every tick for one queue's realtime
// membership. It fetches rows from source and folds them into set.
type ReconcileFunc func(ctx context.Context, queue string, set *member.Set, source member.RealtimeSource, devices member.DeviceAcquirer) (added, removed []string)

// DefaultReconcile is the ReconcileFunc used unless overridden, calling
// member.Set.ReconcileFrom directly against the source's live rows.
func DefaultReconcile(ctx context.Context, queue string, set *member.Set, source member.RealtimeSource, devices member.DeviceAcquirer) (added, removed []string) {
	rows, err := source.FetchMembers(ctx, queue)
	if err != nil {
		return nil, nil
	}
	return set.ReconcileFrom(rows, devices)
}

// Scheduler runs realtime-member reconciliation on a schedule per
// queue, using robfig/cron/v3's in-process Cron under the hood.
type Scheduler struct {
	mu        sync.Mutex
	c         *cronlib.Cron
	logger    *slog.Logger
	reconcile ReconcileFunc
	devices   member.DeviceAcquirer
	entries   map[string]cronlib.EntryID
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used to report reconciliation results.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithReconcileFunc overrides DefaultReconcile, for testing.
func WithReconcileFunc(fn ReconcileFunc) Option {
	return func(s *Scheduler) { s.reconcile = fn }
}

// NewScheduler builds a Scheduler. devices resolves the device.Registry
// entry newly-seen realtime members should share.
func NewScheduler(devices member.DeviceAcquirer, opts ...Option) *Scheduler {
	s := &Scheduler{
		c:         cronlib.New(),
		logger:    slog.Default(),
		reconcile: DefaultReconcile,
		devices:   devices,
		entries:   make(map[string]cronlib.EntryID),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddQueue schedules periodic reconciliation of queue's realtime
// members against source, at the given cron expression (e.g.
// "*/5 * * * *" or "@every 30s"). Calling AddQueue again for a queue
// already scheduled replaces its entry.
func (s *Scheduler) AddQueue(queueName string, schedule string, set *member.Set, source member.RealtimeSource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[queueName]; ok {
		s.c.Remove(id)
	}

	id, err := s.c.AddFunc(schedule, func() {
		added, removed := s.reconcile(context.Background(), queueName, set, source, s.devices)
		if len(added) > 0 || len(removed) > 0 {
			s.logger.Info("realtime reconciliation",
				slog.String("queue", queueName),
				slog.Any("added", added),
				slog.Any("removed", removed),
			)
		}
	})
	if err != nil {
		return err
	}
	s.entries[queueName] = id
	return nil
}

// RemoveQueue cancels reconciliation for queueName, e.g. when the queue
// is deleted or reconfigured without a realtime source.
func (s *Scheduler) RemoveQueue(queueName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.entries[queueName]; ok {
		s.c.Remove(id)
		delete(s.entries, queueName)
	}
}

// Start begins running scheduled reconciliations in the background.
func (s *Scheduler) Start() { s.c.Start() }

// Stop halts the scheduler without waiting; the returned context is done
// once any tick already running has finished.
func (s *Scheduler) Stop() context.Context { return s.c.Stop() }
