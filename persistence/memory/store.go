// Package memory implements persistence.Backend in-process, for tests
// and for running the engine without an external dependency. Grounded
// on the teacher's store/memory.Store: a single mutex-guarded struct
// implementing every subsystem interface.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Distrotech/asterisk/persistence"
)

var _ persistence.Backend = (*Store)(nil)

// Store is an in-memory persistence.Backend.
type Store struct {
	mu      sync.RWMutex
	kv      map[string]map[string]string
	dumps   map[string]string
	stats   map[string]*statsEntry
}

type statsEntry struct {
	completed, completedInSL, abandoned int64
	holdtimeAvg, talktimeAvg            time.Duration
	recordedAt                          time.Time
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		kv:    make(map[string]map[string]string),
		dumps: make(map[string]string),
		stats: make(map[string]*statsEntry),
	}
}

func (s *Store) Migrate(_ context.Context) error { return nil }
func (s *Store) Ping(_ context.Context) error     { return nil }
func (s *Store) Close() error                     { return nil }

func (s *Store) Put(_ context.Context, family, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fam, ok := s.kv[family]
	if !ok {
		fam = make(map[string]string)
		s.kv[family] = fam
	}
	fam[key] = value
	return nil
}

func (s *Store) Get(_ context.Context, family, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fam, ok := s.kv[family]
	if !ok {
		return "", false, nil
	}
	v, ok := fam[key]
	return v, ok, nil
}

func (s *Store) Delete(_ context.Context, family, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fam, ok := s.kv[family]; ok {
		delete(fam, key)
	}
	return nil
}

func (s *Store) DumpMembers(_ context.Context, queue, line string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if line == "" {
		delete(s.dumps, queue)
		return nil
	}
	s.dumps[queue] = line
	return nil
}

func (s *Store) LoadMembers(_ context.Context, queue string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	line, ok := s.dumps[queue]
	return line, ok, nil
}

func (s *Store) RecordCompletion(_ context.Context, queue string, holdtime, talktime time.Duration, inSL bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(queue)
	e.completed++
	if inSL {
		e.completedInSL++
	}
	e.holdtimeAvg = ewma(e.holdtimeAvg, holdtime, e.completed)
	e.talktimeAvg = ewma(e.talktimeAvg, talktime, e.completed)
	e.recordedAt = time.Now().UTC()
	return nil
}

func (s *Store) RecordAbandon(_ context.Context, queue string, _ int, holdtime time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entry(queue)
	e.abandoned++
	e.recordedAt = time.Now().UTC()
	_ = holdtime
	return nil
}

func (s *Store) Snapshot(_ context.Context, queue string) (persistence.QueueStatsSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.stats[queue]
	if !ok {
		return persistence.QueueStatsSnapshot{Queue: queue}, nil
	}
	return persistence.QueueStatsSnapshot{
		Queue:         queue,
		Completed:     e.completed,
		CompletedInSL: e.completedInSL,
		Abandoned:     e.abandoned,
		HoldtimeAvg:   e.holdtimeAvg,
		TalktimeAvg:   e.talktimeAvg,
		RecordedAt:    e.recordedAt,
	}, nil
}

func (s *Store) entry(queue string) *statsEntry {
	e, ok := s.stats[queue]
	if !ok {
		e = &statsEntry{}
		s.stats[queue] = e
	}
	return e
}

// ewma applies the same 0.9/0.1 weighting as queue.Data's
// holdtime/talktime moving averages (queue's ewma), taking the sample
// as-is for the first recorded completion (n <= 1).
func ewma(prev, sample time.Duration, n int64) time.Duration {
	if n <= 1 {
		return sample
	}
	const weight = 0.9
	return time.Duration(weight*float64(prev) + (1-weight)*float64(sample))
}
