package attempt

import (
	"sync"

	"github.com/Distrotech/asterisk/device"
)

// Set tracks every concurrent Attempt spawned for one caller. Its
// zero-value-adjacent constructor guarantees ReleaseAll is the single
// place every reservation is guaranteed to be undone, per spec.md §5's
// "the AttemptSet's destructor enforces release" invariant.
type Set struct {
	mu       sync.Mutex
	attempts []*Attempt
	closed   bool
}

// NewSet creates an empty AttemptSet.
func NewSet() *Set {
	return &Set{}
}

// Add registers a new Attempt. It is a no-op error path to add after
// ReleaseAll has already run (the caller's turn is over).
func (s *Set) Add(a *Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.attempts = append(s.attempts, a)
}

// StillGoing returns every attempt currently in the race.
func (s *Set) StillGoing() []*Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Attempt, 0, len(s.attempts))
	for _, a := range s.attempts {
		if a.StillGoing() {
			out = append(out, a)
		}
	}
	return out
}

// Len returns the number of attempts ever added to the set.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

// RetireAllExcept marks every attempt other than winner as no longer
// still-going, implementing spec.md §4.5's winner-take-first semantics.
// It does not release device reservations — callers that lost the race
// still need their device released via ReleaseAll or an explicit
// Release once the driver confirms the losing channel tore down.
func (s *Set) RetireAllExcept(winner *Attempt) {
	s.mu.Lock()
	attempts := append([]*Attempt(nil), s.attempts...)
	s.mu.Unlock()
	for _, a := range attempts {
		if a != winner {
			a.Retire()
		}
	}
}

// ReleaseAll releases every attempt's device reservation exactly once
// and marks the set closed. Safe to call multiple times.
func (s *Set) ReleaseAll(registry *device.Registry) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	attempts := append([]*Attempt(nil), s.attempts...)
	s.mu.Unlock()

	for _, a := range attempts {
		a.Release(registry)
	}
}
