// Package member implements the Member data model and the per-Queue
// member set described in spec.md §3 and §4.2: an interface-keyed table
// with provenance precedence (Static > Realtime > Dynamic), pause/penalty
// mutation, and realtime sweep-dead reconciliation.
//
// Grounded on the teacher's job.Registry (a mutex-guarded map keyed by
// name with Insert/Get/Names) generalized to member provenance rules.
package member

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Distrotech/asterisk/device"
)

// Provenance records how a Member entered the queue's member set.
type Provenance int

const (
	// ProvenanceStatic members come from static configuration and can
	// never be overwritten by realtime or dynamic registrations.
	ProvenanceStatic Provenance = iota
	// ProvenanceRealtime members come from a realtime backend reload
	// and overwrite dynamic members but not static ones.
	ProvenanceRealtime
	// ProvenanceDynamic members are added at runtime (e.g. via the
	// management surface) and never overwrite a static or realtime
	// registration; a dynamic re-add replaces an existing dynamic one.
	ProvenanceDynamic
)

func (p Provenance) String() string {
	switch p {
	case ProvenanceStatic:
		return "static"
	case ProvenanceRealtime:
		return "realtime"
	default:
		return "dynamic"
	}
}

// precedence returns true if candidate is allowed to replace existing.
func precedence(existing, candidate Provenance) bool {
	if existing == ProvenanceStatic {
		return false
	}
	if existing == ProvenanceRealtime {
		return candidate == ProvenanceRealtime || candidate == ProvenanceStatic
	}
	// existing == ProvenanceDynamic: static and realtime overwrite it,
	// and another dynamic registration replaces it as an ordinary update.
	return true
}

// Member is a queue-scoped record referencing a shared Device.
type Member struct {
	mu sync.Mutex

	Interface         string
	DisplayName       string
	Penalty           int
	Calls             int64
	LastCallEnd       time.Time
	LastWrapupSeconds int
	Paused            bool
	CallInUse         bool
	Provenance        Provenance
	Dead              bool
	RealtimeUID       string

	Dev *device.Device
}

// EligibleAfterWrapup reports whether enough time has passed since the
// member's last completed call for it to be rung again.
func (m *Member) EligibleAfterWrapup(now time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LastCallEnd.IsZero() {
		return true
	}
	return now.After(m.LastCallEnd.Add(time.Duration(m.LastWrapupSeconds) * time.Second))
}

// RecordCallEnd marks a completed call for wrap-up accounting.
func (m *Member) RecordCallEnd(at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastCallEnd = at
	m.Calls++
}

// IsPaused reports the member's pause flag.
func (m *Member) IsPaused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Paused
}

// SetPaused sets the member's pause flag and returns the previous value.
func (m *Member) SetPaused(v bool) (prev bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev = m.Paused
	m.Paused = v
	return prev
}

// SetPenalty sets the member's penalty and returns the previous value.
func (m *Member) SetPenalty(p int) (prev int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev = m.Penalty
	m.Penalty = p
	return prev
}

// CallCount returns the member's lifetime completed-call count.
func (m *Member) CallCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// SecondsSinceLastCall returns elapsed seconds since the last completed
// call, or -1 if the member has never completed a call.
func (m *Member) SecondsSinceLastCall(now time.Time) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LastCallEnd.IsZero() {
		return -1
	}
	return int64(now.Sub(m.LastCallEnd).Seconds())
}

// Set is the Queue-scoped member table, keyed by interface, with
// insertion-order preserved for Linear/RROrdered strategies.
type Set struct {
	mu      sync.RWMutex
	byIface map[string]*Member
	order   []string
}

// NewSet creates an empty member set.
func NewSet() *Set {
	return &Set{byIface: make(map[string]*Member)}
}

// AddResult reports what Insert actually did, for logging and eventing.
type AddResult int

const (
	AddResultInserted AddResult = iota
	AddResultUpdated
	AddResultRejected
)

// Insert adds or updates a member according to provenance precedence
// (spec.md §3 Member invariants). Insertion order is preserved on first
// insert; a later update does not move the member's position.
func (s *Set) Insert(m *Member) (AddResult, error) {
	if m.Interface == "" {
		return AddResultRejected, fmt.Errorf("member: empty interface")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.byIface[m.Interface]
	if !ok {
		s.byIface[m.Interface] = m
		s.order = append(s.order, m.Interface)
		return AddResultInserted, nil
	}

	if !precedence(existing.Provenance, m.Provenance) {
		return AddResultRejected, nil
	}

	s.byIface[m.Interface] = m
	return AddResultUpdated, nil
}

// Remove deletes a member by interface, returning it if present.
func (s *Set) Remove(iface string) *Member {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byIface[iface]
	if !ok {
		return nil
	}
	delete(s.byIface, iface)
	for i, name := range s.order {
		if name == iface {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return m
}

// Get returns a member by interface.
func (s *Set) Get(iface string) (*Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byIface[iface]
	return m, ok
}

// Members returns the member set in stable insertion order.
func (s *Set) Members() []*Member {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Member, 0, len(s.order))
	for _, iface := range s.order {
		out = append(out, s.byIface[iface])
	}
	return out
}

// PositionOf returns the insertion-order index of iface, or -1.
func (s *Set) PositionOf(iface string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i, name := range s.order {
		if name == iface {
			return i
		}
	}
	return -1
}

// MarkDead flags every current realtime member as dead, in preparation
// for a realtime reload; SweepDead then removes any still marked dead
// after the reload re-adds the members that still exist.
func (s *Set) MarkDead() {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.byIface {
		if m.Provenance == ProvenanceRealtime {
			m.mu.Lock()
			m.Dead = true
			m.mu.Unlock()
		}
	}
}

// SweepDead removes every realtime member still marked dead and returns
// their interfaces (for REMOVEMEMBER logging), implementing spec.md
// §4.2's realtime reconciliation and scenario S6.
func (s *Set) SweepDead() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for iface, m := range s.byIface {
		if m.Provenance == ProvenanceRealtime && m.Dead {
			removed = append(removed, iface)
			delete(s.byIface, iface)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	sort.Strings(removed)
	kept := s.order[:0:0]
	for _, iface := range s.order {
		if _, ok := s.byIface[iface]; ok {
			kept = append(kept, iface)
		}
	}
	s.order = kept
	return removed
}

// Reconcile re-adds an interface reported present by the realtime
// source, clearing its dead flag, so an unchanged member (like "y" in
// scenario S6) produces no spurious add/remove events.
func (s *Set) Reconcile(iface string) (existed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.byIface[iface]
	if !ok {
		return false
	}
	m.mu.Lock()
	m.Dead = false
	m.mu.Unlock()
	return true
}

// Len returns the number of members in the set.
func (s *Set) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
