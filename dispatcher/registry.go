// Package dispatcher implements the main orchestration loop described in
// spec.md §4.4: resolve a queue, insert a caller into its waiting list,
// wait for a turn, ring members, race their answers, and bridge the
// winner. It composes every leaf package (device, member, queue, ring,
// attempt, eventmux, transport, events, audit, postmortem, middleware)
// into the one call a caller-handling task makes.
//
// Grounded on the teacher's engine.Engine (engine/engine.go): the same
// composition-root shape — a struct holding every subsystem plus a
// functional-Option constructor — generalized from job/workflow wiring
// to queue dispatch wiring, and on worker.Pool's retry-with-sleep loop
// generalized from job backoff to the ring loop's retry interval.
package dispatcher

import (
	"fmt"
	"sync"

	"github.com/Distrotech/asterisk/queue"
)

// Registry is the process-wide table of live Queues, keyed by name. It
// is the outermost lock in spec.md §5's lock hierarchy (level 1):
// nothing may be held while acquiring it, and it must never be entered
// while holding a Member, Device, or QueueData lock.
type Registry struct {
	mu     sync.RWMutex
	queues map[string]*queue.Queue
}

// NewRegistry creates an empty queue registry.
func NewRegistry() *Registry {
	return &Registry{queues: make(map[string]*queue.Queue)}
}

// Add registers q under its name, replacing any existing entry.
func (r *Registry) Add(q *queue.Queue) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queues[q.Name] = q
}

// Get looks up a queue by name.
func (r *Registry) Get(name string) (*queue.Queue, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.queues[name]
	return q, ok
}

// Remove deletes a queue by name.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.queues, name)
}

// Reload atomically replaces the queue registered under name with a new
// Queue value, built from apply(old Config), sharing the old one's Data and Members, per spec.md §9's reload
// atomicity design note: any caller that already resolved the old value
// keeps running against a still-live QueueData.
func (r *Registry) Reload(name string, apply func(cfg queue.Config) queue.Config) (*queue.Queue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.queues[name]
	if !ok {
		return nil, fmt.Errorf("dispatcher: reload: queue %q not found", name)
	}
	next := q.Reload(apply(q.Config))
	r.queues[name] = next
	return next, nil
}

// List returns every registered queue name.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.queues))
	for name := range r.queues {
		out = append(out, name)
	}
	return out
}

// Snapshot returns every registered queue, used by
// ring_entry's weight-preemption check (spec.md §4.4 precondition a):
// the caller filters this list for queues sharing the ringing member.
func (r *Registry) Snapshot() []*queue.Queue {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*queue.Queue, 0, len(r.queues))
	for _, q := range r.queues {
		out = append(out, q)
	}
	return out
}
