package queue

import (
	"sync"
	"time"
)

// Data is the mutable half of a Queue: the ordered waiting list, the
// round-robin cursor shared by RRMemory/RROrdered, and the running
// statistics used by holdtime/talktime moving averages and
// service-level accounting (spec.md §3 QueueData).
//
// Data implements ring.Cursor directly via RRPos/RRWrapped so
// RRMemory/RROrdered strategies can advance a queue-wide cursor without
// ring importing this package.
type Data struct {
	mu sync.Mutex

	waiting []*WaitingClient

	rrPos     int
	rrWrapped bool

	holdtimeAvg  time.Duration
	talktimeAvg  time.Duration
	completed    int64
	completedSL  int64
	abandoned    int64
}

// NewData returns an empty Data.
func NewData() *Data {
	return &Data{}
}

// Value/SetValue/Wrapped/SetWrapped implement ring.Cursor.
func (d *Data) Value() int       { d.mu.Lock(); defer d.mu.Unlock(); return d.rrPos }
func (d *Data) SetValue(v int)   { d.mu.Lock(); defer d.mu.Unlock(); d.rrPos = v }
func (d *Data) Wrapped() bool    { d.mu.Lock(); defer d.mu.Unlock(); return d.rrWrapped }
func (d *Data) SetWrapped(w bool) { d.mu.Lock(); defer d.mu.Unlock(); d.rrWrapped = w }

// Len returns the number of waiting callers.
func (d *Data) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.waiting)
}

// Insert places wc into the waiting list per spec.md §4.4 step 2: walk
// the list from the front and insert wc before the first entry with a
// strictly lower priority, or at a caller-requested position (never
// ahead of a strictly higher-priority entry). Position fields on every
// waiting client are renumbered afterward so WaitingClient.Position
// always reflects current queue order.
func (d *Data) Insert(wc *WaitingClient, requestedPosition int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	idx := len(d.waiting)
	for i, other := range d.waiting {
		if other.Priority < wc.Priority {
			idx = i
			break
		}
		if requestedPosition > 0 && i+1 == requestedPosition && other.Priority == wc.Priority {
			idx = i + 1
			break
		}
	}

	d.waiting = append(d.waiting, nil)
	copy(d.waiting[idx+1:], d.waiting[idx:])
	d.waiting[idx] = wc

	d.renumberLocked()
}

// Remove takes wc out of the waiting list (leave, abandon, or bridge)
// and renumbers the remaining callers' positions.
func (d *Data) Remove(wc *WaitingClient) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, other := range d.waiting {
		if other == wc {
			d.waiting = append(d.waiting[:i], d.waiting[i+1:]...)
			d.renumberLocked()
			return true
		}
	}
	return false
}

// Waiting returns a snapshot of the current waiting list in order.
func (d *Data) Waiting() []*WaitingClient {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*WaitingClient, len(d.waiting))
	copy(out, d.waiting)
	return out
}

func (d *Data) renumberLocked() {
	for i, wc := range d.waiting {
		wc.Position = i + 1
	}
}

// RecordCompletion folds a bridged call's hold and talk time into the
// moving averages using the fixed-point exponential filter (weight 0.9,
// matching the historical Asterisk default), and updates the
// service-level counter if the hold time was within the queue's target.
func (d *Data) RecordCompletion(hold, talk time.Duration, withinServiceLevel bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.holdtimeAvg = ewma(d.holdtimeAvg, hold)
	d.talktimeAvg = ewma(d.talktimeAvg, talk)
	d.completed++
	if withinServiceLevel {
		d.completedSL++
	}
}

// RecordAbandon increments the abandoned-caller counter.
func (d *Data) RecordAbandon(hold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.holdtimeAvg = ewma(d.holdtimeAvg, hold)
	d.abandoned++
}

// ResetStats zeroes the running statistics without disturbing the
// waiting list or round-robin cursor, for the management surface's
// "queue reset stats" operation.
func (d *Data) ResetStats() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.holdtimeAvg = 0
	d.talktimeAvg = 0
	d.completed = 0
	d.completedSL = 0
	d.abandoned = 0
}

// Snapshot is a point-in-time read of the running statistics.
type Snapshot struct {
	Waiting      int
	HoldtimeAvg  time.Duration
	TalktimeAvg  time.Duration
	Completed    int64
	CompletedSL  int64
	Abandoned    int64
}

// Stats returns the current Snapshot.
func (d *Data) Stats() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		Waiting:     len(d.waiting),
		HoldtimeAvg: d.holdtimeAvg,
		TalktimeAvg: d.talktimeAvg,
		Completed:   d.completed,
		CompletedSL: d.completedSL,
		Abandoned:   d.abandoned,
	}
}

// ewma applies a fixed weight of 0.9 to the previous average, the same
// weighting persistence/memory's stats recorder uses. Unlike that
// recorder, Data also folds abandoned callers' hold time into
// holdtimeAvg (see RecordAbandon).
func ewma(prev, sample time.Duration) time.Duration {
	if prev == 0 {
		return sample
	}
	return time.Duration(0.9*float64(prev) + 0.1*float64(sample))
}
