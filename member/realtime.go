package member

import (
	"context"

	"github.com/Distrotech/asterisk/device"
)

// RealtimeMember is one row a realtime backend reports for a queue's
// membership at reconciliation time.
type RealtimeMember struct {
	Interface string
	Penalty   int
	Paused    bool
}

// RealtimeSource fetches the current realtime membership for a queue,
// the collaborator spec.md §4.2 calls out for periodic re-sync: static
// and dynamic members are never affected, only ProvenanceRealtime rows.
type RealtimeSource interface {
	FetchMembers(ctx context.Context, queue string) ([]RealtimeMember, error)
}

// DeviceAcquirer resolves the shared device backing an interface,
// letting reconciliation attach newly-seen realtime members to the
// same device.Registry every ring attempt uses.
type DeviceAcquirer interface {
	Acquire(key string) *device.Device
}

// ReconcileFrom runs one full realtime reconciliation pass against
// rows, implementing spec.md §4.2 and scenario S6: every realtime
// member is marked dead, rows still reported by the source are
// reinstated (existing members via Reconcile, new ones via Insert),
// and whatever is left marked dead afterward is swept and returned as
// the list of removed interfaces.
func (s *Set) ReconcileFrom(rows []RealtimeMember, devices DeviceAcquirer) (added, removed []string) {
	s.MarkDead()

	for _, row := range rows {
		if existed := s.Reconcile(row.Interface); existed {
			if m, ok := s.Get(row.Interface); ok {
				m.SetPenalty(row.Penalty)
				m.SetPaused(row.Paused)
			}
			continue
		}
		m := &Member{
			Interface:  row.Interface,
			Penalty:    row.Penalty,
			Paused:     row.Paused,
			Provenance: ProvenanceRealtime,
			Dev:        devices.Acquire(row.Interface),
		}
		if result, err := s.Insert(m); err == nil && result == AddResultInserted {
			added = append(added, row.Interface)
		}
	}

	removed = s.SweepDead()
	return added, removed
}
