package dispatcher

import (
	"github.com/Distrotech/asterisk/device"
	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/queue"
)

// effectiveStatusOf returns m's effective device status, treating a
// member with no device (e.g. a synthetic test fixture) as Unknown.
func effectiveStatusOf(m *member.Member) device.Status {
	if m.Dev == nil {
		return device.StatusUnknown
	}
	return m.Dev.EffectiveStatus(m.CallInUse)
}

// emptyBlocked evaluates spec.md §4.4's join/leave-empty predicate: a
// disjunction over member-state flags, true only when every member in
// the queue matches at least one enabled flag (i.e. no member remains
// eligible to receive a call). unavailable reports whether the block
// was driven specifically by an Invalid/Unavailable device status, the
// distinction spec.md §6 draws between JOINEMPTY/LEAVEEMPTY and
// JOINUNAVAIL/LEAVEUNAVAIL.
func emptyBlocked(q *queue.Queue, cond queue.EmptyCondition) (blocked, unavailable bool) {
	if cond == 0 {
		return false, false
	}
	members := q.Members.Members()
	if len(members) == 0 {
		return true, false
	}

	allExcluded := true
	anyUnavailable := false
	for _, m := range members {
		status := effectiveStatusOf(m)
		excluded := false
		if cond.Has(queue.EmptyPaused) && m.IsPaused() {
			excluded = true
		}
		if cond.Has(queue.EmptyInvalid) && status == device.StatusInvalid {
			excluded, anyUnavailable = true, true
		}
		if cond.Has(queue.EmptyUnavailable) && status == device.StatusUnavailable {
			excluded, anyUnavailable = true, true
		}
		if cond.Has(queue.EmptyInUse) && status == device.StatusInUse {
			excluded = true
		}
		if cond.Has(queue.EmptyRinging) && status == device.StatusRinging {
			excluded = true
		}
		if cond.Has(queue.EmptyUnknown) && status == device.StatusUnknown {
			excluded = true
		}
		if !excluded {
			allExcluded = false
		}
	}
	return allExcluded, allExcluded && anyUnavailable
}

// isOurTurn implements spec.md §4.4 step 3's is_our_turn check: the
// caller is within the first num_available_members() entries of the
// list, or is at position 1 outright when no member is currently
// available (autofill is treated as always-on, the majority default).
func isOurTurn(q *queue.Queue, wc *queue.WaitingClient) bool {
	if wc.Position <= 1 {
		return true
	}
	return wc.Position <= q.NumAvailableMembers()
}
