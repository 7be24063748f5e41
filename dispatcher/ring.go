package dispatcher

import (
	"context"
	"time"

	"github.com/Distrotech/asterisk/attempt"
	"github.com/Distrotech/asterisk/device"
	"github.com/Distrotech/asterisk/eventmux"
	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/queue"
	"github.com/Distrotech/asterisk/ring"
)

// ringLoop implements spec.md §4.4 step 4 for the head caller: build an
// AttemptSet each round via the RingSelector, race it through EventMux,
// and on a busy round sleep the retry interval before trying again.
func (d *Dispatcher) ringLoop(ctx context.Context, q *queue.Queue, wc *queue.WaitingClient, rules *member.RuleSet, opts Options, dialed map[string]bool) (Result, error) {
	sel := ring.NewSelector(q.Strategy, q.PenaltyMembersLimit)
	var cursor ring.Cursor = wc
	if q.Strategy == ring.RRMemory || q.Strategy == ring.RROrdered {
		cursor = q.Data
	}

	ringTimeout := q.RingTimeout
	if ringTimeout <= 0 {
		ringTimeout = 15 * time.Second
	}

	for {
		if wc.TimedOut(time.Now()) {
			return Result{Reason: ReasonTimeout}, nil
		}
		if blocked, unavail := emptyBlocked(q, q.LeaveEmpty); blocked {
			reason := ReasonLeaveEmpty
			if unavail {
				reason = ReasonLeaveUnavail
			}
			return Result{Reason: reason}, nil
		}
		applyPenaltyRule(rules, wc)

		placed := d.ringOne(ctx, q, wc, sel, cursor)
		if len(placed) == 0 {
			if !d.sleepRetry(ctx, q.RetryInterval, wc.ChannelID) {
				return Result{Reason: ReasonCallerHangup}, nil
			}
			continue
		}

		roundSet := attempt.NewSet()
		for _, a := range placed {
			roundSet.Add(a)
		}

		res, err := d.mux.Race(ctx, wc.ChannelID, roundSet, ringTimeout, d.signalsFor(ctx, wc), q.Strategy == ring.RingAll)
		if err != nil {
			d.releaseRound(ctx, placed)
			return Result{Reason: ReasonUnknown}, err
		}

		switch res.Outcome {
		case eventmux.OutcomeAnswered:
			if res.Forward != "" {
				fwd, ok := d.followForward(ctx, q, wc, res.Forward, dialed)
				d.releaseRound(ctx, placed)
				if !ok {
					if !d.sleepRetry(ctx, q.RetryInterval, wc.ChannelID) {
						return Result{Reason: ReasonCallerHangup}, nil
					}
					continue
				}
				return d.bridge(ctx, q, wc, fwd, []*attempt.Attempt{fwd}, opts)
			}
			return d.bridge(ctx, q, wc, res.Winner, placed, opts)
		case eventmux.OutcomeCallerHangup:
			d.releaseRound(ctx, placed)
			return Result{Reason: ReasonCallerHangup}, nil
		case eventmux.OutcomeTimeout:
			d.releaseRound(ctx, placed)
			return Result{Reason: ReasonTimeout}, nil
		default: // eventmux.OutcomeAllBusy
			for _, a := range placed {
				if !a.StillGoing() {
					d.recordRingNoAnswer(ctx, q, a)
				}
			}
			d.releaseRound(ctx, placed)
			if !d.sleepRetry(ctx, q.RetryInterval, wc.ChannelID) {
				return Result{Reason: ReasonCallerHangup}, nil
			}
		}
	}
}

// ringOne implements spec.md §4.4's ring_one: score every member
// candidate, select the round's best (or all, for RingAll), and call
// ring_entry on each, returning the attempts successfully placed.
func (d *Dispatcher) ringOne(ctx context.Context, q *queue.Queue, wc *queue.WaitingClient, sel *ring.Selector, cursor ring.Cursor) []*attempt.Attempt {
	members := q.Members.Members()
	candidates := make([]ring.Candidate, 0, len(members))
	for i, m := range members {
		candidates = append(candidates, ring.Candidate{Member: m, Position: i})
	}
	scored := sel.Score(candidates, cursor, wc.MinPenalty, wc.MaxPenalty, time.Now())

	inFlight := make(map[string]bool)
	for _, a := range wc.Attempts.StillGoing() {
		inFlight[a.Member.Interface] = true
	}
	still := func(iface string) bool { return !inFlight[iface] }

	selected := sel.Round(scored, still)
	placed := make([]*attempt.Attempt, 0, len(selected))
	for _, sc := range selected {
		if a, ok := d.ringEntry(ctx, q, wc, sc); ok {
			placed = append(placed, a)
			wc.Attempts.Add(a)
		}
	}
	sel.AdvanceCursor(cursor, selected)
	return placed
}

// ringEntry implements spec.md §4.4's ring_entry precondition checks in
// order, then reserves the device and requests/places the outbound
// channel through the middleware chain.
func (d *Dispatcher) ringEntry(ctx context.Context, q *queue.Queue, wc *queue.WaitingClient, sc ring.Scored) (*attempt.Attempt, bool) {
	m := sc.Member

	if d.weightPreempted(q, m) {
		return nil, false
	}
	if m.IsPaused() {
		return nil, false
	}
	if !m.EligibleAfterWrapup(time.Now()) {
		return nil, false
	}

	status := effectiveStatusOf(m)
	allowed := status == device.StatusNotInUse || status == device.StatusUnknown
	if !allowed && q.RingInUse && m.CallInUse {
		switch status {
		case device.StatusInUse, device.StatusRinging, device.StatusRingInUse, device.StatusOnHold:
			allowed = true
		}
	}
	if !allowed {
		return nil, false
	}

	if m.Dev != nil {
		d.Devices.Reserve(m.Dev)
	}

	channelID, err := d.Driver.Request(ctx, m.Interface)
	if err != nil {
		if m.Dev != nil {
			d.Devices.Unreserve(m.Dev)
		}
		return nil, false
	}

	a := attempt.New(m, m.Dev, channelID, sc.Metric)
	handler := func(ctx context.Context) error {
		return d.Driver.Call(ctx, channelID, wc.ChannelID, wc.Digits)
	}
	if err := d.chain(ctx, a, q.Name, handler); err != nil {
		a.Release(d.Devices)
		d.Driver.Hangup(ctx, channelID, 0)
		return nil, false
	}

	d.Bus.PublishAgentCalled(q.Name, m.Interface, channelID)
	return a, true
}

// weightPreempted implements spec.md §4.4 ring_entry precondition (a):
// defer to a higher-weight queue that shares this member and whose
// waiting count has already outstripped its own available members.
func (d *Dispatcher) weightPreempted(q *queue.Queue, m *member.Member) bool {
	for _, other := range d.Queues.Snapshot() {
		if other.Name == q.Name || other.Weight <= q.Weight {
			continue
		}
		if _, ok := other.Members.Get(m.Interface); !ok {
			continue
		}
		if other.Data.Len() >= other.NumAvailableMembers() {
			return true
		}
	}
	return false
}

// followForward implements the forward-loop-prevention design note in
// spec.md §9: a dialed-interface record is kept for the caller's whole
// ring loop so a forward chain that cycles back to an already-tried
// destination is rejected rather than re-dialed forever.
func (d *Dispatcher) followForward(ctx context.Context, q *queue.Queue, wc *queue.WaitingClient, iface string, dialed map[string]bool) (*attempt.Attempt, bool) {
	if dialed[iface] {
		return nil, false
	}
	dialed[iface] = true

	// The forward destination is not necessarily a registered Member of
	// this queue; a shared Device entry is still acquired so subsequent
	// forwards through the same destination observe its live status.
	// This registry reference deliberately outlives the attempt: a later
	// forward hop back to the same destination must see the same Device,
	// not a freshly-zeroed one.
	dev := d.Devices.Acquire(iface)
	d.Devices.Reserve(dev)

	channelID, err := d.Driver.Request(ctx, iface)
	if err != nil {
		d.Devices.Unreserve(dev)
		return nil, false
	}

	m := &member.Member{Interface: iface, Dev: dev}
	a := attempt.New(m, dev, channelID, 0)
	handler := func(ctx context.Context) error {
		return d.Driver.Call(ctx, channelID, wc.ChannelID, wc.Digits)
	}
	if err := d.chain(ctx, a, q.Name, handler); err != nil {
		a.Release(d.Devices)
		d.Driver.Hangup(ctx, channelID, 0)
		return nil, false
	}

	wc.Attempts.Add(a)
	d.Bus.PublishAgentCalled(q.Name, iface, channelID)
	return a, true
}
