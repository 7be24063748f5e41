package dispatcher

import (
	"context"
	"log/slog"
	"time"

	"github.com/Distrotech/asterisk/attempt"
	"github.com/Distrotech/asterisk/audit"
	"github.com/Distrotech/asterisk/eventmux"
	"github.com/Distrotech/asterisk/queue"
	"github.com/Distrotech/asterisk/transport"
)

// bridge implements spec.md §4.4 step 5: hang up losing attempts,
// promote the winner to active, run the post-connect hook, block on the
// transport bridge, and update the queue's running statistics on exit.
func (d *Dispatcher) bridge(ctx context.Context, q *queue.Queue, wc *queue.WaitingClient, winner *attempt.Attempt, placed []*attempt.Attempt, opts Options) (Result, error) {
	d.cleanupLosers(ctx, placed, winner, opts.CancelElsewhere)
	winner.Activate(d.Devices)

	iface := winner.Member.Interface
	d.Bus.PublishAgentConnect(q.Name, iface, winner.ChannelID, time.Since(wc.Start))
	d.Audit.Record(ctx, audit.TagConnect, q.Name, "channel", wc.ChannelID, "member", iface)

	if opts.PostConnectHook != nil {
		if err := opts.PostConnectHook(ctx, wc.ChannelID, winner.ChannelID); err != nil {
			d.Logger.Warn("post-connect hook failed",
				slog.String("member", iface),
				slog.String("error", err.Error()))
		}
	}

	talkStart := time.Now()
	bridgeErr := d.Driver.Bridge(ctx, wc.ChannelID, winner.ChannelID)

	hold := talkStart.Sub(wc.Start)
	talk := time.Since(talkStart)
	withinSL := q.ServiceLevel <= 0 || hold <= q.ServiceLevel

	q.Data.RecordCompletion(hold, talk, withinSL)
	winner.Member.RecordCallEnd(time.Now())

	d.Bus.PublishAgentComplete(q.Name, iface, winner.ChannelID, hold, talk)
	d.Audit.Record(ctx, audit.TagCompleteAgent, q.Name, "channel", wc.ChannelID, "member", iface,
		"holdtime", hold, "talktime", talk)
	d.Audit.Record(ctx, audit.TagCompleteCaller, q.Name, "channel", wc.ChannelID, "member", iface,
		"holdtime", hold, "talktime", talk)

	winner.Release(d.Devices)

	if bridgeErr != nil {
		return Result{Reason: ReasonAnswered, Member: iface}, bridgeErr
	}
	return Result{Reason: ReasonAnswered, Member: iface}, nil
}

// cleanupLosers hangs up and releases every attempt in placed other
// than winner, marking them "answered elsewhere" if cancelElsewhere is
// set (spec.md §4.4 step 5, the source's "C" option).
func (d *Dispatcher) cleanupLosers(ctx context.Context, placed []*attempt.Attempt, winner *attempt.Attempt, cancelElsewhere bool) {
	cause := 0
	if cancelElsewhere {
		cause = AnsweredElsewhereCause
	}
	for _, a := range placed {
		if a == winner {
			continue
		}
		d.Driver.Hangup(ctx, a.ChannelID, cause)
		a.Release(d.Devices)
	}
}

// releaseRound hangs up and releases every attempt in a finished round
// that did not win (busy, no-answer, or the round's caller-facing
// outcome was timeout/hangup).
func (d *Dispatcher) releaseRound(ctx context.Context, placed []*attempt.Attempt) {
	d.cleanupLosers(ctx, placed, nil, false)
}

// recordRingNoAnswer implements the audit/event/autopause side effects
// of spec.md §4.5's busy/no-answer handling for one retired attempt.
func (d *Dispatcher) recordRingNoAnswer(ctx context.Context, q *queue.Queue, a *attempt.Attempt) {
	iface := a.Member.Interface
	d.Bus.PublishAgentRingNoAnswer(q.Name, iface, a.ChannelID)
	d.Audit.Record(ctx, audit.TagRingNoAnswer, q.Name, "channel", a.ChannelID, "member", iface)

	if q.Autopause == queue.AutopauseOff {
		return
	}
	a.Member.SetPaused(true)
	d.Bus.PublishMemberPaused(q.Name, iface, true)
	d.Audit.Record(ctx, audit.TagPause, q.Name, "member", iface)

	if q.Autopause != queue.AutopauseAll {
		return
	}
	for _, other := range d.Queues.Snapshot() {
		if other.Name == q.Name {
			continue
		}
		if om, ok := other.Members.Get(iface); ok && !om.IsPaused() {
			om.SetPaused(true)
			d.Bus.PublishMemberPaused(other.Name, iface, true)
			d.Audit.Record(ctx, audit.TagPause, other.Name, "member", iface)
		}
	}
}

// signalsFor wires EventMux's dispatcher-facing side channels
// (spec.md §4.5) to the caller's ring-indication preference and the
// transport driver.
func (d *Dispatcher) signalsFor(ctx context.Context, wc *queue.WaitingClient) eventmux.Signals {
	return eventmux.Signals{
		Ringing: func(a *attempt.Attempt) {
			if wc.RingWhenRinging {
				d.Driver.Indicate(ctx, wc.ChannelID, transport.IndicateRinging)
			}
		},
	}
}
