package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Distrotech/asterisk/audit"
	"github.com/Distrotech/asterisk/device"
	"github.com/Distrotech/asterisk/eventmux"
	"github.com/Distrotech/asterisk/events"
	mw "github.com/Distrotech/asterisk/middleware"
	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/postmortem"
	"github.com/Distrotech/asterisk/queue"
	"github.com/Distrotech/asterisk/transport"
)

// AnsweredElsewhereCause is the sentinel cause code passed to
// transport.Driver.Hangup for a losing attempt when the caller's
// CancelElsewhere option is set, distinguishing it from a plain hangup.
const AnsweredElsewhereCause = -1

// Dispatcher wires the leaf packages into spec.md §4.4's orchestration
// loop: one Run call per caller, from join through bridge or exit.
type Dispatcher struct {
	Devices    *device.Registry
	Queues     *Registry
	Rules      *member.Registry
	Bus        *events.Bus
	Audit      *audit.Log
	Postmortem *postmortem.Service
	Driver     transport.Driver
	Logger     *slog.Logger

	mux   *eventmux.Mux
	chain mw.Middleware
}

// Option configures a Dispatcher at construction time.
type Option func(*Dispatcher)

// WithMiddleware sets the middleware chain wrapped around each ring
// attempt's channel-request/call step.
func WithMiddleware(chain mw.Middleware) Option {
	return func(d *Dispatcher) { d.chain = chain }
}

// WithLogger sets the dispatcher's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) { d.Logger = logger }
}

// New builds a Dispatcher from its collaborators.
func New(
	devices *device.Registry,
	queues *Registry,
	rules *member.Registry,
	bus *events.Bus,
	auditLog *audit.Log,
	pm *postmortem.Service,
	driver transport.Driver,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		Devices:    devices,
		Queues:     queues,
		Rules:      rules,
		Bus:        bus,
		Audit:      auditLog,
		Postmortem: pm,
		Driver:     driver,
		Logger:     slog.Default(),
		mux:        eventmux.New(driver),
		chain:      mw.Chain(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run carries one caller through spec.md §4.4's full state machine:
// resolve the queue, insert into its waiting list, wait for a turn,
// ring members, race their answers, and bridge the winner. It always
// removes the caller from the queue's waiting list before returning,
// regardless of outcome.
func (d *Dispatcher) Run(ctx context.Context, callerChannelID, queueName string, opts Options) (Result, error) {
	q, ok := d.Queues.Get(queueName)
	if !ok {
		return Result{Reason: ReasonUnknown}, fmt.Errorf("dispatcher: queue %q not found", queueName)
	}

	if blocked, unavail := emptyBlocked(q, q.JoinEmpty); blocked {
		reason := ReasonJoinEmpty
		if unavail {
			reason = ReasonJoinUnavail
		}
		d.Postmortem.Record(ctx, queueName, callerChannelID, 0, 0, postmortem.ReasonFullAtJoin)
		return Result{Reason: reason}, nil
	}
	if q.MaxLen > 0 && q.Data.Len() >= q.MaxLen {
		d.Postmortem.Record(ctx, queueName, callerChannelID, 0, 0, postmortem.ReasonFullAtJoin)
		return Result{Reason: ReasonFull}, nil
	}

	now := time.Now()
	wc := queue.NewWaitingClient(callerChannelID, opts.Priority, now)
	wc.CancelElsewhere = opts.CancelElsewhere
	wc.RingWhenRinging = opts.RingWhenRinging
	if opts.TimeoutOverride > 0 {
		wc.Expire = now.Add(opts.TimeoutOverride)
	}

	ruleName := q.DefaultRuleName
	if opts.RuleOverride != "" {
		ruleName = opts.RuleOverride
	}
	var rules *member.RuleSet
	if d.Rules != nil && ruleName != "" {
		rules, _ = d.Rules.Get(ruleName)
	}

	q.Data.Insert(wc, opts.RequestedPosition)
	d.Bus.PublishJoin(queueName, callerChannelID, wc.Position)
	d.Audit.Record(ctx, audit.TagEnterQueue, queueName, "channel", callerChannelID)

	result, err := d.serve(ctx, q, wc, rules, opts)

	q.Data.Remove(wc)
	wc.Attempts.ReleaseAll(d.Devices)

	waited := time.Since(wc.Start)
	switch result.Reason {
	case ReasonCallerHangup:
		q.Data.RecordAbandon(waited)
		d.Bus.PublishCallerAbandon(queueName, callerChannelID, wc.Position, waited)
		d.Audit.Record(ctx, audit.TagAbandon, queueName, "channel", callerChannelID, "position", wc.Position, "holdtime", waited)
		d.Postmortem.Record(ctx, queueName, callerChannelID, wc.Position, waited, postmortem.ReasonAbandon)
	case ReasonTimeout:
		d.Audit.Record(ctx, audit.TagExitWithTimeout, queueName, "channel", callerChannelID, "position", wc.Position)
		d.Postmortem.Record(ctx, queueName, callerChannelID, wc.Position, waited, postmortem.ReasonTimeout)
	case ReasonExitWithKey:
		d.Audit.Record(ctx, audit.TagExitWithKey, queueName, "channel", callerChannelID, "digits", result.Digits)
		d.Postmortem.Record(ctx, queueName, callerChannelID, wc.Position, waited, postmortem.ReasonExitKey)
	case ReasonLeaveEmpty, ReasonLeaveUnavail:
		d.Audit.Record(ctx, audit.TagExitEmpty, queueName, "channel", callerChannelID)
		d.Postmortem.Record(ctx, queueName, callerChannelID, wc.Position, waited, postmortem.ReasonExitEmpty)
	}
	d.Bus.PublishLeave(queueName, callerChannelID, waited)
	return result, err
}

// serve implements the wait-turn loop (spec.md §4.4 step 3) and hands
// off to the ring loop once the caller reaches the head of the list.
func (d *Dispatcher) serve(ctx context.Context, q *queue.Queue, wc *queue.WaitingClient, rules *member.RuleSet, opts Options) (Result, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	dialed := make(map[string]bool)

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

		digit, hungUp := d.pollCaller(ctx, wc.ChannelID)
		if hungUp {
			return Result{Reason: ReasonCallerHangup}, nil
		}
		if digit != 0 && opts.ExitDigits[digit] {
			return Result{Reason: ReasonExitWithKey, Digits: string(digit)}, nil
		}

		if isOurTurn(q, wc) {
			return d.ringLoop(ctx, q, wc, rules, opts, dialed)
		}

		select {
		case <-ctx.Done():
			return Result{Reason: ReasonCallerHangup}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// applyPenaltyRule applies the rule at wc's penalty-rule cursor once the
// caller's elapsed wait time has reached that rule's Time, then advances
// the cursor (spec.md §4.2), so each rule mutates wc's penalty window
// exactly once and rules take effect in ascending Time order.
func applyPenaltyRule(rules *member.RuleSet, wc *queue.WaitingClient) {
	if rules == nil {
		return
	}
	elapsed := int(time.Since(wc.Start).Seconds())
	rule, ok := rules.RuleAt(wc.RuleCursor)
	if !ok || elapsed < rule.Time {
		return
	}
	min, max := rule.Apply(wc.MinPenalty, wc.MaxPenalty)
	wc.ApplyPenaltyRule(min, max)
	wc.RuleCursor++
}
