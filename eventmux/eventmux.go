// Package eventmux implements the EventMux race-multiplexing semantics
// from spec.md §4.5: poll every still-going attempt's transport events,
// declare the first answer the winner, retire the rest, and translate
// busy/ringing/call-forward/connected-line/AOC/DTMF/timeout events into
// caller and dispatcher-facing signals.
//
// Grounded on golang.org/x/sync/errgroup's fan-out/fan-in shape
// (already a domain dependency of the pack via its use for concurrent
// I/O elsewhere) generalized from "wait for all" to "wait for first
// success, cancel the rest".
package eventmux

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Distrotech/asterisk/attempt"
	"github.com/Distrotech/asterisk/transport"
)

// Outcome is the result of racing a set of attempts to completion.
type Outcome int

const (
	OutcomeAnswered Outcome = iota
	OutcomeAllBusy
	OutcomeTimeout
	OutcomeCallerHangup
)

// Result summarizes one Race call.
type Result struct {
	Outcome Outcome
	Winner  *attempt.Attempt
	Forward string // set when a call-forward event redirected the race
}

// Signals are dispatcher-facing side channels raised while a race is in
// flight, ahead of the terminal Result.
type Signals struct {
	Ringing             func(a *attempt.Attempt)
	ConnectedLineUpdate func(a *attempt.Attempt, cl attempt.ConnectedLine)
	AOCUpdate           func(a *attempt.Attempt, rates []attempt.AOCRate)
	DTMF                func(r rune)
}

// Mux races every attempt in a set against a single caller channel's
// hangup detection and an overall ring timeout.
type Mux struct {
	driver transport.Driver
}

// New creates a Mux bound to driver.
func New(driver transport.Driver) *Mux {
	return &Mux{driver: driver}
}

// Race polls driver events for every still-going attempt plus the
// caller's own channel until one attempt answers, all attempts fail,
// the caller hangs up, or timeout elapses. It implements spec.md §4.5's
// winner-take-first and busy-retry semantics: only the first Answered
// event wins; every other still-going attempt is retired via
// attempts.RetireAllExcept before Race returns.
//
// ringAll selects §4.5's RingAll connected-line/redirecting deferral:
// with several attempts racing at once, a losing leg's update must not
// reach the caller, so it is saved on the attempt (FlagPendingConnectedUpdate)
// and only surfaced once that leg actually wins. Other strategies never
// have more than one attempt in flight, so the update applies as soon
// as it arrives.
func (m *Mux) Race(ctx context.Context, callerChannelID string, attempts *attempt.Set, timeout time.Duration, sig Signals, ringAll bool) (Result, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	events, err := m.driver.WaitForEvents(ctx)
	if err != nil {
		return Result{}, err
	}

	g, gctx := errgroup.WithContext(ctx)
	resultCh := make(chan Result, 1)

	g.Go(func() error {
		byChannel := make(map[string]*attempt.Attempt)
		for _, a := range attempts.StillGoing() {
			byChannel[a.ChannelID] = a
		}

		for {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case evt, ok := <-events:
				if !ok {
					return nil
				}
				if evt.ChannelID == callerChannelID {
					if evt.Kind == transport.EventHangup {
						resultCh <- Result{Outcome: OutcomeCallerHangup}
						return nil
					}
					if evt.Kind == transport.EventDTMF && sig.DTMF != nil {
						sig.DTMF(evt.Digit)
					}
					continue
				}

				a, tracked := byChannel[evt.ChannelID]
				if !tracked || !a.StillGoing() {
					continue
				}

				switch evt.Kind {
				case transport.EventAnswered:
					attempts.RetireAllExcept(a)
					if a.Has(attempt.FlagPendingConnectedUpdate) && sig.ConnectedLineUpdate != nil {
						sig.ConnectedLineUpdate(a, a.ConnectedLine())
					}
					resultCh <- Result{Outcome: OutcomeAnswered, Winner: a}
					return nil
				case transport.EventBusy, transport.EventCongestion, transport.EventNoAnswer:
					a.Retire()
					if len(attempts.StillGoing()) == 0 {
						resultCh <- Result{Outcome: OutcomeAllBusy}
						return nil
					}
				case transport.EventRinging:
					if sig.Ringing != nil {
						sig.Ringing(a)
					}
				case transport.EventConnectedLineUpdate:
					cl := attempt.ConnectedLine{Number: evt.ConnNumber, Name: evt.ConnName}
					a.SetConnectedLine(cl)
					if !ringAll && sig.ConnectedLineUpdate != nil {
						a.ConnectedLine() // clears the pending flag; applied immediately below
						sig.ConnectedLineUpdate(a, cl)
					}
				case transport.EventCallForward:
					resultCh <- Result{Outcome: OutcomeAnswered, Winner: a, Forward: evt.Forward}
					return nil
				case transport.EventAOCUpdate:
					if sig.AOCUpdate != nil {
						sig.AOCUpdate(a, a.AOC())
					}
				case transport.EventHangup:
					a.Retire()
					delete(byChannel, evt.ChannelID)
					if len(attempts.StillGoing()) == 0 {
						resultCh <- Result{Outcome: OutcomeAllBusy}
						return nil
					}
				}
			}
		}
	})

	waitErr := g.Wait()
	select {
	case res := <-resultCh:
		return res, nil
	default:
	}
	if waitErr != nil && ctx.Err() != nil {
		return Result{Outcome: OutcomeTimeout}, nil
	}
	return Result{Outcome: OutcomeTimeout}, waitErr
}
