package queue

import (
	"time"

	"github.com/Distrotech/asterisk/attempt"
)

// WaitingClient is one caller occupying a slot in a Queue's waiting
// list (spec.md §3 WaitingClient).
type WaitingClient struct {
	ChannelID string // transport-level call handle, opaque to this package

	Priority          int
	Position          int
	OriginalPosition  int
	Start             time.Time
	Expire            time.Time // zero means no per-caller timeout override

	Digits          string
	CancelElsewhere bool
	RingWhenRinging bool

	MinPenalty int
	MaxPenalty int
	RuleCursor int // index into the active PenaltyRule set

	// linPos/linWrapped back the per-caller Linear-strategy cursor
	// (ring.Cursor). RRMemory/RROrdered use the queue-wide Data cursor
	// instead; a caller using those strategies leaves this pair unused.
	linPos     int
	linWrapped bool

	Attempts *attempt.Set
}

// NewWaitingClient starts a fresh caller record at time now.
func NewWaitingClient(channelID string, priority int, now time.Time) *WaitingClient {
	return &WaitingClient{
		ChannelID: channelID,
		Priority:  priority,
		Start:     now,
		Attempts:  attempt.NewSet(),
	}
}

// Value/SetValue/Wrapped/SetWrapped implement ring.Cursor for the
// Linear strategy's per-caller cursor.
func (wc *WaitingClient) Value() int        { return wc.linPos }
func (wc *WaitingClient) SetValue(v int)    { wc.linPos = v }
func (wc *WaitingClient) Wrapped() bool     { return wc.linWrapped }
func (wc *WaitingClient) SetWrapped(w bool) { wc.linWrapped = w }

// Waited returns how long the caller has been waiting as of now.
func (wc *WaitingClient) Waited(now time.Time) time.Duration {
	return now.Sub(wc.Start)
}

// TimedOut reports whether the caller's Expire deadline has passed, if
// one was set.
func (wc *WaitingClient) TimedOut(now time.Time) bool {
	return !wc.Expire.IsZero() && !now.Before(wc.Expire)
}

// ApplyPenaltyRule sets the caller's penalty window to min/max, the
// result of applying the rule at RuleCursor (spec.md §4.2). It does not
// move RuleCursor; the dispatcher advances it.
func (wc *WaitingClient) ApplyPenaltyRule(min, max int) {
	wc.MinPenalty, wc.MaxPenalty = min, max
}
