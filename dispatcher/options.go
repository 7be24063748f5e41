package dispatcher

import (
	"context"
	"time"
)

// PostConnectHook is the external dial-plan evaluator spec.md §4.4 step
// 5 calls out as a collaborator: a macro/gosub run once the caller and
// member channels are both up, before the bridge proper begins.
type PostConnectHook func(ctx context.Context, callerChannelID, memberChannelID string) error

// Options carries the per-call parameters spec.md §4.4 lists on the
// Dispatcher's run operation, beyond the queue name and caller channel.
type Options struct {
	// Priority orders this caller against others already waiting; higher
	// wins an earlier position (spec.md §3 WaitingClient.priority).
	Priority int

	// RequestedPosition, if > 0, asks Insert to place the caller at that
	// 1-based slot, subject to never landing ahead of a strictly
	// higher-priority entry (spec.md §4.4 step 2).
	RequestedPosition int

	// TimeoutOverride, if non-zero, sets this caller's overall deadline:
	// Run ends with ReasonTimeout once the caller has waited this long.
	// The queue's RingTimeout is unchanged.
	TimeoutOverride time.Duration

	// RuleOverride names a member.RuleSet to use instead of the queue's
	// DefaultRuleName.
	RuleOverride string

	// ExitDigits is the set of DTMF digits that trigger an immediate
	// exit with ReasonExitWithKey while the caller waits (spec.md §4.4
	// step 3's "interruption digits that match a configured exit
	// context").
	ExitDigits map[rune]bool

	// CancelElsewhere marks losing attempts "answered elsewhere" on
	// bridge instead of a plain hangup (spec.md §4.4 step 5, the
	// source's "C" option).
	CancelElsewhere bool

	// RingWhenRinging asks EventMux to indicate ringing to the caller
	// when an outbound attempt starts ringing (spec.md §4.5).
	RingWhenRinging bool

	// PostConnectHook, if set, runs after both legs are up and before
	// the bridge proper (spec.md §4.4 step 5).
	PostConnectHook PostConnectHook

	// AnnounceOverride carries a per-caller announcement list. Run does
	// not read it, and the dispatcher does not play the queue's
	// PeriodicAnnounce list either.
	AnnounceOverride []string
}
