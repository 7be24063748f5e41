package dispatcher

// Reason enumerates the exit conditions spec.md §6 calls "result
// variables set on the caller channel on exit".
type Reason string

const (
	ReasonAnswered      Reason = "CONTINUE"
	ReasonTimeout       Reason = "TIMEOUT"
	ReasonFull          Reason = "FULL"
	ReasonJoinEmpty     Reason = "JOINEMPTY"
	ReasonLeaveEmpty    Reason = "LEAVEEMPTY"
	ReasonJoinUnavail   Reason = "JOINUNAVAIL"
	ReasonLeaveUnavail  Reason = "LEAVEUNAVAIL"
	ReasonExitWithKey   Reason = "EXITWITHKEY"
	ReasonCallerHangup  Reason = "ABANDON"
	ReasonUnknown       Reason = "UNKNOWN"
)

// Result is what Run returns for one caller's pass through the
// dispatcher, mirroring spec.md §6's result-variable contract.
type Result struct {
	Reason Reason

	// Member is set only when Reason == ReasonAnswered: the interface
	// the caller was bridged to.
	Member string

	// Digits holds the DTMF sequence that triggered an exit-key result.
	Digits string

	// Forward holds a call-forward destination reported by the winning
	// attempt's channel, if any.
	Forward string
}

func (r Result) String() string { return string(r.Reason) }
