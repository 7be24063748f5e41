// Package attempt implements Attempt and AttemptSet from spec.md §3:
// one outbound ring within a caller's set of concurrent ring attempts,
// and the set that tracks them all for a single caller.
//
// Grounded on device.Registry's refcounted reserve/release accounting
// (device/device.go) generalized from a per-key counter to a per-call
// resource that must release exactly once on any exit path, per
// spec.md §5's "every attempt that reserves a device must release
// exactly once" invariant.
package attempt

import (
	"sync"

	"github.com/Distrotech/asterisk/device"
	"github.com/Distrotech/asterisk/id"
	"github.com/Distrotech/asterisk/member"
)

// Flag is a bitmask of an attempt's transient state.
type Flag uint8

const (
	FlagStillGoing Flag = 1 << iota
	FlagReserved
	FlagActive
	FlagWatching
	FlagPendingConnectedUpdate
	FlagCallerIDAbsent
)

// ConnectedLine holds the party data an attempt's channel reported,
// saved so it can be replayed to the caller leg on bridge.
type ConnectedLine struct {
	Number string
	Name   string
}

// AOCRate is one advice-of-charge rate entry a transport driver
// attached to the outbound channel, carried through unmodified.
type AOCRate struct {
	Currency string
	Amount   float64
	PerUnit  string
}

// Attempt is one outbound ring leg within a caller's AttemptSet.
type Attempt struct {
	ID        id.AttemptID
	Member    *member.Member
	Device    *device.Device
	ChannelID string
	Metric    int

	mu        sync.Mutex
	flags     Flag
	connected ConnectedLine
	aoc       []AOCRate
	released  bool
}

// New creates an Attempt in the StillGoing|Reserved state. Callers must
// have already reserved dev (device.Registry.Reserve) before
// constructing the Attempt; New records that reservation so Release can
// undo it exactly once.
func New(memberRef *member.Member, dev *device.Device, channelID string, metric int) *Attempt {
	return &Attempt{
		ID:        id.NewAttemptID(),
		Member:    memberRef,
		Device:    dev,
		ChannelID: channelID,
		Metric:    metric,
		flags:     FlagStillGoing | FlagReserved,
	}
}

// Has reports whether flag is set.
func (a *Attempt) Has(flag Flag) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.flags&flag != 0
}

// Set sets flag.
func (a *Attempt) Set(flag Flag) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flags |= flag
}

// Clear clears flag.
func (a *Attempt) Clear(flag Flag) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flags &^= flag
}

// StillGoing reports whether this attempt is still eligible to win the
// race (spec.md §4.5 winner-take-first).
func (a *Attempt) StillGoing() bool { return a.Has(FlagStillGoing) }

// Retire marks the attempt no longer in the race, without releasing its
// device reservation — a losing attempt in a still-connecting state
// keeps its reservation until the driver reports hangup.
func (a *Attempt) Retire() { a.Clear(FlagStillGoing) }

// SetConnectedLine records connected-line party data reported by the
// transport driver.
func (a *Attempt) SetConnectedLine(cl ConnectedLine) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.connected = cl
	a.flags |= FlagPendingConnectedUpdate
}

// ConnectedLine returns the last recorded connected-line data and
// clears the pending-update flag.
func (a *Attempt) ConnectedLine() ConnectedLine {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.flags &^= FlagPendingConnectedUpdate
	return a.connected
}

// SetAOC records an advice-of-charge rate list reported by the driver.
func (a *Attempt) SetAOC(rates []AOCRate) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.aoc = rates
}

// AOC returns the recorded advice-of-charge rates, if any.
func (a *Attempt) AOC() []AOCRate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aoc
}

// Release undoes the device reservation exactly once regardless of how
// many exit paths call it (winner bridged, loser retired, caller
// canceled). It is safe to call more than once.
func (a *Attempt) Release(registry *device.Registry) {
	a.mu.Lock()
	if a.released {
		a.mu.Unlock()
		return
	}
	a.released = true
	reserved := a.flags&FlagReserved != 0
	active := a.flags&FlagActive != 0
	a.flags &^= FlagStillGoing | FlagReserved | FlagActive
	a.mu.Unlock()

	if reserved {
		registry.Unreserve(a.Device)
	}
	if active {
		registry.Deactivate(a.Device)
	}
}

// Activate promotes a reserved attempt to active use (the outbound
// channel answered), updating the shared device's accounting.
func (a *Attempt) Activate(registry *device.Registry) {
	a.mu.Lock()
	if a.flags&FlagActive != 0 {
		a.mu.Unlock()
		return
	}
	a.flags |= FlagActive
	a.mu.Unlock()
	registry.Activate(a.Device)
}
