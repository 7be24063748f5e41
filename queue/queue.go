// Package queue implements Queue, QueueData and WaitingClient from
// spec.md §3–§4: per-queue configuration and identity, the mutable
// waiting-list/statistics half, and the ordered caller list with
// priority-based insertion.
//
// Grounded on the teacher's queue.Config/Manager (functional shape for
// per-queue tunables) generalized from rate-limit configuration to the
// full set of Asterisk-style queue parameters, and on the design note
// in spec.md §9: Queue is treated as immutable post-construction while
// QueueData is the mutable, reference-counted half that survives a
// configuration reload.
package queue

import (
	"time"

	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/ring"
)

// EmptyCondition is a bitmask of member-state predicates used to decide
// whether a caller may join or must leave a queue.
type EmptyCondition uint8

const (
	EmptyPaused EmptyCondition = 1 << iota
	EmptyInvalid
	EmptyUnavailable
	EmptyInUse
	EmptyRinging
	EmptyUnknown
)

// Has reports whether cond includes flag.
func (cond EmptyCondition) Has(flag EmptyCondition) bool { return cond&flag != 0 }

// AutopauseMode controls the scope of automatic pausing on ring-no-answer.
type AutopauseMode int

const (
	AutopauseOff AutopauseMode = iota
	AutopauseQueue
	AutopauseAll
)

// Config is a Queue's configuration and identity (spec.md §3 Queue).
type Config struct {
	Name string

	Strategy            ring.Strategy
	PenaltyMembersLimit int // "L" fed to ring.Selector

	RingTimeout   time.Duration
	RetryInterval time.Duration
	WrapupDefault time.Duration
	MemberDelay   time.Duration
	ServiceLevel  time.Duration

	Weight int // cross-queue preemption weight

	JoinEmpty  EmptyCondition
	LeaveEmpty EmptyCondition

	PeriodicAnnounce     []string
	PeriodicAnnounceFreq time.Duration

	Autopause AutopauseMode

	HoldtimeRoundSeconds int
	DefaultRuleName      string
	MaxLen               int // 0 = unbounded

	RingInUse bool // Queue.ringinuse from spec.md §4.4 ring_entry precondition (d)
}

// DefaultConfig returns sane defaults for a queue.
func DefaultConfig(name string) Config {
	return Config{
		Name:          name,
		Strategy:      ring.RingAll,
		RingTimeout:   15 * time.Second,
		RetryInterval: 5 * time.Second,
		WrapupDefault: 0,
		ServiceLevel:  60 * time.Second,
	}
}

// Option configures a Queue at construction time.
type Option func(*Config)

func WithStrategy(s ring.Strategy) Option   { return func(c *Config) { c.Strategy = s } }
func WithPenaltyMembersLimit(n int) Option  { return func(c *Config) { c.PenaltyMembersLimit = n } }
func WithRingTimeout(d time.Duration) Option { return func(c *Config) { c.RingTimeout = d } }
func WithRetryInterval(d time.Duration) Option { return func(c *Config) { c.RetryInterval = d } }
func WithWeight(w int) Option               { return func(c *Config) { c.Weight = w } }
func WithMaxLen(n int) Option               { return func(c *Config) { c.MaxLen = n } }
func WithJoinEmpty(cond EmptyCondition) Option  { return func(c *Config) { c.JoinEmpty = cond } }
func WithLeaveEmpty(cond EmptyCondition) Option { return func(c *Config) { c.LeaveEmpty = cond } }
func WithAutopause(m AutopauseMode) Option  { return func(c *Config) { c.Autopause = m } }
func WithDefaultRuleName(name string) Option { return func(c *Config) { c.DefaultRuleName = name } }
func WithRingInUse(v bool) Option           { return func(c *Config) { c.RingInUse = v } }

// Queue is the immutable-post-construction identity/config half. Data
// holds the mutable statistics/waiting-list half and Members holds the
// member table; both are reference-shared across a config reload so
// live callers and stats survive (spec.md §9 Reload atomicity).
type Queue struct {
	Config
	Data    *Data
	Members *member.Set
}

// New creates a Queue with a fresh Data and Members set.
func New(name string, opts ...Option) *Queue {
	cfg := DefaultConfig(name)
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Queue{Config: cfg, Data: NewData(), Members: member.NewSet()}
}

// Reload replaces q's Config with cfg while keeping Data and Members
// shared with any in-flight caller that already resolved the old Queue
// value, per spec.md §9's reload-atomicity design note.
func (q *Queue) Reload(cfg Config) *Queue {
	return &Queue{Config: cfg, Data: q.Data, Members: q.Members}
}

// NumAvailableMembers counts members that are not paused and are past
// their wrap-up period, used by the wait-turn loop's is_our_turn check
// (spec.md §4.4 step 3). Device status and call-in-use are not
// consulted.
func (q *Queue) NumAvailableMembers() int {
	n := 0
	for _, m := range q.Members.Members() {
		if m.IsPaused() {
			continue
		}
		if !m.EligibleAfterWrapup(time.Now()) {
			continue
		}
		n++
	}
	return n
}
