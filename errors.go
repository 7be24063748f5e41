package asterisk

import "errors"

var (
	// ErrNoDriver is returned by New when no transport.Driver has been
	// configured via WithDriver.
	ErrNoDriver = errors.New("asterisk: no transport driver configured")

	// ErrAlreadyStarted is returned by Start when called more than once
	// on the same Engine.
	ErrAlreadyStarted = errors.New("asterisk: engine already started")

	// ErrNotStarted is returned by operations that require a running
	// Engine, such as Stop, when Start has not been called.
	ErrNotStarted = errors.New("asterisk: engine not started")

	// ErrQueueNotFound is returned when an operation names a queue that
	// is not registered with the engine.
	ErrQueueNotFound = errors.New("asterisk: queue not found")

	// ErrMemberNotFound is returned when an operation names an
	// interface that is not a member of the target queue.
	ErrMemberNotFound = errors.New("asterisk: member not found")
)
