// Package asterisk provides a composable call-queue engine for Go,
// modeled on Asterisk's ACD queue application. It offers library-first
// caller dispatch, ring strategies, agent membership, and a management
// surface as ordinary Go types instead of a dialplan application.
//
// asterisk is designed as a library, not a service. Import it, wire a
// transport.Driver for your telephony stack, and register queues and
// members as ordinary Go values.
//
// # Quick Start
//
//	eng, err := asterisk.New(
//	    asterisk.WithDriver(driver),
//	    asterisk.WithPersistence(memberStore),
//	)
//
// # Architecture
//
// The engine follows a composable subsystem pattern: dispatcher drives
// the ring/attempt loop, queue/member/device hold live state, events
// fans out queue and agent activity, audit and postmortem record
// history, and persistence subpackages (memory, redis, postgres,
// bunstore) implement the storage contracts a deployment chooses among.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers (see package id).
package asterisk
