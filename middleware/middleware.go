// Package middleware provides composable middleware for ring attempts.
// Middleware wraps a single ring attempt's execution synchronously and
// can modify it (recover from panics, inject scope, log, add tracing
// and metrics), the same way the teacher's job-execution middleware
// chain wraps a job handler call.
package middleware

import (
	"context"

	"github.com/Distrotech/asterisk/attempt"
)

// Handler is the terminal function that carries out one ring attempt.
type Handler func(ctx context.Context) error

// Middleware wraps a Handler with cross-cutting logic around one
// attempt against queue. Middleware MUST call next to continue the
// chain unless short-circuiting on error.
type Middleware func(ctx context.Context, a *attempt.Attempt, queue string, next Handler) error

// Chain composes multiple middleware into one, applied left-to-right:
// the first middleware in the list is the outermost wrapper.
//
// Example: Chain(logging, recover, tracing) executes as:
//
//	logging → recover → tracing → handler
func Chain(mws ...Middleware) Middleware {
	return func(ctx context.Context, a *attempt.Attempt, queue string, next Handler) error {
		h := next
		for i := len(mws) - 1; i >= 0; i-- {
			mw := mws[i]
			prev := h
			h = func(ctx context.Context) error {
				return mw(ctx, a, queue, prev)
			}
		}
		return h(ctx)
	}
}
