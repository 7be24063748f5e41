// Package middleware provides composable middleware for ring attempts.
//
// A [Middleware] is a function that wraps one attempt's ring. Middleware
// are composed into a chain using [Chain] and applied before each ring
// attempt executes, in the order listed:
//
//	// logging → recover → handler
//	chain := middleware.Chain(middleware.Logging(logger), middleware.Recover(logger))
//
// # Built-in Middleware
//
//   - [Logging] — logs queue, interface, duration, and outcome at each attempt
//   - [Recover] — catches panics and converts them to errors
//   - [Timeout] — cancels the attempt context after a configured ring timeout
//   - [Tracing] — wraps ringing in an OpenTelemetry span
//   - [Metrics] — records per-attempt duration and outcome counters
//   - [Scope] — injects the queue/channel correlation scope into context
//
// # Writing Custom Middleware
//
//	func MyMiddleware() middleware.Middleware {
//	    return func(ctx context.Context, a *attempt.Attempt, queue string, next middleware.Handler) error {
//	        // pre-processing
//	        err := next(ctx)
//	        // post-processing
//	        return err
//	    }
//	}
//
// Middleware MUST call next to continue the chain unless intentionally
// short-circuiting.
package middleware
