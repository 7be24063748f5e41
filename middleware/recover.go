package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/Distrotech/asterisk/attempt"
)

// Recover returns middleware that recovers from panics raised while
// ringing an attempt, converting them to errors and logging a stack
// trace, so one broken attempt can never take the dispatcher process
// down.
func Recover(logger *slog.Logger) Middleware {
	return func(ctx context.Context, a *attempt.Attempt, queue string, next Handler) (retErr error) {
		defer func() {
			if r := recover(); r != nil {
				stack := string(debug.Stack())
				logger.Error("ring attempt panicked",
					slog.String("queue", queue),
					slog.String("attempt_id", a.ID.String()),
					slog.String("interface", a.Member.Interface),
					slog.Any("panic", r),
					slog.String("stack", stack),
				)
				retErr = fmt.Errorf("panic ringing %s: %v", a.Member.Interface, r)
			}
		}()
		return next(ctx)
	}
}
