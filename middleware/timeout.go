package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/Distrotech/asterisk/attempt"
)

// Timeout returns middleware that enforces a fixed ring deadline
// (the queue's RingTimeout) around one attempt. When the deadline is
// exceeded, ctx is canceled and the driver call underneath should
// return context.DeadlineExceeded.
func Timeout(d time.Duration, logger *slog.Logger) Middleware {
	return func(ctx context.Context, a *attempt.Attempt, queue string, next Handler) error {
		if d > 0 {
			logger.Debug("ring attempt timeout set",
				slog.String("attempt_id", a.ID.String()),
				slog.Duration("timeout", d),
			)
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, d)
			defer cancel()
		}
		return next(ctx)
	}
}
