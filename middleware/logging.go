package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/Distrotech/asterisk/attempt"
)

// Logging returns middleware that logs an attempt's start and
// completion.
func Logging(logger *slog.Logger) Middleware {
	return func(ctx context.Context, a *attempt.Attempt, queue string, next Handler) error {
		logger.Info("ring attempt started",
			slog.String("queue", queue),
			slog.String("interface", a.Member.Interface),
			slog.String("attempt_id", a.ID.String()),
		)

		start := time.Now()
		err := next(ctx)
		elapsed := time.Since(start)

		if err != nil {
			logger.Warn("ring attempt failed",
				slog.String("queue", queue),
				slog.String("interface", a.Member.Interface),
				slog.Duration("elapsed", elapsed),
				slog.String("error", err.Error()),
			)
		} else {
			logger.Info("ring attempt completed",
				slog.String("queue", queue),
				slog.String("interface", a.Member.Interface),
				slog.Duration("elapsed", elapsed),
			)
		}

		return err
	}
}
