package middleware

import (
	"context"

	"github.com/Distrotech/asterisk/attempt"
	"github.com/Distrotech/asterisk/scope"
)

// Scope returns middleware that attaches the queue/channel correlation
// scope to the context for the duration of one ring attempt.
func Scope() Middleware {
	return func(ctx context.Context, a *attempt.Attempt, queue string, next Handler) error {
		ctx = scope.Restore(ctx, queue, a.ChannelID)
		return next(ctx)
	}
}
