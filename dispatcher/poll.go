package dispatcher

import (
	"context"
	"time"
)

// pollCaller reads the caller channel for a DTMF digit, treating a read
// error as caller hangup (the only cancellation signal spec.md §5
// recognizes). Digits other than 0-9/*/# are ignored.
func (d *Dispatcher) pollCaller(ctx context.Context, channelID string) (digit rune, hungUp bool) {
	data, err := d.Driver.Read(ctx, channelID)
	if err != nil {
		return 0, true
	}
	for _, b := range data {
		if (b >= '0' && b <= '9') || b == '*' || b == '#' {
			return rune(b), false
		}
	}
	return 0, false
}

// sleepRetry waits interval (spec.md §4.4 step 4's retry sleep),
// polling the caller channel so a hangup during the sleep is observed
// immediately instead of only at the next ring round. Returns false if
// the caller hung up or ctx was canceled during the sleep.
func (d *Dispatcher) sleepRetry(ctx context.Context, interval time.Duration, channelID string) bool {
	if interval <= 0 {
		interval = time.Second
	}
	deadline := time.Now().Add(interval)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if _, hungUp := d.pollCaller(ctx, channelID); hungUp {
				return false
			}
		}
	}
	return true
}
