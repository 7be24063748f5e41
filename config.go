package asterisk

import (
	"time"

	"golang.org/x/time/rate"
)

// Config holds engine-wide configuration independent of any single
// queue's Config (queue.Config governs per-queue ring/wrapup/service
// level behavior instead).
type Config struct {
	// ManagementAddr is the address the management HTTP server listens
	// on, e.g. ":8088". Empty disables the management server.
	ManagementAddr string

	// StreamAddr is the address the websocket event gateway listens on
	// for dashboard clients. Empty disables the gateway.
	StreamAddr string

	// ManagementRateLimit and ManagementBurst configure the management
	// server's per-client request throttle.
	ManagementRateLimit rate.Limit
	ManagementBurst     int

	// ShutdownTimeout is kept in the engine's Config; Engine.Stop does
	// not read it and is bounded only by the context passed to Stop.
	ShutdownTimeout time.Duration

	// ReconcileInterval is the cron schedule (a robfig/cron spec, e.g.
	// "@every 30s") used to reconcile realtime membership when a queue
	// is registered with a member.RealtimeSource.
	ReconcileInterval string
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		ManagementAddr:      ":8088",
		StreamAddr:          "",
		ManagementRateLimit: 20,
		ManagementBurst:     40,
		ShutdownTimeout:     10 * time.Second,
		ReconcileInterval:   "@every 30s",
	}
}
