// Package webhook implements a plain HTTP delivery notifier for the
// same queue lifecycle events events.Bus carries, supplementing
// spec.md's external interfaces for deployments that want push
// notification instead of (or alongside) polling the management
// surface.
//
// Grounded on webhook_src/extension.go's per-event dispatch table
// (formerly relayhook, built on the fabricated github.com/xraph/relay
// client), generalized to plain net/http POST delivery retried with
// backoff.ExponentialWithJitter — the pack's own retry-strategy
// abstraction — since no example repo ships a real webhook-delivery
// client library.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Distrotech/asterisk/backoff"
	"github.com/Distrotech/asterisk/events"
)

// Target is one webhook subscription: a URL to POST every matching
// event to.
type Target struct {
	URL    string
	Secret string // sent as the X-Dispatch-Signature header, if set
	Kinds  map[events.Kind]bool // nil = all kinds
}

// Notifier delivers events.Event payloads to a set of Targets over
// HTTP, retrying transient failures with backoff.
type Notifier struct {
	client   *http.Client
	strategy backoff.Strategy
	maxTries int
	logger   *slog.Logger

	targets []Target
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHTTPClient overrides the default *http.Client.
func WithHTTPClient(c *http.Client) Option { return func(n *Notifier) { n.client = c } }

// WithBackoff overrides the retry strategy.
func WithBackoff(s backoff.Strategy) Option { return func(n *Notifier) { n.strategy = s } }

// WithMaxTries caps delivery attempts per event.
func WithMaxTries(n int) Option { return func(no *Notifier) { no.maxTries = n } }

// WithLogger sets the notifier's logger.
func WithLogger(l *slog.Logger) Option { return func(n *Notifier) { n.logger = l } }

// New creates a Notifier delivering to targets.
func New(targets []Target, opts ...Option) *Notifier {
	n := &Notifier{
		client:   &http.Client{Timeout: 10 * time.Second},
		strategy: backoff.NewExponentialWithJitter(200*time.Millisecond, 5*time.Second),
		maxTries: 3,
		logger:   slog.Default(),
		targets:  targets,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Deliver POSTs evt to every target subscribed to its kind. Delivery
// failures are logged and retried up to maxTries times with backoff;
// they never propagate, matching webhook_src's policy that a broken
// downstream sink must never affect call handling.
func (n *Notifier) Deliver(ctx context.Context, evt *events.Event) {
	body, err := json.Marshal(evt)
	if err != nil {
		n.logger.Warn("webhook: failed to marshal event", slog.Any("error", err))
		return
	}

	for _, target := range n.targets {
		if target.Kinds != nil && !target.Kinds[evt.Kind] {
			continue
		}
		go n.deliverOne(ctx, target, body)
	}
}

func (n *Notifier) deliverOne(ctx context.Context, target Target, body []byte) {
	var lastErr error
	for attempt := 1; attempt <= n.maxTries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(n.strategy.Delay(attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.URL, bytes.NewReader(body))
		if err != nil {
			lastErr = err
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if target.Secret != "" {
			req.Header.Set("X-Dispatch-Signature", sign(target.Secret, body))
		}

		resp, err := n.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		resp.Body.Close()
		if resp.StatusCode < 300 {
			return
		}
		lastErr = fmt.Errorf("webhook: %s responded %d", target.URL, resp.StatusCode)
	}

	n.logger.Warn("webhook: delivery failed after retries", slog.String("url", target.URL), slog.Any("error", lastErr))
}
