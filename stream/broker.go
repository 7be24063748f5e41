// Package stream exposes events.Bus over raw websockets so external
// dashboards and wallboards can watch queue activity live instead of
// polling the management surface, per spec.md §6's mention of a
// "log/queue_log or realtime event stream" external interface.
//
// Grounded on transport/wsdriver's gobwas/ws handshake-and-frame-I/O
// idiom (the accept-already-upgraded-conn shape and the codec-agnostic
// send loop), redirected here from call-control frames to one-way JSON
// event delivery: a Gateway holds no per-channel state, only a fan-out
// goroutine per connection reading off an events.Subscriber.
package stream

import (
	"encoding/json"
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/Distrotech/asterisk/events"
)

// DefaultBufferSize is the default per-connection event buffer.
const DefaultBufferSize = 256

// DefaultCredits is the default initial credits for a new connection's
// subscriber, per events.Subscriber's flow-control scheme.
const DefaultCredits int64 = 1000

// Gateway bridges an events.Bus to websocket clients. Each accepted
// connection subscribes to one or more topics and receives a text
// frame per events.Event, JSON-encoded, until it disconnects or the
// Gateway is closed.
type Gateway struct {
	bus    *events.Bus
	logger *slog.Logger

	bufferSize     int
	defaultCredits int64

	mu      sync.Mutex
	nextID  int
	closing chan struct{}
	once    sync.Once
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithBufferSize overrides the per-connection event buffer size.
func WithBufferSize(size int) Option { return func(g *Gateway) { g.bufferSize = size } }

// WithDefaultCredits overrides the initial flow-control credits granted
// to a new connection.
func WithDefaultCredits(credits int64) Option {
	return func(g *Gateway) { g.defaultCredits = credits }
}

// WithLogger sets the gateway's logger.
func WithLogger(l *slog.Logger) Option { return func(g *Gateway) { g.logger = l } }

// NewGateway creates a Gateway fanning bus events out over websockets.
func NewGateway(bus *events.Bus, opts ...Option) *Gateway {
	g := &Gateway{
		bus:            bus,
		logger:         slog.Default(),
		bufferSize:     DefaultBufferSize,
		defaultCredits: DefaultCredits,
		closing:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Accept registers conn, which has already completed the websocket
// handshake (via ws.Upgrade in the caller's net/http handler), as a
// subscriber to topics and starts streaming events to it until the
// connection errs out or the Gateway closes. It blocks until then, so
// callers typically invoke it in its own goroutine per accepted conn.
func (g *Gateway) Accept(conn net.Conn, topics ...string) {
	defer conn.Close()

	g.mu.Lock()
	g.nextID++
	subID := "stream-" + strconv.Itoa(g.nextID)
	g.mu.Unlock()

	sub := events.NewSubscriber(subID, g.bufferSize, g.defaultCredits)
	for _, topic := range topics {
		g.bus.Subscribe(topic, sub)
	}
	defer g.bus.UnsubscribeAll(subID)
	defer sub.Close()

	disconnected := make(chan struct{})
	go g.drainClient(conn, disconnected)

	for {
		select {
		case <-g.closing:
			return
		case <-disconnected:
			return
		case evt, ok := <-sub.C():
			if !ok {
				return
			}
			data, err := json.Marshal(evt)
			if err != nil {
				continue
			}
			if err := wsutil.WriteServerMessage(conn, ws.OpText, data); err != nil {
				g.logger.Debug("stream: write failed, dropping subscriber", "subscriber", subID, "error", err)
				return
			}
		}
	}
}

// drainClient reads (and discards) inbound frames so the underlying
// connection's read buffer doesn't back up and so a client close or
// ping/pong control frame is noticed promptly. It closes disconnected
// once the read side errs out, which is the only signal Accept's send
// loop has that the client is gone.
func (g *Gateway) drainClient(conn net.Conn, disconnected chan struct{}) {
	for {
		if _, _, err := wsutil.ReadClientData(conn); err != nil {
			close(disconnected)
			return
		}
	}
}

// Close signals every in-flight Accept call to stop streaming.
func (g *Gateway) Close() {
	g.once.Do(func() { close(g.closing) })
}
