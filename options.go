package asterisk

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/Distrotech/asterisk/audit"
	"github.com/Distrotech/asterisk/device"
	"github.com/Distrotech/asterisk/dispatcher"
	"github.com/Distrotech/asterisk/events"
	"github.com/Distrotech/asterisk/management"
	mw "github.com/Distrotech/asterisk/middleware"
	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/persistence"
	"github.com/Distrotech/asterisk/postmortem"
	"github.com/Distrotech/asterisk/stream"
	"github.com/Distrotech/asterisk/transport"
)

// Option configures an Engine at construction time.
type Option func(*Engine) error

// WithDriver sets the transport.Driver used to originate and control
// calls. Required; New returns ErrNoDriver if omitted.
func WithDriver(d transport.Driver) Option {
	return func(e *Engine) error { e.driver = d; return nil }
}

// WithLogger sets the structured logger shared by the dispatcher,
// management server, and stream gateway.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) error { e.logger = l; return nil }
}

// WithConfig overrides the engine-wide Config produced by DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(e *Engine) error { e.config = cfg; return nil }
}

// WithAuditRecorder sets the audit.Recorder events are fanned out to.
// The default discards every event.
func WithAuditRecorder(r audit.Recorder) Option {
	return func(e *Engine) error { e.auditRecorder = r; return nil }
}

// WithPostmortemStore sets the backing store for abandoned-call
// postmortem records. The default is an in-process postmortem.MemStore.
func WithPostmortemStore(s postmortem.Store) Option {
	return func(e *Engine) error { e.pmStore = s; return nil }
}

// WithMiddleware sets the middleware chain wrapped around each ring
// attempt, in place of the default Recover+Logging chain.
func WithMiddleware(chain mw.Middleware) Option {
	return func(e *Engine) error { e.middleware = chain; return nil }
}

// WithPersistence sets the dynamic-member dump/load adapter (spec.md
// §4.6). When set, Start loads each registered queue's previously
// dumped dynamic members before opening the management/stream
// listeners, and the management server dumps a queue's dynamic members
// after every add, remove, pause, or penalty change. The default, a nil
// adapter, disables persistence entirely.
func WithPersistence(p persistence.MemberPersister) Option {
	return func(e *Engine) error { e.persist = p; return nil }
}

// Engine is the top-level call-queue runtime: it owns the device,
// member, and queue registries, the dispatcher that drives ring
// attempts, and the optional management HTTP server and websocket
// event gateway.
type Engine struct {
	config Config
	logger *slog.Logger

	driver        transport.Driver
	auditRecorder audit.Recorder
	pmStore       postmortem.Store
	middleware    mw.Middleware
	persist       persistence.MemberPersister

	Devices *device.Registry
	Rules   *member.Registry
	Bus     *events.Bus
	Audit   *audit.Log
	Postmortem *postmortem.Service
	Queues  *dispatcher.Registry

	Dispatcher *dispatcher.Dispatcher
	Management *management.Server
	Stream     *stream.Gateway

	mu       sync.Mutex
	started  bool
	mgmtSrv  *http.Server
	streamLn net.Listener
}

// New builds an Engine from its collaborators, applying opts in order.
// The Devices/Rules/Bus/Audit/Postmortem/Queues registries are created
// fresh; register queues and members on the returned Engine before
// calling Start.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	if e.driver == nil {
		return nil, ErrNoDriver
	}
	if e.auditRecorder == nil {
		e.auditRecorder = audit.RecorderFunc(func(context.Context, *audit.Event) error { return nil })
	}
	if e.pmStore == nil {
		e.pmStore = postmortem.NewMemStore()
	}
	if e.middleware == nil {
		e.middleware = mw.Chain(mw.Recover(e.logger), mw.Logging(e.logger))
	}

	e.Devices = device.NewRegistry()
	e.Rules = member.NewRegistry()
	e.Bus = events.NewBus()
	e.Audit = audit.New(e.auditRecorder)
	e.Postmortem = postmortem.NewService(e.pmStore)
	e.Queues = dispatcher.NewRegistry()

	e.Dispatcher = dispatcher.New(e.Devices, e.Queues, e.Rules, e.Bus, e.Audit, e.Postmortem, e.driver,
		dispatcher.WithLogger(e.logger),
		dispatcher.WithMiddleware(e.middleware),
	)

	if e.config.ManagementAddr != "" {
		e.Management = management.NewServer(e.Queues, e.Devices, e.Rules, e.Bus, e.Audit,
			management.WithLogger(e.logger),
			management.WithRateLimit(e.config.ManagementRateLimit, e.config.ManagementBurst),
			management.WithPersistence(e.persist),
		)
	}
	if e.config.StreamAddr != "" {
		e.Stream = stream.NewGateway(e.Bus, stream.WithLogger(e.logger))
	}

	return e, nil
}

// Start brings up the management HTTP server and stream gateway
// listener, if configured. Ring attempts run on demand via
// e.Dispatcher.Run and require no separate Start step.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.started {
		return ErrAlreadyStarted
	}

	if e.persist != nil {
		e.loadDynamicMembers(ctx)
	}

	if e.Management != nil {
		e.mgmtSrv = &http.Server{Addr: e.config.ManagementAddr, Handler: e.Management.Router()}
		ln, err := net.Listen("tcp", e.config.ManagementAddr)
		if err != nil {
			return err
		}
		go func() {
			if err := e.mgmtSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				e.logger.Error("management server exited", "error", err)
			}
		}()
	}

	if e.Stream != nil {
		ln, err := net.Listen("tcp", e.config.StreamAddr)
		if err != nil {
			return err
		}
		e.streamLn = ln
		go e.acceptStreamClients(ln)
	}

	e.started = true
	return nil
}

// loadDynamicMembers implements spec.md §4.6's startup half: for every
// queue already registered on e.Queues, read back its dumped
// dynamic-member line and re-add each entry with dynamic provenance.
// Static and realtime members, and queues registered after Start, are
// unaffected. Errors are logged, not fatal — a corrupt or unreadable
// dump must not block startup.
func (e *Engine) loadDynamicMembers(ctx context.Context) {
	for _, q := range e.Queues.Snapshot() {
		line, ok, err := e.persist.LoadMembers(ctx, q.Name)
		if err != nil {
			e.logger.Error("load dynamic members", "queue", q.Name, "error", err)
			continue
		}
		if !ok {
			continue
		}
		records, err := persistence.DecodeDynamicMembers(line)
		if err != nil {
			e.logger.Error("decode dynamic members", "queue", q.Name, "error", err)
			continue
		}
		for _, rec := range records {
			key := rec.StateKey
			if key == "" {
				key = rec.Interface
			}
			m := &member.Member{
				Interface:   rec.Interface,
				DisplayName: rec.DisplayName,
				Penalty:     rec.Penalty,
				Paused:      rec.Paused,
				CallInUse:   rec.CallInUse,
				Provenance:  member.ProvenanceDynamic,
				Dev:         e.Devices.Acquire(key),
			}
			if _, err := q.Members.Insert(m); err != nil {
				e.logger.Error("restore dynamic member", "queue", q.Name, "interface", rec.Interface, "error", err)
				e.Devices.Release(m.Dev)
			}
		}
	}
}

func (e *Engine) acceptStreamClients(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go e.Stream.Accept(conn, events.TopicQueues, events.TopicFirehose)
	}
}

// Stop drains the management server and stream gateway, closing every
// device reference the engine holds.
func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.started {
		return ErrNotStarted
	}

	if e.mgmtSrv != nil {
		if err := e.mgmtSrv.Shutdown(ctx); err != nil {
			e.logger.Error("management server shutdown", "error", err)
		}
	}
	if e.streamLn != nil {
		_ = e.streamLn.Close()
	}
	if e.Stream != nil {
		e.Stream.Close()
	}
	e.Devices.Close()

	e.started = false
	return nil
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config { return e.config }
