// Package management implements the HTTP command surface spec.md §7
// describes as the AMI-equivalent external interface: show queue,
// add/remove member, pause/unpause, set penalty, set call-in-use, log a
// custom event, reload, reset stats, and show rules — all as plain
// JSON-over-HTTP endpoints instead of the original's line-oriented
// manager protocol.
//
// Grounded on gorilla/mux for routing (the pack's routing library of
// choice; no example repo builds an AMI-style line protocol server) and
// golang.org/x/time/rate for per-client request throttling, mirroring
// the credit/flow-control shape events.Subscriber already uses
// elsewhere in this codebase but applied to inbound management calls
// instead of outbound event delivery.
package management

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"github.com/Distrotech/asterisk/audit"
	"github.com/Distrotech/asterisk/device"
	"github.com/Distrotech/asterisk/dispatcher"
	"github.com/Distrotech/asterisk/events"
	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/persistence"
)

// Server exposes queue management operations over HTTP.
type Server struct {
	Queues  *dispatcher.Registry
	Devices *device.Registry
	Rules   *member.Registry
	Bus     *events.Bus
	Audit   *audit.Log
	Logger  *slog.Logger

	// Persist dumps each queue's dynamic members after every add,
	// remove, pause, or penalty change (spec.md §4.6). Nil disables
	// persistence entirely.
	Persist persistence.MemberPersister

	limiters   sync.Map // remote addr -> *rate.Limiter
	limitRate  rate.Limit
	limitBurst int
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server's logger.
func WithLogger(l *slog.Logger) Option { return func(s *Server) { s.Logger = l } }

// WithRateLimit overrides the per-remote-address request rate and
// burst allowance. The default is 20 requests/second, burst 40.
func WithRateLimit(perSecond rate.Limit, burst int) Option {
	return func(s *Server) { s.limitRate, s.limitBurst = perSecond, burst }
}

// WithPersistence sets the dynamic-member dump/load adapter. The
// default, a nil Persist, leaves dynamic membership unpersisted.
func WithPersistence(p persistence.MemberPersister) Option {
	return func(s *Server) { s.Persist = p }
}

// NewServer builds a management Server over the given collaborators.
func NewServer(queues *dispatcher.Registry, devices *device.Registry, rules *member.Registry, bus *events.Bus, auditLog *audit.Log, opts ...Option) *Server {
	s := &Server{
		Queues:     queues,
		Devices:    devices,
		Rules:      rules,
		Bus:        bus,
		Audit:      auditLog,
		Logger:     slog.Default(),
		limitRate:  20,
		limitBurst: 40,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gorilla/mux router exposing every management
// operation. Callers mount it directly or wrap it with additional
// net/http middleware (e.g. TLS termination, auth).
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.rateLimit)

	r.HandleFunc("/queues", s.handleListQueues).Methods(http.MethodGet)
	r.HandleFunc("/queues/{queue}", s.handleShowQueue).Methods(http.MethodGet)
	r.HandleFunc("/queues/{queue}/reload", s.handleReload).Methods(http.MethodPost)
	r.HandleFunc("/queues/{queue}/reset", s.handleResetStats).Methods(http.MethodPost)
	r.HandleFunc("/queues/{queue}/events", s.handleLogEvent).Methods(http.MethodPost)
	r.HandleFunc("/queues/{queue}/members", s.handleAddMember).Methods(http.MethodPost)
	// iface values are interface names like "SIP/alice" and contain a
	// slash, so the {iface} segment must match the rest of the path.
	r.HandleFunc("/queues/{queue}/members/{iface:.+}", s.handleRemoveMember).Methods(http.MethodDelete)
	r.HandleFunc("/queues/{queue}/members/{iface:.+}/pause", s.handlePause).Methods(http.MethodPost)
	r.HandleFunc("/queues/{queue}/members/{iface:.+}/penalty", s.handleSetPenalty).Methods(http.MethodPost)
	r.HandleFunc("/queues/{queue}/members/{iface:.+}/callinuse", s.handleSetCallInUse).Methods(http.MethodPost)
	r.HandleFunc("/rules", s.handleShowRules).Methods(http.MethodGet)

	return r
}

// rateLimit throttles requests per remote address using a token-bucket
// limiter, rejecting over-quota requests with 429.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		val, _ := s.limiters.LoadOrStore(r.RemoteAddr, rate.NewLimiter(s.limitRate, s.limitBurst))
		limiter := val.(*rate.Limiter) //nolint:errcheck // always stored as *rate.Limiter
		if !limiter.Allow() {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// queueOr404 resolves the {queue} path variable, writing a 404 and
// returning ok=false if it doesn't exist.
func (s *Server) queueOr404(w http.ResponseWriter, r *http.Request) (name string, ok bool) {
	name = mux.Vars(r)["queue"]
	if _, exists := s.Queues.Get(name); !exists {
		writeError(w, http.StatusNotFound, "queue not found: "+name)
		return name, false
	}
	return name, true
}
