// Command queued runs a standalone call-queue engine: agents connect
// over websocket, callers are dispatched into queues configured at
// startup, and the management HTTP API and event stream gateway are
// exposed for external tooling.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gobwas/ws"

	"github.com/Distrotech/asterisk"
	"github.com/Distrotech/asterisk/member"
	"github.com/Distrotech/asterisk/persistence/memory"
	"github.com/Distrotech/asterisk/queue"
	"github.com/Distrotech/asterisk/ring"
	"github.com/Distrotech/asterisk/transport"
	"github.com/Distrotech/asterisk/transport/wsdriver"
)

func main() {
	var (
		agentAddr = flag.String("agent-addr", ":8089", "address agents connect to over websocket")
		mgmtAddr  = flag.String("management-addr", ":8088", "address the management HTTP API listens on")
		streamAddr = flag.String("stream-addr", ":8090", "address the dashboard event gateway listens on")
		queueName = flag.String("queue", "support", "name of the queue to create at startup")
		strategy  = flag.String("strategy", "ringall", "ring strategy for the startup queue")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	strat, ok := ring.ParseStrategy(*strategy)
	if !ok {
		logger.Error("unknown ring strategy", "strategy", *strategy)
		os.Exit(1)
	}

	driver := wsdriver.New(transport.GetCodec(transport.CodecNameJSON))

	// The in-process store keeps dynamic member dumps across a Reload
	// but not a restart; swap in persistence/redis, persistence/postgres,
	// or persistence/bunstore for durability across process lifetimes.
	persist := memory.New()

	eng, err := asterisk.New(
		asterisk.WithDriver(driver),
		asterisk.WithLogger(logger),
		asterisk.WithPersistence(persist),
		asterisk.WithConfig(asterisk.Config{
			ManagementAddr:      *mgmtAddr,
			StreamAddr:          *streamAddr,
			ManagementRateLimit: 20,
			ManagementBurst:     40,
			ShutdownTimeout:     10 * time.Second,
		}),
	)
	if err != nil {
		logger.Error("failed to build engine", "error", err)
		os.Exit(1)
	}

	q := queue.New(*queueName, queue.WithStrategy(strat))
	eng.Queues.Add(q)

	agentMux := http.NewServeMux()
	agentMux.HandleFunc("/agent", func(w http.ResponseWriter, r *http.Request) {
		iface := r.URL.Query().Get("interface")
		if iface == "" {
			http.Error(w, "missing interface query parameter", http.StatusBadRequest)
			return
		}
		conn, _, _, err := ws.UpgradeHTTP(r, w)
		if err != nil {
			logger.Error("websocket upgrade failed", "interface", iface, "error", err)
			return
		}
		if _, found := q.Members.Get(iface); !found {
			if _, err := q.Members.Insert(&member.Member{
				Interface:  iface,
				Provenance: member.ProvenanceDynamic,
				Dev:        eng.Devices.Acquire(iface),
			}); err != nil {
				logger.Error("failed to register agent", "interface", iface, "error", err)
				conn.Close()
				return
			}
		}
		if err := driver.Accept(iface, conn); err != nil {
			logger.Error("failed to accept agent connection", "interface", iface, "error", err)
			conn.Close()
			return
		}
		logger.Info("agent connected", "interface", iface, "queue", *queueName)
	})
	agentMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	agentSrv := &http.Server{Addr: *agentAddr, Handler: agentMux}
	go func() {
		if err := agentSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("agent server exited", "error", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := eng.Start(ctx); err != nil {
		logger.Error("failed to start engine", "error", err)
		os.Exit(1)
	}

	logger.Info("queued started",
		"agent_addr", *agentAddr,
		"management_addr", *mgmtAddr,
		"stream_addr", *streamAddr,
		"queue", *queueName,
		"strategy", strat.String(),
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = agentSrv.Shutdown(shutdownCtx)
	if err := eng.Stop(shutdownCtx); err != nil {
		logger.Error("engine stop error", "error", err)
	}
}
