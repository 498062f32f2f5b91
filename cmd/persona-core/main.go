package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"golang.org/x/term"

	"github.com/quietsignal/persona-core/internal/adapter/filestore"
	"github.com/quietsignal/persona-core/internal/adapter/mcp"
	natsadapter "github.com/quietsignal/persona-core/internal/adapter/nats"
	"github.com/quietsignal/persona-core/internal/adapter/noop"
	"github.com/quietsignal/persona-core/internal/adapter/otel"
	"github.com/quietsignal/persona-core/internal/adapter/postgres"
	"github.com/quietsignal/persona-core/internal/adapter/ristretto"
	"github.com/quietsignal/persona-core/internal/adapter/ws"
	"github.com/quietsignal/persona-core/internal/config"
	"github.com/quietsignal/persona-core/internal/domain/decision"
	"github.com/quietsignal/persona-core/internal/domain/limbic"
	domainmemory "github.com/quietsignal/persona-core/internal/domain/memory"
	"github.com/quietsignal/persona-core/internal/domain/pipeline"
	"github.com/quietsignal/persona-core/internal/domain/policy"
	"github.com/quietsignal/persona-core/internal/domain/schedule"
	"github.com/quietsignal/persona-core/internal/domain/signal"
	"github.com/quietsignal/persona-core/internal/logger"
	"github.com/quietsignal/persona-core/internal/middleware"
	"github.com/quietsignal/persona-core/internal/port/a2a"
	"github.com/quietsignal/persona-core/internal/port/executor"
	"github.com/quietsignal/persona-core/internal/port/store"
	"github.com/quietsignal/persona-core/internal/resilience"
	"github.com/quietsignal/persona-core/internal/secrets"
	"github.com/quietsignal/persona-core/internal/service"
)

func main() {
	// Temporary bootstrap logger until config is loaded.
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := run(os.Args[1:]); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

// run wires every adapter and dispatches the requested CLI subcommand
// (spec.md §6.5). It returns a non-nil error only for configuration or
// bootstrap failures; subcommand failures are logged and turned into a
// non-zero exit by main via a plain error return.
func run(args []string) error {
	flags, err := config.ParseFlags(args)
	if err != nil {
		return fmt.Errorf("flags: %w", err)
	}
	cfg, yamlPath, err := config.LoadWithCLI(flags)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logHandler, logCloser := logger.New(cfg.Logging)
	slog.SetDefault(logHandler)
	defer logCloser.Close()

	slog.Info("config loaded",
		"agent", cfg.Agent.Name,
		"log_level", cfg.Logging.Level,
		"quiet_window", cfg.Scheduler.QuietWindow,
	)

	ctx := context.Background()

	shutdownTracer, err := otel.InitTracer(otel.OTELConfig{
		Enabled:     cfg.OTEL.Enabled,
		Endpoint:    cfg.OTEL.Endpoint,
		ServiceName: cfg.OTEL.ServiceName,
		Insecure:    cfg.OTEL.Insecure,
		SampleRate:  cfg.OTEL.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}

	// --- Mandatory local state (spec.md §4.5, §6.4) ---
	if err := os.MkdirAll(cfg.State.Dir, 0o755); err != nil {
		return fmt.Errorf("state dir: %w", err)
	}
	agentStates := filestore.NewAgentStateStore(filepath.Join(cfg.State.Dir, "agent_state.json"))
	interopStore := filestore.NewInteroceptionStore(filepath.Join(cfg.State.Dir, "interoception.json"), signal.DefaultConfigs())
	outbox := filestore.NewOutboxStore(filepath.Join(cfg.State.Dir, "outbox"))
	localTelemetry := filestore.NewTelemetrySink(filepath.Join(cfg.State.Dir, "telemetry.jsonl"))
	syncSnapshots := filestore.NewSyncSnapshotStore(filepath.Join(cfg.State.Dir, "sync_state.json"))

	telemetrySinks := []store.TelemetrySink{localTelemetry}

	// --- Optional durable telemetry archive (spec.md §4.5) ---
	var pgPool *pgxpool.Pool
	if cfg.Postgres.Enabled {
		pgPool, err = postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return fmt.Errorf("postgres migrations: %w", err)
		}
		telemetrySinks = append(telemetrySinks, postgres.NewTelemetryMirror(pgPool))
		slog.Info("postgres telemetry archive connected")
	}
	telemetry := store.MultiTelemetrySink{Sinks: telemetrySinks}

	// --- In-process L1 cache fronting the remote passage mirror ---
	l1Cache, err := ristretto.New(cfg.Cache.MaxCostBytes)
	if err != nil {
		return fmt.Errorf("ristretto cache: %w", err)
	}
	defer l1Cache.Close()

	// --- Optional remote passage mirror (spec.md §4.4) ---
	var natsStore *natsadapter.Store
	var mirror *service.StateMirror
	if cfg.NATS.Enabled {
		credVault, err := secrets.NewVault(secrets.EnvLoader("NATS_TOKEN"))
		if err != nil {
			return fmt.Errorf("nats credentials: %w", err)
		}
		var natsOpts []nats.Option
		if token := credVault.Get("NATS_TOKEN"); token != "" {
			natsOpts = append(natsOpts, nats.Token(token))
		}

		natsStore, err = natsadapter.Connect(ctx, cfg.NATS.URL, natsOpts...)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		natsStore.SetBreaker(resilience.NewBreaker(cfg.Breaker.MaxFailures, cfg.Breaker.Timeout))
		mirror = &service.StateMirror{
			Local:    interopStore,
			Remote:   natsStore,
			Snapshot: syncSnapshots,
			Cache:    l1Cache,
		}
		slog.Info("nats passage mirror connected", "bucket", cfg.NATS.Bucket)
	}

	// --- Policy profile (spec.md §4.3, §4.6.1) ---
	prof, err := policy.LoadProfile(cfg.Policy.Profile)
	if err != nil {
		return fmt.Errorf("policy profile %q: %w", cfg.Policy.Profile, err)
	}

	// --- Agent-to-agent forum surface (spec.md §1; SPEC_FULL §6.7) ---
	var forum *a2a.Handler
	if cfg.A2A.Enabled {
		forum = a2a.NewHandler("http://"+addrHost(cfg.Agent.ListenAddr), cfg.Agent.Name)
	}

	// --- Pipeline runner: no platform-specific Observer/Proposer/
	// Executor ships in this core (spec.md §1 Non-goals: "does not
	// implement the wire protocols of the downstream services"). The
	// noop adapters exercise the documented fallback contracts until a
	// deployment registers real platform glue.
	observer := &noop.Observer{}
	if forum != nil {
		// Assigning a nil *a2a.Handler to the ForumDrainer interface field
		// would leave it non-nil-but-empty (the classic typed-nil trap), so
		// only set it when a2a is actually enabled.
		observer.Forum = forum
	}

	runner := &pipeline.Runner{
		Observer:  observer,
		Proposer:  noop.Proposer{},
		Executor:  executor.NewDispatcher(),
		States:    agentStates,
		Outbox:    outbox,
		Telemetry: telemetry,
		Sync:      syncSnapshots,
		Memory:    noop.MemoryWriter{},

		Policy:     *prof,
		Weights:    decision.DefaultWeights(),
		Thresholds: decision.Thresholds{LowSalience: prof.LowSalience, HighSalience: prof.HighSalience, LowActionJ: prof.LowActionJ},
		Selection:  decision.DefaultSelectionParams(),
		Summarize:  domainmemory.SummarizeThreshold{EventCount: cfg.Memory.SummaryEventCount, Window: cfg.Memory.SummaryWindow},

		Rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	var quiet *schedule.QuietWindow
	if cfg.Scheduler.QuietWindow != "" {
		qw, err := schedule.ParseQuietWindow(cfg.Scheduler.QuietWindow)
		if err != nil {
			return fmt.Errorf("scheduler.quiet_window: %w", err)
		}
		quiet = &qw
	}

	scheduler := &service.Scheduler{
		Configs:          signal.DefaultConfigs(),
		Interop:          interopStore,
		Provider:         noop.Provider{},
		Mirror:           mirror,
		Runner:           runner,
		Quiet:            quiet,
		TickInterval:     cfg.Scheduler.TickInterval,
		MirrorFullEveryN: cfg.Scheduler.MirrorFullEveryN,
		QueueRunnerLimit: cfg.Scheduler.QueueRunnerLimit,
	}

	// --- HTTP surfaces: A2A forum, operator console (AG-UI), MCP ---
	r := chi.NewRouter()
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", healthHandler(cfg))

	if forum != nil {
		forum.MountRoutes(r)
	}

	var hub *ws.Hub
	if cfg.AGUI.Enabled {
		hub = ws.NewHub("*", nil)
		r.Get("/ws", hub.HandleWS)
	}

	srv := &http.Server{
		Addr:              cfg.Agent.ListenAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	var mcpServer *mcp.Server
	if cfg.MCP.Enabled {
		mcpServer = mcp.NewServer(cfg.MCP.ServerAddr, mcp.Deps{
			InteroceptionStore: interopStore,
			AgentStateStore:    agentStates,
			OutboxStore:        outbox,
			SignalConfigs:      signal.DefaultConfigs(),
			Weights:            decision.DefaultWeights(),
		})
	}

	// --- CLI subcommand dispatch (spec.md §6.5) ---
	// Every subcommand except a bare invocation or "run scheduler forever"
	// is one-shot: dispatchCommand runs it to completion and calls os.Exit
	// itself, so reaching the code below means the long-running server is
	// what was asked for.
	if cmdErr := dispatchCommand(ctx, flags.Args, scheduler, interopStore); cmdErr != nil {
		return cmdErr
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("starting http server", "addr", cfg.Agent.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("http server failed", "error", err)
		}
	}()

	if mcpServer != nil {
		go func() {
			if err := mcpServer.Start(); err != nil {
				slog.Error("mcp server failed", "error", err)
			}
		}()
	}

	schedulerCtx, cancelScheduler := context.WithCancel(ctx)
	go scheduler.Run(schedulerCtx)

	if yamlPath != "" {
		slog.Info("watching config for hot reload is not enabled; restart to pick up changes", "path", yamlPath)
	}

	<-done

	// --- Ordered graceful shutdown ---
	slog.Info("shutdown phase 1: stopping http server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown error", "error", err)
	}

	slog.Info("shutdown phase 2: stopping scheduler")
	cancelScheduler()

	if mcpServer != nil {
		slog.Info("shutdown phase 3: stopping mcp server")
		if err := mcpServer.Stop(shutdownCtx); err != nil {
			slog.Error("mcp shutdown error", "error", err)
		}
	}

	if natsStore != nil {
		slog.Info("shutdown phase 4: closing nats connection")
		if err := natsStore.Close(); err != nil {
			slog.Error("nats close error", "error", err)
		}
	}

	if pgPool != nil {
		slog.Info("shutdown phase 5: closing postgres pool")
		pgPool.Close()
	}

	slog.Info("shutdown phase 6: flushing tracer")
	if err := shutdownTracer(shutdownCtx); err != nil {
		slog.Error("tracer shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}

// dispatchCommand runs a one-shot CLI subcommand and returns a non-nil
// error on config/runtime failure. "run scheduler forever" (or no
// subcommand at all) falls through to the long-running server instead.
func dispatchCommand(ctx context.Context, args []string, sched *service.Scheduler, interop store.InteroceptionStore) error {
	if len(args) == 0 {
		return nil
	}

	switch args[0] {
	case "run":
		if len(args) < 2 {
			return fmt.Errorf("run: expected one of pipeline|queue|scheduler")
		}
		switch args[1] {
		case "pipeline", "one":
			if sched.Runner == nil {
				return fmt.Errorf("run pipeline: no pipeline runner configured")
			}
			result, err := sched.Runner.Run(ctx)
			if err != nil {
				return fmt.Errorf("run pipeline: %w", err)
			}
			slog.Info("pipeline run complete", "outcome", result.Outcome, "draft_id", result.DraftID)
			os.Exit(0)
		case "queue":
			result, err := sched.RunQueueOnce(ctx)
			if err != nil {
				return fmt.Errorf("run queue: %w", err)
			}
			slog.Info("queue run complete", "outcome", result.Outcome)
			os.Exit(0)
		case "scheduler":
			if len(args) > 2 && args[2] == "once" {
				sched.Tick(ctx)
				os.Exit(0)
			}
			// "scheduler forever" falls through to the long-running server.
			return nil
		}
		return fmt.Errorf("run: unknown target %q", args[1])

	case "status":
		st, err := interop.Load(ctx)
		if err != nil {
			return fmt.Errorf("status: %w", err)
		}
		if term.IsTerminal(int(os.Stdout.Fd())) {
			printStatusHuman(st)
		} else {
			enc, _ := json.MarshalIndent(st, "", "  ")
			fmt.Println(string(enc))
		}
		os.Exit(0)

	case "set":
		if len(args) < 3 || args[1] != "quiet" {
			return fmt.Errorf("set: expected \"set quiet <hours>\"")
		}
		hours, err := time.ParseDuration(args[2] + "h")
		if err != nil {
			return fmt.Errorf("set quiet: %w", err)
		}
		st, err := interop.Load(ctx)
		if err != nil {
			return fmt.Errorf("set quiet: %w", err)
		}
		st = limbic.SetQuiet(st, time.Now().Add(hours))
		if err := interop.Save(ctx, st); err != nil {
			return fmt.Errorf("set quiet: %w", err)
		}
		os.Exit(0)

	case "clear":
		if len(args) < 2 || args[1] != "quiet" {
			return fmt.Errorf("clear: expected \"clear quiet\"")
		}
		st, err := interop.Load(ctx)
		if err != nil {
			return fmt.Errorf("clear quiet: %w", err)
		}
		st = limbic.ClearQuiet(st)
		if err := interop.Save(ctx, st); err != nil {
			return fmt.Errorf("clear quiet: %w", err)
		}
		os.Exit(0)

	case "force":
		if len(args) < 3 || args[1] != "signal" {
			return fmt.Errorf("force: expected \"force signal <name>\"")
		}
		st, err := interop.Load(ctx)
		if err != nil {
			return fmt.Errorf("force signal: %w", err)
		}
		st, result := limbic.ForceEmit(st, signal.Kind(args[2]), time.Now())
		if err := interop.Save(ctx, st); err != nil {
			return fmt.Errorf("force signal: %w", err)
		}
		slog.Info("signal forced", "signal", result.Signal, "emitted", result.Emitted)
		os.Exit(0)
	}

	return fmt.Errorf("unknown command %q", args[0])
}

// printStatusHuman renders the interoception state as a short table
// instead of raw JSON when stdout is a terminal.
func printStatusHuman(st signal.InteroceptionState) {
	fmt.Printf("total emissions: %d\n", st.TotalEmissions)
	if st.QuietUntil != nil {
		fmt.Printf("quiet until:     %s\n", st.QuietUntil.Format(time.RFC3339))
	} else {
		fmt.Println("quiet until:     (not quiet)")
	}
	fmt.Println()
	fmt.Printf("%-12s %8s %12s %8s\n", "SIGNAL", "PRESSURE", "LAST EMITTED", "COUNT")
	for kind, ps := range st.Pressures {
		last := "never"
		if !ps.LastEmitted.IsZero() {
			last = ps.LastEmitted.Format("01-02 15:04")
		}
		fmt.Printf("%-12s %8.3f %12s %8d\n", kind, ps.Pressure, last, ps.EmissionCount)
	}
}

func healthHandler(cfg *config.Config) http.HandlerFunc {
	type healthStatus struct {
		Status string `json:"status"`
		Agent  string `json:"agent"`
	}
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(healthStatus{Status: "ok", Agent: cfg.Agent.Name})
	}
}

// addrHost strips a leading colon from a ":port" style listen address
// so it can be embedded in a base URL; a fully-qualified listen
// address is returned unchanged.
func addrHost(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
