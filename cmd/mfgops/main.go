// mfgops - manufacturing operations tool server and agent gateway.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/matiasleandrokruk/mfgops/internal/agent"
	"github.com/matiasleandrokruk/mfgops/internal/api"
	"github.com/matiasleandrokruk/mfgops/internal/api/handlers"
	"github.com/matiasleandrokruk/mfgops/internal/infra/config"
	"github.com/matiasleandrokruk/mfgops/internal/infra/eventbus"
	"github.com/matiasleandrokruk/mfgops/internal/infra/llm"
	"github.com/matiasleandrokruk/mfgops/internal/infra/sqlite"
	"github.com/matiasleandrokruk/mfgops/internal/mcp"
	"github.com/matiasleandrokruk/mfgops/internal/mcp/remote"
	"github.com/matiasleandrokruk/mfgops/internal/mcp/servers"
	"github.com/matiasleandrokruk/mfgops/internal/rag"
	"github.com/matiasleandrokruk/mfgops/internal/server"
	"github.com/matiasleandrokruk/mfgops/internal/version"
	pkgauth "github.com/matiasleandrokruk/mfgops/pkg/auth"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("mfgops", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	rest := fs.Args()
	if len(rest) == 0 {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	switch rest[0] {
	case "serve":
		return runServe(out)
	case "ask":
		return runAsk(rest[1:], out)
	case "ingest":
		return runIngest(rest[1:], out)
	case "tools":
		return runTools(out)
	default:
		fmt.Fprintf(out, "unknown command: %s\n", rest[0]) //nolint:errcheck
		return 2
	}
}

// app holds the wired services shared by all commands.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	bus      *eventbus.Bus
	client   *mcp.Client
	manager  *remote.Manager
	orch     *agent.Orchestrator
	runs     *agent.RunStore
	ingestor *rag.Ingestor
	searcher *rag.Searcher
	embedder *rag.Embedder
}

// buildApp wires configuration, storage, backends, retrieval, and the agent.
func buildApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	pkgauth.SetSecret(cfg.JWTSecret)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))

	db, err := sqlite.NewDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlite.MigrateUp(db); err != nil {
		db.Close() //nolint:errcheck
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	chatProvider := llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaChatModel)
	embedProvider := llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel)
	router := llm.NewRouter(map[string]llm.LLMProvider{"ollama": chatProvider}, cfg.LLMProvider)

	store := rag.NewStore(db)
	searcher := rag.NewSearcher(store, embedProvider, logger)

	backends := make([]mcp.Backend, 0, len(cfg.Backends)+2)
	for _, name := range cfg.Backends {
		switch name {
		case "equipment":
			backends = append(backends, servers.NewEquipmentServer())
		case "analytics":
			backends = append(backends, servers.NewAnalyticsServer())
		case "transactional":
			backends = append(backends, servers.NewTransactionalServer())
		default:
			logger.Warn("unknown backend in config, skipping", slog.String("backend", name))
		}
	}
	backends = append(backends, rag.NewToolServer(searcher))

	var manager *remote.Manager
	if cfg.Remote.Enabled {
		rc := remote.NewClient(remote.Config{
			Endpoint:       cfg.Remote.Endpoint,
			BearerToken:    cfg.Remote.BearerToken,
			ConnectTimeout: cfg.Remote.ConnectTimeout,
			ReadTimeout:    cfg.Remote.ReadTimeout,
		})
		manager = remote.NewManager(rc, cfg.Remote.CacheTTL)
		backends = append(backends, rc)
	}

	client := mcp.NewClient(backends...)
	bus := eventbus.New()
	runs := agent.NewRunStore(db)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		bus:      bus,
		client:   client,
		manager:  manager,
		orch:     agent.NewOrchestrator(router, agent.BuildSubAgents(client), runs, logger),
		runs:     runs,
		ingestor: rag.NewIngestor(store, bus, cfg.ChunkSize, cfg.ChunkOverlap),
		searcher: searcher,
		embedder: rag.NewEmbedder(store, embedProvider, logger),
	}, nil
}

func runServe(out io.Writer) int {
	a, err := buildApp()
	if err != nil {
		fmt.Fprintf(out, "startup failed: %v\n", err) //nolint:errcheck
		return 1
	}

	creds := map[string]handlers.Credential{}
	if a.cfg.AdminPasswordHash != "" {
		creds[a.cfg.AdminUser] = handlers.Credential{
			PasswordHash: a.cfg.AdminPasswordHash,
			Role:         "admin",
		}
	} else {
		a.logger.Warn("no admin password hash configured, login is disabled")
	}

	router := api.NewRouter(api.Deps{
		Logger:       a.logger,
		Client:       a.client,
		Manager:      a.manager,
		Orchestrator: a.orch,
		Runs:         a.runs,
		Ingestor:     a.ingestor,
		Searcher:     a.searcher,
		DocsDir:      a.cfg.DocsDir,
		Credentials:  creds,
	})

	srvConfig := server.DefaultConfig()
	srvConfig.Addr = a.cfg.Addr
	srv := server.NewServer(router, a.db, srvConfig, a.logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the remote tool cache so the first request doesn't pay for discovery.
	if a.manager != nil {
		if _, err := a.manager.RefreshTools(ctx); err != nil {
			a.logger.Warn("initial remote discovery failed", slog.String("error", err.Error()))
		}
	}

	go a.embedder.Run(ctx, a.bus)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(ctx) }()

	select {
	case err := <-errCh:
		a.logger.Error("server failed", slog.String("error", err.Error()))
		return 1
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown failed", slog.String("error", err.Error()))
		return 1
	}
	return 0
}

func runAsk(args []string, out io.Writer) int {
	question := strings.TrimSpace(strings.Join(args, " "))
	if question == "" {
		fmt.Fprintln(out, "usage: mfgops ask <question>") //nolint:errcheck
		return 2
	}

	a, err := buildApp()
	if err != nil {
		fmt.Fprintf(out, "startup failed: %v\n", err) //nolint:errcheck
		return 1
	}
	defer a.db.Close() //nolint:errcheck

	answer, err := a.orch.Ask(context.Background(), question)
	if err != nil {
		fmt.Fprintf(out, "ask failed: %v\n", err) //nolint:errcheck
		return 1
	}

	fmt.Fprintf(out, "[%s] %s\n", answer.Agent, answer.Answer) //nolint:errcheck
	return 0
}

func runIngest(args []string, out io.Writer) int {
	a, err := buildApp()
	if err != nil {
		fmt.Fprintf(out, "startup failed: %v\n", err) //nolint:errcheck
		return 1
	}
	defer a.db.Close() //nolint:errcheck

	dir := a.cfg.DocsDir
	if len(args) > 0 {
		dir = args[0]
	}

	ctx := context.Background()
	stats, err := a.ingestor.IngestDir(ctx, dir)
	if err != nil {
		fmt.Fprintf(out, "ingest failed: %v\n", err) //nolint:errcheck
		return 1
	}

	if err := a.embedder.Drain(ctx); err != nil {
		a.logger.Warn("embedding pass incomplete", slog.String("error", err.Error()))
	}

	raw, _ := json.Marshal(stats)  //nolint:errcheck
	fmt.Fprintln(out, string(raw)) //nolint:errcheck
	return 0
}

func runTools(out io.Writer) int {
	a, err := buildApp()
	if err != nil {
		fmt.Fprintf(out, "startup failed: %v\n", err) //nolint:errcheck
		return 1
	}
	defer a.db.Close() //nolint:errcheck

	for _, name := range a.client.ServerNames() {
		tools, err := a.client.ToolsForServer(name)
		if err != nil {
			continue
		}
		fmt.Fprintf(out, "%s:\n", name) //nolint:errcheck
		for _, tool := range tools {
			fmt.Fprintf(out, "  %s — %s\n", tool.Name, tool.Description) //nolint:errcheck
		}
	}
	return 0
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func printHelp(out io.Writer) {
	helpText := `mfgops - manufacturing operations tool server and agent gateway

Usage:
  mfgops [options] [command]

Options:
  --version    Show version information
  --help       Show this help message

Commands:
  serve        Start the HTTP API server
  ask          Ask the agent a question from the command line
  ingest       Ingest documents (optional directory argument)
  tools        List available tools per backend

Examples:
  mfgops --version
  mfgops serve
  mfgops ask "is press line 2 running?"
  mfgops ingest ./docs`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
