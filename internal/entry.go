// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/starford/docgraph/internal/api"
	"github.com/starford/docgraph/internal/catalog"
	"github.com/starford/docgraph/internal/checksum"
	"github.com/starford/docgraph/internal/graph"
	"github.com/starford/docgraph/internal/mcpserver"
	"github.com/starford/docgraph/internal/parser"
	"github.com/starford/docgraph/internal/scanner"
	"github.com/starford/docgraph/internal/sse"
	"github.com/starford/docgraph/internal/storage"
	"github.com/starford/docgraph/internal/vocabulary"
	"github.com/starford/docgraph/internal/watcher"
)

// Version is reported by the CLI and the MCP server.
var Version = "0.1.0"

const (
	sampleDocuments = 5
	sampleConcepts  = 5
)

// Run scans the docs tree once and populates the graph store. In dry-run
// mode it prints a sample of parsed documents instead and never connects.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	sc, _, err := app.newScanner()
	if err != nil {
		return err
	}

	res, err := sc.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	app.printSummary(res)

	if app.dryRun {
		app.printSample(res)
		return nil
	}

	store, closeStore, err := app.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	return app.write(ctx, store, res)
}

// Watch populates the graph once, then rescans and rewrites it each time
// markdown files under the docs root change. A rescan whose checksums match
// the previous one is not written.
func Watch(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	sc, fsys, err := app.newScanner()
	if err != nil {
		return err
	}

	res, err := sc.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	app.printSummary(res)

	var store graph.Store
	if app.dryRun {
		app.printSample(res)
	} else {
		s, closeStore, err := app.openStore(ctx)
		if err != nil {
			return err
		}
		defer closeStore()
		store = s
		if err := app.write(ctx, store, res); err != nil {
			return err
		}
	}

	last := res.Checksums()
	opt := watcher.Options{Debounce: app.config.Docs.Debounce, Skip: fsys.Excluded}
	return watcher.Watch(ctx, fsys.Root(), opt, app.logger, func(ctx context.Context) {
		res, err := sc.Scan(ctx)
		if err != nil {
			app.logger.Error("watch: rescan failed", slog.String("error", err.Error()))
			return
		}
		sums := res.Checksums()
		if !checksum.Changed(last, sums) {
			app.logger.Info("watch: corpus unchanged, skipping write")
			return
		}
		app.printSummary(res)
		if app.dryRun {
			app.printSample(res)
			last = sums
			return
		}
		if err := app.write(ctx, store, res); err != nil {
			app.logger.Error("watch: write failed", slog.String("error", err.Error()))
			return
		}
		last = sums
	})
}

// Serve exposes the latest scan over HTTP and keeps it current as files
// change. It does not write to the graph store.
func Serve(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	cfg := app.config
	logger := app.logger

	sc, fsys, err := app.newScanner()
	if err != nil {
		return err
	}
	res, err := sc.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	live := catalog.NewLive(catalog.New(res))

	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		docs, decs := live.Current().Len()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","documents":%d,"decisions":%d}`, docs, decs)
	})

	r.Mount("/api", api.NewRouter(live, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker))

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Rescan on change; publish per-document diffs to SSE clients.
	g.Go(func() error {
		opt := watcher.Options{Debounce: cfg.Docs.Debounce, Skip: fsys.Excluded}
		last := res.Checksums()
		return watcher.Watch(gCtx, fsys.Root(), opt, logger, func(ctx context.Context) {
			next, err := sc.Scan(ctx)
			if err != nil {
				logger.Error("serve: rescan failed", slog.String("error", err.Error()))
				return
			}
			sums := next.Checksums()
			live.Replace(catalog.New(next))
			n := broker.PublishDiff(last, sums)
			last = sums
			logger.Info("serve: catalog refreshed", slog.Int("changes", n))
		})
	})

	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		return errShutdown
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errShutdown) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// errShutdown stops the serve group once the HTTP server has shut down.
var errShutdown = errors.New("shutdown")

// ServeMCP serves the catalog to an MCP client over stdio until the client
// disconnects. The catalog is refreshed as files change.
func ServeMCP(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	sc, fsys, err := app.newScanner()
	if err != nil {
		return err
	}
	res, err := sc.Scan(ctx)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}
	live := catalog.NewLive(catalog.New(res))
	srv := mcpserver.New(live, fsys, Version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		opt := watcher.Options{Debounce: app.config.Docs.Debounce, Skip: fsys.Excluded}
		err := watcher.Watch(gCtx, fsys.Root(), opt, app.logger, func(ctx context.Context) {
			next, err := sc.Scan(ctx)
			if err != nil {
				app.logger.Error("mcp: rescan failed", slog.String("error", err.Error()))
				return
			}
			live.Replace(catalog.New(next))
		})
		if err != nil {
			app.logger.Warn("mcp: watcher stopped, catalog will not refresh", slog.String("error", err.Error()))
		}
		return nil
	})
	g.Go(func() error {
		defer cancel()
		return srv.ServeStdio()
	})
	return g.Wait()
}

func newApplication(opts []Option) (*application, error) {
	app := &application{stdout: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if err := app.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	if app.logger == nil {
		app.logger = newLogger(app.config.App, os.Stderr)
	}
	app.logger = app.logger.With(slog.String("run_id", uuid.NewString()))
	slog.SetDefault(app.logger)

	cfg := app.config
	app.logger.Info("Configuration loaded",
		slog.String("docs_path", cfg.Docs.Path),
		slog.String("project", cfg.Project.Label),
		slog.String("backend", cfg.Graph.Backend),
		slog.Bool("dry_run", app.dryRun),
		slog.String("log_level", cfg.App.LogLevel.String()))

	return app, nil
}

func newLogger(cfg ApplicationConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newScanner builds the corpus scanner from the docs config.
func (a *application) newScanner() (*scanner.Scanner, *storage.FS, error) {
	cfg := a.config

	vocab := vocabulary.Default()
	if cfg.Docs.Vocabulary != "" {
		v, err := vocabulary.Load(cfg.Docs.Vocabulary)
		if err != nil {
			return nil, nil, err
		}
		vocab = v
	}

	fsys, err := storage.NewFS(cfg.Docs.Path, cfg.Docs.Exclude...)
	if err != nil {
		return nil, nil, fmt.Errorf("docs path %s: %w", cfg.Docs.Path, err)
	}

	p := parser.New(vocab, cfg.Limits.Parser())
	return scanner.New(fsys, p, a.logger), fsys, nil
}

// openStore returns the injected store or connects to the configured one.
// Connectivity is verified before any write.
func (a *application) openStore(ctx context.Context) (graph.Store, func(), error) {
	if a.store != nil {
		return a.store, func() {}, nil
	}
	cfg := a.config.Graph
	a.logger.Info("graph: connecting", slog.String("backend", cfg.Backend), slog.String("target", cfg.Target()))
	store, err := graph.Open(ctx, cfg.StoreConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("connect to graph store: %w", err)
	}
	a.logger.Info("graph: connected")
	return store, func() {
		if err := store.Close(context.Background()); err != nil {
			a.logger.Warn("graph: close failed", slog.String("error", err.Error()))
		}
	}, nil
}

func (a *application) write(ctx context.Context, store graph.Store, res *scanner.Result) error {
	w, err := graph.NewWriter(store, a.config.Project.Label,
		graph.WithLimits(a.config.Limits.Writer()),
		graph.WithReset(a.config.Graph.Reset),
		graph.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}
	report, err := w.Write(ctx, res.Documents, res.Decisions)
	if err != nil {
		return err
	}
	a.printReport(report)
	return nil
}

func (a *application) printSummary(res *scanner.Result) {
	fmt.Fprintf(a.stdout, "Parsed %d documents, %d decisions\n", len(res.Documents), len(res.Decisions))
}

func (a *application) printSample(res *scanner.Result) {
	fmt.Fprintln(a.stdout, "\nDry run - not writing to the graph store")
	fmt.Fprintln(a.stdout, "\nSample documents:")
	for i, doc := range res.Documents {
		if i == sampleDocuments {
			break
		}
		concepts := doc.Concepts
		if len(concepts) > sampleConcepts {
			concepts = concepts[:sampleConcepts]
		}
		fmt.Fprintf(a.stdout, "  - %s: %s (%s)\n", doc.Path, doc.Title, doc.Type)
		fmt.Fprintf(a.stdout, "    Components: [%s]\n", strings.Join(doc.Components, ", "))
		fmt.Fprintf(a.stdout, "    Concepts: [%s]\n", strings.Join(concepts, ", "))
	}
}

func (a *application) printReport(r *graph.Report) {
	fmt.Fprintf(a.stdout, "\nGraph summary for %s:\n", r.Project)
	for _, kc := range r.Tally {
		fmt.Fprintf(a.stdout, "  %s: %d\n", kc.Label(), kc.Count)
	}
}
