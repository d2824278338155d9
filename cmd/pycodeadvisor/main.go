package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/devamjariwala24/pycodeadvisor/internal/core/config"
	"github.com/devamjariwala24/pycodeadvisor/internal/core/ports"
	"github.com/devamjariwala24/pycodeadvisor/internal/data/cachestore"
	"github.com/devamjariwala24/pycodeadvisor/internal/engine/selector"
	"github.com/devamjariwala24/pycodeadvisor/internal/infer"
	"github.com/devamjariwala24/pycodeadvisor/internal/pipeline"
	"github.com/devamjariwala24/pycodeadvisor/internal/watcher"
)

var (
	configPath = flag.String("config", "", "Path to TOML config file")
	watchMode  = flag.Bool("watch", false, "Re-run analysis when Python files change")
	format     = flag.String("format", "", "Output format: text or json (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *version {
		fmt.Printf("pycodeadvisor v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	// Logs go to stderr so reports on stdout stay machine-readable.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *format != "" {
		cfg.Output.Format = *format
	}
	if cfg.Output.Format != "text" && cfg.Output.Format != "json" {
		slog.Error("output format must be text or json", "format", cfg.Output.Format)
		os.Exit(1)
	}

	root := "."
	if flag.NArg() > 0 {
		root = flag.Arg(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var client ports.InferenceClient
	if cfg.Inference.IsEnabled() {
		client, err = infer.NewClient(infer.Options{
			Backend: infer.Backend(cfg.Inference.Backend),
			BaseURL: cfg.Inference.BaseURL,
			Model:   cfg.Inference.Model,
			APIKey:  config.APIKeyFromEnv(),
			Timeout: cfg.Inference.Timeout(),
		})
		if err != nil {
			slog.Warn("inference backend unavailable, continuing with local analysis only", "error", err)
			client = nil
		}
	}

	var store ports.RecommendationStore
	if cfg.Cache.Persist {
		store, err = cachestore.Open(cfg.Cache.Path)
		if err != nil {
			slog.Warn("cannot open persistent cache, using in-memory cache only", "error", err)
			store = nil
		} else {
			defer store.Close()
		}
	}

	p, err := pipeline.New(pipeline.Options{
		Root:   root,
		Config: cfg,
		Client: client,
		Store:  store,
	})
	if err != nil {
		slog.Error("failed to initialize pipeline", "error", err)
		os.Exit(1)
	}

	runOnce := func() int {
		report, runErr := p.Run(ctx)
		if report != nil {
			if renderErr := render(os.Stdout, cfg.Output, report); renderErr != nil {
				slog.Error("failed to render report", "error", renderErr)
			}
		}
		if runErr != nil {
			slog.Error("analysis run failed", "error", runErr)
			return 1
		}
		return 0
	}

	code := runOnce()
	if !*watchMode {
		os.Exit(code)
	}

	trigger := make(chan struct{}, 1)
	excludeDirs := append([]string{}, selector.DefaultExcludedDirs...)
	excludeDirs = append(excludeDirs, cfg.Analysis.ExcludeDirs...)

	w, err := watcher.New(cfg.Watch.Debounce(), excludeDirs, cfg.Analysis.ExcludeFiles, func(paths []string) {
		slog.Info("change detected", "files", len(paths))
		select {
		case trigger <- struct{}{}:
		default:
		}
	})
	if err != nil {
		slog.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := w.Watch(root); err != nil {
		slog.Error("failed to watch project root", "error", err)
		os.Exit(1)
	}
	slog.Info("watching for changes", "root", root)

	for {
		select {
		case <-ctx.Done():
			slog.Info("shutting down")
			return
		case <-trigger:
			runOnce()
		}
	}
}
