// NASA CAD Bridge
//
// A standalone Go binary that publishes JPL close-approach data to Kafka and
// doubles as a small command-line client for the NASA APOD and CAD APIs:
//
//	Source:  JPL CAD API  →  Kafka Topics (JSON or Avro)
//
// # Usage
//
//	nasa-cad-bridge [flags]
//
//	Flags:
//	  -config string   Path to config YAML file (default "config.yaml")
//	  -version         Print version information and exit
//	  -apod            Print the Astronomy Picture of the Day URL and exit
//	  -date string     APOD date (YYYY-MM-DD), used with -apod
//	  -once            Run the configured queries once, print them and exit
//
// # Architecture
//
// In bridge mode the following components are started:
//
//  1. Observability server (always): /healthz, /readyz, /metrics
//  2. NASA/JPL HTTP client (rate limited)
//  3. Kafka producer and, for Avro queries, the schema registry client
//  4. Source pollers (if enabled): one goroutine per configured query
//
// All components are managed via errgroup. SIGINT/SIGTERM cancels the
// context; a change to the config file restarts the run with the new config.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/RaikaSurendra/nasa-cad-bridge/internal/config"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/kafka"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/nasa"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/observability"
	"github.com/RaikaSurendra/nasa-cad-bridge/internal/source"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to configuration YAML file")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	apod := flag.Bool("apod", false, "Print the Astronomy Picture of the Day URL and exit")
	apodDate := flag.String("date", "", "APOD date (YYYY-MM-DD); defaults to today")
	once := flag.Bool("once", false, "Run the configured close-approach queries once, print them and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("nasa-cad-bridge %s (commit: %s, built: %s)\n", version, commit, buildDate)
		os.Exit(0)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load configuration", "path", *configPath, "error", err)
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch {
	case *apod:
		if err := printAPOD(ctx, cfg, *apodDate, os.Stdout, logger); err != nil {
			logger.Error("apod request failed", "error", err)
			os.Exit(1)
		}
		return
	case *once:
		if err := printQueries(ctx, cfg, os.Stdout, logger); err != nil {
			logger.Error("close-approach query failed", "error", err)
			os.Exit(1)
		}
		return
	}

	logger.Info("starting nasa-cad-bridge",
		"version", version,
		"commit", commit,
		"build_date", buildDate,
	)
	serve(ctx, *configPath, logger)
}

// serve runs the bridge and restarts it whenever the config file changes.
func serve(ctx context.Context, configPath string, logger *slog.Logger) {
	reloadCh := make(chan struct{}, 1)
	go watchConfig(ctx, configPath, reloadCh, logger)

	for {
		runCtx, runCancel := context.WithCancel(ctx)

		errCh := make(chan error, 1)
		go func() {
			errCh <- run(runCtx, configPath, logger)
		}()

		select {
		case <-ctx.Done():
			logger.Info("received shutdown signal")
			runCancel()
			<-errCh
			logger.Info("bridge shutdown complete")
			return
		case <-reloadCh:
			logger.Info("reloading configuration...")
			runCancel()
			if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("previous run exited with error on reload", "error", err)
			}
			logger.Info("restarting with new configuration")
		case err := <-errCh:
			runCancel()
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("bridge exited with error", "error", err)
				os.Exit(1)
			}
			logger.Info("bridge shutdown complete")
			return
		}
	}
}

func parseLevel(s string) slog.Level {
	switch s {
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

// watchConfig uses fsnotify to watch the config file for changes.
func watchConfig(ctx context.Context, path string, reloadCh chan<- struct{}, logger *slog.Logger) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Error("failed to create config watcher", "error", err)
		return
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(path); err != nil {
		logger.Error("failed to watch config file", "path", path, "error", err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// Some editors replace the file instead of writing it.
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				logger.Info("config file changed", "event", event.Name)
				select {
				case reloadCh <- struct{}{}:
				default:
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			logger.Error("config watcher error", "error", err)
		}
	}
}

// run loads the configuration and runs the observability server and the
// source pollers until ctx is cancelled or one of them fails.
func run(ctx context.Context, configPath string, logger *slog.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration from %s: %w", configPath, err)
	}

	obsSrv := observability.NewServer(cfg.Observability.Addr, logger)
	defer obsSrv.SetReady(false)

	client := nasa.NewClient(cfg.NASA, logger)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return obsSrv.Start(gCtx)
	})

	var running []string
	if cfg.Source.Enabled {
		producer, err := kafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			return fmt.Errorf("creating Kafka producer: %w", err)
		}
		defer producer.Close()

		var avroEnc source.AvroEncoder
		if cfg.Kafka.SchemaRegistryURL != "" {
			reg, err := kafka.NewRegistryClient(cfg.Kafka.SchemaRegistryURL)
			if err != nil {
				return err
			}
			avroEnc = kafka.NewAvroSerializer(reg)
		}

		for _, qc := range cfg.Source.Queries {
			poller, err := source.NewPoller(qc, cfg.Source, client, producer, avroEnc, logger)
			if err != nil {
				return fmt.Errorf("creating poller for query %s: %w", qc.Name, err)
			}
			g.Go(func() error {
				return poller.Run(gCtx)
			})
			running = append(running, qc.Name)
			logger.Info("source poller started", "query", qc.Name, "topic", qc.Topic)
		}
	}

	obsSrv.SetReady(true, running...)
	logger.Info("bridge is ready",
		"source_enabled", cfg.Source.Enabled,
		"queries", len(running),
		"observability_addr", cfg.Observability.Addr,
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// printAPOD writes the title and URL of the picture for date (today when
// empty).
func printAPOD(ctx context.Context, cfg *config.Config, date string, w io.Writer, logger *slog.Logger) error {
	client := nasa.NewClient(cfg.NASA, logger)
	img, err := client.GetAPODImage(ctx, cfg.NASA.APIKey, date)
	if err != nil {
		return err
	}
	if img == nil {
		_, err = fmt.Fprintln(w, "no image for this date")
		return err
	}
	if img.Title != "" {
		if _, err := fmt.Fprintln(w, img.Title); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(w, img.URL)
	return err
}

// printQueries runs each configured query once and writes it as a table.
// With no queries configured the default query is run.
func printQueries(ctx context.Context, cfg *config.Config, w io.Writer, logger *slog.Logger) error {
	client := nasa.NewClient(cfg.NASA, logger)

	queries := cfg.Source.Queries
	if len(queries) == 0 {
		queries = []config.QueryConfig{{Name: "default"}}
	}

	for i, qc := range queries {
		q, err := nasa.QueryFromMap(qc.Params)
		if err != nil {
			return fmt.Errorf("query %s: %w", qc.Name, err)
		}
		table, err := client.CloseApproachTable(ctx, q)
		if err != nil {
			return fmt.Errorf("query %s: %w", qc.Name, err)
		}

		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "# %s (%d)\n", qc.Name, table.Len())
		if _, err := table.WriteTo(w); err != nil {
			return err
		}
	}
	return nil
}
