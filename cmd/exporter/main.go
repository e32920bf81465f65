// exporter serves StreamElements twitch chat statistics as Prometheus
// gauges. It polls the REST API on an interval and, when the live feed
// is enabled, applies websocket stat changes between polls.
//
// Flags fall back to SESTATS_ADDRESS, SESTATS_INTERVAL and
// SESTATS_EXPORT when set; the config file is optional. The interval
// takes plain seconds ("10") or a Go duration ("90s").
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/twitchstats/sestats/internal/api"
	"github.com/twitchstats/sestats/internal/config"
	"github.com/twitchstats/sestats/internal/database"
	"github.com/twitchstats/sestats/internal/export"
	"github.com/twitchstats/sestats/internal/feed"
	"github.com/twitchstats/sestats/internal/poller"
	"github.com/twitchstats/sestats/internal/recorder"
	"github.com/twitchstats/sestats/internal/track"
	"github.com/twitchstats/sestats/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	address := flag.String("address", envOr("SESTATS_ADDRESS", ""), "prometheus scrape address (host:port)")
	interval := flag.String("interval", envOr("SESTATS_INTERVAL", ""), "poll interval, plain seconds or a duration")
	exports := flag.String("export", envOr("SESTATS_EXPORT", ""), "comma-separated list of exported stats")
	flag.Parse()

	// Bootstrap logging; reconfigured once config is loaded
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	var cfg *config.Config
	if *configPath != "" {
		var err error
		cfg, err = config.LoadAndValidate(*configPath)
		if err != nil {
			logger.Error("failed to load config", "error", err)
			os.Exit(1)
		}
	} else {
		cfg = config.Default()
	}

	// Flags and SESTATS_* environment variables win over the file
	if *address != "" {
		cfg.Metrics.Address = *address
	}
	if *interval != "" {
		d, err := parseInterval(*interval)
		if err != nil {
			logger.Error("invalid interval", "value", *interval, "error", err)
			os.Exit(1)
		}
		cfg.Poller.Interval = d
	}
	if *exports != "" {
		cfg.Export.Names = strings.Split(*exports, ",")
	}

	logger = newLogger(cfg.Logging)
	slog.SetDefault(logger)

	logger.Info("starting exporter",
		"version", version.Version,
		"commit", version.Commit,
	)

	exportCfg, err := exportSelection(cfg.Export.Names)
	if err != nil {
		logger.Error("invalid export selection", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"api_url", cfg.API.BaseURL,
		"interval", cfg.Poller.Interval,
		"exports", exportCfg.Names(),
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Stat gauges on a dedicated registry so the scrape endpoint serves
	// only sestats metrics
	reg := prometheus.NewRegistry()
	exporter := export.NewExporter(reg, exportCfg, logger)

	// Tracked channel set: global plus configured channels; the poller
	// adds the top channels when track_top is set
	tracked := track.NewRegistry(append([]string{"global"}, cfg.Poller.Channels...)...)

	apiClient := api.NewClient(
		cfg.API.BaseURL,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	// Optional stat change recorder
	var rec *recorder.Recorder
	var pool *pgxpool.Pool
	if cfg.Recorder.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)

		pool, err = database.Connect(ctx, cfg.Database)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		logger.Info("database connected")

		rec = recorder.New(recorder.Config{
			BatchSize:     cfg.Recorder.BatchSize,
			FlushInterval: cfg.Recorder.FlushInterval,
		}, pool, logger)
		if err := rec.Start(ctx); err != nil {
			logger.Error("failed to start recorder", "error", err)
			os.Exit(1)
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			rec.Stop(shutdownCtx)
		}()
	}

	// Stats poller
	statsPoller := poller.New(poller.Config{
		Interval:    cfg.Poller.Interval,
		Concurrency: cfg.Poller.Concurrency,
		Timeout:     cfg.Poller.Timeout,
		TrackTop:    cfg.Poller.TrackTop,
	}, apiClient, tracked, exporter, logger)

	if err := statsPoller.Start(ctx); err != nil {
		logger.Error("failed to start poller", "error", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		statsPoller.Stop(shutdownCtx)
	}()

	// Live feed
	if cfg.Feed.Enabled {
		go runFeed(ctx, cfg.Feed, exporter, rec, tracked, logger)
	}

	// Scrape and health endpoints
	metricsServer := &http.Server{
		Addr:    cfg.Metrics.Address,
		Handler: createHandler(reg, cfg.Metrics.Path, pool, tracked, statsPoller),
	}

	go func() {
		logger.Info("metrics endpoint listening",
			"address", cfg.Metrics.Address,
			"path", cfg.Metrics.Path,
		)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
			cancel()
		}
	}()

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	metricsServer.Shutdown(shutdownCtx)

	logger.Info("exporter stopped")
}

// runFeed applies live stat changes until the session ends. Feed loss
// is not fatal: polling keeps the gauges fresh, so a dropped session
// logs and returns.
func runFeed(ctx context.Context, cfg config.FeedConfig, exporter *export.Exporter, rec *recorder.Recorder, tracked *track.Registry, logger *slog.Logger) {
	feedCfg := feed.DefaultConfig()
	feedCfg.URL = cfg.URL
	feedCfg.Logger = logger

	session, err := feed.Dial(ctx, feedCfg)
	if err != nil {
		logger.Error("feed dial failed, continuing with polling only", "error", err)
		return
	}
	defer session.Close()

	// Unblock Receive on shutdown
	go func() {
		<-ctx.Done()
		session.Close()
	}()

	for _, channel := range cfg.Channels {
		if err := session.Subscribe(feed.Room(channel)); err != nil {
			logger.Error("feed subscribe failed", "channel", channel, "error", err)
			return
		}
	}

	// Subscribe channels as they join the tracked set
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case channel := <-tracked.Changes():
				if err := session.Subscribe(feed.Room(channel)); err != nil {
					return
				}
			}
		}
	}()

	logger.Info("live feed running", "url", feedCfg.URL, "channels", cfg.Channels)

	for {
		env, err := session.ReceiveEnvelope()
		if err != nil {
			if errors.Is(err, feed.ErrDisconnected) {
				joinCtx, joinCancel := context.WithTimeout(context.Background(), 5*time.Second)
				cause := session.Join(joinCtx)
				joinCancel()
				logger.Warn("feed disconnected, continuing with polling only", "cause", cause)
				return
			}
			// Local to one message; the counter is the observable
			exporter.ObserveDecodeError()
			logger.Debug("feed message dropped", "error", err)
			continue
		}

		channel, ok := feed.ParseRoom(env.Room())
		if !ok {
			// Not a stats publish (e.g. a subscribe response)
			continue
		}

		exporter.ApplyChanges(channel, env.Data)
		if rec != nil {
			rec.Record(channel, env.ID, env.Data)
		}
	}
}

// createHandler builds the HTTP handler serving the scrape endpoint,
// the health check and the channel debug endpoint. pool is nil when the
// recorder is disabled.
func createHandler(reg *prometheus.Registry, metricsPath string, pool *pgxpool.Pool, tracked *track.Registry, statsPoller *poller.Poller) http.Handler {
	mux := http.NewServeMux()

	mux.Handle(metricsPath, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["database"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["database"] = "connected"
			}
		}

		// Check tracked channels
		health.Components["channels"] = map[string]interface{}{
			"tracked": tracked.Len(),
		}
		if tracked.Len() == 0 {
			health.Status = "degraded"
		}

		stats := statsPoller.Stats()
		health.Components["poller"] = map[string]interface{}{
			"cycles": stats.Cycles,
			"errors": stats.Errors,
		}

		// Set response
		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/channels", func(w http.ResponseWriter, r *http.Request) {
		channels := tracked.List()

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"count":    len(channels),
			"channels": channels,
		})
	})

	return mux
}

// exportSelection resolves configured export names, falling back to the
// default selection.
func exportSelection(names []string) (export.Config, error) {
	if len(names) == 0 {
		return export.ParseExports(export.DefaultExports)
	}
	return export.FromNames(names)
}

// newLogger builds the process logger from config.
func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// envOr returns the environment value or a fallback when unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseInterval reads an interval given as plain seconds ("10") or as
// a Go duration ("90s", "2m"). Both the -interval flag and the
// SESTATS_INTERVAL fallback take either form.
func parseInterval(s string) (time.Duration, error) {
	var d time.Duration
	if secs, err := strconv.Atoi(s); err == nil {
		d = time.Duration(secs) * time.Second
	} else {
		var perr error
		if d, perr = time.ParseDuration(s); perr != nil {
			return 0, perr
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("interval must be positive: %s", s)
	}
	return d, nil
}
