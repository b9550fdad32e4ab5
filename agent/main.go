package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"login-monitor/internal/command"
	"login-monitor/internal/config"
	"login-monitor/internal/heartbeat"
	"login-monitor/internal/identity"
	"login-monitor/internal/logger"
	"login-monitor/internal/probe"
	"login-monitor/internal/source"
	"login-monitor/internal/state"
	"login-monitor/internal/store"
	"login-monitor/internal/uploader"
	"login-monitor/internal/watcher"
)

func main() {
	var (
		maxRetries = flag.Int("max-retries", 10, "Maximum retry attempts for the store connection")
		retryDelay = flag.Duration("retry-delay", 1*time.Second, "Base delay between retry attempts")
	)
	flag.Parse()

	cfg := config.Init()
	_ = logger.Init(cfg.LogPath)

	id, err := identity.Load(config.IdentityFilePath())
	if err != nil {
		logger.Error("No device configured. Run installer first:", err)
		os.Exit(1)
	}
	state.SetDeviceID(id.DeviceID)
	state.SetUserID(id.UserID)
	logger.Infof("Device ID: %s", id.DeviceID)

	st, err := store.OpenWithRetry(cfg.StoreDriver, cfg.StoreDSN, *maxRetries, *retryDelay)
	if err != nil {
		logger.Error("Cannot open command store:", err)
		os.Exit(1)
	}
	if err := st.AutoMigrate(); err != nil {
		logger.Error("Store migration failed:", err)
		os.Exit(1)
	}

	probes := probe.NewSystem(cfg.CaptureDir, cfg.AudioDir, cfg.GeoEndpoint)
	uploads := uploader.New(cfg.StorageEndpoint, id.DeviceID)
	tracker := command.NewTracker()
	handlers := command.NewHandlers(probes, uploads, st, tracker, id.DeviceID)
	registry := command.NewRegistry(handlers)
	dispatcher := command.NewDispatcher(registry, st)
	logger.Infof("Registered commands: %s", strings.Join(registry.Names(), ", "))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// drain the backlog exactly once before selecting a live transport
	sweepPending(ctx, st, dispatcher, id.DeviceID)

	hb := heartbeat.NewPublisher(st, id.DeviceID, cfg.HeartbeatInterval)
	go hb.Run(ctx)
	logger.Info("Heartbeat publisher started")

	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr)
	}

	if cfg.WatchEnabled {
		capture := watcher.NewCapture(probes, uploads, st)
		w, err := watcher.New(watcher.Options{
			SessionsDir: cfg.WatchSessionsDir,
			FailedLog:   cfg.WatchFailedLog,
		}, st, capture.Process)
		if err != nil {
			logger.Warnf("Session watcher disabled: %v", err)
		} else {
			defer w.Close()
			go w.Run(ctx)
			logger.Info("Session watcher started")
		}
	}

	var push source.Source
	if cfg.RedisAddr != "" {
		feed := store.NewFeed(cfg.RedisAddr, cfg.RedisPassword)
		defer feed.Close()
		push = source.NewPush(feed, id.DeviceID)
	} else {
		logger.Warn("No change feed configured, using polling mode")
	}
	poll := source.NewPoll(st, id.DeviceID, cfg.PollInterval)

	sink := func(rec store.CommandRecord) { dispatcher.Dispatch(ctx, rec) }
	if err := source.Run(ctx, push, poll, sink); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorf("Command source stopped: %v", err)
	}

	tracker.CancelAll()
	logger.Info("Shutdown signal received, exiting...")
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	logger.Infof("Metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Errorf("Metrics listener stopped: %v", err)
	}
}

func sweepPending(ctx context.Context, st *store.Store, d *command.Dispatcher, deviceID string) {
	cmds, err := st.PendingCommands(ctx, deviceID)
	if err != nil {
		logger.Errorf("Startup reconciliation failed: %v", err)
		return
	}
	for _, rec := range cmds {
		d.Dispatch(ctx, rec)
	}
	if len(cmds) > 0 {
		logger.Infof("Processed %d pending commands", len(cmds))
	}
}
