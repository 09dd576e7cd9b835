package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EarningsTicker/internal/collector"
	"EarningsTicker/internal/config"
	"EarningsTicker/internal/display"
	"EarningsTicker/internal/logging"
	"EarningsTicker/internal/notifier"
	"EarningsTicker/internal/portfolio"
	"EarningsTicker/internal/projector"
	"EarningsTicker/internal/recorder"
	"EarningsTicker/internal/scheduler"

	"github.com/rs/zerolog/log"
)

func main() {
	logging.Setup("info", os.Stderr)

	// Load config
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("config validation")
	}
	logging.Setup(cfg.Log.Level, os.Stderr)
	log.Info().Msg("EarningsTicker starting...")

	// Init collector
	fetcher := collector.NewBackendFetcher(cfg.Backend.BaseURL, cfg.Backend.APIKey, cfg.Proxy)
	col := collector.NewCollector(fetcher, portfolio.NewCache(cfg.Cache.File))
	log.Info().Str("source", fetcher.Name()).Msg("collector ready")

	// Init notifier
	var n notifier.Notifier = notifier.NoopNotifier{}
	var tn *notifier.TelegramNotifier
	if cfg.TelegramEnabled() {
		tn = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy)
		n = tn
	}

	// Init recorder
	var rec recorder.Recorder
	if sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath); err != nil {
		log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		rec = recorder.NewNoopRecorder()
	} else {
		rec = sr
	}
	defer rec.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Init projector on its own tick cron
	board := display.NewBoard()
	ticker := projector.NewCronTicker()
	proj := projector.New(ticker, board, projector.Options{
		Interval: cfg.Ticker.Interval,
		Decimals: cfg.TickerDecimals(),
	})
	ticker.Start()

	sched := scheduler.NewScheduler(ctx, col, proj, board, n, rec, cfg.TickerDecimals())
	if err := sched.RegisterAll(cfg.Schedule.RefreshCron, cfg.Schedule.ReportCron); err != nil {
		log.Fatal().Err(err).Msg("register cron tasks")
	}
	if tracking, err := sched.Refresh(); err != nil {
		log.Error().Err(err).Msg("initial refresh failed, retrying on schedule")
	} else {
		log.Info().Int("tracking", tracking).Msg("initial refresh done")
	}
	sched.Start()

	// Live board
	mux := http.NewServeMux()
	mux.Handle("/earnings", board)
	srv := &http.Server{Addr: cfg.HTTP.Listen, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
		}
	}()
	log.Info().Str("addr", cfg.HTTP.Listen).Msg("serving /earnings")

	if tn != nil {
		go tn.StartPolling(ctx, sched.HandleCommand)
		log.Info().Msg("telegram polling started")
	}

	log.Info().Msg("EarningsTicker is running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info().Msg("shutdown signal received, stopping...")
	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	// Pending completion notices are flushed before the service context goes away.
	sched.Stop()
	cancel()
	<-ticker.Stop().Done()
	log.Info().Msg("EarningsTicker stopped")
}
