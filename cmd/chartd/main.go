package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MarketCharts/internal/collector"
	"MarketCharts/internal/config"
	"MarketCharts/internal/metrics"
	"MarketCharts/internal/scheduler"
	"MarketCharts/internal/server"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("[INFO] chartd starting...")

	// Load config
	cfgPath := "configs/chartd.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("[FATAL] load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[FATAL] config validation: %v", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	// Init fetcher
	var fetcher collector.Fetcher
	switch cfg.DataSource.Kind {
	case "yahoo":
		fetcher = collector.NewYahooFetcher(cfg.DataSource.Proxy)
	default:
		fetcher = collector.NewSyntheticFetcher(cfg.Generator.BasePrice, cfg.Generator.Volatility, cfg.Generator.Seed)
	}
	log.Printf("[INFO] data source: %s, symbols: %v", fetcher.Name(), cfg.DataSource.Symbols)

	col := collector.NewCollector(fetcher, cfg.DataSource.Symbols, cfg.DataSource.HistoryDays, m)

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sched := scheduler.NewScheduler(ctx, col)
	if err := sched.Register(cfg.Schedule.RefreshCron); err != nil {
		log.Fatalf("[FATAL] register cron task: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	if cfg.Schedule.RunOnStart {
		log.Println("[INFO] run_on_start enabled, refreshing series now")
		go sched.RunNow()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           server.New(col, m).Routes(cfg.Server.MetricsPath),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("[INFO] listening on %s", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[FATAL] http server: %v", err)
		}
	}()

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[INFO] shutdown signal received, stopping...")
	cancel()
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] http shutdown: %v", err)
	}
	log.Println("[INFO] chartd stopped")
}
