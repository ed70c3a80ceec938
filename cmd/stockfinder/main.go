package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"stockfinder/internal/cache"
	"stockfinder/internal/config"
	"stockfinder/internal/http/handlers"
	applog "stockfinder/internal/log"
	"stockfinder/internal/metrics"
	"stockfinder/internal/repos"
	"stockfinder/internal/stocksync"
)

func main() {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("[warn] could not read .env: %v", err)
	}
	cfg := config.Load()

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
			log.SetOutput(out)
		}
	}
	applog.Init(out, cfg.LogFormat, cfg.LogLevel)

	db, err := repos.Open(cfg.DBDriver, cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	rdb, err := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// the cache is an optimisation; serve uncached
		applog.Warn(nil, "cache.disabled", err, nil)
		rdb = nil
	}
	if rdb != nil {
		defer rdb.Close()
	}

	if len(cfg.KafkaBrokers) > 0 {
		applier := &stocksync.Applier{
			Stock:   repos.NewStockRepo(db),
			Metrics: m,
			OnApplied: func(ctx context.Context) {
				if _, err := cache.Invalidate(ctx, rdb); err != nil {
					applog.Warn(nil, "cache.invalidate", err, nil)
				}
			},
		}
		consumer, err := stocksync.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.KafkaTopic, applier)
		if err != nil {
			applog.Error(nil, "stocksync.disabled", err, nil)
		} else {
			consumer.Start(ctx)
			defer consumer.Close()
		}
	}

	deps := handlers.NewDeps(db, cfg, m)
	app := handlers.NewApp(deps, handlers.Options{
		CORSOrigins:     cfg.CORSOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       cfg.StaticDir,
		Redis:           rdb,
		CacheTTL:        cfg.CacheTTL,
		Metrics:         m,
		AccessLog:       true,
	})

	go func() {
		<-ctx.Done()
		applog.Info(nil, "server.shutdown", nil)
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			applog.Error(nil, "server.shutdown", err, nil)
		}
	}()

	applog.Info(nil, "server.start", map[string]any{"port": cfg.Port})
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
