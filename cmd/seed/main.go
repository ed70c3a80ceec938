package main

import (
	"context"
	"flag"
	"log"
	"math/rand/v2"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"stockfinder/internal/config"
	applog "stockfinder/internal/log"
	"stockfinder/internal/repos"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	driver := flag.String("driver", cfg.DBDriver, "database driver: sqlite or postgres")
	dsn := flag.String("dsn", cfg.DBDSN, "database DSN")
	reset := flag.Bool("reset", false, "delete existing catalog rows before seeding")
	flag.Parse()

	applog.Init(os.Stdout, cfg.LogFormat, cfg.LogLevel)

	db, err := repos.Connect(*driver, *dsn)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	ctx := context.Background()
	batch := uuid.NewString()

	if !*reset {
		n, err := repos.ProductCount(ctx, db)
		if err != nil {
			log.Fatal(err)
		}
		if n > 0 {
			applog.Info(nil, "seed.skip", map[string]any{"batch": batch, "products": n, "hint": "use -reset to replace the catalog"})
			return
		}
	}

	res, err := repos.Seed(ctx, db, repos.DemoData(), *reset, func(_, _ int) int64 {
		return rand.Int64N(20)
	})
	if err != nil {
		applog.Error(nil, "seed.fail", err, map[string]any{"batch": batch})
		os.Exit(1)
	}
	applog.Audit(nil, "seed.done", map[string]any{
		"batch":      batch,
		"reset":      *reset,
		"products":   res.ProductIDs,
		"stores":     res.StoreIDs,
		"stock_rows": res.StockRows,
	})
}
