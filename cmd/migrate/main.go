package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ASK10520/codeplay-spark/internal/config"
	"github.com/ASK10520/codeplay-spark/internal/infra/logger"
	pgrepo "github.com/ASK10520/codeplay-spark/internal/repo/postgres"
)

// Usage: migrate [up|down|status|version|redo|reset]
func main() {
	flag.Parse()
	command := "up"
	if flag.NArg() > 0 {
		command = flag.Arg(0)
	}

	cfgPath := os.Getenv("APP_CONFIG")
	if cfgPath == "" {
		cfgPath = "configs/config.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.Log.Level, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() {
		_ = log.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgrepo.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		log.Fatal("init postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := pgrepo.Migrate(ctx, pool, command, flag.Args()[min(1, flag.NArg()):]...); err != nil {
		log.Fatal("migrate", zap.String("command", command), zap.Error(err))
	}
	log.Info("migrate done", zap.String("command", command))
}
