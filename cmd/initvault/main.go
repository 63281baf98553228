package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/Hussein-Mazeh/PasswordVault/internal/config"
	"github.com/Hussein-Mazeh/PasswordVault/internal/logger"
	"github.com/Hussein-Mazeh/PasswordVault/store"
)

// initvault creates the vault directory and, for the sqlite backend, the
// database schema. It never writes credentials or a configuration.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	flag.StringVar(&cfg.Dir, "dir", cfg.Dir, "vault directory")
	flag.StringVar(&cfg.Backend, "backend", cfg.Backend, "storage backend: file or sqlite")
	flag.Parse()
	if err := cfg.Resolve(); err != nil {
		log.Fatalf("invalid settings: %v", err)
	}

	lg, err := logger.New("info")
	if err != nil {
		log.Fatalf("create logger: %v", err)
	}
	defer func() { _ = lg.Sync() }()

	backend, err := store.Open(context.Background(), cfg.Backend, cfg.Dir)
	if err != nil {
		lg.Fatal("initialize vault storage", zap.String("dir", cfg.Dir), zap.Error(err))
	}
	if err := backend.Close(); err != nil {
		lg.Fatal("close vault storage", zap.Error(err))
	}

	lg.Info("vault storage ready", zap.String("dir", cfg.Dir), zap.String("backend", cfg.Backend))
}
