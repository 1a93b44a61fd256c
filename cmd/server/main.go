package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"aetheria-site/internal/config"
	"aetheria-site/internal/server"
	"aetheria-site/internal/storage"
	"aetheria-site/pkg/logger"
)

func main() {
	cfgFile := flag.String("config", "", "config file (default is ./config.yaml)")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level, cfg.Log.Pretty)
	if cfg.File != "" {
		log.Info().Str("path", cfg.File).Msg("Using config file")
	}

	store, err := storage.NewJSONStore(cfg.Data.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize data store")
	}
	log.Info().Str("path", store.GetBasePath()).Msg("Using data directory")

	srv, err := server.New(cfg, store, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize server")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("Server stopped with error")
		os.Exit(1)
	}
}
