package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"mupacs/internal/config"
	"mupacs/internal/daemon"
	"mupacs/internal/ingest"
	"mupacs/internal/logging"
	"mupacs/internal/metadata"
	"mupacs/internal/metrics"
	"mupacs/internal/store"
)

func main() {
	configPath := flag.String("config", "", "configuration file path")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open archive store", logging.Error(err))
		return
	}

	mets := metrics.New()
	registry := ingest.NewRegistry(cfg, st, metadata.NewFileReader(), metadata.NewMagicSniffer(), logger, mets)

	d, err := daemon.New(cfg, st, registry, logger, mets)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		st.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("start daemon", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("mupacsd shutting down")
}
