// cmd/dandidav/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/dandidav/gateway/internal/archive"
	"github.com/dandidav/gateway/internal/config"
	"github.com/dandidav/gateway/internal/httpapi"
	"github.com/dandidav/gateway/internal/logging"
	"github.com/dandidav/gateway/internal/metrics"
	"github.com/dandidav/gateway/internal/resolver"
	"github.com/dandidav/gateway/internal/respond"
	"github.com/dandidav/gateway/internal/s3client"
	"github.com/dandidav/gateway/internal/zarrman"
)

// packageVersion is overridden at build time via -ldflags.
var packageVersion = "0.1.0"

// packageCommit is overridden at build time via -ldflags.
var packageCommit = ""

func main() {
	cfg, err := config.Parse(os.Args[1:], flag.NewFlagSet("dandidav", flag.ExitOnError))
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logging error:", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	archiveClient := archive.New(cfg.Archive.APIURL, cfg.Archive.UpstreamTimeout, logger)
	s3Client := s3client.New(logger, cfg.Archive.S3ClientCacheSize)
	zarrmanClient := zarrman.New(cfg.Zarrman.ManifestRoot, cfg.Archive.UpstreamTimeout, cfg.Zarrman.CacheSizeBytes(), cfg.Zarrman.IdleTTL, logger)

	res := resolver.New(archiveClient, s3Client, zarrmanClient, cfg, logger)

	responder, err := respond.New(cfg.View.Title, packageVersion, packageCommit)
	if err != nil {
		logger.Fatal("failed to build responder", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	server := httpapi.NewServer(cfg, logger, res, responder, registry, m)

	housekeepingCtx, cancelHousekeeping := context.WithCancel(context.Background())
	go zarrmanClient.RunHousekeeping(housekeepingCtx, cfg.Zarrman.SweepInterval)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down...")
		cancelHousekeeping()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
		}
		os.Exit(0)
	}()

	fmt.Printf("dandidav gateway listening on %s (archive: %s, manifests: %s)\n",
		cfg.Addr(), cfg.Archive.APIURL, cfg.Zarrman.ManifestRoot)

	if err := server.Start(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
