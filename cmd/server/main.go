package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"presence/internal/checkin"
	"presence/internal/nonce/store"
	"presence/internal/nonce/sweeper"
	"presence/internal/platform/config"
	"presence/internal/platform/httpserver"
	"presence/internal/platform/logger"
	"presence/internal/platform/metrics"
	platformredis "presence/internal/platform/redis"
	"presence/internal/submission"
	httptransport "presence/internal/transport/http"
)

const shutdownTimeout = 10 * time.Second

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal services packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "presence: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.LogLevel)
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var nonceStore store.Store
	switch cfg.Store {
	case config.StoreRedis:
		client, err := platformredis.New(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer client.Close()
		nonceStore = store.NewRedis(client.Client)
		log.Info("nonce store backend", "store", cfg.Store)
	default:
		mem := store.NewInMemory()
		metrics.RegisterActiveNonces(mem.Len)
		nonceStore = mem
		log.Info("nonce store backend", "store", cfg.Store)
	}

	handler := httptransport.NewHandler(log,
		checkin.New(nonceStore, log, m),
		submission.New(nonceStore, log, m),
	)
	router := httptransport.NewRouter(handler, m, []string{cfg.CORSOrigin})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		sw := sweeper.New(nonceStore, log, m, cfg.SweepInterval)
		if err := sw.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("sweeper: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
