package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	httpadapter "github.com/shivamverma1605/image-processor-service/internal/adapters/http"
	"github.com/shivamverma1605/image-processor-service/internal/adapters/memory"
	pg "github.com/shivamverma1605/image-processor-service/internal/adapters/postgres"
	"github.com/shivamverma1605/image-processor-service/internal/adapters/webhook"
	"github.com/shivamverma1605/image-processor-service/internal/config"
	"github.com/shivamverma1605/image-processor-service/internal/logger"
	"github.com/shivamverma1605/image-processor-service/internal/ports"
	ingestsvc "github.com/shivamverma1605/image-processor-service/internal/services/ingest"
	"github.com/shivamverma1605/image-processor-service/internal/transform"
	"github.com/shivamverma1605/image-processor-service/internal/workers/itemrunner"
)

func main() {
	cfg, cfgErr := config.Load()

	logFormat := "json"
	if cfg.Env == "development" {
		logFormat = "text"
	}
	log := logger.New(logger.Config{Level: slog.LevelInfo, Format: logFormat})
	if cfgErr != nil {
		log.Warn("config", "warning", cfgErr)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var repo ports.JobRepository
	if cfg.DatabaseURL != "" {
		if err := pg.Migrate(cfg.DatabaseURL); err != nil {
			log.Error("migrate", "error", err)
			os.Exit(1)
		}
		store, err := pg.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Error("db connect", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		repo = store
	} else {
		log.Warn("DATABASE_URL not set, using in-memory store")
		repo = memory.NewStore()
	}

	notifier := webhook.New(cfg.WebhookURL, cfg.WebhookTimeout)
	agg := itemrunner.NewAggregator(repo, notifier)
	pool := itemrunner.NewPool(repo, transform.Compressed{}, agg, cfg.ItemWorkers)
	pool.Start(ctx)
	log.Info("item workers started", "count", cfg.ItemWorkers)

	svc := ingestsvc.New(repo, pool)
	srv := httpadapter.New(svc)
	r := chi.NewRouter()
	r.Mount("/", srv.Routes())

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: r}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server", "error", err)
		os.Exit(1)
	}

	// Let in-flight items finish before exiting.
	pool.Shutdown()
	log.Info("server exited")
}
