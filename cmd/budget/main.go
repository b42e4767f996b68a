package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/cli"
	"budget/internal/config"
	"budget/internal/core"
	apphttp "budget/internal/http"
	"budget/internal/ledger"
	"budget/internal/log"
	"budget/internal/storage"

	"golang.org/x/sync/errgroup"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	cfg := cli.LoadAndValidateConfig(logger)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server error", log.FieldError, err)
		stop()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("create backend: %w", err)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Backend cleanup failed",
				log.NewFields().WithOperation(log.OpShutdown).WithError(err).ToSlice()...)
		}
	}()

	categories := core.NewCategorySet(core.DefaultCategories)
	if cfg.CategoriesFile != "" {
		categories = core.CategorySetFromFile(cfg.CategoriesFile)
	}

	store := ledger.New(ledger.Options{
		Categories: categories,
		Persister:  storage.NewPersister(res.KV, logger),
		Logger:     logger,
	})
	if err := store.Load(ctx); err != nil {
		logger.Warn("Could not load saved ledger, starting empty", log.FieldOperation, log.OpLoad, log.FieldError, err)
	}

	var events *amqp.Listener
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			defer client.Close()
			events = amqp.NewListener(client, logger, amqp.DefaultBuffer)
			store.Subscribe(events)
			logger.Info("Publishing ledger events", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:           ":" + cfg.Port,
		Store:          store,
		CurrencySymbol: cfg.CurrencySymbol,
		Logger:         logger,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	if events != nil {
		g.Go(func() error { return events.Run(gctx) })
	}
	g.Go(func() error {
		logger.Info("Starting budget server", log.FieldOperation, log.OpStartup,
			"port", cfg.Port, log.FieldBackend, cfg.DataBackend, "categories", categories.Len())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down server", log.FieldOperation, log.OpShutdown)
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
