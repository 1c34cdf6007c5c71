package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"billed/internal/amqp"
	"billed/internal/cli"
	"billed/internal/config"
	"billed/internal/log"
	"billed/internal/metrics"
	"billed/internal/services"
	"billed/internal/store/google"
	"billed/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentWorker)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	if cfg.GoogleSpreadsheetID == "" {
		return errors.New("billed-worker needs GOOGLE_SPREADSHEET_ID")
	}

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	sheets, err := google.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
	if err != nil {
		return fmt.Errorf("google sheets client: %w", err)
	}
	logger.Info("Google Sheets client initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)

	reg := metrics.New()
	syncer := worker.NewSyncWorker(repo, sheets, cfg.SyncBatchSize, logger, reg)
	sweeper := services.NewSyncProcessor(syncer.ProcessPendingBills, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)

	if err := sweeper.Start(gctx); err != nil {
		return err
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			return fmt.Errorf("amqp client: %w", err)
		}
		defer client.Close()

		g.Go(func() error {
			err := client.ConsumeBillSync(gctx, syncer.HandleSyncMessage)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("consume bill sync: %w", err)
			}
			return nil
		})
	} else {
		logger.Info("AMQP disabled, relying on the periodic sweep", "interval", cfg.SyncInterval)
	}

	var metricsSrv *http.Server
	if addr := cfg.WorkerMetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", reg.Handler())
		mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
			if err := sweeper.Ready(r.Context()); err != nil {
				http.Error(w, err.Error(), http.StatusServiceUnavailable)
				return
			}
			fmt.Fprintln(w, "ok")
		})
		metricsSrv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		g.Go(func() error {
			logger.Info("Serving worker metrics", "addr", addr)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		logger.Info("Shutting down worker...")
		if err := sweeper.Stop(shutdownCtx); err != nil {
			logger.Warn("Sync processor stop", log.FieldError, err)
		}
		if metricsSrv != nil {
			return metricsSrv.Shutdown(shutdownCtx)
		}
		return nil
	})

	return g.Wait()
}
