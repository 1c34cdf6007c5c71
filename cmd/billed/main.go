package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"billed/internal/auth"
	"billed/internal/backend"
	"billed/internal/cache"
	"billed/internal/cli"
	"billed/internal/config"
	"billed/internal/containers"
	apphttp "billed/internal/http"
	"billed/internal/log"
	"billed/internal/metrics"
	"billed/internal/middleware/ratelimit"
	"billed/internal/views"
)

const (
	userCacheSize      = 1000
	navigationUsers    = 10000
	cacheSweepInterval = 10 * time.Minute
	gaugeInterval      = 30 * time.Second
	shutdownTimeout    = 30 * time.Second
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, log.ComponentApp)

	if err := run(cfg, logger); err != nil {
		logger.Error("Server stopped with error", log.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := cli.SignalContext(logger)
	defer stop()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	res, err := backend.NewFactory(logger).Create(ctx, bcfg)
	if err != nil {
		return fmt.Errorf("create %s backend: %w", bcfg.Type, err)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Error("Backend cleanup failed", log.FieldError, err)
		}
	}()

	users := auth.NewDirectory(res.Users, userCacheSize)
	authn := auth.NewPasswordAuthenticator(users)
	if err := auth.SeedDemoAccounts(ctx, authn); err != nil {
		logger.Warn("Demo accounts not seeded", log.FieldError, err)
	}

	renderer, err := views.New()
	if err != nil {
		return err
	}

	reg := metrics.New()
	nav := containers.NewNavigation(navigationUsers, cfg.SessionTTL)
	limiter := ratelimit.NewLimiter(ratelimit.DefaultConfig(), logger, reg)

	caches := cache.NewManager(logger)
	caches.Register("users", users.Cache())
	caches.Register("navigation", nav.Cache())

	srv, err := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Renderer:       renderer,
		Bills:          res.Bills,
		Auth:           authn,
		JWT:            auth.NewJWTManager(cfg.JWTSecret, cfg.SessionTTL),
		Nav:            nav,
		Metrics:        reg,
		Limiter:        limiter,
		Logger:         logger,
		ReceiptsDir:    filepath.Join(cfg.DataDir, "receipts"),
		Ready:          res.Ready,
		FetchTimeout:   cfg.FetchTimeout,
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		caches.Run(gctx, cacheSweepInterval)
		return nil
	})
	g.Go(func() error {
		limiter.Run(gctx)
		return nil
	})
	g.Go(func() error {
		ticker := time.NewTicker(gaugeInterval)
		defer ticker.Stop()
		for {
			reg.SetCacheSizes(caches.Sizes())
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
			}
		}
	})
	g.Go(func() error {
		logger.Info("Starting billed server",
			"port", cfg.Port,
			"backend", bcfg.Type.String(),
			"log_format", cfg.LogFormat)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
