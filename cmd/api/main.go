package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/datashield/internal/application"
	appanalysis "github.com/bryanwahyu/datashield/internal/application/analysis"
	"github.com/bryanwahyu/datashield/internal/config"
	"github.com/bryanwahyu/datashield/internal/infra/ai/openai"
	"github.com/bryanwahyu/datashield/internal/infra/ai/prompt"
	"github.com/bryanwahyu/datashield/internal/infra/docstore"
	"github.com/bryanwahyu/datashield/internal/infra/email"
	"github.com/bryanwahyu/datashield/internal/infra/fetch"
	"github.com/bryanwahyu/datashield/internal/infra/httpserver"
	"github.com/bryanwahyu/datashield/internal/logging"
	"github.com/bryanwahyu/datashield/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	// connect record store
	store, err := docstore.Open(ctx, cfg.Store.URI, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("store close error", zap.Error(err))
		}
	}()

	if cfg.Classifier.APIKey == "" {
		logger.Warn("no classifier API key configured; analysis requests will fail")
	}

	// init service
	svc := &appanalysis.Service{
		Fetcher: fetch.New(fetch.Options{
			Timeout:           cfg.Fetch.Timeout,
			MaxRedirects:      cfg.Fetch.MaxRedirects,
			MaxBodyBytes:      cfg.Fetch.MaxBodyBytes,
			UserAgent:         cfg.Fetch.UserAgent,
			BlockPrivateHosts: cfg.Fetch.BlockPrivateHosts,
		}, logger),
		Parser: email.NewParser(logger),
		Classifier: openai.NewClient(openai.Options{
			APIKey:    cfg.Classifier.APIKey,
			BaseURL:   cfg.Classifier.BaseURL,
			Model:     cfg.Classifier.Model,
			MaxTokens: cfg.Classifier.MaxTokens,
			Timeout:   cfg.Classifier.Timeout,
		}),
		Repo:     store.Repo,
		Composer: prompt.NewComposer(cfg.Prompt.MaxContentChars),
		Clock:    application.SystemClock{},
		Logger:   logger,
	}

	done := make(chan struct{})
	defer close(done)
	limiter := middleware.NewRateLimiter(cfg.RateLimit.Max, cfg.RateLimit.Window, done)

	// init router
	handler := httpserver.NewRouter(svc, httpserver.Options{
		Logger:       logger,
		Limiter:      limiter,
		Checkers:     map[string]middleware.HealthChecker{"store": store},
		APIKeys:      cfg.Server.APIKeys,
		CORSOrigins:  cfg.Server.CORSOrigins,
		TrustProxy:   cfg.Server.TrustProxy,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// fetch + classifier timeouts must fit inside one response
		WriteTimeout: cfg.Fetch.Timeout + cfg.Classifier.Timeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("store", store.Backend),
			zap.String("model", cfg.Classifier.Model))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down server...", zap.String("signal", sig.String()))
	}

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	return nil
}
