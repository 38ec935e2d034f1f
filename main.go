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

	"uigen/internal/agent"
	"uigen/internal/api"
	"uigen/internal/config"
	"uigen/internal/logging"
	"uigen/internal/project/storage"
	"uigen/internal/provider"
	"uigen/internal/safe"
	"uigen/internal/session"
	basestorage "uigen/internal/storage"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load(configPath())
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	logger, err := logging.NewLogger(logging.Options{
		Level:       cfg.LogLevel,
		Environment: cfg.Environment,
		File:        cfg.LogFile,
	})
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	db, err := basestorage.OpenDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()

	contentSafe, err := safe.New(db, safe.DefaultOptions())
	if err != nil {
		logger.Fatal("failed to initialize content safe", zap.Error(err))
	}
	projects := storage.NewStore(db, contentSafe)

	manager, err := session.NewManager(cfg.Sessions.MaxSessions, projects, logger.Named("session"))
	if err != nil {
		logger.Fatal("failed to initialize sessions", zap.Error(err))
	}

	model, err := provider.New(provider.Options{
		Kind:    cfg.Provider.Kind,
		APIKey:  cfg.Provider.APIKey,
		BaseURL: cfg.Provider.BaseURL,
		Model:   cfg.Provider.Model,
	})
	if err != nil {
		logger.Fatal("failed to initialize model provider", zap.Error(err))
	}
	if model.Name() == provider.KindStub {
		logger.Warn("no API key configured, using the offline stub model")
	}
	runner := agent.NewRunner(model, cfg.Provider.MaxSteps, cfg.Provider.SystemPrompt, logger.Named("agent"))

	handler := api.NewRouter(
		api.NewSessionHandler(manager, runner, logger),
		api.NewProjectHandler(projects),
		logger,
		api.RouterOptions{RateLimit: cfg.Server.RateLimit, Burst: cfg.Server.Burst},
	)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting server", zap.String("address", srv.Addr), zap.String("model", model.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// configPath prefers UIGEN_CONFIG, then the per-environment file when it
// exists, and otherwise runs on defaults.
func configPath() string {
	if p := os.Getenv("UIGEN_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat(config.Path()); err == nil {
		return config.Path()
	}
	fmt.Fprintln(os.Stderr, "no config file found, using defaults")
	return ""
}
