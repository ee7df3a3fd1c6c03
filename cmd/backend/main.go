package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	audioimpl "github.com/Uto-inc/ai-meeting-proxy/external/audio"
	configloader "github.com/Uto-inc/ai-meeting-proxy/external/config"
	"github.com/Uto-inc/ai-meeting-proxy/external/genlive"
	recallimpl "github.com/Uto-inc/ai-meeting-proxy/external/recall"
	repositoryimpl "github.com/Uto-inc/ai-meeting-proxy/external/repository"
	"github.com/Uto-inc/ai-meeting-proxy/internal/bot"
	"github.com/Uto-inc/ai-meeting-proxy/internal/config"
	"github.com/Uto-inc/ai-meeting-proxy/internal/live"
	"github.com/Uto-inc/ai-meeting-proxy/internal/wsbridge"
	"github.com/samber/do/v2"
)

const shutdownTimeout = 10 * time.Second

func main() {
	slog.Info("startup: loading configuration")
	cfg := mustLoadConfig()
	initLogger(cfg)
	slog.Info("startup: configuration loaded", "env", cfg.Env)

	slog.Info("startup: building dependency graph")
	injector := setupDI(cfg)

	slog.Info("startup: launching backend server")
	runServer(cfg, injector)
}

func mustLoadConfig() *config.Config {
	cfg, err := configloader.Load()
	if err != nil {
		slog.Error("config validation failed", "error", err)
		os.Exit(1)
	}
	return cfg
}

func initLogger(cfg *config.Config) {
	logLevel := slog.LevelInfo
	if cfg.IsDevelopment() {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func setupDI(cfg *config.Config) do.Injector {
	injector := do.New()

	do.ProvideValue(injector, cfg)
	repositoryimpl.RegisterDI(injector)
	audioimpl.RegisterDI(injector)
	genlive.RegisterDI(injector)
	recallimpl.RegisterDI(injector)
	live.RegisterDI(injector)
	bot.RegisterDI(injector)
	wsbridge.RegisterDI(injector)

	return injector
}

func runServer(cfg *config.Config, injector do.Injector) {
	bots, err := do.Invoke[*bot.Registry](injector)
	if err != nil {
		slog.Error("failed to resolve bot registry", "error", err)
		os.Exit(1)
	}
	liveRegistry, err := do.Invoke[*live.Registry](injector)
	if err != nil {
		slog.Error("failed to resolve live session registry", "error", err)
		os.Exit(1)
	}
	feedHandler, err := do.Invoke[*wsbridge.Handler](injector)
	if err != nil {
		slog.Error("failed to resolve audio feed handler", "error", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /ws/audio", feedHandler)
	registerAdminRoutes(mux, bots)

	server := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: mux,
	}

	done := make(chan struct{})
	go func() {
		slog.Info("startup: listening", "addr", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
		}
		close(done)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		slog.Info("shutting down")
	case <-done:
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("server shutdown failed", "error", err)
	}
	bots.Shutdown()
	liveRegistry.Shutdown()
}
