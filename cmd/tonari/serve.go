package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/haasonsaas/tonari/internal/agent"
	"github.com/haasonsaas/tonari/internal/config"
	"github.com/haasonsaas/tonari/internal/jobs"
	"github.com/haasonsaas/tonari/internal/mcp"
	"github.com/haasonsaas/tonari/internal/memory"
	"github.com/haasonsaas/tonari/internal/model"
	"github.com/haasonsaas/tonari/internal/observability"
	"github.com/haasonsaas/tonari/internal/server"
	"github.com/haasonsaas/tonari/pkg/models"
)

func newServeCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the assistant HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", os.Getenv("TONARI_CONFIG"), "path to configuration file")
	return cmd
}

func runServe(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := memory.Open(cfg.Memory.Path, cfg.Memory.MemoryID)
	if err != nil {
		return err
	}
	defer store.Close()

	provider, err := model.NewBedrockProvider(ctx, model.BedrockConfig{
		Region:          cfg.Model.Region,
		ModelID:         cfg.Model.ModelID,
		AccessKeyID:     cfg.Model.AccessKeyID,
		SecretAccessKey: cfg.Model.SecretAccessKey,
		SessionToken:    cfg.Model.SessionToken,
	}, logger)
	if err != nil {
		return err
	}

	var connector agent.Connector
	if cfg.Gateway.Enabled {
		mcpConnector := mcp.NewConnector(mcp.Config{
			URL:          cfg.Gateway.URL,
			TokenURL:     cfg.Gateway.TokenURL,
			ClientID:     cfg.Gateway.ClientID,
			ClientSecret: cfg.Gateway.ClientSecret,
			Scopes:       cfg.Gateway.Scopes,
			Timeout:      cfg.Gateway.Timeout,
		}, logger)
		connector = agent.ConnectorFunc(func(ctx context.Context, key models.SessionKey) (agent.GatewaySession, error) {
			return mcpConnector.Connect(ctx, key)
		})
	}

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)

	factory := &agent.Factory{
		Provider:     provider,
		Store:        store,
		SystemPrompt: cfg.Model.SystemPrompt,
		MaxTokens:    cfg.Model.MaxTokens,
		HistoryLimit: cfg.Memory.HistoryLimit,
		Retrieval:    memory.DefaultRetrieval(),
		Logger:       logger,
	}
	cache := agent.NewCache(connector, factory, logger, metrics)
	defer cache.Close()

	srv := server.New(cfg, cache, logger, metrics, registry)

	if cfg.Jobs.Enabled {
		scheduler, err := jobs.NewScheduler(cache, cfg.Jobs, logger)
		if err != nil {
			return err
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.ToLower(cfg.Format) == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
