package main

import (
	"context"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"nutrichef/internal/api"
	"nutrichef/internal/config"
	"nutrichef/internal/cookbook"
	"nutrichef/internal/logger"
	"nutrichef/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath, addr string

	rootCmd := &cobra.Command{
		Use:          "api",
		Short:        "Serve the nutrichef HTTP API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Read(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	rootCmd.Flags().StringVar(&configPath, "config", "config.json", "path to the configuration file")
	rootCmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (default from config)")
	return rootCmd
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := logger.Init(cfg.Log.Development, cfg.Log.Level); err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	defer logger.Sync()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("error opening store: %w", err)
	}

	cb, err := cookbook.Open(ctx, store)
	if err != nil {
		store.Close()
		return fmt.Errorf("error loading cookbook: %w", err)
	}
	defer cb.Close()

	r := api.NewRouter(api.NewHandler(cb, cfg.History.PageSize), cfg.Server.AllowedOrigins)

	logger.Info("listening", zap.String("addr", cfg.Server.Addr))
	if err := r.Run(cfg.Server.Addr); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return err
	}
	return nil
}
