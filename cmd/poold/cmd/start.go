package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ciro-network/ciro/api"
	"github.com/ciro-network/ciro/app"
	"github.com/ciro-network/ciro/app/health"
	"github.com/ciro-network/ciro/app/telemetry"
)

const (
	healthCacheDuration = 5 * time.Second
	shutdownTimeout     = 10 * time.Second
)

// StartCmd runs the daemon: the HTTP API plus the health and metrics side
// server. A store without state is initialised from the genesis file first.
func StartCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Run the worker pool daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd, v)
			if err != nil {
				return err
			}

			parent := cmd.Context()
			if parent == nil {
				parent = context.Background()
			}
			ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
			defer stop()

			provider, err := telemetry.NewProvider(cfg.Telemetry)
			if err != nil {
				return fmt.Errorf("failed to initialize telemetry: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				if err := provider.Shutdown(shutdownCtx); err != nil {
					logger.Error("telemetry shutdown failed", "err", err)
				}
			}()

			application, err := openApp(cfg, logger, app.WithTelemetry(provider))
			if err != nil {
				return err
			}
			defer application.Close()

			if !application.Initialized() {
				genFile, _ := cmd.Flags().GetString(flagGenesis)
				if genFile == "" {
					genFile = filepath.Join(cfg.Home, "config", "genesis.json")
				}
				gs, err := app.LoadGenesisFile(genFile)
				if err != nil {
					return fmt.Errorf("state is empty and genesis could not be loaded: %w", err)
				}
				if err := application.InitChain(ctx, gs); err != nil {
					return err
				}
			}

			server, err := api.NewServer(application, api.ConfigFromApp(cfg.API))
			if err != nil {
				return err
			}

			checker, err := health.NewChecker(logger, application, provider, healthCacheDuration)
			if err != nil {
				return err
			}
			healthServer := checker.NewServer(cfg.Health.Address)

			errCh := make(chan error, 2)
			go func() {
				logger.Info("starting health server", "address", cfg.Health.Address)
				if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- fmt.Errorf("health server: %w", err)
				}
			}()
			go func() {
				errCh <- server.Start(ctx)
			}()

			select {
			case err = <-errCh:
				stop()
			case <-ctx.Done():
				err = <-errCh
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if shutdownErr := healthServer.Shutdown(shutdownCtx); shutdownErr != nil {
				logger.Error("health server shutdown failed", "err", shutdownErr)
			}

			logger.Info("poold stopped", "version", application.Version())
			return err
		},
	}

	cmd.Flags().String(flagGenesis, "", "genesis file imported when the state is empty (default <home>/config/genesis.json)")

	return cmd
}
