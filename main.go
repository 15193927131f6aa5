/*
Package main
File: main.go
Description: Server entry point. Loads configuration and the building
catalog, opens the production ledger, starts the real-time WebSocket hub
and serves the factory API until interrupted.
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/everforgeworks/factory-sim/internal/api"
	"github.com/everforgeworks/factory-sim/internal/config"
	"github.com/everforgeworks/factory-sim/internal/game"
	"github.com/everforgeworks/factory-sim/internal/logging"
	"github.com/everforgeworks/factory-sim/internal/metrics"
	"github.com/everforgeworks/factory-sim/internal/store"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "factoryd",
		Short:        "Factory simulation server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "config file (default ./config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "catalog",
		Short: "Print the effective building catalog as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cat, err := game.LoadCatalog(cfg.Catalog.Path)
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			defer enc.Close()
			return enc.Encode(cat)
		},
	})

	return root
}

func serve(ctx context.Context, cfg *config.Config) error {
	log, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer log.Sync()

	// 1. Building catalog
	cat, err := game.LoadCatalog(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("catalog: %w", err)
	}
	factory := game.NewFactory(cat)

	// 2. Production ledger (optional)
	var ledger api.Ledger
	if cfg.Database.Enabled {
		l, err := store.Open(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("ledger: %w", err)
		}
		defer l.Close()
		ledger = l
		log.Info("production ledger open", zap.String("path", cfg.Database.Path))
	}

	// 3. Real-time hub
	hub := api.NewHub(log, cfg.Server.AllowOrigin, cfg.Server.SendBuffer)
	go hub.Run(ctx)

	// 4. HTTP server
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           api.NewServer(factory, hub, ledger, metrics.New(), log, cfg.Server.AllowOrigin).Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("factory server live", zap.String("addr", cfg.Server.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
