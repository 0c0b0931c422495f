package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thriftngo/storefront-cli/internal/app"
	"github.com/thriftngo/storefront-cli/internal/event"
	"github.com/thriftngo/storefront-cli/internal/storage"
	"github.com/thriftngo/storefront-cli/internal/store"
)

var (
	inventoryOut       string
	inventoryXLSX      string
	inventoryHeadless  bool
	inventoryNoEnrich  bool
	inventoryDashboard bool
)

var inventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Scrape the storefront inventory into the listing store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if inventoryHeadless {
			cfg.Browser.Headless = true
		}
		csvPath := cfg.Storage.CSVPath
		if inventoryOut != "" {
			csvPath = inventoryOut
		}

		runs, err := store.NewSQLite(cfg.Runs.DBPath)
		if err != nil {
			return eris.Wrap(err, "inventory: open run store")
		}
		defer runs.Close() //nolint:errcheck
		if err := runs.Migrate(ctx); err != nil {
			return eris.Wrap(err, "inventory: migrate run store")
		}
		run, err := runs.CreateRun(ctx, "inventory")
		if err != nil {
			return eris.Wrap(err, "inventory: create run")
		}

		var mirror *storage.PostgresMirror
		if cfg.Storage.PostgresURL != "" {
			mirror, err = storage.NewPostgresMirror(ctx, cfg.Storage.PostgresURL)
			if err != nil {
				zap.L().Warn("postgres mirror unavailable, continuing without it", zap.Error(err))
				mirror = nil
			} else if err := mirror.Migrate(ctx); err != nil {
				zap.L().Warn("postgres mirror migrate failed, continuing without it", zap.Error(err))
				mirror.Close()
				mirror = nil
			}
		}

		bus := event.NewBus()
		ops := app.NewPipelineOps(bus, cfg, storage.NewCSVStore(csvPath), mirror, runs, run.ID, inventoryXLSX)
		a := app.New(bus, ops, cfg.Marketplace.SellerPageURL, cfg.Pipeline.Enrich && !inventoryNoEnrich, inventoryDashboard)

		g, gctx := errgroup.WithContext(ctx)
		if inventoryDashboard {
			a.OnTick(renderStatus(os.Stderr))
			g.Go(func() error {
				return bus.RunTicker(gctx, cfg.Pipeline.TickRateHz)
			})
			// Detached: Scan blocks on stdin, and sends after the bus
			// closes are dropped anyway.
			go readInput(gctx, os.Stdin, bus)
		}
		g.Go(func() error {
			return a.Run(gctx)
		})

		if err := g.Wait(); err != nil && !eris.Is(err, context.Canceled) {
			return eris.Wrap(err, "inventory: run")
		}
		zap.L().Info("inventory run finished",
			zap.String("run_id", run.ID),
			zap.Int("listings", len(a.State.Listings)),
			zap.String("csv", csvPath))
		return nil
	},
}

func init() {
	inventoryCmd.Flags().StringVar(&inventoryOut, "out", "", "CSV output path (overrides config)")
	inventoryCmd.Flags().StringVar(&inventoryXLSX, "xlsx", "", "also export the collection to this xlsx file")
	inventoryCmd.Flags().BoolVar(&inventoryHeadless, "headless", false, "run the browser headless")
	inventoryCmd.Flags().BoolVar(&inventoryNoEnrich, "no-enrich", false, "skip the per-item detail pass")
	inventoryCmd.Flags().BoolVar(&inventoryDashboard, "dashboard", true, "show the live dashboard and stay open after the run")
	rootCmd.AddCommand(inventoryCmd)
}
