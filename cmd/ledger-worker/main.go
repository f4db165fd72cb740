package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"ledger/internal/backend"
	"ledger/internal/cli"
	applog "ledger/internal/log"
	"ledger/internal/sheets"
	gsheet "ledger/internal/sheets/google"
	memsheet "ledger/internal/sheets/memory"
	"ledger/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentWorker)
	ctx := context.Background()

	logger.InfoContext(ctx, "Starting ledger-worker")

	if !cfg.AMQPEnabled() {
		logger.ErrorContext(ctx, "AMQP_URL is required for the worker")
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to initialize backend", "error", err)
		os.Exit(1)
	}
	if res.AMQP == nil {
		logger.ErrorContext(ctx, "Broker unreachable", "url", cfg.AMQPURL)
		_ = res.Cleanup()
		os.Exit(1)
	}

	var exporter sheets.TransactionExporter
	if cfg.GoogleSpreadsheetID != "" {
		client, err := gsheet.New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.ErrorContext(ctx, "Failed to initialize Google Sheets client", "error", err)
			_ = res.Cleanup()
			os.Exit(1)
		}
		exporter = client
		logger.InfoContext(ctx, "Google Sheets export enabled",
			"spreadsheet_id", cfg.GoogleSpreadsheetID,
			"sheet", cfg.GoogleSheetName)
	} else {
		exporter = memsheet.New()
		logger.InfoContext(ctx, "Google Sheets disabled, exporting to memory")
	}

	syncWorker := worker.NewSyncWorker(res.Service, exporter)
	importWorker := worker.NewImportWorker(res.Service)

	runCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := res.Cleanup(); err != nil {
			logger.ErrorContext(ctx, "Backend cleanup error", "error", err)
		}
	})

	if err := syncWorker.StartupSync(runCtx); err != nil {
		logger.ErrorContext(runCtx, "Startup sync failed", "error", err)
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return res.AMQP.ConsumeImportBatches(gctx, importWorker.HandleImportMessage)
	})
	g.Go(func() error {
		return res.AMQP.ConsumeTransactionEvents(gctx, syncWorker.HandleEventMessage)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorContext(ctx, "Message consumption failed", "error", err)
	}

	cli.WaitForShutdown(runCtx, done)
	logger.InfoContext(ctx, "Worker stopped gracefully")
}
