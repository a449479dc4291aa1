package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fintrack/internal/alerts"
	"fintrack/internal/amqp"
	"fintrack/internal/cli"
	"fintrack/internal/export"
	"fintrack/internal/report"
)

// logPublisher stands in when AMQP is disabled so the worker still reports
// over-threshold budgets in its own log.
type logPublisher struct{}

func (logPublisher) PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	slog.InfoContext(ctx, "Budget alert (AMQP disabled)",
		"user_id", msg.UserID,
		"budget", msg.BudgetName,
		"percentage_used", msg.PercentageUsed)
	return nil
}

func main() {
	logger, cfg := cli.Bootstrap()
	logger.Info("Starting alerts-worker")

	repo := cli.OpenDatabase(logger, cfg.SQLiteDBPath)
	defer repo.Close()

	var publisher alerts.Publisher = logPublisher{}
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, alerts will only be logged", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled, alerts will only be logged")
	}

	var exporter alerts.SummaryExporter
	if cfg.SheetsExportEnabled() {
		sheetsExporter, err := export.NewSheetsExporter(context.Background(),
			cfg.GoogleCredentialsFile, []byte(cfg.GoogleCredentialsJSON),
			cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Warn("Failed to initialize sheets exporter, summaries will not be archived", "error", err)
		} else {
			exporter = sheetsExporter
			logger.Info("Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
		}
	}

	engine := report.NewService(repo)
	processor := alerts.NewProcessor(repo, engine, publisher, exporter, cfg.AlertThreshold)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger.Info("Budget alert processor configured",
		"interval", cfg.AlertInterval,
		"threshold", cfg.AlertThreshold,
		"sqlite_db", cfg.SQLiteDBPath)

	ticker := time.NewTicker(cfg.AlertInterval)
	defer ticker.Stop()

	// Run initial sweep on startup
	logger.Info("Running initial budget alert sweep...")
	if count, err := processor.ProcessAlerts(ctx, time.Now()); err != nil {
		logger.Error("Initial sweep failed", "error", err, "alerts_published", count)
	} else {
		logger.Info("Initial sweep complete", "alerts_published", count)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				logger.Info("Evaluating budgets...")
				count, err := processor.ProcessAlerts(ctx, now)
				if err != nil {
					logger.Error("Periodic sweep failed", "error", err, "alerts_published", count)
				} else {
					logger.Info("Periodic sweep complete",
						"alerts_published", count,
						"next_check", now.Add(cfg.AlertInterval).Format("15:04:05"))
				}
			}
		}
	}()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	logger.Info("Shutting down alerts-worker...")
	cancel()

	select {
	case <-shutdownCtx.Done():
		logger.Warn("Shutdown timeout reached")
	case <-time.After(2 * time.Second):
		logger.Info("Alerts-worker shutdown complete")
	}
}
