// Package alerts periodically evaluates budget performance through the
// reporting engine and publishes an alert for every budget at or over the
// configured usage threshold.
package alerts

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/report"
)

// Summarizer is the slice of the reporting engine the processor needs.
type Summarizer interface {
	FinancialSummary(ctx context.Context, userID string, from, to core.Date) (*report.FinancialSummary, error)
}

// Publisher delivers alert messages downstream.
type Publisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// UserLister enumerates the users worth evaluating.
type UserLister interface {
	ActiveBudgetUserIDs(ctx context.Context) ([]string, error)
}

// SummaryExporter archives evaluated summaries outside the application.
// Optional; a nil exporter disables archiving.
type SummaryExporter interface {
	AppendSummary(ctx context.Context, summary *report.FinancialSummary) error
}

type Processor struct {
	users     UserLister
	engine    Summarizer
	publisher Publisher
	exporter  SummaryExporter
	threshold float64
	logger    *log.Logger
}

func NewProcessor(users UserLister, engine Summarizer, publisher Publisher, exporter SummaryExporter, threshold float64) *Processor {
	return &Processor{
		users:     users,
		engine:    engine,
		publisher: publisher,
		exporter:  exporter,
		threshold: threshold,
		logger:    log.New(log.DefaultConfig()).WithComponent("alerts"),
	}
}

// ProcessAlerts evaluates every budget-owning user's summary for the calendar
// month containing now and publishes one alert per budget at or over the
// threshold. It returns the number of alerts published. A failing user does
// not stop the sweep; the first error is reported after all users ran.
func (p *Processor) ProcessAlerts(ctx context.Context, now time.Time) (int, error) {
	users, err := p.users.ActiveBudgetUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list budget users: %w", err)
	}

	from, to := MonthWindow(now)
	published := 0
	var firstErr error
	for _, userID := range users {
		summary, err := p.engine.FinancialSummary(ctx, userID, from, to)
		if err != nil {
			p.logger.ErrorContext(ctx, "Budget evaluation failed",
				"user_id", userID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		if p.exporter != nil {
			if err := p.exporter.AppendSummary(ctx, summary); err != nil {
				// Archiving is best effort; a failed export never blocks alerts.
				p.logger.WarnContext(ctx, "Summary export failed",
					"user_id", userID, "error", err)
			}
		}

		for _, perf := range summary.BudgetPerformance {
			if perf.PercentageUsed < p.threshold {
				continue
			}
			msg := &amqp.BudgetAlertMessage{
				UserID:         userID,
				BudgetName:     perf.BudgetName,
				PeriodStart:    from.String(),
				PeriodEnd:      to.String(),
				BudgetAmount:   perf.BudgetAmount.String(),
				SpentAmount:    perf.SpentAmount.String(),
				PercentageUsed: perf.PercentageUsed,
				IssuedAt:       now.UTC(),
			}
			if err := p.publisher.PublishBudgetAlert(ctx, msg); err != nil {
				p.logger.ErrorContext(ctx, "Alert publish failed",
					"user_id", userID, "budget", perf.BudgetName, "error", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			published++
		}
	}

	return published, firstErr
}

// MonthWindow returns the first and last day of the calendar month
// containing t.
func MonthWindow(t time.Time) (core.Date, core.Date) {
	year, month, _ := t.UTC().Date()
	first := core.NewDate(year, int(month), 1)
	last := core.Date{Time: first.AddDate(0, 1, -1)}
	return first, last
}
