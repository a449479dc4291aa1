// Package export appends financial summaries to a Google Sheets spreadsheet
// so reports can be archived outside the application.
package export

import (
	"context"
	"fmt"
	"log/slog"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"fintrack/internal/report"
)

type SheetsExporter struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
}

// NewSheetsExporter builds an exporter authenticated with a service account.
// Exactly one of credentialsFile or credentialsJSON must be set.
func NewSheetsExporter(ctx context.Context, credentialsFile string, credentialsJSON []byte, spreadsheetID, sheetName string) (*SheetsExporter, error) {
	var opt option.ClientOption
	switch {
	case credentialsFile != "":
		opt = option.WithCredentialsFile(credentialsFile)
	case len(credentialsJSON) > 0:
		opt = option.WithCredentialsJSON(credentialsJSON)
	default:
		return nil, fmt.Errorf("no Google credentials configured")
	}

	svc, err := sheets.NewService(ctx, opt)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &SheetsExporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
	}, nil
}

// AppendSummary appends one row per summary: period, totals and net values
// as decimal strings so the spreadsheet keeps exact amounts.
func (e *SheetsExporter) AppendSummary(ctx context.Context, summary *report.FinancialSummary) error {
	row := []interface{}{
		summary.UserID,
		summary.PeriodStart.String(),
		summary.PeriodEnd.String(),
		summary.TotalIncome.String(),
		summary.TotalExpenses.String(),
		summary.NetIncome.String(),
		summary.TotalInvestmentsValue.String(),
		summary.TotalDebtBalance.String(),
	}

	vr := &sheets.ValueRange{Values: [][]interface{}{row}}
	writeRange := fmt.Sprintf("%s!A:H", e.sheetName)

	_, err := e.svc.Spreadsheets.Values.
		Append(e.spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append summary row: %w", err)
	}

	slog.InfoContext(ctx, "Summary exported to sheet",
		"user_id", summary.UserID,
		"period_start", summary.PeriodStart.String(),
		"period_end", summary.PeriodEnd.String(),
		"spreadsheet_id", e.spreadsheetID)

	return nil
}
