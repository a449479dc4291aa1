// Package report implements the financial aggregation engine: point-in-time
// financial summaries and category spending breakdowns over a reporting
// period. Both operations are pure reads over an injected Store; they create
// no state and recover nothing locally except the divide-by-zero guards on
// percentage math.
package report

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

// Store is the read-only record access the engine aggregates over. Queries
// are scoped by user and filtered with inclusive date comparisons; any store
// failure propagates unchanged to the caller.
type Store interface {
	// TransactionsInPeriod returns the user's transactions of every kind
	// with a date inside the inclusive [from, to] range.
	TransactionsInPeriod(ctx context.Context, userID string, from, to core.Date) ([]core.Transaction, error)

	// ExpensesByCategory returns one row per expense transaction in the
	// period, joined to its category name.
	ExpensesByCategory(ctx context.Context, userID string, from, to core.Date) ([]CategorizedExpense, error)

	// BudgetsOverlapping returns the user's budgets whose own window
	// intersects the inclusive [from, to] range.
	BudgetsOverlapping(ctx context.Context, userID string, from, to core.Date) ([]core.Budget, error)

	// ExpenseTotal sums the user's expense amounts inside the period,
	// restricted to one category when categoryID is non-nil.
	ExpenseTotal(ctx context.Context, userID string, categoryID *string, from, to core.Date) (decimal.Decimal, error)

	// Investments and Debts return current snapshots, never filtered by the
	// reporting period.
	Investments(ctx context.Context, userID string) ([]core.Investment, error)
	Debts(ctx context.Context, userID string) ([]core.Debt, error)
}

// CategorizedExpense is a single expense row with its category attached.
type CategorizedExpense struct {
	CategoryID   string
	CategoryName string
	Amount       decimal.Decimal
}

// FinancialSummary is the point-in-time report for one user and period.
type FinancialSummary struct {
	UserID                string              `json:"user_id"`
	PeriodStart           core.Date           `json:"period_start"`
	PeriodEnd             core.Date           `json:"period_end"`
	TotalIncome           decimal.Decimal     `json:"total_income"`
	TotalExpenses         decimal.Decimal     `json:"total_expenses"`
	NetIncome             decimal.Decimal     `json:"net_income"`
	TotalInvestmentsValue decimal.Decimal     `json:"total_investments_value"`
	TotalDebtBalance      decimal.Decimal     `json:"total_debt_balance"`
	BudgetPerformance     []BudgetPerformance `json:"budget_performance"`
}

// Service exposes the two read operations of the aggregation engine.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// FinancialSummary composes income/expense totals, investment and debt
// snapshots and budget performance for the period. The four computations are
// independent and run concurrently; the first failure aborts the whole
// composition, never a partial summary.
func (s *Service) FinancialSummary(ctx context.Context, userID string, from, to core.Date) (*FinancialSummary, error) {
	var (
		income      = decimal.Zero
		expenses    = decimal.Zero
		investments = decimal.Zero
		debts       = decimal.Zero
		performance []BudgetPerformance
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		txs, err := s.store.TransactionsInPeriod(ctx, userID, from, to)
		if err != nil {
			return fmt.Errorf("transactions in period: %w", err)
		}
		income, expenses = sumByKind(txs)
		return nil
	})

	g.Go(func() error {
		positions, err := s.store.Investments(ctx, userID)
		if err != nil {
			return fmt.Errorf("investments: %w", err)
		}
		for _, p := range positions {
			investments = investments.Add(p.CurrentValue)
		}
		return nil
	})

	g.Go(func() error {
		owed, err := s.store.Debts(ctx, userID)
		if err != nil {
			return fmt.Errorf("debts: %w", err)
		}
		for _, d := range owed {
			debts = debts.Add(d.CurrentBalance)
		}
		return nil
	})

	g.Go(func() error {
		var err error
		performance, err = s.BudgetPerformance(ctx, userID, from, to)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &FinancialSummary{
		UserID:                userID,
		PeriodStart:           from,
		PeriodEnd:             to,
		TotalIncome:           income,
		TotalExpenses:         expenses,
		NetIncome:             income.Sub(expenses),
		TotalInvestmentsValue: investments,
		TotalDebtBalance:      debts,
		BudgetPerformance:     performance,
	}, nil
}

// sumByKind totals transaction amounts grouped by kind. The stored kind is
// trusted as-is: a transaction whose kind no longer matches its category is
// aggregated under whatever kind it currently holds, matching the write
// path's create-only consistency check.
func sumByKind(txs []core.Transaction) (income, expenses decimal.Decimal) {
	income, expenses = decimal.Zero, decimal.Zero
	for _, t := range txs {
		switch t.Kind {
		case core.Income:
			income = income.Add(t.Amount)
		case core.Expense:
			expenses = expenses.Add(t.Amount)
		}
	}
	return income, expenses
}

// percentage returns part/whole*100 rounded to two decimals, or 0 when the
// whole is not positive. NaN and Inf must never leak into a report.
func percentage(part, whole decimal.Decimal) float64 {
	if !whole.IsPositive() {
		return 0
	}
	pct, _ := part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return pct
}
