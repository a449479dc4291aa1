package report

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

// maxBudgetFanOut caps concurrent per-budget spend queries so a user with
// many budgets cannot exhaust store connections.
const maxBudgetFanOut = 4

// BudgetPerformance reports spend against one budget over the reporting
// period. RemainingAmount goes negative on overspend.
type BudgetPerformance struct {
	BudgetName      string          `json:"budget_name"`
	BudgetAmount    decimal.Decimal `json:"budget_amount"`
	SpentAmount     decimal.Decimal `json:"spent_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PercentageUsed  float64         `json:"percentage_used"`
}

// BudgetPerformance evaluates every budget whose window overlaps the
// inclusive [from, to] reporting period. Spend is always computed against the
// reporting period, not the budget's own window, even when the window is
// wider or narrower. Budgets outside the overlap are excluded entirely, not
// reported with zero spend. Per-budget spend queries are independent and run
// concurrently with a bounded fan-out.
func (s *Service) BudgetPerformance(ctx context.Context, userID string, from, to core.Date) ([]BudgetPerformance, error) {
	budgets, err := s.store.BudgetsOverlapping(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("budgets overlapping period: %w", err)
	}

	performance := make([]BudgetPerformance, len(budgets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxBudgetFanOut)
	for i, b := range budgets {
		g.Go(func() error {
			spent, err := s.store.ExpenseTotal(ctx, userID, b.CategoryID, from, to)
			if err != nil {
				return fmt.Errorf("spend for budget %s: %w", b.ID, err)
			}
			performance[i] = BudgetPerformance{
				BudgetName:      b.Name,
				BudgetAmount:    b.Amount,
				SpentAmount:     spent,
				RemainingAmount: b.Amount.Sub(spent),
				PercentageUsed:  percentage(spent, b.Amount),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return performance, nil
}
