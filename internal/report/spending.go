package report

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// CategorySpending is one category's share of the period's expense total.
type CategorySpending struct {
	CategoryID        string          `json:"category_id"`
	CategoryName      string          `json:"category_name"`
	TotalAmount       decimal.Decimal `json:"total_amount"`
	TransactionCount  int             `json:"transaction_count"`
	PercentageOfTotal float64         `json:"percentage_of_total"`
}

// CategorySpending groups the user's expense transactions inside the
// inclusive [from, to] period by category. Only categories with at least one
// matching transaction appear; a period with no expenses yields an empty
// list. Rows are ordered by category id so results are reproducible; callers
// re-sort for display.
func (s *Service) CategorySpending(ctx context.Context, userID string, from, to core.Date) ([]CategorySpending, error) {
	rows, err := s.store.ExpensesByCategory(ctx, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("expenses by category: %w", err)
	}

	groups := make(map[string]*CategorySpending)
	grandTotal := decimal.Zero
	for _, row := range rows {
		g, ok := groups[row.CategoryID]
		if !ok {
			g = &CategorySpending{
				CategoryID:   row.CategoryID,
				CategoryName: row.CategoryName,
				TotalAmount:  decimal.Zero,
			}
			groups[row.CategoryID] = g
		}
		g.TotalAmount = g.TotalAmount.Add(row.Amount)
		g.TransactionCount++
		grandTotal = grandTotal.Add(row.Amount)
	}

	result := make([]CategorySpending, 0, len(groups))
	for _, g := range groups {
		// grandTotal can only be zero here if every grouped amount is zero;
		// the guard keeps the percentage at 0 instead of NaN.
		g.PercentageOfTotal = percentage(g.TotalAmount, grandTotal)
		result = append(result, *g)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CategoryID < result[j].CategoryID
	})

	return result, nil
}
