package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/report"
)

// report.Store implementation. Filtering happens in SQL; all arithmetic on
// the fetched decimal text happens in Go through shopspring/decimal, never in
// SQLite's float engine.

func (r *SQLiteRepository) TransactionsInPeriod(ctx context.Context, userID string, from, to core.Date) ([]core.Transaction, error) {
	const query = `
		SELECT id, user_id, amount, description, kind, category_id,
		       transaction_date, created_at, updated_at
		FROM transactions
		WHERE user_id = ? AND transaction_date >= ? AND transaction_date <= ?
		ORDER BY transaction_date, id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query transactions in period: %w", err)
	}
	defer rows.Close()

	var txs []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	return txs, rows.Err()
}

func (r *SQLiteRepository) ExpensesByCategory(ctx context.Context, userID string, from, to core.Date) ([]report.CategorizedExpense, error) {
	const query = `
		SELECT t.category_id, c.name, t.amount
		FROM transactions t
		JOIN categories c ON t.category_id = c.id
		WHERE t.user_id = ? AND t.kind = 'expense'
		  AND t.transaction_date >= ? AND t.transaction_date <= ?
		ORDER BY t.category_id, t.id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("query expenses by category: %w", err)
	}
	defer rows.Close()

	var result []report.CategorizedExpense
	for rows.Next() {
		var (
			e      report.CategorizedExpense
			amount string
		)
		if err := rows.Scan(&e.CategoryID, &e.CategoryName, &amount); err != nil {
			return nil, fmt.Errorf("scan categorized expense: %w", err)
		}
		if e.Amount, err = scanDecimal(amount); err != nil {
			return nil, err
		}
		result = append(result, e)
	}
	return result, rows.Err()
}

func (r *SQLiteRepository) BudgetsOverlapping(ctx context.Context, userID string, from, to core.Date) ([]core.Budget, error) {
	// Interval overlap, not containment: start <= period_end AND end >= period_start.
	const query = `
		SELECT id, user_id, name, category_id, budget_amount, period_type,
		       start_date, end_date, created_at, updated_at
		FROM budgets
		WHERE user_id = ? AND start_date <= ? AND end_date >= ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, userID, to.String(), from.String())
	if err != nil {
		return nil, fmt.Errorf("query overlapping budgets: %w", err)
	}
	defer rows.Close()

	var budgets []core.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, err
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (r *SQLiteRepository) ExpenseTotal(ctx context.Context, userID string, categoryID *string, from, to core.Date) (decimal.Decimal, error) {
	query := `
		SELECT amount
		FROM transactions
		WHERE user_id = ? AND kind = 'expense'
		  AND transaction_date >= ? AND transaction_date <= ?
	`
	args := []any{userID, from.String(), to.String()}
	if categoryID != nil {
		query += " AND category_id = ?"
		args = append(args, *categoryID)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Zero, fmt.Errorf("query expense total: %w", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var amount string
		if err := rows.Scan(&amount); err != nil {
			return decimal.Zero, fmt.Errorf("scan expense amount: %w", err)
		}
		d, err := scanDecimal(amount)
		if err != nil {
			return decimal.Zero, err
		}
		total = total.Add(d)
	}
	return total, rows.Err()
}

func (r *SQLiteRepository) Investments(ctx context.Context, userID string) ([]core.Investment, error) {
	const query = `
		SELECT id, user_id, name, type, quantity, purchase_price,
		       current_value, purchase_date, created_at, updated_at
		FROM investments
		WHERE user_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query investments: %w", err)
	}
	defer rows.Close()

	var positions []core.Investment
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, inv)
	}
	return positions, rows.Err()
}

func (r *SQLiteRepository) Debts(ctx context.Context, userID string) ([]core.Debt, error) {
	const query = `
		SELECT id, user_id, lender, debt_type, original_amount, current_balance,
		       interest_rate, minimum_payment, due_date, created_at, updated_at
		FROM debts
		WHERE user_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query debts: %w", err)
	}
	defer rows.Close()

	var debts []core.Debt
	for rows.Next() {
		d, err := scanDebt(rows)
		if err != nil {
			return nil, err
		}
		debts = append(debts, d)
	}
	return debts, rows.Err()
}

// ActiveBudgetUserIDs lists the users that currently own at least one budget,
// for the alert worker's evaluation sweep.
func (r *SQLiteRepository) ActiveBudgetUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM budgets ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("query budget users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		users = append(users, id)
	}
	return users, rows.Err()
}
