package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// rowScanner lets the scan helpers work with both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var (
		t                            core.Transaction
		amount, date, created, updated string
	)
	err := row.Scan(&t.ID, &t.UserID, &amount, &t.Description, &t.Kind,
		&t.CategoryID, &date, &created, &updated)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", mapNoRows(err))
	}
	if t.Amount, err = scanDecimal(amount); err != nil {
		return core.Transaction{}, err
	}
	if t.Date, err = scanDate(date); err != nil {
		return core.Transaction{}, err
	}
	if t.CreatedAt, err = scanTimestamp(created); err != nil {
		return core.Transaction{}, err
	}
	if t.UpdatedAt, err = scanTimestamp(updated); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var (
		b                             core.Budget
		categoryID                    *string
		amount, start, end, created, updated string
	)
	err := row.Scan(&b.ID, &b.UserID, &b.Name, &categoryID, &amount,
		&b.Period, &start, &end, &created, &updated)
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", mapNoRows(err))
	}
	b.CategoryID = categoryID
	if b.Amount, err = scanDecimal(amount); err != nil {
		return core.Budget{}, err
	}
	if b.StartDate, err = scanDate(start); err != nil {
		return core.Budget{}, err
	}
	if b.EndDate, err = scanDate(end); err != nil {
		return core.Budget{}, err
	}
	if b.CreatedAt, err = scanTimestamp(created); err != nil {
		return core.Budget{}, err
	}
	if b.UpdatedAt, err = scanTimestamp(updated); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func scanInvestment(row rowScanner) (core.Investment, error) {
	var (
		inv                                          core.Investment
		quantity, price, value, date, created, updated string
	)
	err := row.Scan(&inv.ID, &inv.UserID, &inv.Name, &inv.Type, &quantity,
		&price, &value, &date, &created, &updated)
	if err != nil {
		return core.Investment{}, fmt.Errorf("scan investment: %w", mapNoRows(err))
	}
	if inv.Quantity, err = scanDecimal(quantity); err != nil {
		return core.Investment{}, err
	}
	if inv.PurchasePrice, err = scanDecimal(price); err != nil {
		return core.Investment{}, err
	}
	if inv.CurrentValue, err = scanDecimal(value); err != nil {
		return core.Investment{}, err
	}
	if inv.PurchaseDate, err = scanDate(date); err != nil {
		return core.Investment{}, err
	}
	if inv.CreatedAt, err = scanTimestamp(created); err != nil {
		return core.Investment{}, err
	}
	if inv.UpdatedAt, err = scanTimestamp(updated); err != nil {
		return core.Investment{}, err
	}
	return inv, nil
}

func scanDebt(row rowScanner) (core.Debt, error) {
	var (
		d                                        core.Debt
		original, balance, rate, minimum, created, updated string
		dueDate                                  *string
	)
	err := row.Scan(&d.ID, &d.UserID, &d.Lender, &d.DebtType, &original,
		&balance, &rate, &minimum, &dueDate, &created, &updated)
	if err != nil {
		return core.Debt{}, fmt.Errorf("scan debt: %w", mapNoRows(err))
	}
	if d.OriginalAmount, err = scanDecimal(original); err != nil {
		return core.Debt{}, err
	}
	if d.CurrentBalance, err = scanDecimal(balance); err != nil {
		return core.Debt{}, err
	}
	if d.InterestRate, err = scanDecimal(rate); err != nil {
		return core.Debt{}, err
	}
	if d.MinimumPayment, err = scanDecimal(minimum); err != nil {
		return core.Debt{}, err
	}
	if dueDate != nil {
		due, err := scanDate(*dueDate)
		if err != nil {
			return core.Debt{}, err
		}
		d.DueDate = &due
	}
	if d.CreatedAt, err = scanTimestamp(created); err != nil {
		return core.Debt{}, err
	}
	if d.UpdatedAt, err = scanTimestamp(updated); err != nil {
		return core.Debt{}, err
	}
	return d, nil
}

// --- Categories ---

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	c.ID = uuid.New().String()
	c.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO categories (id, user_id, name, kind, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, c.ID, c.UserID, c.Name, c.Kind,
		formatTimestamp(c.CreatedAt))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	return c, nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	const query = `
		SELECT id, user_id, name, kind, created_at
		FROM categories
		WHERE id = ? AND user_id = ?
	`
	var (
		c       core.Category
		created string
	)
	err := r.db.QueryRowContext(ctx, query, id, userID).
		Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &created)
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", mapNoRows(err))
	}
	if c.CreatedAt, err = scanTimestamp(created); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	const query = `
		SELECT id, user_id, name, kind, created_at
		FROM categories
		WHERE user_id = ?
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []core.Category
	for rows.Next() {
		var (
			c       core.Category
			created string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Kind, &created); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		if c.CreatedAt, err = scanTimestamp(created); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return checkRowAffected(res)
}

// --- Transactions ---

// CreateTransaction persists a transaction after verifying its category
// belongs to the same user and carries a matching kind. This kind check
// exists only here: updates do not re-validate, and the reporting engine
// trusts the stored kind field.
func (r *SQLiteRepository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	t.Normalize()
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	category, err := r.categoryOwnedBy(ctx, t.UserID, t.CategoryID)
	if err != nil {
		return core.Transaction{}, err
	}
	if category.Kind != t.Kind {
		return core.Transaction{}, core.ErrKindMismatch
	}

	t.ID = uuid.New().String()
	now := time.Now().UTC()
	t.CreatedAt, t.UpdatedAt = now, now

	const query = `
		INSERT INTO transactions
			(id, user_id, amount, description, kind, category_id,
			 transaction_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = r.db.ExecContext(ctx, query, t.ID, t.UserID, t.Amount.String(),
		t.Description, t.Kind, t.CategoryID, t.Date.String(),
		formatTimestamp(t.CreatedAt), formatTimestamp(t.UpdatedAt))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	return t, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	const query = `
		SELECT id, user_id, amount, description, kind, category_id,
		       transaction_date, created_at, updated_at
		FROM transactions
		WHERE id = ? AND user_id = ?
	`
	return scanTransaction(r.db.QueryRowContext(ctx, query, id, userID))
}

// ListTransactions returns the user's transactions, optionally restricted to
// an inclusive date range when from/to are non-nil.
func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string, from, to *core.Date) ([]core.Transaction, error) {
	query := `
		SELECT id, user_id, amount, description, kind, category_id,
		       transaction_date, created_at, updated_at
		FROM transactions
		WHERE user_id = ?
	`
	args := []any{userID}
	if from != nil {
		query += " AND transaction_date >= ?"
		args = append(args, from.String())
	}
	if to != nil {
		query += " AND transaction_date <= ?"
		args = append(args, to.String())
	}
	query += " ORDER BY transaction_date DESC, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
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

// UpdateTransaction applies a sparse patch. Kind and category consistency is
// deliberately not re-validated here; that check lives in the create path
// only.
func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, userID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTimestamp(time.Now().UTC())}

	if patch.Amount != nil {
		amount := core.RoundAmount(*patch.Amount)
		if !amount.IsPositive() {
			return core.Transaction{}, core.ErrInvalidAmount
		}
		sets = append(sets, "amount = ?")
		args = append(args, amount.String())
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	if patch.Kind != nil {
		if err := patch.Kind.Validate(); err != nil {
			return core.Transaction{}, err
		}
		sets = append(sets, "kind = ?")
		args = append(args, *patch.Kind)
	}
	if patch.CategoryID != nil {
		if _, err := r.categoryOwnedBy(ctx, userID, *patch.CategoryID); err != nil {
			return core.Transaction{}, err
		}
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	if patch.Date != nil {
		sets = append(sets, "transaction_date = ?")
		args = append(args, patch.Date.String())
	}

	args = append(args, id, userID)
	query := "UPDATE transactions SET " + strings.Join(sets, ", ") +
		" WHERE id = ? AND user_id = ?"
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if err := checkRowAffected(res); err != nil {
		return core.Transaction{}, err
	}
	return r.GetTransaction(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return checkRowAffected(res)
}

// --- Budgets ---

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.Normalize()
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	if b.CategoryID != nil {
		if _, err := r.categoryOwnedBy(ctx, b.UserID, *b.CategoryID); err != nil {
			return core.Budget{}, err
		}
	}

	b.ID = uuid.New().String()
	now := time.Now().UTC()
	b.CreatedAt, b.UpdatedAt = now, now

	const query = `
		INSERT INTO budgets
			(id, user_id, name, category_id, budget_amount, period_type,
			 start_date, end_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, b.ID, b.UserID, b.Name, b.CategoryID,
		b.Amount.String(), b.Period, b.StartDate.String(), b.EndDate.String(),
		formatTimestamp(b.CreatedAt), formatTimestamp(b.UpdatedAt))
	if err != nil {
		return core.Budget{}, fmt.Errorf("insert budget: %w", err)
	}
	return b, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	const query = `
		SELECT id, user_id, name, category_id, budget_amount, period_type,
		       start_date, end_date, created_at, updated_at
		FROM budgets
		WHERE id = ? AND user_id = ?
	`
	return scanBudget(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	const query = `
		SELECT id, user_id, name, category_id, budget_amount, period_type,
		       start_date, end_date, created_at, updated_at
		FROM budgets
		WHERE user_id = ?
		ORDER BY start_date DESC, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("query budgets: %w", err)
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

func (r *SQLiteRepository) UpdateBudget(ctx context.Context, userID, id string, patch core.BudgetPatch) (core.Budget, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTimestamp(time.Now().UTC())}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	switch {
	case patch.ClearCategory:
		sets = append(sets, "category_id = NULL")
	case patch.CategoryID != nil:
		if _, err := r.categoryOwnedBy(ctx, userID, *patch.CategoryID); err != nil {
			return core.Budget{}, err
		}
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	if patch.Amount != nil {
		amount := core.RoundAmount(*patch.Amount)
		if !amount.IsPositive() {
			return core.Budget{}, core.ErrInvalidAmount
		}
		sets = append(sets, "budget_amount = ?")
		args = append(args, amount.String())
	}
	if patch.Period != nil {
		if err := patch.Period.Validate(); err != nil {
			return core.Budget{}, err
		}
		sets = append(sets, "period_type = ?")
		args = append(args, *patch.Period)
	}
	if patch.StartDate != nil {
		sets = append(sets, "start_date = ?")
		args = append(args, patch.StartDate.String())
	}
	if patch.EndDate != nil {
		sets = append(sets, "end_date = ?")
		args = append(args, patch.EndDate.String())
	}

	args = append(args, id, userID)
	query := "UPDATE budgets SET " + strings.Join(sets, ", ") +
		" WHERE id = ? AND user_id = ?"
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget: %w", err)
	}
	if err := checkRowAffected(res); err != nil {
		return core.Budget{}, err
	}
	return r.GetBudget(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return checkRowAffected(res)
}

// --- Investments ---

func (r *SQLiteRepository) CreateInvestment(ctx context.Context, inv core.Investment) (core.Investment, error) {
	inv.Normalize()
	if err := inv.Validate(); err != nil {
		return core.Investment{}, err
	}
	inv.ID = uuid.New().String()
	now := time.Now().UTC()
	inv.CreatedAt, inv.UpdatedAt = now, now

	const query = `
		INSERT INTO investments
			(id, user_id, name, type, quantity, purchase_price, current_value,
			 purchase_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, inv.ID, inv.UserID, inv.Name,
		inv.Type, inv.Quantity.String(), inv.PurchasePrice.String(),
		inv.CurrentValue.String(), inv.PurchaseDate.String(),
		formatTimestamp(inv.CreatedAt), formatTimestamp(inv.UpdatedAt))
	if err != nil {
		return core.Investment{}, fmt.Errorf("insert investment: %w", err)
	}
	return inv, nil
}

func (r *SQLiteRepository) GetInvestment(ctx context.Context, userID, id string) (core.Investment, error) {
	const query = `
		SELECT id, user_id, name, type, quantity, purchase_price,
		       current_value, purchase_date, created_at, updated_at
		FROM investments
		WHERE id = ? AND user_id = ?
	`
	return scanInvestment(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *SQLiteRepository) UpdateInvestment(ctx context.Context, userID, id string, patch core.InvestmentPatch) (core.Investment, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTimestamp(time.Now().UTC())}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, *patch.Type)
	}
	if patch.Quantity != nil {
		quantity := core.RoundQuantity(*patch.Quantity)
		if !quantity.IsPositive() {
			return core.Investment{}, core.ErrInvalidQuantity
		}
		sets = append(sets, "quantity = ?")
		args = append(args, quantity.String())
	}
	if patch.PurchasePrice != nil {
		price := core.RoundAmount(*patch.PurchasePrice)
		if !price.IsPositive() {
			return core.Investment{}, core.ErrInvalidAmount
		}
		sets = append(sets, "purchase_price = ?")
		args = append(args, price.String())
	}
	if patch.CurrentValue != nil {
		value := core.RoundAmount(*patch.CurrentValue)
		if value.IsNegative() {
			return core.Investment{}, core.ErrInvalidAmount
		}
		sets = append(sets, "current_value = ?")
		args = append(args, value.String())
	}
	if patch.PurchaseDate != nil {
		sets = append(sets, "purchase_date = ?")
		args = append(args, patch.PurchaseDate.String())
	}

	args = append(args, id, userID)
	query := "UPDATE investments SET " + strings.Join(sets, ", ") +
		" WHERE id = ? AND user_id = ?"
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Investment{}, fmt.Errorf("update investment: %w", err)
	}
	if err := checkRowAffected(res); err != nil {
		return core.Investment{}, err
	}
	return r.GetInvestment(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteInvestment(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM investments WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete investment: %w", err)
	}
	return checkRowAffected(res)
}

// --- Debts ---

func (r *SQLiteRepository) CreateDebt(ctx context.Context, d core.Debt) (core.Debt, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return core.Debt{}, err
	}
	d.ID = uuid.New().String()
	now := time.Now().UTC()
	d.CreatedAt, d.UpdatedAt = now, now

	var due *string
	if d.DueDate != nil {
		s := d.DueDate.String()
		due = &s
	}

	const query = `
		INSERT INTO debts
			(id, user_id, lender, debt_type, original_amount, current_balance,
			 interest_rate, minimum_payment, due_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query, d.ID, d.UserID, d.Lender, d.DebtType,
		d.OriginalAmount.String(), d.CurrentBalance.String(),
		d.InterestRate.String(), d.MinimumPayment.String(), due,
		formatTimestamp(d.CreatedAt), formatTimestamp(d.UpdatedAt))
	if err != nil {
		return core.Debt{}, fmt.Errorf("insert debt: %w", err)
	}
	return d, nil
}

func (r *SQLiteRepository) GetDebt(ctx context.Context, userID, id string) (core.Debt, error) {
	const query = `
		SELECT id, user_id, lender, debt_type, original_amount, current_balance,
		       interest_rate, minimum_payment, due_date, created_at, updated_at
		FROM debts
		WHERE id = ? AND user_id = ?
	`
	return scanDebt(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *SQLiteRepository) UpdateDebt(ctx context.Context, userID, id string, patch core.DebtPatch) (core.Debt, error) {
	sets := []string{"updated_at = ?"}
	args := []any{formatTimestamp(time.Now().UTC())}

	if patch.Lender != nil {
		sets = append(sets, "lender = ?")
		args = append(args, *patch.Lender)
	}
	if patch.DebtType != nil {
		sets = append(sets, "debt_type = ?")
		args = append(args, *patch.DebtType)
	}
	if patch.OriginalAmount != nil {
		amount := core.RoundAmount(*patch.OriginalAmount)
		if !amount.IsPositive() {
			return core.Debt{}, core.ErrInvalidAmount
		}
		sets = append(sets, "original_amount = ?")
		args = append(args, amount.String())
	}
	if patch.CurrentBalance != nil {
		balance := core.RoundAmount(*patch.CurrentBalance)
		if balance.IsNegative() {
			return core.Debt{}, core.ErrInvalidAmount
		}
		sets = append(sets, "current_balance = ?")
		args = append(args, balance.String())
	}
	if patch.InterestRate != nil {
		if patch.InterestRate.IsNegative() {
			return core.Debt{}, core.ErrInvalidAmount
		}
		sets = append(sets, "interest_rate = ?")
		args = append(args, patch.InterestRate.String())
	}
	if patch.MinimumPayment != nil {
		payment := core.RoundAmount(*patch.MinimumPayment)
		if payment.IsNegative() {
			return core.Debt{}, core.ErrInvalidAmount
		}
		sets = append(sets, "minimum_payment = ?")
		args = append(args, payment.String())
	}
	switch {
	case patch.ClearDueDate:
		sets = append(sets, "due_date = NULL")
	case patch.DueDate != nil:
		sets = append(sets, "due_date = ?")
		args = append(args, patch.DueDate.String())
	}

	args = append(args, id, userID)
	query := "UPDATE debts SET " + strings.Join(sets, ", ") +
		" WHERE id = ? AND user_id = ?"
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Debt{}, fmt.Errorf("update debt: %w", err)
	}
	if err := checkRowAffected(res); err != nil {
		return core.Debt{}, err
	}
	return r.GetDebt(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteDebt(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM debts WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete debt: %w", err)
	}
	return checkRowAffected(res)
}
