package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack-test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func seedCategory(t *testing.T, repo *SQLiteRepository, userID, name string, kind core.TransactionKind) core.Category {
	t.Helper()
	c, err := repo.CreateCategory(context.Background(), core.Category{
		UserID: userID,
		Name:   name,
		Kind:   kind,
	})
	if err != nil {
		t.Fatalf("seed category %s: %v", name, err)
	}
	return c
}

func seedExpense(t *testing.T, repo *SQLiteRepository, userID, categoryID, amount string, date core.Date) core.Transaction {
	t.Helper()
	tx, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID:      userID,
		Amount:      d(amount),
		Description: "seed",
		Kind:        core.Expense,
		CategoryID:  categoryID,
		Date:        date,
	})
	if err != nil {
		t.Fatalf("seed expense: %v", err)
	}
	return tx
}

func TestTransactionRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "user-1", "Food", core.Expense)

	created, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:      "user-1",
		Amount:      d("12.30"),
		Description: "lunch",
		Kind:        core.Expense,
		CategoryID:  food.ID,
		Date:        core.NewDate(2025, 1, 15),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created transaction has no id")
	}

	got, err := repo.GetTransaction(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if !got.Amount.Equal(d("12.30")) {
		t.Errorf("amount = %s, want 12.30", got.Amount)
	}
	if got.Description != "lunch" || got.Kind != core.Expense || got.CategoryID != food.ID {
		t.Errorf("roundtrip mismatch: %+v", got)
	}
	if got.Date.String() != "2025-01-15" {
		t.Errorf("date = %s, want 2025-01-15", got.Date)
	}

	// Other users never see it.
	if _, err := repo.GetTransaction(ctx, "user-2", created.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("cross-user get error = %v, want ErrNotFound", err)
	}
}

func TestCreateTransactionKindMismatch(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	salary := seedCategory(t, repo, "user-1", "Salary", core.Income)

	_, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:     "user-1",
		Amount:     d("50"),
		Kind:       core.Expense,
		CategoryID: salary.ID,
		Date:       core.NewDate(2025, 1, 2),
	})
	if !errors.Is(err, core.ErrKindMismatch) {
		t.Errorf("error = %v, want ErrKindMismatch", err)
	}
}

func TestCreateTransactionUnknownCategory(t *testing.T) {
	repo := newTestRepo(t)

	_, err := repo.CreateTransaction(context.Background(), core.Transaction{
		UserID:     "user-1",
		Amount:     d("50"),
		Kind:       core.Expense,
		CategoryID: "no-such-category",
		Date:       core.NewDate(2025, 1, 2),
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestListTransactionsInclusiveRange(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "user-1", "Food", core.Expense)

	seedExpense(t, repo, "user-1", food.ID, "10", core.NewDate(2024, 12, 31))
	first := seedExpense(t, repo, "user-1", food.ID, "20", core.NewDate(2025, 1, 1))
	last := seedExpense(t, repo, "user-1", food.ID, "30", core.NewDate(2025, 1, 31))
	seedExpense(t, repo, "user-1", food.ID, "40", core.NewDate(2025, 2, 1))

	from := core.NewDate(2025, 1, 1)
	to := core.NewDate(2025, 1, 31)
	got, err := repo.ListTransactions(ctx, "user-1", &from, &to)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d transactions, want 2 (boundary days included)", len(got))
	}
	ids := map[string]bool{got[0].ID: true, got[1].ID: true}
	if !ids[first.ID] || !ids[last.ID] {
		t.Errorf("range returned wrong rows: %+v", got)
	}

	all, err := repo.ListTransactions(ctx, "user-1", nil, nil)
	if err != nil {
		t.Fatalf("ListTransactions unbounded: %v", err)
	}
	if len(all) != 4 {
		t.Errorf("unbounded list = %d rows, want 4", len(all))
	}
}

func TestUpdateTransactionSparse(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "user-1", "Food", core.Expense)
	tx := seedExpense(t, repo, "user-1", food.ID, "15.00", core.NewDate(2025, 1, 10))

	amount := d("18.50")
	updated, err := repo.UpdateTransaction(ctx, "user-1", tx.ID, core.TransactionPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if !updated.Amount.Equal(amount) {
		t.Errorf("amount = %s, want 18.50", updated.Amount)
	}
	// Untouched fields survive.
	if updated.Description != tx.Description || updated.CategoryID != tx.CategoryID {
		t.Errorf("sparse update clobbered fields: %+v", updated)
	}

	bad := d("-1")
	if _, err := repo.UpdateTransaction(ctx, "user-1", tx.ID, core.TransactionPatch{Amount: &bad}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("negative amount error = %v, want ErrInvalidAmount", err)
	}

	if _, err := repo.UpdateTransaction(ctx, "user-1", "missing", core.TransactionPatch{Amount: &amount}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing id error = %v, want ErrNotFound", err)
	}
}

func TestCreateTransactionRoundsAmount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "user-1", "Food", core.Expense)

	created, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:      "user-1",
		Amount:      d("10.005"),
		Description: "over-precise",
		Kind:        core.Expense,
		CategoryID:  food.ID,
		Date:        core.NewDate(2025, 1, 15),
	})
	if err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
	if created.Amount.String() != "10.01" {
		t.Errorf("created amount = %s, want 10.01", created.Amount)
	}

	// The stored row carries the rounded value, not the raw input.
	got, err := repo.GetTransaction(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}
	if got.Amount.String() != "10.01" {
		t.Errorf("stored amount = %s, want 10.01", got.Amount)
	}

	// Rounding happens before the positivity check: a value that rounds to
	// zero is rejected.
	_, err = repo.CreateTransaction(ctx, core.Transaction{
		UserID:     "user-1",
		Amount:     d("0.004"),
		Kind:       core.Expense,
		CategoryID: food.ID,
		Date:       core.NewDate(2025, 1, 15),
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Errorf("sub-cent amount error = %v, want ErrInvalidAmount", err)
	}
}

func TestUpdateTransactionRoundsAmount(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "user-1", "Food", core.Expense)
	tx := seedExpense(t, repo, "user-1", food.ID, "15.00", core.NewDate(2025, 1, 10))

	amount := d("18.509")
	updated, err := repo.UpdateTransaction(ctx, "user-1", tx.ID, core.TransactionPatch{Amount: &amount})
	if err != nil {
		t.Fatalf("UpdateTransaction: %v", err)
	}
	if updated.Amount.String() != "18.51" {
		t.Errorf("patched amount = %s, want 18.51", updated.Amount)
	}
}

func TestInvestmentWriteRoundsScales(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateInvestment(ctx, core.Investment{
		UserID:        "user-1",
		Name:          "BTC",
		Type:          "crypto",
		Quantity:      d("0.123456789"),
		PurchasePrice: d("1500.999"),
		CurrentValue:  d("1800.005"),
		PurchaseDate:  core.NewDate(2024, 6, 1),
	})
	if err != nil {
		t.Fatalf("CreateInvestment: %v", err)
	}
	if created.Quantity.String() != "0.12345679" {
		t.Errorf("quantity = %s, want 0.12345679 (ninth digit rounds)", created.Quantity)
	}
	if created.PurchasePrice.String() != "1501" || created.CurrentValue.String() != "1800.01" {
		t.Errorf("prices = %s/%s, want 1501/1800.01", created.PurchasePrice, created.CurrentValue)
	}

	quantity := d("0.999999995")
	updated, err := repo.UpdateInvestment(ctx, "user-1", created.ID,
		core.InvestmentPatch{Quantity: &quantity})
	if err != nil {
		t.Fatalf("UpdateInvestment: %v", err)
	}
	if updated.Quantity.String() != "1" {
		t.Errorf("patched quantity = %s, want 1", updated.Quantity)
	}
}

func TestDeleteTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "user-1", "Food", core.Expense)
	tx := seedExpense(t, repo, "user-1", food.ID, "9.99", core.NewDate(2025, 1, 3))

	if err := repo.DeleteTransaction(ctx, "user-1", tx.ID); err != nil {
		t.Fatalf("DeleteTransaction: %v", err)
	}
	if err := repo.DeleteTransaction(ctx, "user-1", tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestBudgetClearCategory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "user-1", "Food", core.Expense)

	b, err := repo.CreateBudget(ctx, core.Budget{
		UserID:     "user-1",
		Name:       "Food budget",
		CategoryID: &food.ID,
		Amount:     d("400"),
		Period:     core.Monthly,
		StartDate:  core.NewDate(2025, 1, 1),
		EndDate:    core.NewDate(2025, 1, 31),
	})
	if err != nil {
		t.Fatalf("CreateBudget: %v", err)
	}
	if b.CategoryID == nil || *b.CategoryID != food.ID {
		t.Fatalf("created budget category = %v, want %s", b.CategoryID, food.ID)
	}

	updated, err := repo.UpdateBudget(ctx, "user-1", b.ID, core.BudgetPatch{ClearCategory: true})
	if err != nil {
		t.Fatalf("UpdateBudget: %v", err)
	}
	if updated.CategoryID != nil {
		t.Errorf("category after clear = %v, want nil (overall budget)", *updated.CategoryID)
	}
}

func TestBudgetsOverlapping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mk := func(name string, start, end core.Date) {
		t.Helper()
		if _, err := repo.CreateBudget(ctx, core.Budget{
			UserID:    "user-1",
			Name:      name,
			Amount:    d("100"),
			Period:    core.Monthly,
			StartDate: start,
			EndDate:   end,
		}); err != nil {
			t.Fatalf("CreateBudget %s: %v", name, err)
		}
	}
	mk("december", core.NewDate(2024, 12, 1), core.NewDate(2024, 12, 31))
	mk("ends on period start", core.NewDate(2024, 12, 15), core.NewDate(2025, 1, 1))
	mk("january", core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	mk("starts on period end", core.NewDate(2025, 1, 31), core.NewDate(2025, 3, 1))
	mk("february", core.NewDate(2025, 2, 1), core.NewDate(2025, 2, 28))

	got, err := repo.BudgetsOverlapping(ctx, "user-1",
		core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	if err != nil {
		t.Fatalf("BudgetsOverlapping: %v", err)
	}

	names := make(map[string]bool, len(got))
	for _, b := range got {
		names[b.Name] = true
	}
	for _, want := range []string{"ends on period start", "january", "starts on period end"} {
		if !names[want] {
			t.Errorf("budget %q missing from overlap result", want)
		}
	}
	if len(got) != 3 {
		t.Errorf("got %d overlapping budgets, want 3: %v", len(got), names)
	}
}

func TestExpenseTotalScoping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	food := seedCategory(t, repo, "user-1", "Food", core.Expense)
	transport := seedCategory(t, repo, "user-1", "Transport", core.Expense)
	salary := seedCategory(t, repo, "user-1", "Salary", core.Income)

	seedExpense(t, repo, "user-1", food.ID, "100.10", core.NewDate(2025, 1, 5))
	seedExpense(t, repo, "user-1", food.ID, "149.90", core.NewDate(2025, 1, 18))
	seedExpense(t, repo, "user-1", transport.ID, "50.00", core.NewDate(2025, 1, 22))
	if _, err := repo.CreateTransaction(ctx, core.Transaction{
		UserID:     "user-1",
		Amount:     d("5000"),
		Kind:       core.Income,
		CategoryID: salary.ID,
		Date:       core.NewDate(2025, 1, 1),
	}); err != nil {
		t.Fatalf("seed income: %v", err)
	}

	from := core.NewDate(2025, 1, 1)
	to := core.NewDate(2025, 1, 31)

	overall, err := repo.ExpenseTotal(ctx, "user-1", nil, from, to)
	if err != nil {
		t.Fatalf("ExpenseTotal overall: %v", err)
	}
	if !overall.Equal(d("300")) {
		t.Errorf("overall total = %s, want 300 (income excluded)", overall)
	}

	scoped, err := repo.ExpenseTotal(ctx, "user-1", &food.ID, from, to)
	if err != nil {
		t.Fatalf("ExpenseTotal scoped: %v", err)
	}
	if !scoped.Equal(d("250")) {
		t.Errorf("food total = %s, want 250", scoped)
	}

	empty, err := repo.ExpenseTotal(ctx, "user-1", nil,
		core.NewDate(2030, 1, 1), core.NewDate(2030, 1, 31))
	if err != nil {
		t.Fatalf("ExpenseTotal empty period: %v", err)
	}
	if !empty.IsZero() {
		t.Errorf("empty period total = %s, want 0", empty)
	}
}

func TestInvestmentRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	created, err := repo.CreateInvestment(ctx, core.Investment{
		UserID:        "user-1",
		Name:          "BTC",
		Type:          "crypto",
		Quantity:      d("0.04215678"),
		PurchasePrice: d("1500.00"),
		CurrentValue:  d("1800.00"),
		PurchaseDate:  core.NewDate(2024, 6, 1),
	})
	if err != nil {
		t.Fatalf("CreateInvestment: %v", err)
	}

	got, err := repo.GetInvestment(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("GetInvestment: %v", err)
	}
	if !got.Quantity.Equal(d("0.04215678")) {
		t.Errorf("quantity = %s, want 0.04215678 (eight decimals survive)", got.Quantity)
	}

	value := d("1650.25")
	updated, err := repo.UpdateInvestment(ctx, "user-1", created.ID,
		core.InvestmentPatch{CurrentValue: &value})
	if err != nil {
		t.Fatalf("UpdateInvestment: %v", err)
	}
	if !updated.CurrentValue.Equal(value) {
		t.Errorf("current value = %s, want 1650.25", updated.CurrentValue)
	}
	if !updated.Quantity.Equal(got.Quantity) {
		t.Errorf("sparse update changed quantity: %s", updated.Quantity)
	}
}

func TestDebtDueDateRoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	due := core.NewDate(2026, 5, 1)
	created, err := repo.CreateDebt(ctx, core.Debt{
		UserID:         "user-1",
		Lender:         "Bank",
		DebtType:       "loan",
		OriginalAmount: d("10000"),
		CurrentBalance: d("7500.50"),
		InterestRate:   d("4.5"),
		MinimumPayment: d("250"),
		DueDate:        &due,
	})
	if err != nil {
		t.Fatalf("CreateDebt: %v", err)
	}

	got, err := repo.GetDebt(ctx, "user-1", created.ID)
	if err != nil {
		t.Fatalf("GetDebt: %v", err)
	}
	if got.DueDate == nil || got.DueDate.String() != "2026-05-01" {
		t.Errorf("due date = %v, want 2026-05-01", got.DueDate)
	}

	updated, err := repo.UpdateDebt(ctx, "user-1", created.ID, core.DebtPatch{ClearDueDate: true})
	if err != nil {
		t.Fatalf("UpdateDebt: %v", err)
	}
	if updated.DueDate != nil {
		t.Errorf("due date after clear = %v, want nil", updated.DueDate)
	}
}

func TestActiveBudgetUserIDs(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	mk := func(userID, name string) {
		t.Helper()
		if _, err := repo.CreateBudget(ctx, core.Budget{
			UserID:    userID,
			Name:      name,
			Amount:    d("100"),
			Period:    core.Monthly,
			StartDate: core.NewDate(2025, 1, 1),
			EndDate:   core.NewDate(2025, 1, 31),
		}); err != nil {
			t.Fatalf("CreateBudget: %v", err)
		}
	}
	mk("user-b", "one")
	mk("user-a", "two")
	mk("user-b", "three")

	got, err := repo.ActiveBudgetUserIDs(ctx)
	if err != nil {
		t.Fatalf("ActiveBudgetUserIDs: %v", err)
	}
	if len(got) != 2 || got[0] != "user-a" || got[1] != "user-b" {
		t.Errorf("users = %v, want [user-a user-b]", got)
	}
}
