package report

import (
	"context"
	"testing"

	"fintrack/internal/core"
)

func TestBudgetPerformanceOverallBudget(t *testing.T) {
	store := &fakeStore{
		categories: map[string]string{"cat-food": "Food", "cat-transport": "Transport"},
		transactions: []core.Transaction{
			tx("user-1", "cat-food", core.Expense, "400.00", core.NewDate(2025, 1, 5)),
			tx("user-1", "cat-transport", core.Expense, "250.00", core.NewDate(2025, 1, 12)),
		},
		budgets: []core.Budget{{
			UserID:    "user-1",
			Name:      "Monthly overall",
			Amount:    d("3000"),
			Period:    core.Monthly,
			StartDate: core.NewDate(2025, 1, 1),
			EndDate:   core.NewDate(2025, 1, 31),
		}},
	}
	svc := NewService(store)

	got, err := svc.BudgetPerformance(context.Background(), "user-1",
		core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	if err != nil {
		t.Fatalf("BudgetPerformance: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d budgets, want 1", len(got))
	}

	perf := got[0]
	if !perf.SpentAmount.Equal(d("650")) {
		t.Errorf("spent = %s, want 650", perf.SpentAmount)
	}
	if !perf.RemainingAmount.Equal(d("2350")) {
		t.Errorf("remaining = %s, want 2350", perf.RemainingAmount)
	}
	if perf.PercentageUsed != 21.67 {
		t.Errorf("percentage used = %v, want 21.67", perf.PercentageUsed)
	}
}

func TestBudgetPerformanceCategoryScoped(t *testing.T) {
	store := &fakeStore{
		categories: map[string]string{"cat-food": "Food", "cat-transport": "Transport"},
		transactions: []core.Transaction{
			tx("user-1", "cat-food", core.Expense, "120.00", core.NewDate(2025, 1, 5)),
			tx("user-1", "cat-transport", core.Expense, "900.00", core.NewDate(2025, 1, 12)),
		},
		budgets: []core.Budget{{
			UserID:     "user-1",
			Name:       "Food budget",
			CategoryID: strptr("cat-food"),
			Amount:     d("400"),
			Period:     core.Monthly,
			StartDate:  core.NewDate(2025, 1, 1),
			EndDate:    core.NewDate(2025, 1, 31),
		}},
	}
	svc := NewService(store)

	got, err := svc.BudgetPerformance(context.Background(), "user-1",
		core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	if err != nil {
		t.Fatalf("BudgetPerformance: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d budgets, want 1", len(got))
	}
	// The 900 transport expense must not count against the food budget.
	if !got[0].SpentAmount.Equal(d("120")) {
		t.Errorf("spent = %s, want 120", got[0].SpentAmount)
	}
	if got[0].PercentageUsed != 30 {
		t.Errorf("percentage used = %v, want 30", got[0].PercentageUsed)
	}
}

func TestBudgetPerformanceOverspend(t *testing.T) {
	store := &fakeStore{
		categories: map[string]string{"cat-food": "Food"},
		transactions: []core.Transaction{
			tx("user-1", "cat-food", core.Expense, "450.00", core.NewDate(2025, 1, 15)),
		},
		budgets: []core.Budget{{
			UserID:    "user-1",
			Name:      "Tight budget",
			Amount:    d("300"),
			Period:    core.Monthly,
			StartDate: core.NewDate(2025, 1, 1),
			EndDate:   core.NewDate(2025, 1, 31),
		}},
	}
	svc := NewService(store)

	got, err := svc.BudgetPerformance(context.Background(), "user-1",
		core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	if err != nil {
		t.Fatalf("BudgetPerformance: %v", err)
	}
	if !got[0].RemainingAmount.Equal(d("-150")) {
		t.Errorf("remaining = %s, want -150", got[0].RemainingAmount)
	}
	if got[0].PercentageUsed != 150 {
		t.Errorf("percentage used = %v, want 150", got[0].PercentageUsed)
	}
}

func TestBudgetPerformanceNonOverlappingExcluded(t *testing.T) {
	store := &fakeStore{
		budgets: []core.Budget{{
			UserID:    "user-1",
			Name:      "December budget",
			Amount:    d("500"),
			Period:    core.Monthly,
			StartDate: core.NewDate(2024, 12, 1),
			EndDate:   core.NewDate(2024, 12, 31),
		}},
	}
	svc := NewService(store)

	got, err := svc.BudgetPerformance(context.Background(), "user-1",
		core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	if err != nil {
		t.Fatalf("BudgetPerformance: %v", err)
	}
	// Excluded entirely, not reported with zero spend.
	if len(got) != 0 {
		t.Errorf("got %d budgets, want 0: %+v", len(got), got)
	}
}

func TestBudgetPerformancePartialOverlapUsesReportingPeriod(t *testing.T) {
	store := &fakeStore{
		categories: map[string]string{"cat-food": "Food"},
		transactions: []core.Transaction{
			// Inside both windows.
			tx("user-1", "cat-food", core.Expense, "100.00", core.NewDate(2025, 1, 10)),
			// Inside the budget window but outside the reporting period.
			tx("user-1", "cat-food", core.Expense, "70.00", core.NewDate(2025, 2, 10)),
		},
		budgets: []core.Budget{{
			UserID:    "user-1",
			Name:      "Quarter budget",
			Amount:    d("1000"),
			Period:    core.Monthly,
			StartDate: core.NewDate(2025, 1, 1),
			EndDate:   core.NewDate(2025, 3, 31),
		}},
	}
	svc := NewService(store)

	got, err := svc.BudgetPerformance(context.Background(), "user-1",
		core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	if err != nil {
		t.Fatalf("BudgetPerformance: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d budgets, want 1", len(got))
	}
	// Spend covers only the reporting period, never the wider budget window.
	if !got[0].SpentAmount.Equal(d("100")) {
		t.Errorf("spent = %s, want 100", got[0].SpentAmount)
	}
}

func TestBudgetPerformanceManyBudgets(t *testing.T) {
	// More budgets than the fan-out limit; order of results must still match
	// the store's budget order.
	store := &fakeStore{
		categories: map[string]string{"cat-a": "A"},
	}
	for i := 0; i < 10; i++ {
		store.budgets = append(store.budgets, core.Budget{
			UserID:    "user-1",
			Name:      string(rune('a' + i)),
			Amount:    d("100"),
			Period:    core.Monthly,
			StartDate: core.NewDate(2025, 1, 1),
			EndDate:   core.NewDate(2025, 1, 31),
		})
	}
	svc := NewService(store)

	got, err := svc.BudgetPerformance(context.Background(), "user-1",
		core.NewDate(2025, 1, 1), core.NewDate(2025, 1, 31))
	if err != nil {
		t.Fatalf("BudgetPerformance: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("got %d budgets, want 10", len(got))
	}
	for i, perf := range got {
		if want := string(rune('a' + i)); perf.BudgetName != want {
			t.Errorf("budget %d name = %s, want %s", i, perf.BudgetName, want)
		}
	}
}
