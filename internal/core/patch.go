package core

import "github.com/shopspring/decimal"

// Sparse update payloads. Each pointer field is applied only when non-nil so
// "update only provided fields" keeps compile-time safety instead of a
// loosely typed map. Clear flags cover the nullable columns where "set to
// null" and "not provided" must stay distinguishable.

type TransactionPatch struct {
	Amount      *decimal.Decimal `json:"amount"`
	Description *string          `json:"description"`
	Kind        *TransactionKind `json:"kind"`
	CategoryID  *string          `json:"category_id"`
	Date        *Date            `json:"transaction_date"`
}

type BudgetPatch struct {
	Name          *string          `json:"name"`
	CategoryID    *string          `json:"category_id"`
	ClearCategory bool             `json:"clear_category"`
	Amount        *decimal.Decimal `json:"budget_amount"`
	Period        *PeriodType      `json:"period_type"`
	StartDate     *Date            `json:"start_date"`
	EndDate       *Date            `json:"end_date"`
}

type InvestmentPatch struct {
	Name          *string          `json:"name"`
	Type          *string          `json:"type"`
	Quantity      *decimal.Decimal `json:"quantity"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	CurrentValue  *decimal.Decimal `json:"current_value"`
	PurchaseDate  *Date            `json:"purchase_date"`
}

type DebtPatch struct {
	Lender         *string          `json:"lender"`
	DebtType       *string          `json:"debt_type"`
	OriginalAmount *decimal.Decimal `json:"original_amount"`
	CurrentBalance *decimal.Decimal `json:"current_balance"`
	InterestRate   *decimal.Decimal `json:"interest_rate"`
	MinimumPayment *decimal.Decimal `json:"minimum_payment"`
	DueDate        *Date            `json:"due_date"`
	ClearDueDate   bool             `json:"clear_due_date"`
}

// IsEmpty reports whether no field is set.
func (p TransactionPatch) IsEmpty() bool {
	return p.Amount == nil && p.Description == nil && p.Kind == nil &&
		p.CategoryID == nil && p.Date == nil
}

func (p BudgetPatch) IsEmpty() bool {
	return p.Name == nil && p.CategoryID == nil && !p.ClearCategory &&
		p.Amount == nil && p.Period == nil && p.StartDate == nil && p.EndDate == nil
}

func (p InvestmentPatch) IsEmpty() bool {
	return p.Name == nil && p.Type == nil && p.Quantity == nil &&
		p.PurchasePrice == nil && p.CurrentValue == nil && p.PurchaseDate == nil
}

func (p DebtPatch) IsEmpty() bool {
	return p.Lender == nil && p.DebtType == nil && p.OriginalAmount == nil &&
		p.CurrentBalance == nil && p.InterestRate == nil &&
		p.MinimumPayment == nil && p.DueDate == nil && !p.ClearDueDate
}
