package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Income  TransactionKind = "income"
	Expense TransactionKind = "expense"
)

const (
	Weekly  PeriodType = "weekly"
	Monthly PeriodType = "monthly"
	Yearly  PeriodType = "yearly"
)

type (
	// TransactionKind classifies a transaction as money in or money out.
	TransactionKind string

	// PeriodType is a descriptive label on a budget. It does not drive any
	// date computation; the budget window is always [StartDate, EndDate].
	PeriodType string

	// Date is a calendar date with no time component, normalized to UTC
	// midnight. Stored and serialized as YYYY-MM-DD.
	Date struct {
		time.Time
	}

	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		Amount      decimal.Decimal `json:"amount"`
		Description string          `json:"description"`
		Kind        TransactionKind `json:"kind"`
		CategoryID  string          `json:"category_id"`
		Date        Date            `json:"transaction_date"`
		CreatedAt   time.Time       `json:"created_at"`
		UpdatedAt   time.Time       `json:"updated_at"`
	}

	Category struct {
		ID        string          `json:"id"`
		UserID    string          `json:"user_id"`
		Name      string          `json:"name"`
		Kind      TransactionKind `json:"kind"`
		CreatedAt time.Time       `json:"created_at"`
	}

	// Budget caps spending over its own [StartDate, EndDate] window. A nil
	// CategoryID means an overall budget spanning all expense categories.
	Budget struct {
		ID         string          `json:"id"`
		UserID     string          `json:"user_id"`
		Name       string          `json:"name"`
		CategoryID *string         `json:"category_id"`
		Amount     decimal.Decimal `json:"budget_amount"`
		Period     PeriodType      `json:"period_type"`
		StartDate  Date            `json:"start_date"`
		EndDate    Date            `json:"end_date"`
		CreatedAt  time.Time       `json:"created_at"`
		UpdatedAt  time.Time       `json:"updated_at"`
	}

	// Investment holds a position snapshot. Quantity carries up to eight
	// fractional digits for fractional share and crypto units. CurrentValue
	// is the total position value, not per unit.
	Investment struct {
		ID            string          `json:"id"`
		UserID        string          `json:"user_id"`
		Name          string          `json:"name"`
		Type          string          `json:"type"`
		Quantity      decimal.Decimal `json:"quantity"`
		PurchasePrice decimal.Decimal `json:"purchase_price"`
		CurrentValue  decimal.Decimal `json:"current_value"`
		PurchaseDate  Date            `json:"purchase_date"`
		CreatedAt     time.Time       `json:"created_at"`
		UpdatedAt     time.Time       `json:"updated_at"`
	}

	Debt struct {
		ID             string          `json:"id"`
		UserID         string          `json:"user_id"`
		Lender         string          `json:"lender"`
		DebtType       string          `json:"debt_type"`
		OriginalAmount decimal.Decimal `json:"original_amount"`
		CurrentBalance decimal.Decimal `json:"current_balance"`
		InterestRate   decimal.Decimal `json:"interest_rate"`
		MinimumPayment decimal.Decimal `json:"minimum_payment"`
		DueDate        *Date           `json:"due_date"`
		CreatedAt      time.Time       `json:"created_at"`
		UpdatedAt      time.Time       `json:"updated_at"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidQuantity = errors.New("invalid quantity")
	ErrInvalidKind     = errors.New("invalid transaction kind")
	ErrInvalidPeriod   = errors.New("invalid period type")
	ErrInvalidWindow   = errors.New("end date before start date")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyName       = errors.New("empty name")
	ErrEmptyLender     = errors.New("empty lender")
	ErrEmptyCategory   = errors.New("empty category")
	ErrKindMismatch    = errors.New("category kind does not match transaction kind")
	ErrNotFound        = errors.New("record not found")
)

const dateLayout = "2006-01-02"

// NewDate creates a Date from year, month and day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	return d.Format(dateLayout)
}

// OnOrBefore reports whether d <= other.
func (d Date) OnOrBefore(other Date) bool {
	return !d.Time.After(other.Time)
}

// OnOrAfter reports whether d >= other.
func (d Date) OnOrAfter(other Date) bool {
	return !d.Time.Before(other.Time)
}

// In reports whether d falls within the inclusive [from, to] range.
func (d Date) In(from, to Date) bool {
	return d.OnOrAfter(from) && d.OnOrBefore(to)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	parsed, err := ParseDate(strings.Trim(string(b), `"`))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func (k TransactionKind) Validate() error {
	switch k {
	case Income, Expense:
		return nil
	default:
		return ErrInvalidKind
	}
}

func (p PeriodType) Validate() error {
	switch p {
	case Weekly, Monthly, Yearly:
		return nil
	default:
		return ErrInvalidPeriod
	}
}

// Normalize rounds the amount to two fractional digits. Called before
// Validate on every write path so over-precise input is stored with the same
// scale it is reported with.
func (t *Transaction) Normalize() {
	t.Amount = RoundAmount(t.Amount)
}

func (t Transaction) Validate() error {
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := t.Kind.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.CategoryID) == "" {
		return ErrEmptyCategory
	}
	if t.Date.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return c.Kind.Validate()
}

// Normalize rounds the budget cap to two fractional digits.
func (b *Budget) Normalize() {
	b.Amount = RoundAmount(b.Amount)
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Name) == "" {
		return ErrEmptyName
	}
	if !b.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if err := b.Period.Validate(); err != nil {
		return err
	}
	if b.StartDate.IsZero() || b.EndDate.IsZero() {
		return ErrInvalidDate
	}
	if b.EndDate.Time.Before(b.StartDate.Time) {
		return ErrInvalidWindow
	}
	return nil
}

// Overlaps reports whether the budget window intersects the inclusive
// [from, to] reporting period. Overlap, not containment: a budget partially
// covering the period still counts.
func (b Budget) Overlaps(from, to Date) bool {
	return b.StartDate.OnOrBefore(to) && b.EndDate.OnOrAfter(from)
}

// Normalize rounds the quantity to eight fractional digits and the monetary
// fields to two.
func (i *Investment) Normalize() {
	i.Quantity = RoundQuantity(i.Quantity)
	i.PurchasePrice = RoundAmount(i.PurchasePrice)
	i.CurrentValue = RoundAmount(i.CurrentValue)
}

func (i Investment) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if !i.Quantity.IsPositive() {
		return ErrInvalidQuantity
	}
	if !i.PurchasePrice.IsPositive() {
		return ErrInvalidAmount
	}
	if i.CurrentValue.IsNegative() {
		return ErrInvalidAmount
	}
	if i.PurchaseDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// Normalize rounds the monetary fields to two fractional digits. The interest
// rate is a percentage, not money, and keeps whatever precision it came with.
func (d *Debt) Normalize() {
	d.OriginalAmount = RoundAmount(d.OriginalAmount)
	d.CurrentBalance = RoundAmount(d.CurrentBalance)
	d.MinimumPayment = RoundAmount(d.MinimumPayment)
}

func (d Debt) Validate() error {
	if strings.TrimSpace(d.Lender) == "" {
		return ErrEmptyLender
	}
	if !d.OriginalAmount.IsPositive() {
		return ErrInvalidAmount
	}
	if d.CurrentBalance.IsNegative() {
		return ErrInvalidAmount
	}
	if d.InterestRate.IsNegative() {
		return ErrInvalidAmount
	}
	if d.MinimumPayment.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}
