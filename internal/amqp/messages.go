package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// BudgetAlertMessage notifies downstream consumers (mailers, bots) that a
// budget crossed the usage threshold during the evaluated period. Monetary
// fields travel as decimal strings to keep the wire format exact.
type BudgetAlertMessage struct {
	UserID         string    `json:"user_id"`
	BudgetName     string    `json:"budget_name"`
	PeriodStart    string    `json:"period_start"`
	PeriodEnd      string    `json:"period_end"`
	BudgetAmount   string    `json:"budget_amount"`
	SpentAmount    string    `json:"spent_amount"`
	PercentageUsed float64   `json:"percentage_used"`
	IssuedAt       time.Time `json:"issued_at"`
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal budget alert message: %w", err)
	}
	if msg.UserID == "" || msg.BudgetName == "" {
		return nil, fmt.Errorf("budget alert message missing user or budget")
	}
	if _, err := core.ParseAmount(msg.BudgetAmount); err != nil {
		return nil, fmt.Errorf("budget alert message budget amount %q: %w", msg.BudgetAmount, err)
	}
	if _, err := core.ParseNonNegativeAmount(msg.SpentAmount); err != nil {
		return nil, fmt.Errorf("budget alert message spent amount %q: %w", msg.SpentAmount, err)
	}
	return &msg, nil
}
