// Package events describes the notifications emitted when a household's
// expense list changes.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Event types, also used as AMQP routing keys.
const (
	TypeExpenseCreated = "expense.created"
	TypeExpenseSettled = "expense.settled"
)

// Event is a lightweight notification; consumers fetch full records through the API.
type Event struct {
	Type        string    `json:"type"`
	HouseholdID string    `json:"household_id"`
	ExpenseID   string    `json:"expense_id"`
	Amount      float64   `json:"amount"`
	PaidBy      string    `json:"paid_by"`
	Timestamp   time.Time `json:"timestamp"`
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
