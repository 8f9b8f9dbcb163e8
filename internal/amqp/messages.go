package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"ledger/internal/core"
)

// Journal operations.
const (
	OpCreated = "created"
	OpUpdated = "updated"
	OpDeleted = "deleted"
)

// TransactionSnapshot is the wire form of a transaction. Amounts travel as
// fixed two-decimal strings so no float ever touches money.
type TransactionSnapshot struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	AccountID   string `json:"account_id"`
	CategoryID  string `json:"category_id"`
	Name        string `json:"name"`
	Amount      string `json:"amount"`
	Date        string `json:"date"`
	Type        string `json:"type"`
	IsRecurring bool   `json:"is_recurring"`
	Frequency   string `json:"frequency,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	GoalID      string `json:"goal_id,omitempty"`
}

// JournalEvent records one committed change to a transaction.
type JournalEvent struct {
	Op          string              `json:"op"`
	Transaction TransactionSnapshot `json:"transaction"`
	Timestamp   time.Time           `json:"timestamp"`
}

func NewJournalEvent(op string, t core.Transaction) *JournalEvent {
	return &JournalEvent{
		Op: op,
		Transaction: TransactionSnapshot{
			ID:          t.ID,
			OwnerID:     t.OwnerID,
			AccountID:   t.AccountID,
			CategoryID:  t.CategoryID,
			Name:        t.Name,
			Amount:      core.FormatAmount(t.Amount),
			Date:        t.Date.String(),
			Type:        string(t.Type),
			IsRecurring: t.IsRecurring,
			Frequency:   string(t.Frequency),
			ParentID:    t.ParentID,
			GoalID:      t.GoalID,
		},
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *JournalEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// JournalEventFromJSON decodes and checks a journal event.
func JournalEventFromJSON(data []byte) (*JournalEvent, error) {
	var msg JournalEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Op {
	case OpCreated, OpUpdated, OpDeleted:
	default:
		return nil, fmt.Errorf("unknown journal op %q", msg.Op)
	}
	if msg.Transaction.ID == "" {
		return nil, fmt.Errorf("journal event without transaction id")
	}
	return &msg, nil
}

// RecurringSkippedMessage tells an owner that a recurring transaction was
// not generated because the account could not cover it.
type RecurringSkippedMessage struct {
	OwnerID      string    `json:"owner_id"`
	OwnerName    string    `json:"owner_name"`
	OwnerEmail   string    `json:"owner_email"`
	TemplateID   string    `json:"template_id"`
	TemplateName string    `json:"template_name"`
	Amount       string    `json:"amount"`
	Date         string    `json:"date"`
	Timestamp    time.Time `json:"timestamp"`
}

// ToJSON converts the message to JSON bytes
func (m *RecurringSkippedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecurringSkippedMessageFromJSON creates a message from JSON bytes
func RecurringSkippedMessageFromJSON(data []byte) (*RecurringSkippedMessage, error) {
	var msg RecurringSkippedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
