package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// EventIncomeApplied is the type tag and routing key of IncomeAppliedMessage.
const EventIncomeApplied = "income.applied"

// IncomeAppliedMessage announces that a one-time income was credited to a
// goal. It carries ids only; consumers read the records from the store.
type IncomeAppliedMessage struct {
	Type      string    `json:"type"`
	Owner     string    `json:"owner"`
	IncomeID  string    `json:"income_id"`
	GoalID    string    `json:"goal_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewIncomeAppliedMessage(owner, incomeID, goalID string) *IncomeAppliedMessage {
	return &IncomeAppliedMessage{
		Type:      EventIncomeApplied,
		Owner:     owner,
		IncomeID:  incomeID,
		GoalID:    goalID,
		Timestamp: time.Now().UTC(),
	}
}

func (m *IncomeAppliedMessage) Validate() error {
	if m.Type != EventIncomeApplied {
		return errors.New("unexpected message type " + m.Type)
	}
	if m.Owner == "" || m.IncomeID == "" || m.GoalID == "" {
		return errors.New("owner, income_id and goal_id are required")
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *IncomeAppliedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// IncomeAppliedMessageFromJSON decodes and validates a message body.
func IncomeAppliedMessageFromJSON(data []byte) (*IncomeAppliedMessage, error) {
	var msg IncomeAppliedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
