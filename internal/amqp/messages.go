package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

type EventType string

const (
	EventExpenseCreated      EventType = "expense.created"
	EventTaskCompleted       EventType = "task.completed"
	EventBudgetPeriodCreated EventType = "budget_period.created"
)

func (t EventType) IsValid() bool {
	switch t {
	case EventExpenseCreated, EventTaskCompleted, EventBudgetPeriodCreated:
		return true
	}
	return false
}

// Event announces a committed domain change. It carries only the record id;
// consumers fetch the record from the store.
type Event struct {
	Type      EventType `json:"type"`
	ID        string    `json:"id"`
	UserID    string    `json:"userId,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEvent(t EventType, id, userID string) *Event {
	return &Event{Type: t, ID: id, UserID: userID, Timestamp: time.Now().UTC()}
}

func (e *Event) Validate() error {
	if !e.Type.IsValid() {
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.ID == "" {
		return errors.New("event id is empty")
	}
	return nil
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and validates an event body.
func EventFromJSON(data []byte) (*Event, error) {
	var e Event
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if err := e.Validate(); err != nil {
		return nil, err
	}
	return &e, nil
}
