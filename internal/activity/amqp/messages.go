package amqp

import (
	"encoding/json"
	"time"

	"github.com/frahmantamala/group-expenses/internal/core/events"
)

// ActivityMessage is the broker representation of a committed activity.
type ActivityMessage struct {
	EventID       string          `json:"event_id"`
	Type          string          `json:"type"`
	ActivityID    int64           `json:"activity_id"`
	GroupID       *int64          `json:"group_id,omitempty"`
	UserID        *int64          `json:"user_id,omitempty"`
	ExpenseID     *int64          `json:"expense_id,omitempty"`
	TransactionID *int64          `json:"transaction_id,omitempty"`
	Data          json.RawMessage `json:"data"`
	Timestamp     time.Time       `json:"timestamp"`
}

// NewActivityMessage returns nil for events that are not activities.
func NewActivityMessage(event events.Event) *ActivityMessage {
	recorded, ok := event.(*events.ActivityRecordedEvent)
	if !ok {
		return nil
	}
	return &ActivityMessage{
		EventID:       recorded.EventID(),
		Type:          recorded.EventType(),
		ActivityID:    recorded.ActivityID,
		GroupID:       recorded.GroupID,
		UserID:        recorded.UserID,
		ExpenseID:     recorded.ExpenseID,
		TransactionID: recorded.TransactionID,
		Data:          recorded.Snapshot,
		Timestamp:     recorded.OccurredAt(),
	}
}

func (m *ActivityMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ActivityMessageFromJSON(data []byte) (*ActivityMessage, error) {
	var msg ActivityMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
