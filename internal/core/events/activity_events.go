package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// ActivityRecordedEvent is published once an activity row has been committed.
// Its event type is the activity type, e.g. "group.expense.created".
type ActivityRecordedEvent struct {
	BaseEvent
	ActivityID    int64           `json:"activity_id"`
	GroupID       *int64          `json:"group_id,omitempty"`
	UserID        *int64          `json:"user_id,omitempty"`
	ExpenseID     *int64          `json:"expense_id,omitempty"`
	TransactionID *int64          `json:"transaction_id,omitempty"`
	Snapshot      json.RawMessage `json:"snapshot"`
}

func NewActivityRecordedEvent(activityID int64, activityType string, groupID, userID, expenseID, transactionID *int64, snapshot json.RawMessage) *ActivityRecordedEvent {
	return &ActivityRecordedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      activityType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"activity_id":    activityID,
				"group_id":       groupID,
				"user_id":        userID,
				"expense_id":     expenseID,
				"transaction_id": transactionID,
			},
		},
		ActivityID:    activityID,
		GroupID:       groupID,
		UserID:        userID,
		ExpenseID:     expenseID,
		TransactionID: transactionID,
		Snapshot:      snapshot,
	}
}
