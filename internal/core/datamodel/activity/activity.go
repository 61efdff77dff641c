package activity

import (
	"encoding/json"
	"time"
)

// Activity rows are append-only; references are plain ids so they survive deletes.
type Activity struct {
	ID            int64           `gorm:"primaryKey"`
	Type          string          `gorm:"column:type;not null;index"`
	UserID        *int64          `gorm:"column:user_id"`
	GroupID       *int64          `gorm:"column:group_id;index"`
	ExpenseID     *int64          `gorm:"column:expense_id"`
	TransactionID *int64          `gorm:"column:transaction_id"`
	Data          json.RawMessage `gorm:"column:data;type:jsonb"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Activity) TableName() string {
	return "activities"
}
