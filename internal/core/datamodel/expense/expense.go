package expense

import "time"

type Expense struct {
	ID             int64     `gorm:"primaryKey"`
	GroupID        int64     `gorm:"column:group_id;not null;index"`
	UserID         *int64    `gorm:"column:user_id;index"`
	Title          string    `gorm:"column:title;not null"`
	Notes          string    `gorm:"column:notes"`
	Category       string    `gorm:"column:category"`
	Amount         int64     `gorm:"column:amount;not null"`
	Currency       string    `gorm:"column:currency;size:3;not null"`
	PayoutMethod   string    `gorm:"column:payout_method;not null"`
	Status         string    `gorm:"column:status;not null;index"`
	LastEditedByID *int64    `gorm:"column:last_edited_by_id"`
	Version        int64     `gorm:"column:version;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Expense) TableName() string {
	return "expenses"
}
