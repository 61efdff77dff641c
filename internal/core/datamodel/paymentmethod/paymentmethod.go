package paymentmethod

import "time"

type PaymentMethod struct {
	ID          int64      `gorm:"primaryKey"`
	UserID      int64      `gorm:"column:user_id;not null;index"`
	Service     string     `gorm:"column:service;not null"`
	Token       string     `gorm:"column:token;not null"`
	ConfirmedAt *time.Time `gorm:"column:confirmed_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (PaymentMethod) TableName() string {
	return "payment_methods"
}
