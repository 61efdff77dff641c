package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID                       int64           `gorm:"primaryKey"`
	GroupID                  int64           `gorm:"column:group_id;not null;index"`
	UserID                   *int64          `gorm:"column:user_id;index"`
	ExpenseID                *int64          `gorm:"column:expense_id;uniqueIndex"`
	PaymentMethodID          *int64          `gorm:"column:payment_method_id"`
	Amount                   decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Currency                 string          `gorm:"column:currency;size:3;not null"`
	NetAmountInGroupCurrency int64           `gorm:"column:net_amount_in_group_currency;not null"`
	Status                   string          `gorm:"column:status;not null"`
	Description              string          `gorm:"column:description"`
	CreatedAt                time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}
