package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/frahmantamala/group-expenses/internal/core/database"
	pmDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/paymentmethod"
	"github.com/frahmantamala/group-expenses/internal/paymentmethod"
	"gorm.io/gorm"
)

type PaymentMethodRepository struct {
	db *gorm.DB
}

func NewPaymentMethodRepository(db *gorm.DB) paymentmethod.Repository {
	return &PaymentMethodRepository{db: db}
}

func (r *PaymentMethodRepository) Create(ctx context.Context, pm *paymentmethod.PaymentMethod) error {
	row := paymentmethod.ToDataModel(pm)
	if err := database.Conn(ctx, r.db).Create(row).Error; err != nil {
		return fmt.Errorf("create payment method: %w", err)
	}
	*pm = *paymentmethod.FromDataModel(row)
	return nil
}

func (r *PaymentMethodRepository) GetByID(ctx context.Context, id int64) (*paymentmethod.PaymentMethod, error) {
	var row pmDatamodel.PaymentMethod
	if err := database.Conn(ctx, r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, paymentmethod.ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("get payment method %d: %w", id, err)
	}
	return paymentmethod.FromDataModel(&row), nil
}

func (r *PaymentMethodRepository) ListByUser(ctx context.Context, userID int64) ([]*paymentmethod.PaymentMethod, error) {
	var rows []pmDatamodel.PaymentMethod
	if err := database.Conn(ctx, r.db).Where("user_id = ?", userID).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list payment methods of user %d: %w", userID, err)
	}

	methods := make([]*paymentmethod.PaymentMethod, 0, len(rows))
	for i := range rows {
		methods = append(methods, paymentmethod.FromDataModel(&rows[i]))
	}
	return methods, nil
}

func (r *PaymentMethodRepository) LatestForUser(ctx context.Context, userID int64, service string, confirmedOnly bool) (*paymentmethod.PaymentMethod, error) {
	query := database.Conn(ctx, r.db).Where("user_id = ? AND service = ?", userID, service)
	if confirmedOnly {
		query = query.Where("confirmed_at IS NOT NULL")
	}

	var row pmDatamodel.PaymentMethod
	if err := query.Order("created_at DESC, id DESC").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, paymentmethod.ErrPaymentMethodNotFound
		}
		return nil, fmt.Errorf("get %s payment method of user %d: %w", service, userID, err)
	}
	return paymentmethod.FromDataModel(&row), nil
}

func (r *PaymentMethodRepository) MarkConfirmed(ctx context.Context, id int64, at time.Time) error {
	res := database.Conn(ctx, r.db).Model(&pmDatamodel.PaymentMethod{}).
		Where("id = ?", id).
		Update("confirmed_at", at)
	if res.Error != nil {
		return fmt.Errorf("confirm payment method %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return paymentmethod.ErrPaymentMethodNotFound
	}
	return nil
}
