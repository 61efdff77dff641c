package paymentmethod

import (
	"context"
	"time"

	"github.com/frahmantamala/group-expenses/internal"
	pmDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/paymentmethod"
)

const ServicePaypal = "paypal"

// PaymentMethod links a user to an account at a payment service. For PayPal
// the token is the preapproval key of the account.
type PaymentMethod struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"UserId"`
	Service     string     `json:"service"`
	Token       string     `json:"token"`
	ConfirmedAt *time.Time `json:"confirmedAt"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (p *PaymentMethod) IsConfirmed() bool {
	return p.ConfirmedAt != nil
}

var (
	ErrPaymentMethodNotFound = internal.NewNotFoundError("Payment method not found")
	ErrNotApproved           = internal.NewBadRequestError("This payment method has not been approved by the service.")
)

type Repository interface {
	Create(ctx context.Context, pm *PaymentMethod) error
	GetByID(ctx context.Context, id int64) (*PaymentMethod, error)
	ListByUser(ctx context.Context, userID int64) ([]*PaymentMethod, error)
	// LatestForUser returns the most recently created method of the user at
	// service, or ErrPaymentMethodNotFound.
	LatestForUser(ctx context.Context, userID int64, service string, confirmedOnly bool) (*PaymentMethod, error)
	MarkConfirmed(ctx context.Context, id int64, at time.Time) error
}

func ToDataModel(p *PaymentMethod) *pmDatamodel.PaymentMethod {
	return &pmDatamodel.PaymentMethod{
		ID:          p.ID,
		UserID:      p.UserID,
		Service:     p.Service,
		Token:       p.Token,
		ConfirmedAt: p.ConfirmedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func FromDataModel(p *pmDatamodel.PaymentMethod) *PaymentMethod {
	return &PaymentMethod{
		ID:          p.ID,
		UserID:      p.UserID,
		Service:     p.Service,
		Token:       p.Token,
		ConfirmedAt: p.ConfirmedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
