package paymentmethod

import (
	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/core/common/validation"
)

type CreatePaymentMethodRequest struct {
	PaymentMethod *CreatePaymentMethodDTO `json:"paymentMethod"`
}

type CreatePaymentMethodDTO struct {
	Service string `json:"service"`
	Token   string `json:"token"`
}

func (r CreatePaymentMethodRequest) Validate() *internal.AppError {
	if r.PaymentMethod == nil {
		return internal.NewMissingRequiredError("paymentMethod")
	}

	v := validation.NewValidator()
	v.Field("service", r.PaymentMethod.Service).Required().OneOf("Must be paypal", ServicePaypal)
	v.Field("token", r.PaymentMethod.Token).Required().MaxLength(255)
	return v.Validate()
}
