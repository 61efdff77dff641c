package paymentgateway

import (
	"encoding/json"
	"errors"

	"github.com/shopspring/decimal"
)

const (
	PaymentExecCompleted = "COMPLETED"
	PaymentExecCreated   = "CREATED"
	PaymentExecError     = "ERROR"
)

// PreapprovalDetails mirrors the PayPal response; amounts are decimal strings in CurrencyCode.
type PreapprovalDetails struct {
	Approved                    string          `json:"approved"`
	Status                      string          `json:"status"`
	CurrencyCode                string          `json:"currencyCode"`
	MaxTotalAmountOfAllPayments string          `json:"maxTotalAmountOfAllPayments"`
	CurPaymentsAmount           string          `json:"curPaymentsAmount"`
	SenderEmail                 string          `json:"senderEmail"`
	Raw                         json.RawMessage `json:"-"`
}

func (d *PreapprovalDetails) IsApproved() bool {
	return d.Approved == "true"
}

// RemainingFunds is the ceiling still available on the preapproval. PayPal
// reports it as maxTotalAmountOfAllPayments.
func (d *PreapprovalDetails) RemainingFunds() (decimal.Decimal, error) {
	if d.MaxTotalAmountOfAllPayments == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(d.MaxTotalAmountOfAllPayments)
}

type PayRequest struct {
	ReceiverEmail  string
	Amount         string
	CurrencyCode   string
	PreapprovalKey string
	Memo           string
	TrackingID     string
}

func (r *PayRequest) Validate() error {
	if r.ReceiverEmail == "" {
		return errors.New("receiver is required")
	}
	if r.Amount == "" {
		return errors.New("amount is required")
	}
	if r.CurrencyCode == "" {
		return errors.New("currency is required")
	}
	// Without a preapproval PayPal only creates the payment and waits for the sender.
	if r.PreapprovalKey == "" {
		return errors.New("preapproval key is required")
	}
	return nil
}

type receiver struct {
	Amount string `json:"amount"`
	Email  string `json:"email"`
}

type payRequestBody struct {
	ActionType     string `json:"actionType"`
	CurrencyCode   string `json:"currencyCode"`
	FeesPayer      string `json:"feesPayer"`
	Memo           string `json:"memo,omitempty"`
	PreapprovalKey string `json:"preapprovalKey,omitempty"`
	ReturnURL      string `json:"returnUrl"`
	CancelURL      string `json:"cancelUrl"`
	TrackingID     string `json:"trackingId,omitempty"`
	ReceiverList   struct {
		Receiver []receiver `json:"receiver"`
	} `json:"receiverList"`
	RequestEnvelope requestEnvelope `json:"requestEnvelope"`
}

type PayResponse struct {
	PayKey            string `json:"payKey"`
	PaymentExecStatus string `json:"paymentExecStatus"`
	// Raw is the untouched response body, kept for the audit trail.
	Raw json.RawMessage `json:"-"`
}
