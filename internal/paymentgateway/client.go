// Package paymentgateway talks to the PayPal Adaptive Payments API.
package paymentgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/group-expenses/internal/core/metrics"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	OperationPreapprovalDetails = "PreapprovalDetails"
	OperationPay                = "Pay"

	ackSuccess            = "Success"
	ackSuccessWithWarning = "SuccessWithWarning"
)

type Config struct {
	BaseURL       string
	ApplicationID string
	ClientID      string
	ClientSecret  string
	TokenURL      string
	ReturnURL     string
	CancelURL     string
	Timeout       time.Duration
}

type Client struct {
	baseURL       string
	applicationID string
	returnURL     string
	cancelURL     string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient authenticates with OAuth2 client credentials when a client id is
// configured and falls back to an unauthenticated client otherwise (sandbox mocks).
func NewClient(config Config, logger *slog.Logger) *Client {
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	httpClient := &http.Client{Timeout: timeout}
	if config.ClientID != "" && config.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     config.ClientID,
			ClientSecret: config.ClientSecret,
			TokenURL:     config.TokenURL,
		}
		httpClient = cc.Client(context.Background())
		httpClient.Timeout = timeout
	}

	return &Client{
		baseURL:       strings.TrimRight(config.BaseURL, "/"),
		applicationID: config.ApplicationID,
		returnURL:     config.ReturnURL,
		cancelURL:     config.CancelURL,
		httpClient:    httpClient,
		logger:        logger,
	}
}

// Error is a failure reported by PayPal itself, as opposed to a transport failure.
type Error struct {
	Operation string
	ErrorID   string
	Message   string
}

func (e *Error) Error() string {
	if e.ErrorID == "" {
		return fmt.Sprintf("paypal %s: %s", e.Operation, e.Message)
	}
	return fmt.Sprintf("paypal %s: %s (%s)", e.Operation, e.Message, e.ErrorID)
}

type responseEnvelope struct {
	Ack           string `json:"ack"`
	CorrelationID string `json:"correlationId"`
	Timestamp     string `json:"timestamp"`
}

type errorData struct {
	ErrorID  string `json:"errorId"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

type requestEnvelope struct {
	ErrorLanguage string `json:"errorLanguage"`
}

type envelope struct {
	ResponseEnvelope responseEnvelope `json:"responseEnvelope"`
	Errors           []errorData      `json:"error"`
}

// PreapprovalDetails fetches the state of a preapproval key.
func (c *Client) PreapprovalDetails(ctx context.Context, preapprovalKey string) (*PreapprovalDetails, error) {
	req := struct {
		PreapprovalKey  string          `json:"preapprovalKey"`
		RequestEnvelope requestEnvelope `json:"requestEnvelope"`
	}{
		PreapprovalKey:  preapprovalKey,
		RequestEnvelope: requestEnvelope{ErrorLanguage: "en_US"},
	}

	var details PreapprovalDetails
	raw, err := c.call(ctx, OperationPreapprovalDetails, req, &details)
	if err != nil {
		return nil, err
	}
	details.Raw = raw
	return &details, nil
}

// Pay sends money from the preapproval to a single receiver. Only a
// COMPLETED execution counts as paid.
func (c *Client) Pay(ctx context.Context, pay *PayRequest) (*PayResponse, error) {
	if err := pay.Validate(); err != nil {
		return nil, &Error{Operation: OperationPay, Message: err.Error()}
	}

	req := payRequestBody{
		ActionType:      "PAY",
		CurrencyCode:    pay.CurrencyCode,
		FeesPayer:       "SENDER",
		Memo:            pay.Memo,
		PreapprovalKey:  pay.PreapprovalKey,
		ReturnURL:       c.returnURL,
		CancelURL:       c.cancelURL,
		TrackingID:      pay.TrackingID,
		RequestEnvelope: requestEnvelope{ErrorLanguage: "en_US"},
	}
	req.ReceiverList.Receiver = []receiver{{Amount: pay.Amount, Email: pay.ReceiverEmail}}

	var resp PayResponse
	raw, err := c.call(ctx, OperationPay, req, &resp)
	if err != nil {
		return nil, err
	}
	resp.Raw = raw

	switch resp.PaymentExecStatus {
	case PaymentExecCompleted:
	case PaymentExecError:
		return nil, &Error{Operation: OperationPay, Message: "payment execution failed"}
	default:
		return nil, &Error{Operation: OperationPay, Message: fmt.Sprintf("payment not completed (status %s)", resp.PaymentExecStatus)}
	}
	return &resp, nil
}

func (c *Client) call(ctx context.Context, operation string, body interface{}, out interface{}) (json.RawMessage, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.GatewayRequestDuration.WithLabelValues(operation, outcome).Observe(time.Since(start).Seconds())
	}()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", operation, err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/AdaptivePayments/"+operation, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", operation, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-PAYPAL-APPLICATION-ID", c.applicationID)
	httpReq.Header.Set("X-PAYPAL-REQUEST-DATA-FORMAT", "JSON")
	httpReq.Header.Set("X-PAYPAL-RESPONSE-DATA-FORMAT", "JSON")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Error("paypal: request failed", "operation", operation, "error", err)
		return nil, fmt.Errorf("paypal %s: %w", operation, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", operation, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("paypal: unexpected status", "operation", operation, "status_code", resp.StatusCode)
		return nil, &Error{Operation: operation, Message: fmt.Sprintf("unexpected status %d", resp.StatusCode)}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", operation, err)
	}

	if env.ResponseEnvelope.Ack != ackSuccess && env.ResponseEnvelope.Ack != ackSuccessWithWarning {
		gwErr := &Error{Operation: operation, Message: "request was not acknowledged"}
		if len(env.Errors) > 0 {
			gwErr.ErrorID = env.Errors[0].ErrorID
			gwErr.Message = env.Errors[0].Message
		}
		outcome = "rejected"
		c.logger.Warn("paypal: request rejected",
			"operation", operation,
			"correlation_id", env.ResponseEnvelope.CorrelationID,
			"error_id", gwErr.ErrorID,
			"message", gwErr.Message)
		return nil, gwErr
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", operation, err)
	}

	outcome = "success"
	c.logger.Info("paypal: request acknowledged",
		"operation", operation,
		"correlation_id", env.ResponseEnvelope.CorrelationID,
		"duration_ms", time.Since(start).Milliseconds())
	return raw, nil
}
