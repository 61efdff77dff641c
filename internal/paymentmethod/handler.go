package paymentmethod

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/group-expenses/internal/transport"
	"github.com/frahmantamala/group-expenses/internal/user"
	"github.com/frahmantamala/group-expenses/pkg/logger"
)

type ServiceAPI interface {
	List(ctx context.Context, userID int64) ([]*PaymentMethod, error)
	Create(ctx context.Context, userID int64, req CreatePaymentMethodRequest) (*PaymentMethod, error)
	Confirm(ctx context.Context, userID, id int64) (*PaymentMethod, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
	}
}

// ListPaymentMethods handles GET /users/{userid}/paymentmethods
func (h *Handler) ListPaymentMethods(w http.ResponseWriter, r *http.Request) {
	userID, err := h.URLParamInt64(r, "userid", user.ErrUserNotFound)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	methods, err := h.Service.List(r.Context(), userID)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, methods)
}

// CreatePaymentMethod handles POST /users/{userid}/paymentmethods
func (h *Handler) CreatePaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, err := h.URLParamInt64(r, "userid", user.ErrUserNotFound)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	var req CreatePaymentMethodRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	pm, err := h.Service.Create(r.Context(), userID, req)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, pm)
}

// ConfirmPaymentMethod handles POST /users/{userid}/paymentmethods/{pmid}/confirm
func (h *Handler) ConfirmPaymentMethod(w http.ResponseWriter, r *http.Request) {
	userID, err := h.URLParamInt64(r, "userid", user.ErrUserNotFound)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}
	id, err := h.URLParamInt64(r, "pmid", ErrPaymentMethodNotFound)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	pm, err := h.Service.Confirm(r.Context(), userID, id)
	if err != nil {
		h.Logger.Warn("ConfirmPaymentMethod: confirmation failed", "payment_method_id", id, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, pm)
}
