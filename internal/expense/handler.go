package expense

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/group-expenses/internal/auth"
	"github.com/frahmantamala/group-expenses/internal/group"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"github.com/frahmantamala/group-expenses/internal/transaction"
	"github.com/frahmantamala/group-expenses/internal/transport"
	"github.com/frahmantamala/group-expenses/pkg/logger"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor auth.Actor, g *group.Group, req ExpenseRequest) (*Expense, error)
	Get(ctx context.Context, g *group.Group, id int64) (*Expense, error)
	List(ctx context.Context, g *group.Group, p pagination.Params) ([]*Expense, int64, error)
	Update(ctx context.Context, actor auth.Actor, g *group.Group, id int64, req ExpenseRequest) (*Expense, error)
	Delete(ctx context.Context, actor auth.Actor, g *group.Group, id int64) error
	Approve(ctx context.Context, actor auth.Actor, g *group.Group, id int64, req ApproveRequest) (*Expense, error)
	Pay(ctx context.Context, actor auth.Actor, g *group.Group, id int64) (*transaction.Transaction, error)
}

type Handler struct {
	*transport.BaseHandler
	Service    ServiceAPI
	BaseURL    string
	Pagination pagination.Config
}

func NewHandler(service ServiceAPI, baseURL string, pageCfg pagination.Config) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
		BaseURL:     baseURL,
		Pagination:  pageCfg,
	}
}

// CreateExpense handles POST /groups/{id}/expenses
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	g, ok := group.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, group.ErrGroupNotFound)
		return
	}

	var req ExpenseRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	e, err := h.Service.Create(r.Context(), auth.ActorFromContext(r.Context()), g, req)
	if err != nil {
		h.Logger.Warn("CreateExpense: failed", "group_id", g.ID, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

// GetExpense handles GET /groups/{id}/expenses/{eid}
func (h *Handler) GetExpense(w http.ResponseWriter, r *http.Request) {
	g, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	e, err := h.Service.Get(r.Context(), g, id)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

// ListExpenses handles GET /groups/{id}/expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	g, ok := group.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, group.ErrGroupNotFound)
		return
	}

	params := pagination.Parse(r.URL.Query(), h.Pagination)
	expenses, total, err := h.Service.List(r.Context(), g, params)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteList(w, r, h.BaseURL, params, total, expenses)
}

// UpdateExpense handles PUT /groups/{id}/expenses/{eid}
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	g, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req ExpenseRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	e, err := h.Service.Update(r.Context(), auth.ActorFromContext(r.Context()), g, id, req)
	if err != nil {
		h.Logger.Warn("UpdateExpense: failed", "expense_id", id, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

// DeleteExpense handles DELETE /groups/{id}/expenses/{eid}
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	g, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	if err := h.Service.Delete(r.Context(), auth.ActorFromContext(r.Context()), g, id); err != nil {
		h.Logger.Warn("DeleteExpense: failed", "expense_id", id, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ApproveExpense handles POST /groups/{id}/expenses/{eid}/approve
func (h *Handler) ApproveExpense(w http.ResponseWriter, r *http.Request) {
	g, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	var req ApproveRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	e, err := h.Service.Approve(r.Context(), auth.ActorFromContext(r.Context()), g, id, req)
	if err != nil {
		h.Logger.Warn("ApproveExpense: failed", "expense_id", id, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, e)
}

// PayExpense handles POST /groups/{id}/expenses/{eid}/pay
func (h *Handler) PayExpense(w http.ResponseWriter, r *http.Request) {
	g, id, ok := h.scope(w, r)
	if !ok {
		return
	}

	t, err := h.Service.Pay(r.Context(), auth.ActorFromContext(r.Context()), g, id)
	if err != nil {
		h.Logger.Warn("PayExpense: failed", "expense_id", id, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

// scope reads the group set by the GroupScope middleware and the expense id
// from the path. It writes the error itself.
func (h *Handler) scope(w http.ResponseWriter, r *http.Request) (*group.Group, int64, bool) {
	g, ok := group.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, group.ErrGroupNotFound)
		return nil, 0, false
	}
	id, err := h.URLParamInt64(r, "eid", ErrExpenseNotFound)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return nil, 0, false
	}
	return g, id, true
}
