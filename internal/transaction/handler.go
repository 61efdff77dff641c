package transaction

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/auth"
	"github.com/frahmantamala/group-expenses/internal/group"
	"github.com/frahmantamala/group-expenses/internal/pagination"
	"github.com/frahmantamala/group-expenses/internal/transport"
	"github.com/frahmantamala/group-expenses/pkg/logger"
)

type ServiceAPI interface {
	Fund(ctx context.Context, actor auth.Actor, g *group.Group, req FundRequest) (*Transaction, error)
	List(ctx context.Context, groupID int64, p pagination.Params) ([]*Transaction, int64, error)
}

type Handler struct {
	*transport.BaseHandler
	Service    ServiceAPI
	BaseURL    string
	Pagination pagination.Config
}

func NewHandler(svc ServiceAPI, baseURL string, pageCfg pagination.Config) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     svc,
		BaseURL:     baseURL,
		Pagination:  pageCfg,
	}
}

// CreateTransaction handles POST /groups/{id}/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	g, ok := group.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, group.ErrGroupNotFound)
		return
	}

	var req FundRequest
	if err := h.DecodeJSON(r, &req); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	t, err := h.Service.Fund(r.Context(), auth.ActorFromContext(r.Context()), g, req)
	if err != nil {
		h.Logger.Warn("CreateTransaction: funding failed", "group_id", g.ID, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

// ListTransactions handles GET /groups/{id}/transactions
func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	g, ok := group.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, group.ErrGroupNotFound)
		return
	}

	actor := auth.ActorFromContext(r.Context())
	if !actor.Authenticated() {
		h.WriteError(w, internal.ErrUnauthorized)
		return
	}
	if !auth.Can(auth.ActionReadLedger, actor, g) {
		h.WriteError(w, internal.ErrForbidden)
		return
	}

	params := pagination.Parse(r.URL.Query(), h.Pagination)
	transactions, total, err := h.Service.List(r.Context(), g.ID, params)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteList(w, r, h.BaseURL, params, total, transactions)
}
