package activity

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
	ListByGroup(ctx context.Context, groupID int64, p pagination.Params) ([]*Activity, int64, error)
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

// ListActivities handles GET /groups/{id}/activities
func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
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
	activities, total, err := h.Service.ListByGroup(r.Context(), g.ID, params)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteList(w, r, h.BaseURL, params, total, activities)
}
