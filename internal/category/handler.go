package category

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/group-expenses/internal/group"
	"github.com/frahmantamala/group-expenses/internal/transport"
	"github.com/frahmantamala/group-expenses/pkg/logger"
)

type ServiceAPI interface {
	ListByGroup(ctx context.Context, groupID int64) ([]*Summary, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// ListCategories handles GET /groups/{id}/categories
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	g, ok := group.FromContext(r.Context())
	if !ok {
		h.HandleServiceError(w, r, group.ErrGroupNotFound)
		return
	}

	categories, err := h.Service.ListByGroup(r.Context(), g.ID)
	if err != nil {
		h.Logger.Error("ListCategories: failed to get categories", "group_id", g.ID, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, categories)
}
