package user

import (
	"context"
	"net/http"

	"github.com/frahmantamala/group-expenses/internal/transport"
	"github.com/frahmantamala/group-expenses/pkg/logger"
)

type ServiceAPI interface {
	Profile(ctx context.Context, userID int64) (*User, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(svc ServiceAPI) *Handler {
	return &Handler{
		BaseHandler: transport.NewBaseHandler(logger.LoggerWrapper()),
		Service:     svc,
	}
}

// GetUser handles GET /users/{userid}; access is enforced by AuthorizeUser.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID, err := h.URLParamInt64(r, "userid", ErrUserNotFound)
	if err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	u, err := h.Service.Profile(r.Context(), userID)
	if err != nil {
		logger.From(r.Context()).Warn("GetUser: profile lookup failed", "user_id", userID, "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, u)
}
