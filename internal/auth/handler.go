package auth

import (
	"context"
	"net/http"

	"github.com/frahmantamala/group-expenses/internal/transport"
	"github.com/frahmantamala/group-expenses/pkg/logger"
)

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	RefreshTokens(ctx context.Context, dto RefreshTokenDTO) (AuthTokens, error)
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

// Login handles POST /authenticate.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var dto LoginDTO
	h.issue(w, r, "Login", &dto, func(ctx context.Context) (AuthTokens, error) {
		return h.Service.Authenticate(ctx, dto)
	})
}

// RefreshToken handles POST /authenticate/refresh.
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var dto RefreshTokenDTO
	h.issue(w, r, "RefreshToken", &dto, func(ctx context.Context) (AuthTokens, error) {
		return h.Service.RefreshTokens(ctx, dto)
	})
}

// issue decodes the body into dst and writes the token pair. Token responses
// are never cached.
func (h *Handler) issue(w http.ResponseWriter, r *http.Request, op string, dst interface{}, fn func(context.Context) (AuthTokens, error)) {
	if err := h.DecodeJSON(r, dst); err != nil {
		h.HandleServiceError(w, r, err)
		return
	}

	tokens, err := fn(r.Context())
	if err != nil {
		logger.From(r.Context()).Warn(op+": token issue refused", "error", err)
		h.HandleServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	h.WriteJSON(w, http.StatusOK, tokens)
}
