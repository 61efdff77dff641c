package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/auth"
	"github.com/frahmantamala/group-expenses/internal/group"
	"github.com/frahmantamala/group-expenses/internal/transport"
	"github.com/frahmantamala/group-expenses/pkg/logger"
	"github.com/go-chi/chi"
)

// Identifier resolves a bearer token to the caller.
type Identifier interface {
	Identify(ctx context.Context, token string) (*internal.User, error)
}

// GroupResolver is the slice of group.Repository the group scope needs.
type GroupResolver interface {
	GetByID(ctx context.Context, id int64) (*group.Group, error)
	RoleOf(ctx context.Context, groupID, userID int64) (group.Role, error)
}

// Identify attaches the caller to the request context. Requests without a
// bearer token continue anonymously; a token that does not verify is a 401.
func Identify(identifier Identifier, lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := transport.ExtractBearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := identifier.Identify(r.Context(), token)
			if err != nil {
				base.Logger.Warn("Identify: rejected bearer token", "error", err, "path", r.URL.Path)
				base.HandleServiceError(w, r, err)
				return
			}

			ctx := internal.ContextWithUser(r.Context(), user)
			ctx = logger.With(ctx, "userID", user.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize rejects anonymous callers.
func Authorize(lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := internal.UserFromContext(r.Context()); !ok {
				base.WriteError(w, internal.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthorizeUser lets a caller through when the {userid} path parameter is
// their own id, or when they have elevated access.
func AuthorizeUser(lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := internal.UserFromContext(r.Context())
			if !ok {
				base.WriteError(w, internal.ErrUnauthorized)
				return
			}

			if user.HasElevatedAccess() || chi.URLParam(r, "userid") == strconv.FormatInt(user.ID, 10) {
				next.ServeHTTP(w, r)
				return
			}

			base.Logger.Warn("AuthorizeUser: access denied",
				"user_id", user.ID,
				"target", chi.URLParam(r, "userid"))
			base.WriteError(w, internal.ErrForbidden)
		})
	}
}

// GroupScope loads the group named by the {id} path parameter and the
// caller's role in it. Every route below it sees an auth.Actor bound to that group.
func GroupScope(groups GroupResolver, lg *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			groupID, err := base.URLParamInt64(r, "id", group.ErrGroupNotFound)
			if err != nil {
				base.HandleServiceError(w, r, err)
				return
			}

			g, err := groups.GetByID(r.Context(), groupID)
			if err != nil {
				base.HandleServiceError(w, r, err)
				return
			}

			actor := auth.Actor{GroupID: g.ID, Role: group.RoleNone}
			if user, ok := internal.UserFromContext(r.Context()); ok {
				actor.User = user
				role, err := groups.RoleOf(r.Context(), g.ID, user.ID)
				if err != nil {
					base.HandleServiceError(w, r, err)
					return
				}
				actor.Role = role
			}

			ctx := group.ContextWithGroup(r.Context(), g)
			ctx = auth.ContextWithActor(ctx, actor)
			ctx = logger.With(ctx, "groupID", g.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
