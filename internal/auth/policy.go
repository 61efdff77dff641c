package auth

import (
	"context"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/group"
)

type Action string

const (
	ActionCreate     Action = "create"
	ActionRead       Action = "read"
	ActionUpdate     Action = "update"
	ActionDelete     Action = "delete"
	ActionApprove    Action = "approve"
	ActionPay        Action = "pay"
	ActionFund       Action = "fund"
	ActionReadLedger Action = "read_ledger"
)

// Resource is anything scoped to a single group.
type Resource interface {
	OwningGroupID() int64
}

// Actor is the caller as seen from one group: GroupID is the group named in
// the request path and Role the caller's membership in it.
type Actor struct {
	User    *internal.User
	GroupID int64
	Role    group.Role
}

func (a Actor) Authenticated() bool {
	return a.User != nil
}

// UserID returns nil for anonymous callers.
func (a Actor) UserID() *int64 {
	if a.User == nil {
		return nil
	}
	id := a.User.ID
	return &id
}

// Can reports whether actor may perform action on res. It has no side effects.
func Can(action Action, actor Actor, res Resource) bool {
	switch action {
	case ActionCreate, ActionRead:
		return true
	}

	if !actor.Authenticated() || res == nil || actor.GroupID != res.OwningGroupID() {
		return false
	}

	switch action {
	case ActionApprove, ActionReadLedger:
		return actor.Role.IsMember()
	case ActionUpdate, ActionDelete, ActionPay, ActionFund:
		return actor.Role == group.RoleHost
	default:
		return false
	}
}

type actorKey struct{}

func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext falls back to whatever user the context carries, with no group role.
func ActorFromContext(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorKey{}).(Actor); ok {
		return actor
	}
	u, _ := internal.UserFromContext(ctx)
	return Actor{User: u}
}
