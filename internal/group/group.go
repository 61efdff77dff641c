package group

import (
	"context"
	"errors"
	"time"

	"github.com/frahmantamala/group-expenses/internal"
	groupDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/group"
)

type Role string

const (
	RoleNone   Role = ""
	RoleHost   Role = "HOST"
	RoleMember Role = "MEMBER"
)

func (r Role) IsMember() bool {
	return r == RoleHost || r == RoleMember
}

// Group is the settlement scope of expenses; Currency is its settlement currency.
type Group struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Currency  string    `json:"currency"`
	CreatedAt time.Time `json:"createdAt"`
}

func (g *Group) OwningGroupID() int64 {
	return g.ID
}

var (
	ErrGroupNotFound = internal.NewNotFoundError("Group not found")
	ErrNoHost        = errors.New("group has no host")
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*Group, error)
	RoleOf(ctx context.Context, groupID, userID int64) (Role, error)
	HostID(ctx context.Context, groupID int64) (int64, error)
	Create(ctx context.Context, g *Group) error
	AddMember(ctx context.Context, groupID, userID int64, role Role) error
}

func FromDataModel(g *groupDatamodel.Group) *Group {
	return &Group{
		ID:        g.ID,
		Name:      g.Name,
		Currency:  g.Currency,
		CreatedAt: g.CreatedAt,
	}
}

type ctxKey struct{}

func ContextWithGroup(ctx context.Context, g *Group) context.Context {
	return context.WithValue(ctx, ctxKey{}, g)
}

// FromContext returns the group resolved from the request path, if any.
func FromContext(ctx context.Context) (*Group, bool) {
	g, ok := ctx.Value(ctxKey{}).(*Group)
	return g, ok && g != nil
}
