package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	groupDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/group"
	"github.com/frahmantamala/group-expenses/internal/group"
	"github.com/jmoiron/sqlx"
)

// GroupRepository reads groups and memberships with plain SQL; none of these
// lookups take part in a unit of work.
type GroupRepository struct {
	db *sqlx.DB
}

func NewGroupRepository(db *sqlx.DB) group.Repository {
	return &GroupRepository{db: db}
}

func (r *GroupRepository) GetByID(ctx context.Context, id int64) (*group.Group, error) {
	var row groupDatamodel.Group
	err := r.db.GetContext(ctx, &row, r.db.Rebind("SELECT id, name, currency, created_at FROM groups WHERE id = ?"), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, group.ErrGroupNotFound
		}
		return nil, fmt.Errorf("get group %d: %w", id, err)
	}
	return group.FromDataModel(&row), nil
}

// RoleOf returns RoleNone when the user does not belong to the group.
func (r *GroupRepository) RoleOf(ctx context.Context, groupID, userID int64) (group.Role, error) {
	var role string
	err := r.db.GetContext(ctx, &role, r.db.Rebind("SELECT role FROM user_groups WHERE group_id = ? AND user_id = ?"), groupID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return group.RoleNone, nil
		}
		return group.RoleNone, fmt.Errorf("get role of user %d in group %d: %w", userID, groupID, err)
	}
	return group.Role(role), nil
}

func (r *GroupRepository) HostID(ctx context.Context, groupID int64) (int64, error) {
	var userID int64
	err := r.db.GetContext(ctx, &userID,
		r.db.Rebind("SELECT user_id FROM user_groups WHERE group_id = ? AND role = ? ORDER BY id LIMIT 1"),
		groupID, string(group.RoleHost))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, group.ErrNoHost
		}
		return 0, fmt.Errorf("get host of group %d: %w", groupID, err)
	}
	return userID, nil
}

func (r *GroupRepository) Create(ctx context.Context, g *group.Group) error {
	if g.CreatedAt.IsZero() {
		g.CreatedAt = time.Now()
	}
	err := r.db.QueryRowxContext(ctx,
		r.db.Rebind("INSERT INTO groups (name, currency, created_at) VALUES (?, ?, ?) RETURNING id"),
		g.Name, g.Currency, g.CreatedAt).Scan(&g.ID)
	if err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID int64, role group.Role) error {
	_, err := r.db.ExecContext(ctx,
		r.db.Rebind("INSERT INTO user_groups (user_id, group_id, role, created_at) VALUES (?, ?, ?, ?)"),
		userID, groupID, string(role), time.Now())
	if err != nil {
		return fmt.Errorf("add user %d to group %d: %w", userID, groupID, err)
	}
	return nil
}
