package user

import (
	"context"
	"time"

	"github.com/frahmantamala/group-expenses/internal"
	userDatamodel "github.com/frahmantamala/group-expenses/internal/core/datamodel/user"
)

type User struct {
	ID               int64     `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	PasswordHash     string    `json:"-"`
	RefreshTokenHash *string   `json:"-"`
	Access           int       `json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// Identity is the slice of the user the request context carries.
func (u *User) Identity() *internal.User {
	return &internal.User{
		ID:     u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Access: u.Access,
	}
}

// Snapshot is the public view recorded in activity payloads.
func (u *User) Snapshot() map[string]interface{} {
	return map[string]interface{}{
		"id":    u.ID,
		"name":  u.Name,
		"email": u.Email,
	}
}

var ErrUserNotFound = internal.NewNotFoundError("User not found")

type Repository interface {
	GetByID(ctx context.Context, id int64) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, u *User) error
	UpdateRefreshTokenHash(ctx context.Context, id int64, hash string) error
}

func ToDataModel(u *User) *userDatamodel.User {
	return &userDatamodel.User{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		PasswordHash:     u.PasswordHash,
		RefreshTokenHash: u.RefreshTokenHash,
		Access:           u.Access,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

func FromDataModel(u *userDatamodel.User) *User {
	return &User{
		ID:               u.ID,
		Email:            u.Email,
		Name:             u.Name,
		PasswordHash:     u.PasswordHash,
		RefreshTokenHash: u.RefreshTokenHash,
		Access:           u.Access,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}
