package auth

import (
	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/core/common/validation"
)

// LoginDTO is the transport shape used by the HTTP handler to accept login requests.
type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshTokenDTO carries the possibly expired access token and the refresh token paired with it.
type RefreshTokenDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (d LoginDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("email", d.Email).Required()
	v.Field("password", d.Password).Required()
	return v.Validate()
}

func (d RefreshTokenDTO) Validate() *internal.AppError {
	v := validation.NewValidator()
	v.Field("access_token", d.AccessToken).Required()
	v.Field("refresh_token", d.RefreshToken).Required()
	return v.Validate()
}
