package auth

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/golang-jwt/jwt/v5"
)

// TokenGenerator issues and verifies access tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64) (token string, expiresAt time.Time, err error)
	ValidateToken(tokenString string) (*Claims, error)
	ValidateExpiredToken(tokenString string) (*Claims, error)
}

type AuthTokens struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Claims carries the user id as subject and the application id as audience.
type Claims struct {
	jwt.RegisteredClaims
}

func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

type JWTTokenGenerator struct {
	Secret         []byte
	Audience       string
	AccessTokenTTL time.Duration
	// RefreshWindow bounds how long after expiry a token may still be refreshed.
	RefreshWindow time.Duration
	Now           func() time.Time
}

func NewJWTTokenGenerator(secret, audience string, accessTTL, refreshWindow time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		Secret:         []byte(secret),
		Audience:       audience,
		AccessTokenTTL: accessTTL,
		RefreshWindow:  refreshWindow,
		Now:            time.Now,
	}
}

func (j *JWTTokenGenerator) GenerateAccessToken(userID int64) (string, time.Time, error) {
	now := j.Now()
	expiresAt := now.Add(j.AccessTokenTTL)

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Audience:  jwt.ClaimStrings{j.Audience},
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return tokenString, expiresAt, nil
}

// ValidateToken accepts only unexpired tokens issued for this application.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(j.Audience),
		jwt.WithTimeFunc(j.Now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, internal.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenInvalidAudience):
			return nil, internal.ErrInvalidAPIKey
		default:
			return nil, internal.ErrInvalidToken.WithCause(err)
		}
	}
	return claims, nil
}

// ValidateExpiredToken checks the signature and audience but tolerates expiry
// within RefreshWindow. It backs the refresh flow.
func (j *JWTTokenGenerator) ValidateExpiredToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, j.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return nil, internal.ErrInvalidToken.WithCause(err)
	}
	if !slices.Contains(claims.Audience, j.Audience) {
		return nil, internal.ErrInvalidAPIKey
	}
	if claims.ExpiresAt != nil && j.RefreshWindow > 0 && j.Now().After(claims.ExpiresAt.Add(j.RefreshWindow)) {
		return nil, internal.ErrTokenExpired
	}
	return claims, nil
}

func (j *JWTTokenGenerator) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return j.Secret, nil
}
