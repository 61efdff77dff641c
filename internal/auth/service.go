package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log/slog"

	"github.com/frahmantamala/group-expenses/internal"
	"github.com/frahmantamala/group-expenses/internal/user"
	"golang.org/x/crypto/bcrypt"
)

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	UpdateRefreshTokenHash(ctx context.Context, id int64, hash string) error
}

// Service is the main auth service with dependencies
type Service struct {
	userRepo       UserRepository
	tokenGenerator TokenGenerator
	bcryptCost     int
	logger         *slog.Logger
}

func NewService(userRepo UserRepository, tokenGen TokenGenerator, bcryptCost int, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:       userRepo,
		tokenGenerator: tokenGen,
		bcryptCost:     bcryptCost,
		logger:         logger,
	}
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	u, err := s.userRepo.GetByEmail(ctx, dto.Email)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrInvalidCredentials
		}
		return AuthTokens{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(dto.Password)); err != nil {
		s.logger.Warn("authentication failed: password mismatch", "user_id", u.ID)
		return AuthTokens{}, internal.ErrInvalidCredentials
	}

	return s.issueTokens(ctx, u.ID)
}

// RefreshTokens exchanges a correctly signed, possibly expired access token
// and its refresh token for a new pair. The refresh token is single use.
func (s *Service) RefreshTokens(ctx context.Context, dto RefreshTokenDTO) (AuthTokens, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokenGenerator.ValidateExpiredToken(dto.AccessToken)
	if err != nil {
		return AuthTokens{}, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken.WithCause(err)
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrInvalidRefresh
		}
		return AuthTokens{}, err
	}

	if u.RefreshTokenHash == nil ||
		bcrypt.CompareHashAndPassword([]byte(*u.RefreshTokenHash), []byte(dto.RefreshToken)) != nil {
		s.logger.Warn("refresh token mismatch", "user_id", u.ID)
		return AuthTokens{}, internal.ErrInvalidRefresh
	}

	return s.issueTokens(ctx, u.ID)
}

// Identify resolves a bearer token to the caller.
func (s *Service) Identify(ctx context.Context, token string) (*internal.User, error) {
	claims, err := s.tokenGenerator.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, internal.ErrInvalidToken.WithCause(err)
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, internal.ErrUnauthorized
		}
		return nil, err
	}
	return u.Identity(), nil
}

func (s *Service) issueTokens(ctx context.Context, userID int64) (AuthTokens, error) {
	accessToken, expiresAt, err := s.tokenGenerator.GenerateAccessToken(userID)
	if err != nil {
		return AuthTokens{}, err
	}

	refreshToken, err := GenerateRandomToken()
	if err != nil {
		return AuthTokens{}, err
	}

	hash, err := s.HashPassword(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}

	if err := s.userRepo.UpdateRefreshTokenHash(ctx, userID, hash); err != nil {
		return AuthTokens{}, err
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// HashPassword creates a bcrypt hash of the password
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// GenerateRandomToken generates a cryptographically secure random token
func GenerateRandomToken() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
