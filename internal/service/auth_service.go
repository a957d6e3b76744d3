package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/qa327/ticket-marketplace/internal/auth"
	"github.com/qa327/ticket-marketplace/internal/config"
	"github.com/qa327/ticket-marketplace/internal/domain"
	"github.com/qa327/ticket-marketplace/internal/repository"
	apperrors "github.com/qa327/ticket-marketplace/pkg/util/errorutil"
)

// AuthService resolves caller identity. It checks credentials, issues and
// revokes bearer tokens and maps a token back to its user.
type AuthService struct {
	users      repository.UserRepository
	sessions   auth.SessionStore
	tokenMgr   *auth.TokenManager
	bcryptCost int
	logger     *zap.Logger
}

// AuthDependencies encapsulates repo requirements for auth service.
type AuthDependencies struct {
	UserRepo repository.UserRepository
	Sessions auth.SessionStore
	Logger   *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions := deps.Sessions
	if sessions == nil {
		sessions = auth.NewMemorySessionStore()
	}
	return &AuthService{
		users:      deps.UserRepo,
		sessions:   sessions,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
		logger:     logger,
	}
}

// HashPassword hashes a new credential with the configured cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	return auth.HashPassword(password, s.bcryptCost)
}

// Authenticate returns the user owning email when password matches. Unknown
// email and wrong password fail the same way.
func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewAuthenticationFailed()
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		if !errors.Is(err, auth.ErrCredentialMismatch) {
			s.logger.Error("stored password hash unusable", zap.String("user_id", user.ID), zap.Error(err))
		}
		return nil, apperrors.NewAuthenticationFailed()
	}
	return user, nil
}

// IssueToken signs a bearer token for user.
func (s *AuthService) IssueToken(user *domain.User) (domain.Token, error) {
	token, err := s.tokenMgr.GenerateToken(user.ID, user.Email)
	if err != nil {
		return domain.Token{}, apperrors.NewInternalError(err)
	}
	return token, nil
}

// ResolveCurrentUser maps a bearer token to the user it was issued to.
func (s *AuthService) ResolveCurrentUser(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("session lookup failed", zap.Error(err))
		return nil, apperrors.NewPersistenceError(err)
	}
	if revoked {
		return nil, apperrors.NewUnauthorized("token revoked")
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewUnauthorized("user not found")
	}
	if err != nil {
		return nil, apperrors.NewPersistenceError(err)
	}
	return user, nil
}

// Logout revokes token until its natural expiry.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	claims, err := s.tokenMgr.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	ttl := s.tokenMgr.TTL()
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.sessions.Revoke(ctx, claims.ID, ttl); err != nil {
		s.logger.Error("revoke token failed", zap.Error(err))
		return apperrors.NewPersistenceError(err)
	}
	s.logger.Info("user logged out", zap.String("user_id", claims.Subject))
	return nil
}
