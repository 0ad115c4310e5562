package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/techradar/apiserver/internal/auth"
	"github.com/techradar/apiserver/internal/store"
	"github.com/techradar/apiserver/types"
)

const loginEventsChannel = "auth.logins"

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
}

// MembershipReader fetches live workspace memberships for a user.
type MembershipReader interface {
	ListByUser(ctx context.Context, userID string) ([]types.WorkspaceMember, error)
}

// LoginAuditRepository appends login attempt records and reports per-user
// attempt counts.
type LoginAuditRepository interface {
	Create(ctx context.Context, entry types.LoginAudit) error
	CountByUser(ctx context.Context, userID string) (successes, failures int, err error)
}

// EventPublisher pushes domain events to a message broker. Publishing is
// best-effort everywhere it is used in this service.
type EventPublisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// AuthService implements registration, login, token refresh and access
// token resolution. Session state lives entirely in the signed tokens;
// authorization decisions always re-read the store.
type AuthService struct {
	users       UserRepository
	memberships MembershipReader
	audits      LoginAuditRepository
	tokens      *auth.TokenService
	events      EventPublisher
	logger      *slog.Logger
}

// NewAuthService constructs an AuthService. events may be nil when no
// broker is configured.
func NewAuthService(
	users UserRepository,
	memberships MembershipReader,
	audits LoginAuditRepository,
	tokens *auth.TokenService,
	events EventPublisher,
	logger *slog.Logger,
) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		users:       users,
		memberships: memberships,
		audits:      audits,
		tokens:      tokens,
		events:      events,
		logger:      logger,
	}
}

// Register creates a new account and returns its public projection.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (types.PublicUser, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return types.PublicUser{}, invalidField("email", "must be a valid email address")
	}
	if len(name) < 2 || len(name) > 255 {
		return types.PublicUser{}, invalidField("name", "must be between 2 and 255 characters")
	}
	if len(password) < 8 {
		return types.PublicUser{}, invalidField("password", "must be at least 8 characters")
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return types.PublicUser{}, ErrDuplicateEmail
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.PublicUser{}, fmt.Errorf("check email: %w", err)
	}

	hashed, err := auth.HashPassword(password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return types.PublicUser{}, invalidField("password", "must be at least 8 characters")
		}
		return types.PublicUser{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, types.User{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        email,
		PasswordHash: hashed,
	})
	if err != nil {
		// Unique index race with a concurrent registration.
		if errors.Is(err, store.ErrDuplicate) {
			return types.PublicUser{}, ErrDuplicateEmail
		}
		return types.PublicUser{}, fmt.Errorf("create user: %w", err)
	}
	return user.Public(), nil
}

// UpdateProfileInput carries the optional profile changes. A password
// change requires the current password.
type UpdateProfileInput struct {
	Name            *string
	NewPassword     *string
	CurrentPassword string
}

// UpdateProfile applies the requested changes to the caller's account.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (types.PublicUser, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return types.PublicUser{}, err
	}

	if input.Name != nil {
		if len(*input.Name) < 2 || len(*input.Name) > 255 {
			return types.PublicUser{}, invalidField("name", "must be between 2 and 255 characters")
		}
		user.Name = *input.Name
	}
	if input.NewPassword != nil {
		if !auth.VerifyPassword(input.CurrentPassword, user.PasswordHash) {
			return types.PublicUser{}, ErrBadCredentials
		}
		hashed, err := auth.HashPassword(*input.NewPassword)
		if err != nil {
			if errors.Is(err, auth.ErrWeakPassword) {
				return types.PublicUser{}, invalidField("newPassword", "must be at least 8 characters")
			}
			return types.PublicUser{}, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hashed
	}

	updated, err := s.users.Update(ctx, user)
	if err != nil {
		return types.PublicUser{}, fmt.Errorf("update user: %w", err)
	}
	return updated.Public(), nil
}

// LoginStats reports the caller's recorded login attempts by outcome.
func (s *AuthService) LoginStats(ctx context.Context, userID string) (types.LoginStats, error) {
	successes, failures, err := s.audits.CountByUser(ctx, userID)
	if err != nil {
		return types.LoginStats{}, fmt.Errorf("count login attempts: %w", err)
	}
	return types.LoginStats{Successes: successes, Failures: failures}, nil
}

// Login verifies credentials, audits the attempt and mints a token pair.
// Unknown emails burn a dummy hash comparison so their timing profile
// matches the wrong-password path. Empty credentials are not rejected
// early; they fall through so the attempt is still audited.
func (s *AuthService) Login(ctx context.Context, email, password, ip, userAgent string) (types.TokenPair, types.PublicUser, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			auth.VerifyDummyPassword(password)
			s.auditLogin(ctx, nil, ip, userAgent, false, "unknown email")
			return types.TokenPair{}, types.PublicUser{}, ErrBadCredentials
		}
		return types.TokenPair{}, types.PublicUser{}, fmt.Errorf("fetch user: %w", err)
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		s.auditLogin(ctx, &user.ID, ip, userAgent, false, "invalid password")
		return types.TokenPair{}, types.PublicUser{}, ErrBadCredentials
	}

	sessCtx, err := s.sessionContext(ctx, user)
	if err != nil {
		return types.TokenPair{}, types.PublicUser{}, err
	}
	pair, err := s.tokens.GenerateTokenPair(user.ID, sessCtx)
	if err != nil {
		return types.TokenPair{}, types.PublicUser{}, fmt.Errorf("sign tokens: %w", err)
	}

	s.auditLogin(ctx, &user.ID, ip, userAgent, true, "")
	return pair, user.Public(), nil
}

// Refresh validates a refresh token, confirms the referenced user still
// exists and mints a fresh pair with a current membership snapshot.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (types.TokenPair, types.PublicUser, error) {
	claims := s.tokens.ValidateRefreshToken(refreshToken)
	if claims == nil {
		return types.TokenPair{}, types.PublicUser{}, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.TokenPair{}, types.PublicUser{}, ErrInvalidRefreshToken
		}
		return types.TokenPair{}, types.PublicUser{}, fmt.Errorf("fetch user: %w", err)
	}

	sessCtx, err := s.sessionContext(ctx, user)
	if err != nil {
		return types.TokenPair{}, types.PublicUser{}, err
	}
	pair, err := s.tokens.GenerateTokenPair(user.ID, sessCtx)
	if err != nil {
		return types.TokenPair{}, types.PublicUser{}, fmt.Errorf("sign tokens: %w", err)
	}
	return pair, user.Public(), nil
}

// ResolveContext turns a raw access token into a fresh AuthContext, or
// nil when the caller is anonymous. The token's embedded snapshot is
// never trusted: the user row and memberships are re-read so a deleted
// user or changed role takes effect immediately.
func (s *AuthService) ResolveContext(ctx context.Context, accessToken string) (*types.AuthContext, error) {
	claims := s.tokens.ValidateAccessToken(accessToken)
	if claims == nil {
		return nil, nil
	}

	user, err := s.users.GetByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			// Stale token for a deleted user.
			return nil, nil
		}
		return nil, fmt.Errorf("fetch user: %w", err)
	}

	sessCtx, err := s.sessionContext(ctx, user)
	if err != nil {
		return nil, err
	}
	return &sessCtx, nil
}

func (s *AuthService) sessionContext(ctx context.Context, user types.User) (types.AuthContext, error) {
	memberships, err := s.memberships.ListByUser(ctx, user.ID)
	if err != nil {
		return types.AuthContext{}, fmt.Errorf("fetch memberships: %w", err)
	}
	return types.AuthContext{User: user.Public(), Memberships: memberships}, nil
}

// auditLogin appends one audit row and publishes a login event. Neither
// failure reaches the login flow; availability outranks audit
// completeness here.
func (s *AuthService) auditLogin(ctx context.Context, userID *string, ip, userAgent string, success bool, reason string) {
	entry := types.LoginAudit{
		ID:          uuid.NewString(),
		UserID:      userID,
		AttemptedAt: time.Now(),
		IPAddress:   ip,
		UserAgent:   userAgent,
		Success:     success,
	}
	if reason != "" {
		entry.FailureReason = &reason
	}

	if err := s.audits.Create(ctx, entry); err != nil {
		s.logger.Error("failed to record login attempt", "error", err, "success", success)
	}
	s.publishLoginEvent(ctx, entry)
}

func (s *AuthService) publishLoginEvent(ctx context.Context, entry types.LoginAudit) {
	if s.events == nil {
		return
	}
	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.Error("failed to encode login event", "error", err)
		return
	}
	attrs := map[string]string{"event": "login_attempt"}
	if _, err := s.events.Publish(ctx, loginEventsChannel, data, attrs); err != nil {
		s.logger.Error("failed to publish login event", "error", err)
	}
}
