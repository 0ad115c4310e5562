package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/techradar/apiserver/types"
)

// TokenKind distinguishes the two token flavors minted by the service.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

const (
	minSecretLength = 32

	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour
	DefaultIssuer     = "technology-radar"
)

// ErrTokenConfig is returned by NewTokenService when secrets are missing
// or too weak. It is fatal at startup.
var ErrTokenConfig = errors.New("invalid token service configuration")

// TokenConfig carries the secrets and expirations for both token kinds.
// Access and refresh tokens use disjoint secrets so one kind can never be
// replayed as the other.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Claims is the signed token body: registered claims plus the token kind
// and a session snapshot of the authenticated user.
type Claims struct {
	Context types.AuthContext `json:"payload"`
	Type    TokenKind         `json:"type"`
	jwt.RegisteredClaims
}

// TokenService signs and validates access and refresh tokens. It holds no
// per-token state; validity is determined entirely by signature and expiry.
type TokenService struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	issuer        string
	now           func() time.Time
}

// NewTokenService validates the configuration and constructs a service.
// Both secrets must be at least 32 characters long.
func NewTokenService(cfg TokenConfig) (*TokenService, error) {
	if len(cfg.AccessSecret) < minSecretLength {
		return nil, fmt.Errorf("%w: access secret must be at least %d characters", ErrTokenConfig, minSecretLength)
	}
	if len(cfg.RefreshSecret) < minSecretLength {
		return nil, fmt.Errorf("%w: refresh secret must be at least %d characters", ErrTokenConfig, minSecretLength)
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = DefaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = DefaultRefreshTTL
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultIssuer
	}

	return &TokenService{
		accessSecret:  []byte(cfg.AccessSecret),
		refreshSecret: []byte(cfg.RefreshSecret),
		accessTTL:     cfg.AccessTTL,
		refreshTTL:    cfg.RefreshTTL,
		issuer:        cfg.Issuer,
		now:           time.Now,
	}, nil
}

// SignAccessToken mints a short-lived access token for the subject.
func (s *TokenService) SignAccessToken(subject string, sessCtx types.AuthContext) (string, error) {
	return s.sign(TokenKindAccess, subject, sessCtx)
}

// SignRefreshToken mints a long-lived refresh token for the subject.
func (s *TokenService) SignRefreshToken(subject string, sessCtx types.AuthContext) (string, error) {
	return s.sign(TokenKindRefresh, subject, sessCtx)
}

// ValidateAccessToken verifies signature, issuer, expiry and kind against
// the access secret. It returns nil on any failure, never an error.
func (s *TokenService) ValidateAccessToken(token string) *Claims {
	return s.validate(TokenKindAccess, token)
}

// ValidateRefreshToken is the refresh-secret counterpart of
// ValidateAccessToken.
func (s *TokenService) ValidateRefreshToken(token string) *Claims {
	return s.validate(TokenKindRefresh, token)
}

// GenerateTokenPair signs an access and a refresh token sharing one
// session snapshot.
func (s *TokenService) GenerateTokenPair(subject string, sessCtx types.AuthContext) (types.TokenPair, error) {
	access, err := s.SignAccessToken(subject, sessCtx)
	if err != nil {
		return types.TokenPair{}, err
	}
	refresh, err := s.SignRefreshToken(subject, sessCtx)
	if err != nil {
		return types.TokenPair{}, err
	}
	return types.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *TokenService) sign(kind TokenKind, subject string, sessCtx types.AuthContext) (string, error) {
	secret, ttl := s.accessSecret, s.accessTTL
	if kind == TokenKindRefresh {
		secret, ttl = s.refreshSecret, s.refreshTTL
	}

	now := s.now()
	claims := Claims{
		Context: sessCtx,
		Type:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func (s *TokenService) validate(kind TokenKind, tokenString string) *Claims {
	if tokenString == "" {
		return nil
	}

	secret := s.accessSecret
	if kind == TokenKindRefresh {
		secret = s.refreshSecret
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return nil
	}
	// Kind is checked even though the secrets differ, in case the two
	// were ever configured to the same value.
	if claims.Type != kind {
		return nil
	}
	return claims
}
