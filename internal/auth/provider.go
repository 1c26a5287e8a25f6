package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

// ErrInvalidCredentials is returned for tokens that are malformed, expired,
// revoked or that name an unknown user.
var ErrInvalidCredentials = errors.New("invalid or expired token")

// Session is the result of resolving a bearer token.
type Session struct {
	User     *model.User
	Identity *model.Identity
	Claims   *Claims
}

// Provider resolves bearer tokens to identities. Role membership comes from
// the users table, never from the token.
type Provider struct {
	DB     *sql.DB
	Secret string
}

// Resolve validates tokenStr and loads the user it names.
func (p *Provider) Resolve(ctx context.Context, tokenStr string) (*Session, error) {
	claims, err := ValidateToken(p.Secret, tokenStr)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	revoked, err := store.IsTokenRevoked(ctx, p.DB, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("checking revocation: %w", err)
	}
	if revoked {
		return nil, ErrInvalidCredentials
	}

	user, err := store.GetUser(ctx, p.DB, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}

	return &Session{User: user, Identity: user.Identity(), Claims: claims}, nil
}

// Revoke invalidates the session's token until it would have expired anyway.
func (p *Provider) Revoke(ctx context.Context, s *Session) error {
	return store.RevokeToken(ctx, p.DB, s.Claims.ID, s.Claims.ExpiresAt.Time)
}
