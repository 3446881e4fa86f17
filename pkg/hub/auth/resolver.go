package auth

import (
	"context"
	"errors"
	"time"

	"github.com/kohakuhub/kohakuhub/internal/logger"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
)

// ErrAuthRequired indicates the credential was missing or did not resolve
// to any principal.
var ErrAuthRequired = errors.New("authentication required")

// Resolver turns raw credentials into principals.
type Resolver struct {
	store store.Store
	jwt   *JWTService
}

// NewResolver creates a credential resolver.
func NewResolver(s store.Store, jwt *JWTService) *Resolver {
	return &Resolver{store: s, jwt: jwt}
}

// ResolveBearer resolves an Authorization: Bearer credential. API tokens
// are tried first when the prefix matches, otherwise the credential is
// validated as a JWT access token.
// Returns ErrAuthRequired when the credential resolves to nothing.
func (r *Resolver) ResolveBearer(ctx context.Context, credential string) (*models.User, error) {
	if credential == "" {
		return nil, ErrAuthRequired
	}

	if LooksLikeAPIToken(credential) {
		if user, err := r.resolveAPIToken(ctx, credential); err == nil {
			return user, nil
		}
	}

	if claims, err := r.jwt.ValidateAccessToken(credential); err == nil {
		user, err := r.store.GetUserByID(ctx, claims.UserID)
		if err != nil {
			return nil, ErrAuthRequired
		}
		if !user.Enabled {
			return nil, models.ErrUserDisabled
		}
		return user, nil
	}

	// Tokens without the conventional prefix still resolve by hash.
	if user, err := r.resolveAPIToken(ctx, credential); err == nil {
		return user, nil
	}

	return nil, ErrAuthRequired
}

// ResolveBasic resolves HTTP Basic credentials as used by Git clients:
// the username is the login, the password is an API token. The token must
// belong to the named user.
func (r *Resolver) ResolveBasic(ctx context.Context, username, password string) (*models.User, error) {
	if username == "" || password == "" {
		return nil, ErrAuthRequired
	}

	user, err := r.resolveAPIToken(ctx, password)
	if err != nil {
		return nil, ErrAuthRequired
	}
	if user.Username != username {
		return nil, ErrAuthRequired
	}
	return user, nil
}

// resolveAPIToken looks up an API token by hash, touches its last-used
// timestamp and returns its owner.
func (r *Resolver) resolveAPIToken(ctx context.Context, secret string) (*models.User, error) {
	token, err := r.store.GetTokenByHash(ctx, HashAPIToken(secret))
	if err != nil {
		return nil, ErrAuthRequired
	}

	user, err := r.store.GetUserByID(ctx, token.UserID)
	if err != nil {
		return nil, ErrAuthRequired
	}
	if !user.Enabled {
		return nil, models.ErrUserDisabled
	}

	if err := r.store.TouchToken(ctx, token.ID, time.Now()); err != nil {
		// Bookkeeping only; the credential is already proven.
		logger.DebugCtx(ctx, "Failed to touch token", "token_id", token.ID, "error", err)
	}

	return user, nil
}
