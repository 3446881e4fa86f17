package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kohakuhub/kohakuhub/pkg/api/middleware"
	"github.com/kohakuhub/kohakuhub/pkg/hub/models"
	"github.com/kohakuhub/kohakuhub/pkg/hub/store"
)

// fakeStore backs handler tests with in-memory state. The embedded
// interface panics on anything a test did not mean to exercise.
type fakeStore struct {
	store.Store

	healthErr   error
	tokens      map[string]*models.Token
	keys        map[string]*models.SSHKey
	invitations map[string]*models.Invitation
	memberships []*models.Membership
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tokens:      map[string]*models.Token{},
		keys:        map[string]*models.SSHKey{},
		invitations: map[string]*models.Invitation{},
	}
}

func (f *fakeStore) id() string {
	f.nextID++
	return "id-" + strconv.Itoa(f.nextID)
}

func (f *fakeStore) Healthcheck(ctx context.Context) error {
	return f.healthErr
}

func (f *fakeStore) CreateToken(ctx context.Context, token *models.Token) (string, error) {
	token.ID = f.id()
	f.tokens[token.ID] = token
	return token.ID, nil
}

func (f *fakeStore) ListTokens(ctx context.Context, userID string) ([]*models.Token, error) {
	var out []*models.Token
	for _, t := range f.tokens {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteToken(ctx context.Context, userID, tokenID string) error {
	t, ok := f.tokens[tokenID]
	if !ok || t.UserID != userID {
		return models.ErrTokenNotFound
	}
	delete(f.tokens, tokenID)
	return nil
}

func (f *fakeStore) ListUserMemberships(ctx context.Context, username string) ([]*models.Membership, error) {
	return f.memberships, nil
}

func (f *fakeStore) CreateSSHKey(ctx context.Context, key *models.SSHKey) (string, error) {
	for _, k := range f.keys {
		if k.UserID == key.UserID && k.Fingerprint == key.Fingerprint {
			return "", models.ErrDuplicateSSHKey
		}
	}
	key.ID = f.id()
	f.keys[key.ID] = key
	return key.ID, nil
}

func (f *fakeStore) ListSSHKeys(ctx context.Context, userID string) ([]*models.SSHKey, error) {
	var out []*models.SSHKey
	for _, k := range f.keys {
		if k.UserID == userID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (f *fakeStore) DeleteSSHKey(ctx context.Context, userID, keyID string) error {
	k, ok := f.keys[keyID]
	if !ok || k.UserID != userID {
		return models.ErrSSHKeyNotFound
	}
	delete(f.keys, keyID)
	return nil
}

func (f *fakeStore) CreateInvitation(ctx context.Context, inv *models.Invitation) (string, error) {
	inv.ID = f.id()
	f.invitations[inv.Token] = inv
	return inv.ID, nil
}

// asUser injects an authenticated principal the way the auth middleware
// does.
func asUser(r *http.Request, user *models.User) *http.Request {
	return r.WithContext(middleware.WithUser(r.Context(), user))
}

func testUser() *models.User {
	return &models.User{
		ID:       "u-1",
		Username: "alice",
		Email:    "alice@example.com",
		Enabled:  true,
		Role:     string(models.RoleUser),
	}
}
