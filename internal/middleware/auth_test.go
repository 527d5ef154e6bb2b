package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omdas/caption-it/backend/internal/auth"
	"github.com/omdas/caption-it/backend/internal/models"
	"github.com/omdas/caption-it/backend/internal/store"
)

type fakeRevocations struct {
	revoked map[string]bool
}

func (f *fakeRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	return f.revoked[jti], nil
}

type fakeUsers struct {
	users map[string]*models.User
}

func (f *fakeUsers) GetUserByID(_ context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func newGate(t *testing.T) (*auth.TokenIssuer, *fakeRevocations, *fakeUsers, http.Handler, *bool) {
	t.Helper()
	issuer := auth.NewTokenIssuer([]byte("test-secret"), time.Hour, false)
	revoked := &fakeRevocations{revoked: map[string]bool{}}
	users := &fakeUsers{users: map[string]*models.User{
		"u1": {ID: "u1", Username: "alice"},
	}}

	reached := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		u := auth.UserFrom(r.Context())
		require.NotNil(t, u)
		assert.Equal(t, "alice", u.Username)
		assert.NotEmpty(t, auth.TokenIDFrom(r.Context()))
		w.WriteHeader(http.StatusOK)
	})
	return issuer, revoked, users, RequireAuth(issuer, revoked, users)(next), &reached
}

func request(cookie *http.Cookie) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	return req
}

func TestRequireAuth_NoCookie(t *testing.T) {
	t.Parallel()

	_, _, _, gate, reached := newGate(t)
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, request(nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestRequireAuth_InvalidToken(t *testing.T) {
	t.Parallel()

	_, _, _, gate, reached := newGate(t)
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, request(&http.Cookie{Name: auth.SessionCookie, Value: "garbage"}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	t.Parallel()

	_, revoked, users, _, _ := newGate(t)
	expired := auth.NewTokenIssuer([]byte("test-secret"), -time.Minute, false)
	token, _, err := expired.Issue("u1")
	require.NoError(t, err)

	// Same secret, so only the elapsed expiry can reject it.
	verifier := auth.NewTokenIssuer([]byte("test-secret"), time.Hour, false)
	gate := RequireAuth(verifier, revoked, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for an expired token")
	}))

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, request(&http.Cookie{Name: auth.SessionCookie, Value: token}))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_RevokedToken(t *testing.T) {
	t.Parallel()

	issuer, revoked, _, gate, reached := newGate(t)
	token, jti, err := issuer.Issue("u1")
	require.NoError(t, err)
	revoked.revoked[jti] = true

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, request(&http.Cookie{Name: auth.SessionCookie, Value: token}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestRequireAuth_UnknownUser(t *testing.T) {
	t.Parallel()

	issuer, _, _, gate, reached := newGate(t)
	token, _, err := issuer.Issue("deleted-user")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, request(&http.Cookie{Name: auth.SessionCookie, Value: token}))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, *reached)
}

func TestRequireAuth_Success(t *testing.T) {
	t.Parallel()

	issuer, _, _, gate, reached := newGate(t)
	token, _, err := issuer.Issue("u1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, request(&http.Cookie{Name: auth.SessionCookie, Value: token}))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, *reached)
}
