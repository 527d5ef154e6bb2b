package middleware

import (
	"context"
	"net/http"

	"github.com/omdas/caption-it/backend/internal/auth"
	"github.com/omdas/caption-it/backend/internal/models"
)

// TokenVerifier validates a session token and returns who it names.
type TokenVerifier interface {
	Verify(token string) (userID, jti string, err error)
}

// Revocations is the server-side denylist consulted on every request.
type Revocations interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// UserResolver looks up the user a verified token refers to.
type UserResolver interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth validates the session cookie, rejects revoked or stale tokens,
// and injects the resolved user into the request context.
func RequireAuth(verifier TokenVerifier, revoked Revocations, users UserResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(auth.SessionCookie)
			if err != nil {
				http.Error(w, `{"message":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			userID, jti, err := verifier.Verify(cookie.Value)
			if err != nil {
				http.Error(w, `{"message":"invalid or expired session"}`, http.StatusUnauthorized)
				return
			}

			if isRevoked, err := revoked.IsRevoked(r.Context(), jti); err != nil || isRevoked {
				http.Error(w, `{"message":"invalid or expired session"}`, http.StatusUnauthorized)
				return
			}

			user, err := users.GetUserByID(r.Context(), userID)
			if err != nil || user == nil {
				http.Error(w, `{"message":"not authenticated"}`, http.StatusUnauthorized)
				return
			}

			ctx := auth.WithUser(r.Context(), user)
			ctx = auth.WithTokenID(ctx, jti)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
