package auth

import (
	"context"

	"github.com/omdas/caption-it/backend/internal/models"
)

type ctxKey int

const (
	userKey ctxKey = iota
	tokenIDKey
)

// WithUser returns ctx carrying the authenticated user.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFrom returns the authenticated user attached by the auth gate, or nil.
func UserFrom(ctx context.Context) *models.User {
	u, _ := ctx.Value(userKey).(*models.User)
	return u
}

// WithTokenID returns ctx carrying the session token's jti.
func WithTokenID(ctx context.Context, jti string) context.Context {
	return context.WithValue(ctx, tokenIDKey, jti)
}

// TokenIDFrom returns the jti of the session token that authenticated the
// request, or "".
func TokenIDFrom(ctx context.Context) string {
	jti, _ := ctx.Value(tokenIDKey).(string)
	return jti
}
