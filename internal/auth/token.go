package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionCookie is the name of the cookie carrying the session token.
const SessionCookie = "token"

// ErrInvalidToken covers malformed tokens, bad signatures, and elapsed expiry.
var ErrInvalidToken = errors.New("invalid session token")

// Claims embeds the registered JWT claims plus the user the token names.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// TokenIssuer mints and verifies signed session tokens. Tokens are
// self-contained; nothing is stored server-side at issue time.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewTokenIssuer(secret []byte, ttl time.Duration, secure bool) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: ttl, secure: secure}
}

// Issue signs a new token for userID, valid for the configured TTL. The
// returned jti identifies this token in the revocation registry.
func (i *TokenIssuer) Issue(userID string) (token, jti string, err error) {
	jti = uuid.New().String()
	now := time.Now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
		UserID: userID,
	})
	token, err = t.SignedString(i.secret)
	if err != nil {
		return "", "", err
	}
	return token, jti, nil
}

// Verify checks signature and expiry and returns the embedded user id and
// token id. Any parse or validation failure is reported as ErrInvalidToken.
func (i *TokenIssuer) Verify(tokenString string) (userID, jti string, err error) {
	claims := &Claims{}
	t, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !t.Valid {
		return "", "", ErrInvalidToken
	}
	return claims.UserID, claims.ID, nil
}

// TTL returns the configured token lifetime.
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// SetCookie attaches the session token to the response.
func (i *TokenIssuer) SetCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(i.ttl / time.Second),
	})
}

// ClearCookie removes the session cookie. Clearing an absent cookie is fine.
func (i *TokenIssuer) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}
