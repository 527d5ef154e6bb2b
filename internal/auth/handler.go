package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/omdas/caption-it/backend/internal/models"
	"github.com/omdas/caption-it/backend/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, hashedPw string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Revoker records a token id as unusable for the token's remaining lifetime.
type Revoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users   UserStore
	issuer  *TokenIssuer
	revoked Revoker
}

func NewHandler(users UserStore, issuer *TokenIssuer, revoked Revoker) *Handler {
	return &Handler{users: users, issuer: issuer, revoked: revoked}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Register creates a new user and opens a session for it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}
	if req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Username and password are required"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Username, string(hashed))
	if err != nil {
		if errors.Is(err, store.ErrDuplicateUsername) {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "username already exists"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
		return
	}

	token, _, err := h.issuer.Issue(user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
		return
	}
	h.issuer.SetCookie(w, token)

	writeJSON(w, http.StatusCreated, map[string]string{"message": "user created successfully"})
}

// Login verifies credentials and opens a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}

	user, err := h.users.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"message": "User not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid password"})
		return
	}

	token, _, err := h.issuer.Issue(user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "internal error"})
		return
	}
	h.issuer.SetCookie(w, token)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User logged in successfully",
		"user":    user.Public(),
	})
}

// Logout revokes the current session token and clears the cookie. Logging
// out twice is not an error.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if jti := TokenIDFrom(r.Context()); jti != "" {
		// Deny the jti for the full token lifetime; the token's actual
		// remaining validity is at most that.
		h.revoked.Revoke(r.Context(), jti, h.issuer.TTL())
	}
	h.issuer.ClearCookie(w)

	writeJSON(w, http.StatusOK, map[string]string{"message": "User logged out successfully"})
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	current := UserFrom(r.Context())
	if current == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "not authenticated"})
		return
	}

	// Re-resolve in case the account vanished out-of-band since the gate ran.
	user, err := h.users.GetUserByID(r.Context(), current.ID)
	if err != nil || user == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "User not found"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": user.Public()})
}
