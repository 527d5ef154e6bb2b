package post

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/omdas/caption-it/backend/internal/auth"
	"github.com/omdas/caption-it/backend/internal/models"
)

// maxUploadSize caps the multipart form we are willing to parse.
const maxUploadSize = 10 << 20 // 10 MiB

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// PostStore defines the interface for post persistence.
type PostStore interface {
	Insert(ctx context.Context, post *models.Post) (*models.Post, error)
	ListByUser(ctx context.Context, userID string) ([]models.Post, error)
}

// FileStore defines the interface for image storage.
type FileStore interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Captioner turns raw image bytes into a short caption.
type Captioner interface {
	GenerateCaption(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Handler holds post HTTP handlers.
type Handler struct {
	posts     PostStore
	files     FileStore
	captioner Captioner
}

func NewHandler(posts PostStore, files FileStore, captioner Captioner) *Handler {
	return &Handler{posts: posts, files: files, captioner: captioner}
}

// Create accepts one multipart image, captions and stores it, and persists
// the resulting post. The caption and upload calls are independent, so they
// run concurrently; the post is only written after both succeed.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "not authenticated"})
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "image file is required"})
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "image file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "image file is required"})
		return
	}
	contentType := header.Header.Get("Content-Type")

	var (
		caption  string
		imageURL string
	)
	g, gctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		caption, err = h.captioner.GenerateCaption(gctx, data, contentType)
		return err
	})
	g.Go(func() error {
		var err error
		imageURL, err = h.files.Upload(gctx, uuid.New().String(), data, contentType)
		return err
	})
	if err := g.Wait(); err != nil {
		log.Printf("post pipeline upstream error: %v", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"message": "Failed to generate caption."})
		return
	}

	post, err := h.posts.Insert(r.Context(), &models.Post{
		UserID:   user.ID,
		Caption:  caption,
		ImageURL: imageURL,
	})
	if err != nil {
		log.Printf("post insert error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "failed to save post"})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "Success",
		"post":    post,
	})
}

// List returns the current user's posts, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "not authenticated"})
		return
	}

	posts, err := h.posts.ListByUser(r.Context(), user.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database error"})
		return
	}
	if posts == nil {
		posts = []models.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}
