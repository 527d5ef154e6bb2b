package post

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func captionResponse(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{"content": map[string]interface{}{
				"parts": []map[string]string{{"text": text}},
			}},
		},
	})
	return string(b)
}

func TestGenerateCaption_Success(t *testing.T) {
	t.Parallel()

	image := []byte("jpeg-bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1beta/models/gemini-2.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("x-goog-api-key"))

		var req generateContentRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		require.NotNil(t, req.Contents[0].Parts[0].InlineData)
		assert.Equal(t, base64.StdEncoding.EncodeToString(image), req.Contents[0].Parts[0].InlineData.Data)
		assert.Equal(t, "image/png", req.Contents[0].Parts[0].InlineData.MimeType)
		assert.Equal(t, "Caption this image.", req.Contents[0].Parts[1].Text)
		require.NotEmpty(t, req.SystemInstruction.Parts)
		assert.Contains(t, req.SystemInstruction.Parts[0].Text, "under 15 words")

		w.Write([]byte(captionResponse("  A cat.\n")))
	}))
	defer srv.Close()

	c := NewCaptionClient(srv.URL, "test-key", "gemini-2.5-flash", time.Second)
	caption, err := c.GenerateCaption(context.Background(), image, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "A cat.", caption)
}

func TestGenerateCaption_RetriesOnServerError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(captionResponse("A dog.")))
	}))
	defer srv.Close()

	c := NewCaptionClient(srv.URL, "k", "gemini-2.5-flash", time.Second)
	caption, err := c.GenerateCaption(context.Background(), []byte("x"), "")
	require.NoError(t, err)
	assert.Equal(t, "A dog.", caption)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerateCaption_NoRetryOnClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad api key", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewCaptionClient(srv.URL, "k", "gemini-2.5-flash", time.Second)
	_, err := c.GenerateCaption(context.Background(), []byte("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load(), "4xx responses are not transient")
}

func TestGenerateCaption_GivesUpAfterOneRetry(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewCaptionClient(srv.URL, "k", "gemini-2.5-flash", time.Second)
	_, err := c.GenerateCaption(context.Background(), []byte("x"), "")
	require.Error(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGenerateCaption_EmptyCandidates(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	c := NewCaptionClient(srv.URL, "k", "gemini-2.5-flash", time.Second)
	_, err := c.GenerateCaption(context.Background(), []byte("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty caption")
}
