package post

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// systemInstruction is the fixed prompt given to the caption model.
const systemInstruction = `You are an AI caption generator that creates short, creative, and engaging captions.
- Keep captions under 15 words.
- Use simple, conversational language.
- Adapt tone based on user input (funny, professional, aesthetic, motivational).
- Do not include hashtags unless asked.`

// checkResp reads the response body and returns an error if the status is not 2xx.
// On error it includes the upstream body for debugging.
func checkResp(resp *http.Response, service, path string) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s %s returned %d: %s", service, path, resp.StatusCode, string(body))
}

// CaptionClient calls the Gemini generateContent API over HTTP.
type CaptionClient struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
}

func NewCaptionClient(baseURL, apiKey, model string, timeout time.Duration) *CaptionClient {
	return &CaptionClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{},
	}
}

type generateContentRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction content   `json:"system_instruction"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
}

// GenerateCaption sends the image inline and returns the model's caption.
// Each attempt is bounded by the configured timeout; transport errors and
// 5xx responses are retried once.
func (c *CaptionClient) GenerateCaption(ctx context.Context, image []byte, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	reqBody, _ := json.Marshal(generateContentRequest{
		Contents: []content{{Parts: []part{
			{InlineData: &inlineData{
				MimeType: mimeType,
				Data:     base64.StdEncoding.EncodeToString(image),
			}},
			{Text: "Caption this image."},
		}}},
		SystemInstruction: content{Parts: []part{{Text: systemInstruction}}},
	})
	path := fmt.Sprintf("/v1beta/models/%s:generateContent", c.model)

	var caption string
	backoff := retry.WithMaxRetries(1, retry.NewConstant(500*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.baseURL+path, bytes.NewReader(reqBody))
		if err != nil {
			return fmt.Errorf("caption-service %s: %w", path, err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("x-goog-api-key", c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("caption-service %s: %w", path, err))
		}
		defer resp.Body.Close()

		if err := checkResp(resp, "caption-service", path); err != nil {
			if resp.StatusCode >= 500 {
				return retry.RetryableError(err)
			}
			return err
		}

		var result generateContentResponse
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return fmt.Errorf("caption-service %s: decode: %w", path, err)
		}
		caption = flattenCandidates(result)
		if caption == "" {
			return fmt.Errorf("caption-service %s: empty caption", path)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return caption, nil
}

func flattenCandidates(r generateContentResponse) string {
	if len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return strings.TrimSpace(sb.String())
}
