// Package fal provides an ImageGenerator implementation using fal.ai's
// synchronous HTTP inference API (https://fal.run).
//
// Each model is exposed as its own endpoint under the base URL; requests are
// made with sync_mode enabled so the generated image comes back directly,
// either as a data URI or as a short-lived CDN URL that is fetched before
// returning.
package fal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	falaichat "github.com/laruss/falai-chat"
)

const (
	// DefaultBaseURL is the fal.ai synchronous inference endpoint.
	DefaultBaseURL = "https://fal.run"

	// apiKeyEnv is consulted when no key is configured explicitly.
	apiKeyEnv = "FAL_KEY"

	defaultTimeout = 5 * time.Minute
)

// Generator implements falaichat.ImageGenerator against fal.run.
type Generator struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ falaichat.ImageGenerator = (*Generator)(nil)

// New creates a fal generator. The API key comes from config or the FAL_KEY
// environment variable.
func New(config *falaichat.ProviderConfig) (*Generator, error) {
	if config == nil {
		config = &falaichat.ProviderConfig{}
	}

	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv(apiKeyEnv)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("fal API key is required (set %s)", apiKeyEnv)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Generator{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}, nil
}

// generateRequest is the fal.run request body. The resolved settings embed
// directly since their JSON tags already follow the fal schema.
type generateRequest struct {
	falaichat.Settings
	Prompt    string   `json:"prompt"`
	SyncMode  bool     `json:"sync_mode"`
	ImageURLs []string `json:"image_urls,omitempty"`
}

type generateResponse struct {
	Images []struct {
		URL         string `json:"url"`
		Width       int    `json:"width"`
		Height      int    `json:"height"`
		ContentType string `json:"content_type"`
	} `json:"images"`
	Seed            int  `json:"seed"`
	HasNSFWConcepts any  `json:"has_nsfw_concepts"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// Generate runs one synchronous inference call for the request's model.
func (g *Generator) Generate(ctx context.Context, req *falaichat.ProviderRequest) (*falaichat.GeneratedImage, error) {
	if err := falaichat.ValidatePrompt(req.Prompt); err != nil {
		return nil, err
	}
	if info, ok := g.modelInfo(req.Model); ok {
		if err := falaichat.ValidateInputImageCount(req.ImageURLs, info.MaxInputImages); err != nil {
			return nil, err
		}
	}

	body := generateRequest{
		Prompt:    req.Prompt,
		SyncMode:  true,
		ImageURLs: req.ImageURLs,
	}
	if req.Settings != nil {
		body.Settings = *req.Settings
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.baseURL+"/"+req.Model.String(), bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Key "+g.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, &falaichat.ProviderError{Model: req.Model, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &falaichat.ProviderError{Model: req.Model, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &falaichat.ProviderError{
			Model:   req.Model,
			Message: errorDetail(data, resp.StatusCode),
		}
	}

	var result generateResponse
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &falaichat.ProviderError{Model: req.Model, Err: fmt.Errorf("invalid response: %w", err)}
	}
	if len(result.Images) == 0 {
		return nil, &falaichat.ProviderError{Model: req.Model, Message: "response contained no images"}
	}

	image, err := g.fetchImage(ctx, result.Images[0].URL, result.Images[0].ContentType)
	if err != nil {
		return nil, &falaichat.ProviderError{Model: req.Model, Err: err}
	}
	image.Seed = result.Seed
	return image, nil
}

// fetchImage materializes the image bytes from either a data URI (sync_mode)
// or a CDN URL.
func (g *Generator) fetchImage(ctx context.Context, url, contentType string) (*falaichat.GeneratedImage, error) {
	if falaichat.IsDataURL(url) {
		data, mediaType, err := falaichat.DecodeDataURL(url)
		if err != nil {
			return nil, err
		}
		if mediaType == "" {
			mediaType = contentType
		}
		return &falaichat.GeneratedImage{Data: data, MediaType: mediaType}, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image fetch: %w", err)
	}
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	mediaType := contentType
	if ct := resp.Header.Get("Content-Type"); mediaType == "" && ct != "" {
		mediaType = ct
	}
	if mediaType == "" {
		mediaType = falaichat.GetMIMEType(url)
	}
	return &falaichat.GeneratedImage{Data: data, MediaType: mediaType}, nil
}

// Models returns the fal model definitions.
func (g *Generator) Models() []falaichat.ModelInfo {
	return []falaichat.ModelInfo{
		QwenImageEditPlusInfo,
		FluxDevInfo,
		SanaInfo,
	}
}

// Close releases any resources held by the generator.
func (g *Generator) Close() error {
	g.httpClient.CloseIdleConnections()
	return nil
}

func (g *Generator) modelInfo(model falaichat.Model) (falaichat.ModelInfo, bool) {
	for _, info := range g.Models() {
		if info.Name == model {
			return info, true
		}
	}
	return falaichat.ModelInfo{}, false
}

// errorDetail extracts a human-readable message from a fal error body.
// Validation errors carry a detail array, others a plain string.
func errorDetail(body []byte, status int) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && len(parsed.Detail) > 0 {
		var text string
		if err := json.Unmarshal(parsed.Detail, &text); err == nil {
			return text
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(parsed.Detail, &items); err == nil && len(items) > 0 {
			return items[0].Msg
		}
	}
	return fmt.Sprintf("fal.run returned status %d", status)
}
