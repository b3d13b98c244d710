// Package gemini provides an ImageGenerator implementation using Google's
// Gemini API via the official Go SDK (https://github.com/googleapis/go-genai).
//
// It serves the nano-banana-2 model (Gemini 3 Pro Image), the one backend
// here that both generates and edits images in a single capability.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"google.golang.org/genai"

	falaichat "github.com/laruss/falai-chat"
)

// APIModelNanoBanana is the actual API name for Gemini 3 Pro Image.
const APIModelNanoBanana = "gemini-3-pro-image-preview"

const inputFetchTimeout = 30 * time.Second

// GeminiGenerator implements falaichat.ImageGenerator using the Gemini API.
type GeminiGenerator struct {
	client     *genai.Client
	httpClient *http.Client
}

var _ falaichat.ImageGenerator = (*GeminiGenerator)(nil)

// New creates a GeminiGenerator. If the API key is empty, the SDK falls back
// to the GOOGLE_API_KEY or GEMINI_API_KEY environment variables.
func New(ctx context.Context, config *falaichat.ProviderConfig) (*GeminiGenerator, error) {
	if config == nil {
		config = &falaichat.ProviderConfig{}
	}

	clientCfg := &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
	}
	if config.APIKey != "" {
		clientCfg.APIKey = config.APIKey
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiGenerator{
		client:     client,
		httpClient: &http.Client{Timeout: inputFetchTimeout},
	}, nil
}

// NewWithAPIKey creates a generator with an explicit API key.
func NewWithAPIKey(ctx context.Context, apiKey string) (*GeminiGenerator, error) {
	return New(ctx, &falaichat.ProviderConfig{APIKey: apiKey})
}

// Generate produces one image for the request. Input image URLs are
// materialized into inline blobs before the call: data URLs are decoded
// locally, anything else is fetched over HTTP.
func (g *GeminiGenerator) Generate(ctx context.Context, req *falaichat.ProviderRequest) (*falaichat.GeneratedImage, error) {
	if err := falaichat.ValidatePrompt(req.Prompt); err != nil {
		return nil, err
	}
	if err := falaichat.ValidateInputImageCount(req.ImageURLs, NanoBananaInfo.MaxInputImages); err != nil {
		return nil, err
	}

	parts := make([]*genai.Part, 0, len(req.ImageURLs)+1)
	for _, url := range req.ImageURLs {
		data, mediaType, err := g.loadInputImage(ctx, url)
		if err != nil {
			return nil, &falaichat.ProviderError{Model: req.Model, Err: err}
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				Data:     data,
				MIMEType: mediaType,
			},
		})
	}
	parts = append(parts, &genai.Part{Text: req.Prompt})

	contents := []*genai.Content{
		{Parts: parts},
	}

	result, err := g.client.Models.GenerateContent(ctx, APIModelNanoBanana, contents, buildGenerateContentConfig(req.Settings))
	if err != nil {
		return nil, wrapAPIError(req.Model, err)
	}

	return parseResult(req.Model, result)
}

// Models returns the model definitions served by this provider.
func (g *GeminiGenerator) Models() []falaichat.ModelInfo {
	return []falaichat.ModelInfo{NanoBananaInfo}
}

// Close releases any resources held by the generator.
func (g *GeminiGenerator) Close() error {
	// The genai.Client doesn't require explicit closing in the current SDK.
	g.httpClient.CloseIdleConnections()
	return nil
}

// loadInputImage turns a file part URL into raw bytes and a media type.
func (g *GeminiGenerator) loadInputImage(ctx context.Context, url string) ([]byte, string, error) {
	if falaichat.IsDataURL(url) {
		return falaichat.DecodeDataURL(url)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build input image fetch: %w", err)
	}
	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch input image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("input image fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read input image: %w", err)
	}

	mediaType := resp.Header.Get("Content-Type")
	if mediaType == "" {
		mediaType = falaichat.GetMIMEType(url)
	}
	return data, mediaType, nil
}

// buildGenerateContentConfig converts resolved settings to Gemini's format.
// Gemini has no direct pixel-size parameter, so the requested size maps to
// its closest aspect ratio.
func buildGenerateContentConfig(settings *falaichat.Settings) *genai.GenerateContentConfig {
	genConfig := &genai.GenerateContentConfig{
		ResponseModalities: []string{"TEXT", "IMAGE"},
	}

	imageConfig := &genai.ImageConfig{}
	if settings != nil && settings.ImageSize != nil {
		imageConfig.AspectRatio = aspectRatioFor(*settings.ImageSize)
	}
	genConfig.ImageConfig = imageConfig

	if settings != nil && settings.Seed != nil {
		genConfig.Seed = genai.Ptr(int32(*settings.Seed))
	}

	return genConfig
}

// aspectRatioFor maps an image size to the nearest Gemini aspect ratio.
func aspectRatioFor(size falaichat.ImageSize) string {
	switch size.Preset {
	case falaichat.ImageSizeSquareHD, falaichat.ImageSizeSquare:
		return "1:1"
	case falaichat.ImageSizePortrait43:
		return "3:4"
	case falaichat.ImageSizePortrait169:
		return "9:16"
	case falaichat.ImageSizeLandscape43:
		return "4:3"
	case falaichat.ImageSizeLandscape169:
		return "16:9"
	}

	if size.Width > 0 && size.Height > 0 {
		switch {
		case size.Width == size.Height:
			return "1:1"
		case size.Width > size.Height:
			return "16:9"
		default:
			return "9:16"
		}
	}
	return "1:1"
}

// parseResult extracts the first generated image from a Gemini response.
func parseResult(model falaichat.Model, result *genai.GenerateContentResponse) (*falaichat.GeneratedImage, error) {
	if result == nil || len(result.Candidates) == 0 {
		return nil, &falaichat.ProviderError{Model: model, Message: "empty response from model"}
	}

	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && part.InlineData.Data != nil {
				return &falaichat.GeneratedImage{
					Data:      part.InlineData.Data,
					MediaType: part.InlineData.MIMEType,
				}, nil
			}
		}
	}

	return nil, &falaichat.ProviderError{Model: model, Message: "response contained no images"}
}

// wrapAPIError surfaces Gemini API failures as provider errors, keeping the
// API's own message when available.
func wrapAPIError(model falaichat.Model, err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &falaichat.ProviderError{Model: model, Message: apiErr.Message, Err: err}
	}
	return &falaichat.ProviderError{Model: model, Err: err}
}
