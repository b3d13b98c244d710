package falaichat

import "context"

// ImageGenerator is the core interface for image generation backends.
// Implement this interface to add support for new models or providers.
type ImageGenerator interface {
	// Generate produces one image for the request. Requests with input
	// image URLs are editing requests; the first URL is the base image.
	// A single attempt is made; failures are surfaced, not retried.
	Generate(ctx context.Context, req *ProviderRequest) (*GeneratedImage, error)

	// Models returns the model definitions served by this provider.
	Models() []ModelInfo

	// Close releases any resources held by the generator.
	Close() error
}

// ProviderRequest is a fully resolved generation request handed to a
// provider: the target model, the prompt, resolved settings, and the input
// image URLs in canonical order (referenced message's images first, the
// user's own attachments second).
type ProviderRequest struct {
	Model     Model
	Prompt    string
	ImageURLs []string
	Settings  *Settings
}

// ProviderConfig configures a specific provider backend.
type ProviderConfig struct {
	// APIKey for authentication. Providers fall back to their own
	// environment variables when empty.
	APIKey string

	// BaseURL for custom endpoints (optional).
	BaseURL string
}
