package falaichat

// GeneratedImage is the outcome of a single provider call.
type GeneratedImage struct {
	// Data contains the raw image bytes.
	Data []byte

	// MediaType of the generated image (e.g. "image/png").
	MediaType string

	// Seed the provider reported using, when available.
	Seed int
}
