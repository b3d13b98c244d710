package falaichat

// Model identifies an image-generation backend from a closed set. Adding a
// model means adding one constant, one capability entry, and one ModelInfo in
// its provider; callers never branch on model names directly.
type Model string

const (
	// ModelQwenImageEditPlus edits existing images ($0.03 per megapixel).
	ModelQwenImageEditPlus Model = "fal-ai/qwen-image-edit-plus"

	// ModelFluxDev generates images from text ($0.025 per megapixel).
	ModelFluxDev Model = "fal-ai/flux/dev"

	// ModelSana generates images from text ($0.01 per megapixel, cheapest).
	ModelSana Model = "fal-ai/sana/v1.5/4.8b"

	// ModelNanoBanana is Gemini 3 Pro Image, both generation and editing.
	ModelNanoBanana Model = "nano-banana-2"

	ModelDefault Model = ModelSana
)

// String returns the model identifier.
func (m Model) String() string {
	return string(m)
}

// Valid reports whether the model belongs to the known set.
func (m Model) Valid() bool {
	_, ok := modelCapabilities[m]
	return ok
}

// Capabilities returns the model's static capability pair. Unknown models
// report no capabilities.
func (m Model) Capabilities() ModelCapability {
	return modelCapabilities[m]
}

// ModelCapability describes what a model can do with images.
type ModelCapability struct {
	CanGenerateImages bool
	CanEditImages     bool
}

// modelCapabilities is the closed capability table keyed by Model.
var modelCapabilities = map[Model]ModelCapability{
	ModelQwenImageEditPlus: {CanGenerateImages: false, CanEditImages: true},
	ModelFluxDev:           {CanGenerateImages: true, CanEditImages: false},
	ModelSana:              {CanGenerateImages: true, CanEditImages: false},
	ModelNanoBanana:        {CanGenerateImages: true, CanEditImages: true},
}

// paramSupport lists the optional request parameters a model accepts beyond
// the shared basics. Settings resolution rejects fields outside this set.
type paramSupport struct {
	imageURLs      bool
	negativePrompt bool
	styleName      bool
}

var modelParamSupport = map[Model]paramSupport{
	ModelQwenImageEditPlus: {imageURLs: true, negativePrompt: true},
	ModelFluxDev:           {},
	ModelSana:              {negativePrompt: true, styleName: true},
	ModelNanoBanana:        {imageURLs: true},
}

// ModelInfo contains complete metadata for a model, declared statically by
// the provider that serves it.
type ModelInfo struct {
	// Identity
	Name         Model  // Public model identifier (e.g. "fal-ai/flux/dev")
	Label        string // Human-readable name for picker UIs
	Description  string // Short capability/pricing summary
	APIModelName string // Endpoint or API name used by the provider

	// Capabilities
	Capabilities ModelCapability

	// MaxInputImages is the most input images one edit request accepts.
	MaxInputImages int

	// PricePerMegapixel in USD, zero when priced differently.
	PricePerMegapixel float64
}
