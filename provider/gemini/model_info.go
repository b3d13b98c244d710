package gemini

import falaichat "github.com/laruss/falai-chat"

// NanoBananaInfo is the model info for Gemini 3 Pro Image (nano-banana-2).
// Unlike the fal models it covers both directions: text-to-image and editing.
var NanoBananaInfo = falaichat.ModelInfo{
	Name:         falaichat.ModelNanoBanana,
	Label:        "Nano Banana",
	Description:  "Gemini 3 Pro Image, generates and edits images",
	APIModelName: APIModelNanoBanana,

	Capabilities: falaichat.ModelCapability{
		CanGenerateImages: true,
		CanEditImages:     true,
	},

	MaxInputImages: 14,
}
