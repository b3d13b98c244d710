package fal

import falaichat "github.com/laruss/falai-chat"

// QwenImageEditPlusInfo is the model info for Qwen Image Edit Plus, the only
// fal model here that edits existing images.
var QwenImageEditPlusInfo = falaichat.ModelInfo{
	Name:         falaichat.ModelQwenImageEditPlus,
	Label:        "Qwen Image Edit Plus",
	Description:  "$0.03/MP, can only edit images",
	APIModelName: falaichat.ModelQwenImageEditPlus.String(),

	Capabilities: falaichat.ModelCapability{
		CanGenerateImages: false,
		CanEditImages:     true,
	},

	MaxInputImages:    10,
	PricePerMegapixel: 0.03,
}

// FluxDevInfo is the model info for FLUX.1 [dev].
var FluxDevInfo = falaichat.ModelInfo{
	Name:         falaichat.ModelFluxDev,
	Label:        "Flux Dev",
	Description:  "$0.025/MP, can only generate images",
	APIModelName: falaichat.ModelFluxDev.String(),

	Capabilities: falaichat.ModelCapability{
		CanGenerateImages: true,
		CanEditImages:     false,
	},

	PricePerMegapixel: 0.025,
}

// SanaInfo is the model info for Sana 1.5 4.8B, the cheapest model.
var SanaInfo = falaichat.ModelInfo{
	Name:         falaichat.ModelSana,
	Label:        "Sana",
	Description:  "$0.01/MP, can only generate images",
	APIModelName: falaichat.ModelSana.String(),

	Capabilities: falaichat.ModelCapability{
		CanGenerateImages: true,
		CanEditImages:     false,
	},

	PricePerMegapixel: 0.01,
}
