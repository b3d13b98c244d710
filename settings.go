package falaichat

import (
	"encoding/json"
	"fmt"
)

// ImageSizePreset is one of the named output resolutions fal.ai accepts.
type ImageSizePreset string

const (
	ImageSizeSquareHD     ImageSizePreset = "square_hd"
	ImageSizeSquare       ImageSizePreset = "square"
	ImageSizePortrait43   ImageSizePreset = "portrait_4_3"
	ImageSizePortrait169  ImageSizePreset = "portrait_16_9"
	ImageSizeLandscape43  ImageSizePreset = "landscape_4_3"
	ImageSizeLandscape169 ImageSizePreset = "landscape_16_9"
)

// Custom image dimension bounds.
const (
	MinImageDimension = 256
	MaxImageDimension = 2048
)

var imageSizePresets = map[ImageSizePreset]bool{
	ImageSizeSquareHD:     true,
	ImageSizeSquare:       true,
	ImageSizePortrait43:   true,
	ImageSizePortrait169:  true,
	ImageSizeLandscape43:  true,
	ImageSizeLandscape169: true,
}

// ImageSize is either a named preset or an explicit width/height pair.
// On the wire a preset serializes as a bare string and a custom size as
// {"width": w, "height": h}, matching the fal request schema.
type ImageSize struct {
	Preset ImageSizePreset
	Width  int
	Height int
}

// PresetSize returns an ImageSize for a named preset.
func PresetSize(preset ImageSizePreset) ImageSize {
	return ImageSize{Preset: preset}
}

// CustomSize returns an ImageSize with explicit dimensions.
func CustomSize(width, height int) ImageSize {
	return ImageSize{Width: width, Height: height}
}

// Validate checks that the size is a known preset or that custom dimensions
// fall inside [MinImageDimension, MaxImageDimension]. Out-of-range custom
// sizes are rejected, not clamped.
func (s ImageSize) Validate() error {
	if s.Preset != "" {
		if !imageSizePresets[s.Preset] {
			return fmt.Errorf("%w: unknown preset %q", ErrInvalidImageSize, s.Preset)
		}
		return nil
	}
	for _, dim := range []int{s.Width, s.Height} {
		if dim < MinImageDimension || dim > MaxImageDimension {
			return fmt.Errorf("%w: dimension %d not in range [%d, %d]",
				ErrInvalidImageSize, dim, MinImageDimension, MaxImageDimension)
		}
	}
	return nil
}

type customImageSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s ImageSize) MarshalJSON() ([]byte, error) {
	if s.Preset != "" {
		return json.Marshal(string(s.Preset))
	}
	return json.Marshal(customImageSize{Width: s.Width, Height: s.Height})
}

func (s *ImageSize) UnmarshalJSON(data []byte) error {
	var preset string
	if err := json.Unmarshal(data, &preset); err == nil {
		*s = ImageSize{Preset: ImageSizePreset(preset)}
		return nil
	}
	var custom customImageSize
	if err := json.Unmarshal(data, &custom); err != nil {
		return fmt.Errorf("image size must be a preset name or {width, height}: %w", err)
	}
	*s = ImageSize{Width: custom.Width, Height: custom.Height}
	return nil
}

// OutputFormat is the encoding of the generated image.
type OutputFormat string

const (
	OutputFormatJPEG OutputFormat = "jpeg"
	OutputFormatPNG  OutputFormat = "png"
)

// Acceleration selects the provider's speed/quality trade-off.
type Acceleration string

const (
	AccelerationNone    Acceleration = "none"
	AccelerationRegular Acceleration = "regular"
)

// Settings holds per-request generation options. All fields are optional on
// input; ResolveSettings fills documented defaults and leaves the remaining
// numeric fields unset so the provider applies its own.
//
// JSON tags follow the fal.ai request schema.
type Settings struct {
	ImageSize           *ImageSize    `json:"image_size,omitempty"`
	NumInferenceSteps   *int          `json:"num_inference_steps,omitempty"`
	Seed                *int          `json:"seed,omitempty"`
	GuidanceScale       *float64      `json:"guidance_scale,omitempty"`
	NumImages           *int          `json:"num_images,omitempty"`
	EnableSafetyChecker *bool         `json:"enable_safety_checker,omitempty"`
	OutputFormat        *OutputFormat `json:"output_format,omitempty"`
	NegativePrompt      *string       `json:"negative_prompt,omitempty"`
	Acceleration        *Acceleration `json:"acceleration,omitempty"`

	// StyleName is only honored by Sana (e.g. "Cinematic", "Anime").
	StyleName *string `json:"style_name,omitempty"`
}

// ResolveSettings validates partial settings against the target model's
// parameter set and returns a copy with defaults applied:
// image_size=square_hd, num_images=1, enable_safety_checker=false,
// output_format=png, acceleration=regular.
//
// Fields the model does not support fail with ErrUnsupportedSetting rather
// than being dropped silently.
func ResolveSettings(model Model, partial *Settings) (*Settings, error) {
	if !model.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}

	resolved := Settings{}
	if partial != nil {
		resolved = *partial
	}

	support := modelParamSupport[model]
	if resolved.NegativePrompt != nil && !support.negativePrompt {
		return nil, fmt.Errorf("%w: negative_prompt is not accepted by %s", ErrUnsupportedSetting, model)
	}
	if resolved.StyleName != nil && !support.styleName {
		return nil, fmt.Errorf("%w: style_name is not accepted by %s", ErrUnsupportedSetting, model)
	}

	if resolved.ImageSize == nil {
		size := PresetSize(ImageSizeSquareHD)
		resolved.ImageSize = &size
	}
	if err := resolved.ImageSize.Validate(); err != nil {
		return nil, err
	}

	if resolved.NumImages == nil {
		n := 1
		resolved.NumImages = &n
	}
	if resolved.EnableSafetyChecker == nil {
		enabled := false
		resolved.EnableSafetyChecker = &enabled
	}
	if resolved.OutputFormat == nil {
		format := OutputFormatPNG
		resolved.OutputFormat = &format
	} else if *resolved.OutputFormat != OutputFormatJPEG && *resolved.OutputFormat != OutputFormatPNG {
		return nil, fmt.Errorf("%w: output_format %q", ErrUnsupportedSetting, *resolved.OutputFormat)
	}
	if resolved.Acceleration == nil {
		accel := AccelerationRegular
		resolved.Acceleration = &accel
	} else if *resolved.Acceleration != AccelerationNone && *resolved.Acceleration != AccelerationRegular {
		return nil, fmt.Errorf("%w: acceleration %q", ErrUnsupportedSetting, *resolved.Acceleration)
	}

	return &resolved, nil
}
