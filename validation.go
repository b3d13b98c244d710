package falaichat

import (
	"errors"
	"fmt"
)

// Validation errors shared by providers.
var (
	ErrEmptyPrompt    = errors.New("prompt cannot be empty")
	ErrEmptyImageData = errors.New("image data cannot be empty")
	ErrTooManyImages  = errors.New("too many input images")
)

// ValidatePrompt validates a text prompt. An empty prompt reaches the
// provider boundary unmodified (the resolver forwards it), so each provider
// rejects it here rather than in request resolution.
func ValidatePrompt(prompt string) error {
	if prompt == "" {
		return ErrEmptyPrompt
	}
	return nil
}

// ValidateInputImageCount checks an editing request against a model's input
// image limit. A max of zero means the provider imposes its own limit.
func ValidateInputImageCount(urls []string, max int) error {
	if max > 0 && len(urls) > max {
		return fmt.Errorf("%w: %d (max %d)", ErrTooManyImages, len(urls), max)
	}
	return nil
}
