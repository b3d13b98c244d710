package falaichat

import (
	"errors"
	"fmt"
)

// Configuration errors: the request itself is malformed. Surfaced before any
// stream event is emitted and never retried.
var (
	// ErrEmptyConversation is returned when a round is started with no messages.
	ErrEmptyConversation = errors.New("conversation has no messages")

	// ErrMissingMetadata is returned when the newest message carries no metadata.
	ErrMissingMetadata = errors.New("no metadata found in the last message")

	// ErrMessageNotFound is returned when useMessageId does not resolve to a
	// message in the conversation.
	ErrMessageNotFound = errors.New("referenced message not found")

	// ErrUnknownModel is returned for a model outside the known set.
	ErrUnknownModel = errors.New("unknown model")

	// ErrUnsupportedSetting is returned when a settings field is not part of
	// the target model's parameter set.
	ErrUnsupportedSetting = errors.New("setting not supported by model")

	// ErrInvalidImageSize is returned for unknown presets or out-of-range
	// custom dimensions.
	ErrInvalidImageSize = errors.New("invalid image size")

	// ErrModelCannotEdit is returned when input images are given to a model
	// without editing capability.
	ErrModelCannotEdit = errors.New("model cannot edit images")

	// ErrModelCannotGenerate is returned when a model without text-to-image
	// capability is asked to generate without input images.
	ErrModelCannotGenerate = errors.New("model cannot generate images")
)

// ErrModelNotRegistered is returned when no provider serves the requested model.
var ErrModelNotRegistered = errors.New("model not registered")

// ProviderError wraps a failure of the external generation capability.
// The message is passed through to the caller verbatim when available.
type ProviderError struct {
	Model   Model
	Message string
	Err     error // Underlying error from the provider, may be nil
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("generation failed for %s: %s", e.Model, e.Message)
	}
	return fmt.Sprintf("generation failed for %s: %v", e.Model, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsProviderError checks if an error is a ProviderError.
func IsProviderError(err error) bool {
	var pErr *ProviderError
	return errors.As(err, &pErr)
}

// IsConfigurationError reports whether err belongs to the configuration
// taxonomy: request-level failures that occur before the provider is invoked.
func IsConfigurationError(err error) bool {
	for _, sentinel := range []error{
		ErrEmptyConversation,
		ErrMissingMetadata,
		ErrMessageNotFound,
		ErrUnknownModel,
		ErrUnsupportedSetting,
		ErrInvalidImageSize,
		ErrModelCannotEdit,
		ErrModelCannotGenerate,
		ErrModelNotRegistered,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
