package falaichat

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/laruss/falai-chat/stream"
)

// TranscriptSaver persists the full post-round message list for a
// conversation. Save replaces the whole transcript, it does not append.
type TranscriptSaver interface {
	Save(id string, messages []Message) error
}

// RoundState tracks one generation round through its lifecycle.
type RoundState int

const (
	RoundStateIdle RoundState = iota
	RoundStateRequested
	RoundStateGenerating
	RoundStateCompleted
	RoundStateFailed
)

func (s RoundState) String() string {
	switch s {
	case RoundStateIdle:
		return "idle"
	case RoundStateRequested:
		return "requested"
	case RoundStateGenerating:
		return "generating"
	case RoundStateCompleted:
		return "completed"
	case RoundStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Pipeline executes generation rounds: it resolves the newest user message
// into a provider request, invokes the generator, persists the image to the
// asset store, streams events to the caller and saves the updated transcript.
type Pipeline struct {
	generator   ImageGenerator
	assets      Storage
	transcripts TranscriptSaver
	logger      *slog.Logger
}

// NewPipeline wires a pipeline. A nil logger falls back to slog.Default().
func NewPipeline(generator ImageGenerator, assets Storage, transcripts TranscriptSaver, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		generator:   generator,
		assets:      assets,
		transcripts: transcripts,
		logger:      logger,
	}
}

// Round is a single request/response cycle over one conversation. The caller
// must not start a second round for the same conversation before the first
// completes.
type Round struct {
	pipeline *Pipeline
	chatID   string
	messages []Message
	request  *ResolvedRequest
	settings *Settings
	state    RoundState
}

// NewRound resolves the newest message of the conversation into a generation
// request. Any failure here is a configuration error: it is reported before
// a stream begins and the provider is never invoked.
func (p *Pipeline) NewRound(chatID string, messages []Message) (*Round, error) {
	round := &Round{
		pipeline: p,
		chatID:   chatID,
		messages: messages,
		state:    RoundStateIdle,
	}
	round.setState(RoundStateRequested)

	request, err := ResolveRequest(messages)
	if err != nil {
		round.setState(RoundStateFailed)
		return nil, err
	}

	// ResolveRequest guarantees the last message and its metadata exist.
	last := messages[len(messages)-1]
	settings, err := ResolveSettings(request.Model, last.Metadata.Settings)
	if err != nil {
		round.setState(RoundStateFailed)
		return nil, err
	}

	caps := request.Model.Capabilities()
	if len(request.Images) > 0 && !caps.CanEditImages {
		round.setState(RoundStateFailed)
		return nil, fmt.Errorf("%w: %s given %d input images", ErrModelCannotEdit, request.Model, len(request.Images))
	}
	if len(request.Images) == 0 && !caps.CanGenerateImages {
		round.setState(RoundStateFailed)
		return nil, fmt.Errorf("%w: %s requires an input image", ErrModelCannotGenerate, request.Model)
	}

	round.request = request
	round.settings = settings
	return round, nil
}

// Request exposes the resolved request of the round.
func (r *Round) Request() *ResolvedRequest {
	return r.request
}

// State returns the round's current lifecycle state.
func (r *Round) State() RoundState {
	return r.state
}

// Stream runs the generation and emits the round's event sequence to sink:
// start, then file and finish on success, or a single terminal error event.
//
// The updated transcript is saved exactly once, after the file event and
// before finish. Provider and storage failures skip the save entirely, as
// does a cancelled context: an aborted round never persists a partial
// transcript. The returned error reports the failure for logging; it has
// already been written to the sink as an error event where possible.
func (r *Round) Stream(ctx context.Context, sink stream.Sink) error {
	p := r.pipeline
	r.setState(RoundStateGenerating)

	if err := sink.WriteEvent(stream.Start()); err != nil {
		r.setState(RoundStateFailed)
		return err
	}

	imageURLs := make([]string, 0, len(r.request.Images))
	for _, part := range r.request.Images {
		imageURLs = append(imageURLs, part.URL)
	}

	image, err := p.generator.Generate(ctx, &ProviderRequest{
		Model:     r.request.Model,
		Prompt:    r.request.Prompt,
		ImageURLs: imageURLs,
		Settings:  r.settings,
	})
	if err != nil {
		return r.fail(sink, err)
	}

	filename := fmt.Sprintf("image-%d.%s", time.Now().UnixMilli(), ExtensionFromMIME(image.MediaType))
	assetURL, err := p.assets.SaveFile(ctx, image.Data, filename, image.MediaType)
	if err != nil {
		return r.fail(sink, fmt.Errorf("failed to persist image: %w", err))
	}

	if err := sink.WriteEvent(stream.File(EncodeDataURL(image.Data, image.MediaType), image.MediaType)); err != nil {
		r.setState(RoundStateFailed)
		return err
	}

	// A caller abort mid-stream must not persist a partial transcript.
	if ctx.Err() != nil {
		r.setState(RoundStateFailed)
		return ctx.Err()
	}

	updated := ReduceRound(r.messages, NewFilePart(assetURL, image.MediaType, filename))
	if err := p.transcripts.Save(r.chatID, updated); err != nil {
		return r.fail(sink, fmt.Errorf("failed to save transcript: %w", err))
	}

	if err := sink.WriteEvent(stream.Finish()); err != nil {
		r.setState(RoundStateFailed)
		return err
	}

	r.setState(RoundStateCompleted)
	p.logger.Info("round completed",
		"chat_id", r.chatID,
		"model", r.request.Model.String(),
		"asset", filename,
	)
	return nil
}

// fail writes the terminal error event and marks the round failed.
func (r *Round) fail(sink stream.Sink, cause error) error {
	r.setState(RoundStateFailed)
	r.pipeline.logger.Error("round failed",
		"chat_id", r.chatID,
		"model", r.request.Model.String(),
		"error", cause.Error(),
	)
	if err := sink.WriteEvent(stream.Error(errorText(cause))); err != nil {
		return err
	}
	return cause
}

func (r *Round) setState(state RoundState) {
	r.pipeline.logger.Debug("round state changed",
		"chat_id", r.chatID,
		"from", r.state.String(),
		"to", state.String(),
	)
	r.state = state
}

// errorText returns the user-visible message for a failed round.
func errorText(err error) string {
	if err == nil || err.Error() == "" {
		return "An error occurred while generating the image"
	}
	return err.Error()
}

// ReduceRound folds the outcome of a completed round into the transcript:
// the caller's messages followed by one new assistant message carrying the
// generated file parts. The input slice is not mutated.
func ReduceRound(messages []Message, parts ...Part) []Message {
	assistant := Message{
		ID:    uuid.NewString(),
		Role:  RoleAssistant,
		Parts: parts,
	}
	updated := make([]Message, 0, len(messages)+1)
	updated = append(updated, messages...)
	return append(updated, assistant)
}
