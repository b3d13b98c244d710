// Package stream frames generation-round events for incremental delivery.
//
// A round produces an append-only event sequence: start, then file on
// success, then finish; a failure at any point terminates the sequence with
// a single error event instead. Events are delivered as server-sent events
// in the UI message stream wire format, one JSON object per data line,
// closed by a [DONE] terminator.
package stream

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// EventType discriminates stream events.
type EventType string

const (
	// EventStart opens a round. Always first, emitted only after request
	// resolution succeeded.
	EventStart EventType = "start"

	// EventFile carries a generated image as an inline data URL plus its
	// media type.
	EventFile EventType = "file"

	// EventError terminates a failed round with a human-readable message.
	EventError EventType = "error"

	// EventFinish closes a successful round.
	EventFinish EventType = "finish"
)

// Event is one frame of the round's event sequence.
type Event struct {
	Type      EventType `json:"type"`
	URL       string    `json:"url,omitempty"`
	MediaType string    `json:"mediaType,omitempty"`
	ErrorText string    `json:"errorText,omitempty"`
}

// Start returns a start event.
func Start() Event {
	return Event{Type: EventStart}
}

// File returns a file event for an inline-encoded image.
func File(url, mediaType string) Event {
	return Event{Type: EventFile, URL: url, MediaType: mediaType}
}

// Error returns a terminal error event.
func Error(message string) Event {
	return Event{Type: EventError, ErrorText: message}
}

// Finish returns a finish event.
func Finish() Event {
	return Event{Type: EventFinish}
}

// Sink consumes round events in order. Consumers must treat the sequence as
// append-only; no event is ever retracted or reordered.
type Sink interface {
	WriteEvent(event Event) error
}

// Writer delivers events to an HTTP response as server-sent events, flushing
// after every frame so the caller observes them incrementally.
type Writer struct {
	w       io.Writer
	flusher http.Flusher
}

// NewWriter prepares w for event streaming and sets the SSE headers.
// Flushing is best effort: recorders used in tests may not implement
// http.Flusher.
func NewWriter(w http.ResponseWriter) *Writer {
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no") // Disable nginx buffering
	h.Set("X-Vercel-AI-UI-Message-Stream", "v1")

	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher}
}

// WriteEvent frames one event as "data: <json>\n\n" and flushes it.
func (s *Writer) WriteEvent(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	s.flush()
	return nil
}

// Close writes the stream terminator.
func (s *Writer) Close() error {
	if _, err := io.WriteString(s.w, "data: [DONE]\n\n"); err != nil {
		return fmt.Errorf("failed to write stream terminator: %w", err)
	}
	s.flush()
	return nil
}

func (s *Writer) flush() {
	if s.flusher != nil {
		s.flusher.Flush()
	}
}

// Recorder is a Sink that captures events in order, for reducing a finished
// round and for tests.
type Recorder struct {
	Events []Event
}

func (r *Recorder) WriteEvent(event Event) error {
	r.Events = append(r.Events, event)
	return nil
}

// Tee forwards events to every sink, stopping at the first error.
func Tee(sinks ...Sink) Sink {
	return teeSink(sinks)
}

type teeSink []Sink

func (t teeSink) WriteEvent(event Event) error {
	for _, sink := range t {
		if err := sink.WriteEvent(event); err != nil {
			return err
		}
	}
	return nil
}
