// Package falaichat implements the request-resolution and streaming-generation
// core of a conversational image-generation service backed by fal.ai models.
//
// A conversation is an ordered list of messages. Each generation round appends
// one user message, resolves it into a provider request (model, prompt, input
// images), streams the generated image back to the caller, and persists the
// updated transcript.
package falaichat

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// PartType discriminates the message part union.
type PartType string

const (
	PartTypeText PartType = "text"
	PartTypeFile PartType = "file"
)

// Part is one element of a message body: either a text fragment or a file
// reference. The wire format matches the UI message shape, so a text part
// carries only Text and a file part carries URL/MediaType/Filename.
type Part struct {
	Type      PartType `json:"type"`
	Text      string   `json:"text,omitempty"`
	URL       string   `json:"url,omitempty"`
	MediaType string   `json:"mediaType,omitempty"`
	Filename  string   `json:"filename,omitempty"`
}

// NewTextPart creates a text part.
func NewTextPart(text string) Part {
	return Part{Type: PartTypeText, Text: text}
}

// NewFilePart creates a file part referencing an image by URL.
func NewFilePart(url, mediaType, filename string) Part {
	return Part{Type: PartTypeFile, URL: url, MediaType: mediaType, Filename: filename}
}

// MessageMetadata is attached to user messages and drives request resolution.
// UseMessageID, when set, must name an earlier message in the same
// conversation whose images feed into this round.
type MessageMetadata struct {
	Model        Model     `json:"model"`
	UseMessageID string    `json:"useMessageId,omitempty"`
	Settings     *Settings `json:"settings,omitempty"`
}

// Message is a single conversation entry. IDs are unique within a
// conversation and stable once assigned; Parts keep insertion order.
type Message struct {
	ID       string           `json:"id"`
	Role     Role             `json:"role"`
	Parts    []Part           `json:"parts"`
	Metadata *MessageMetadata `json:"metadata,omitempty"`
}

// TextContent concatenates the text of every text part in part order.
// No separator is inserted; parts are expected to carry their own whitespace.
func (m *Message) TextContent() string {
	var text string
	for _, part := range m.Parts {
		if part.Type == PartTypeText {
			text += part.Text
		}
	}
	return text
}

// FileParts returns the file parts of the message in part order.
func (m *Message) FileParts() []Part {
	var files []Part
	for _, part := range m.Parts {
		if part.Type == PartTypeFile {
			files = append(files, part)
		}
	}
	return files
}
