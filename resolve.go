package falaichat

import "fmt"

// ResolvedRequest is the effective generation request derived from the
// newest message of a conversation.
type ResolvedRequest struct {
	Model  Model
	Prompt string

	// Images are the input file parts in canonical order: the referenced
	// message's file parts first (when useMessageId is set), then the last
	// message's own attachments. For editing models the first image is
	// treated as the base image, so this order must be preserved.
	Images []Part
}

// ResolveRequest inspects the newest message and derives the model, prompt
// and ordered input images for the pending round.
//
// The last message must carry metadata; its absence is a contract violation.
// When metadata names an earlier message via useMessageId, that message's
// file parts are joined in by id. Resolution never mutates or duplicates
// the referenced message.
func ResolveRequest(messages []Message) (*ResolvedRequest, error) {
	if len(messages) == 0 {
		return nil, ErrEmptyConversation
	}

	last := messages[len(messages)-1]
	if last.Metadata == nil {
		return nil, ErrMissingMetadata
	}

	req := &ResolvedRequest{
		Model:  last.Metadata.Model,
		Prompt: last.TextContent(),
	}

	if useID := last.Metadata.UseMessageID; useID != "" {
		referenced := findMessage(messages, useID)
		if referenced == nil {
			return nil, fmt.Errorf("%w: useMessageId %s", ErrMessageNotFound, useID)
		}
		req.Images = append(req.Images, referenced.FileParts()...)
	}
	req.Images = append(req.Images, last.FileParts()...)

	return req, nil
}

// findMessage returns the first message with the given id. Ids are unique
// within a conversation, so first match is the only match.
func findMessage(messages []Message, id string) *Message {
	for i := range messages {
		if messages[i].ID == id {
			return &messages[i]
		}
	}
	return nil
}
