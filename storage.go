package falaichat

import (
	"context"
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

// Storage is an interface for persisting generated images. Implementations
// can wrap existing storage clients (local disk, GCS, S3, etc.) with this
// interface; the returned URL must be retrievable by the serving layer.
type Storage interface {
	// SaveFile saves image data under path and returns the public URL.
	// The contentType is the image's MIME type (e.g. "image/png").
	SaveFile(ctx context.Context, data []byte, path string, contentType string) (string, error)
}

// GetMIMEType maps a file extension to an image MIME type, defaulting to PNG.
func GetMIMEType(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

// ExtensionFromMIME returns a file extension for common image MIME types.
func ExtensionFromMIME(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}

// EncodeDataURL returns an inline data URL for the image bytes, directly
// embeddable by a browser without a round trip to the asset store.
func EncodeDataURL(data []byte, mediaType string) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a data URL into raw bytes and media type.
func DecodeDataURL(url string) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(url, "data:")
	if !ok {
		return nil, "", fmt.Errorf("not a data URL")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URL: missing payload")
	}
	mediaType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", fmt.Errorf("malformed data URL: only base64 encoding is supported")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("invalid base64: %w", err)
	}
	return data, mediaType, nil
}

// IsDataURL reports whether url is an inline data URL.
func IsDataURL(url string) bool {
	return strings.HasPrefix(url, "data:")
}
