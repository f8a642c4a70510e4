// Package content defines multi-modal content parts for LLM messages.
package content

import (
	"encoding/base64"
	"strings"
)

// Part is a piece of content within a message.
// External packages can implement this interface to add custom content types.
type Part interface {
	PartKind() string
}

// Text is a plain text content part.
type Text struct {
	Text string
}

func (t Text) PartKind() string { return "text" }

// Image is an image content part, referenced by URL or embedded as raw bytes.
// MediaType is the full MIME type, e.g. "image/png".
type Image struct {
	URL       string
	Data      []byte
	MediaType string
}

func (i Image) PartKind() string { return "image" }

// Format returns the MIME subtype of the image ("png" for "image/png").
func (i Image) Format() string {
	_, sub, ok := strings.Cut(i.MediaType, "/")
	if !ok {
		return i.MediaType
	}
	return sub
}

// Base64 returns the standard base64 encoding of the embedded bytes.
func (i Image) Base64() string {
	return base64.StdEncoding.EncodeToString(i.Data)
}

// DataURI returns the image as a "data:image/<format>;base64,..." URI. When the
// image carries no embedded bytes the URL is returned unchanged.
func (i Image) DataURI() string {
	if len(i.Data) == 0 {
		return i.URL
	}
	return "data:image/" + i.Format() + ";base64," + i.Base64()
}
