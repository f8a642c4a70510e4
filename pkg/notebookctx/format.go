package notebookctx

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder

	"github.com/germanamz/nbask/pkg/chats/content"
	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/tiff" // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// ErrUnknownFragment is returned by Format for a fragment that is neither
// text nor image.
var ErrUnknownFragment = errors.New("notebookctx: unknown fragment kind")

// Format converts fragments into chat content parts. Empty text fragments are
// dropped. Image bytes are sniffed to infer their format, which becomes the
// part's media type; the source MIME label is never trusted.
func Format(frags []Fragment) ([]content.Part, error) {
	parts := make([]content.Part, 0, len(frags))

	for i, f := range frags {
		switch f.Kind() {
		case KindText:
			if f.IsEmpty() {
				continue
			}
			parts = append(parts, content.Text{Text: f.Text()})

		case KindImage:
			format, err := ImageFormat(f.Data())
			if err != nil {
				return nil, fmt.Errorf("notebookctx: fragment %d: %w", i, err)
			}
			parts = append(parts, content.Image{Data: f.Data(), MediaType: "image/" + format})

		default:
			return nil, fmt.Errorf("%w: fragment %d is %s", ErrUnknownFragment, i, f.Kind())
		}
	}

	return parts, nil
}

// ImageFormat decodes the image header in data and returns the lower-case
// format name ("png", "jpeg", "gif", "webp", "bmp", "tiff").
func ImageFormat(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("identify image: %w", err)
	}
	return format, nil
}
