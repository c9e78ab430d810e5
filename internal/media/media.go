// Package media turns image attachments into URLs a post can reference.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/AlexTLDR/flok/internal/apperr"
)

// DefaultMaxBytes bounds a single decoded image.
const DefaultMaxBytes = 2 << 20

var ErrNotDataURL = errors.New("not a base64 data URL")

// Store persists one image and returns the URL to show it from.
type Store interface {
	Put(ctx context.Context, contentType string, data []byte) (string, error)
}

// ParseDataURL splits data:<type>;base64,<payload>.
func ParseDataURL(s string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(s, "data:")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, ErrNotDataURL
	}
	contentType, enc, _ := strings.Cut(meta, ";")
	if enc != "base64" {
		return "", nil, ErrNotDataURL
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode data URL: %w", err)
	}
	return contentType, data, nil
}

// Attach stores every data URL in images and passes through anything that
// is already a plain URL. Non-image or oversized payloads are rejected.
func Attach(ctx context.Context, s Store, images []string, maxBytes int) ([]string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	out := make([]string, 0, len(images))
	for _, img := range images {
		img = strings.TrimSpace(img)
		if img == "" {
			continue
		}
		if !strings.HasPrefix(img, "data:") {
			if !strings.HasPrefix(img, "https://") && !strings.HasPrefix(img, "http://") {
				return nil, apperr.Validation(apperr.CodeInvalidInput, "image must be a data URL or an http URL")
			}
			out = append(out, img)
			continue
		}
		contentType, data, err := ParseDataURL(img)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, apperr.CodeInvalidInput, "unreadable image", err)
		}
		if !strings.HasPrefix(contentType, "image/") {
			return nil, apperr.Validation(apperr.CodeInvalidInput, "only images can be attached")
		}
		if len(data) > maxBytes {
			return nil, apperr.Validation(apperr.CodeInvalidInput, "image is too large")
		}
		url, err := s.Put(ctx, contentType, data)
		if err != nil {
			return nil, fmt.Errorf("failed to store image: %w", err)
		}
		out = append(out, url)
	}
	return out, nil
}

// Inline keeps images inside the document as data URLs.
type Inline struct{}

func (Inline) Put(_ context.Context, contentType string, data []byte) (string, error) {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}
