// Package media decodes inline image uploads and stores them on the local
// filesystem or in an S3 bucket.
package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var (
	ErrInvalidDataURI = errors.New("image must be a base64 data URI of the form data:image/<ext>;base64,<payload>")
	ErrTooLarge       = errors.New("image exceeds the maximum allowed size")
	ErrInvalidKey     = errors.New("invalid media key")
	ErrUnsupported    = errors.New("image must be a jpeg, png, gif or webp file")
)

// imageTypes maps accepted data URI subtypes to the stored extension and the
// MIME type the decoded bytes must carry.
var imageTypes = map[string]struct{ extension, mime string }{
	"jpeg": {"jpg", "image/jpeg"},
	"jpg":  {"jpg", "image/jpeg"},
	"png":  {"png", "image/png"},
	"gif":  {"gif", "image/gif"},
	"webp": {"webp", "image/webp"},
}

var dataURIPattern = regexp.MustCompile(`^data:image/([a-zA-Z0-9.+-]+);base64,`)

// Storage persists media objects under slash-separated keys.
type Storage interface {
	Save(ctx context.Context, key string, data []byte, contentType string) error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// Image is a decoded upload.
type Image struct {
	Data        []byte
	Extension   string
	ContentType string
}

// DecodeDataURI parses data:image/<ext>;base64,<payload>. Only jpeg, png, gif
// and webp are accepted, and the decoded bytes must be of the declared type.
// maxBytes bounds the decoded size when positive.
func DecodeDataURI(raw string, maxBytes int64) (Image, error) {
	raw = strings.TrimSpace(raw)
	match := dataURIPattern.FindStringSubmatch(raw)
	if match == nil {
		return Image{}, ErrInvalidDataURI
	}
	subtype := strings.ToLower(match[1])
	kind, ok := imageTypes[subtype]
	if !ok {
		return Image{}, ErrUnsupported
	}
	payload := raw[len(match[0]):]

	if maxBytes > 0 && int64(base64.StdEncoding.DecodedLen(len(payload))) > maxBytes+2 {
		return Image{}, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Image{}, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if len(data) == 0 {
		return Image{}, ErrInvalidDataURI
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return Image{}, ErrTooLarge
	}

	if detected := mimetype.Detect(data); !isKind(detected, kind.mime) {
		return Image{}, fmt.Errorf("%w: content is %s", ErrUnsupported, detected.String())
	}

	return Image{
		Data:        data,
		Extension:   kind.extension,
		ContentType: kind.mime,
	}, nil
}

// isKind reports whether detected is mime or a subtype of it, such as an
// animated png.
func isKind(detected *mimetype.MIME, mime string) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(mime) {
			return true
		}
	}
	return false
}

// NewKey returns a fresh key under prefix with the given extension.
func NewKey(prefix, extension string) string {
	return path.Join(prefix, uuid.NewString()+"."+extension)
}

// Put stores img under a new key below prefix and returns the key.
func Put(ctx context.Context, storage Storage, prefix string, img Image) (string, error) {
	key := NewKey(prefix, img.Extension)
	if err := storage.Save(ctx, key, img.Data, img.ContentType); err != nil {
		return "", fmt.Errorf("save %s: %w", key, err)
	}
	return key, nil
}

func cleanKey(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return strings.TrimPrefix(cleaned, "/"), nil
}

func joinURL(base, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
