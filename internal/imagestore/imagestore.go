// Package imagestore keeps the opaque image bytes attached to history entries.
package imagestore

import (
	"context"
	"io"
)

// ImageStore saves and retrieves image bytes by storage key. Get and Delete
// return an error wrapping domain.ErrNotFound for unknown keys.
type ImageStore interface {
	Save(ctx context.Context, prefix, mimeType string, r io.Reader) (storageKey string, err error)
	Get(ctx context.Context, storageKey string) (io.ReadCloser, string, error)
	Delete(ctx context.Context, storageKey string) error
}

// ExtForMIME maps an accepted image MIME type to a file extension.
func ExtForMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}

// MIMEForExt is the inverse of ExtForMIME.
func MIMEForExt(ext string) string {
	switch ext {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}
