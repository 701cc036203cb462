package web

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/vbonduro/mealledger/internal/domain"
)

const maxPhotoSize = 10 * 1024 * 1024 // 10 MB

// allowedImageTypes is the set of MIME types accepted for uploaded photos.
// net/http.DetectContentType handles JPEG, PNG, and GIF via magic-byte
// sniffing. WebP is detected separately because the WHATWG sniff spec (and
// therefore the stdlib) does not include a WebP signature.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

// isWebP reports whether data is a WebP image (RIFF container with "WEBP" at
// offset 8).
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		string(data[0:4]) == "RIFF" &&
		string(data[8:12]) == "WEBP"
}

// allowedImageMIME returns the detected MIME type and true if the data is an
// accepted image format, or ("", false) otherwise.
func allowedImageMIME(data []byte) (string, bool) {
	if isWebP(data) {
		return "image/webp", true
	}
	mime := http.DetectContentType(data)
	if allowedImageTypes[mime] {
		return mime, true
	}
	return "", false
}

// readImage parses a multipart form and returns the sniffed "image" file.
// The client-declared content type is ignored. When required is false a
// missing file yields (nil, "", nil).
func (s *Server) readImage(w http.ResponseWriter, r *http.Request, required bool) ([]byte, string, error) {
	// Leave headroom for the other form fields around the file.
	r.Body = http.MaxBytesReader(w, r.Body, maxPhotoSize+maxJSONBody)
	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return nil, "", &domain.ValidationError{Field: "image", Message: "exceeds 10 MB"}
		}
		return nil, "", &domain.ValidationError{Field: "body", Message: "invalid multipart form"}
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		if !required && errors.Is(err, http.ErrMissingFile) {
			return nil, "", nil
		}
		return nil, "", &domain.ValidationError{Field: "image", Message: "image file required"}
	}
	defer closeWithLog(file, "upload file", s.logger)

	if header.Size > maxPhotoSize {
		return nil, "", &domain.ValidationError{Field: "image", Message: "exceeds 10 MB"}
	}

	imageData, err := io.ReadAll(io.LimitReader(file, maxPhotoSize+1))
	if err != nil {
		return nil, "", err
	}
	if len(imageData) > maxPhotoSize {
		return nil, "", &domain.ValidationError{Field: "image", Message: "exceeds 10 MB"}
	}

	mimeType, ok := allowedImageMIME(imageData)
	if !ok {
		return nil, "", &domain.ValidationError{Field: "image", Message: "unsupported image format"}
	}
	return imageData, mimeType, nil
}

// closeWithLog closes c and logs any error, using label to identify the resource.
func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
