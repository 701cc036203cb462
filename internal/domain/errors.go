package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("concurrent update conflict")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrRateLimited        = errors.New("rate limit exceeded")

	// ErrMalformedRecognition is what every *RecognitionError unwraps to.
	ErrMalformedRecognition = errors.New("could not analyze")
)

// ValidationError reports bad caller input together with the offending field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// RecognitionError reports an upstream recognizer payload that could not be used.
type RecognitionError struct {
	Reason string
}

func (e *RecognitionError) Error() string {
	return fmt.Sprintf("could not analyze: %s", e.Reason)
}

func (e *RecognitionError) Unwrap() error {
	return ErrMalformedRecognition
}
