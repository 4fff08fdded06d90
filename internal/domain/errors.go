package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidImage     = errors.New("invalid image")
	ErrModelUnavailable = errors.New("model unavailable")
	ErrInference        = errors.New("inference failed")
	ErrOutOfRange       = errors.New("class index out of range")
	ErrInvalidInput     = errors.New("invalid input")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// KindName returns a stable machine-readable name for the error kind.
func KindName(err error) string {
	switch {
	case IsKind(err, ErrInvalidImage):
		return "invalid_image"
	case IsKind(err, ErrModelUnavailable):
		return "model_unavailable"
	case IsKind(err, ErrInference):
		return "inference_error"
	case IsKind(err, ErrOutOfRange):
		return "out_of_range"
	case IsKind(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "internal"
	}
}

// UserMessage translates an error into the text shown to the person who
// uploaded the image. Internal details never leak through it.
func UserMessage(err error) string {
	switch {
	case IsKind(err, ErrInvalidImage):
		return "Could not read the uploaded image. Please upload a clear JPEG or PNG photo of the leaf."
	case IsKind(err, ErrModelUnavailable):
		return "The disease model is not loaded. Check the model file and redeploy."
	case IsKind(err, ErrInference):
		return "Could not analyze the image. Please try again with a clearer photo."
	case IsKind(err, ErrOutOfRange):
		return "Prediction out of bounds: the model and the disease catalog do not match."
	case IsKind(err, ErrInvalidInput):
		return "Please fill out all required fields before submitting."
	default:
		return "Unexpected error."
	}
}
