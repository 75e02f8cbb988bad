package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Stage errors. Every pipeline failure wraps exactly one of these so the
// server edge can report a machine-readable stage alongside the message.
var (
	ErrUpload         = errors.New("upload failed")
	ErrMetadataFetch  = errors.New("project metadata fetch failed")
	ErrPreprocess     = errors.New("image preprocessing failed")
	ErrOCR            = errors.New("ocr failed")
	ErrTemplateLoad   = errors.New("prompt template load failed")
	ErrExtraction     = errors.New("model extraction failed")
	ErrReconciliation = errors.New("financial reconciliation failed")
	ErrPersistence    = errors.New("persistence failed")

	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
)

// NewAppError builds an AppError with a stable code.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// StageOf maps a pipeline error to its stage name, or "" when the error
// does not wrap a stage sentinel.
func StageOf(err error) string {
	switch {
	case errors.Is(err, ErrUpload):
		return "upload"
	case errors.Is(err, ErrMetadataFetch):
		return "metadata"
	case errors.Is(err, ErrPreprocess):
		return "preprocess"
	case errors.Is(err, ErrOCR):
		return "ocr"
	case errors.Is(err, ErrTemplateLoad):
		return "template"
	case errors.Is(err, ErrExtraction):
		return "extract"
	case errors.Is(err, ErrReconciliation):
		return "reconcile"
	case errors.Is(err, ErrPersistence):
		return "persist"
	default:
		return ""
	}
}
