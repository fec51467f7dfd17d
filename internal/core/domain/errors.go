package domain

import (
	"errors"
	"fmt"
)

// ============================================================================
// Input Errors
// ============================================================================

var (
	ErrSchemaViolation = errors.New("schema violation")
	ErrUnknownCategory = errors.New("unknown category")
	ErrInvalidInput    = errors.New("invalid classifier input")
	ErrMissingUserID   = errors.New("user ID is required (X-User-ID header)")
)

// ============================================================================
// Model Errors
// ============================================================================

var (
	ErrTrainingFailed = errors.New("training failed")
	ErrArtifactLoad   = errors.New("model artifact load failed")
	ErrModelNotLoaded = errors.New("model is not loaded")
)

// ============================================================================
// History Errors
// ============================================================================

var (
	ErrHistoryUnavailable = errors.New("prediction history is not configured")
	ErrInvalidPagination  = errors.New("limit and offset must be non-negative")
	ErrPredictionConflict = errors.New("prediction record already exists")
)

// SchemaViolationError names the attribute that failed validation.
type SchemaViolationError struct {
	Field  string
	Reason string
}

func (e *SchemaViolationError) Error() string {
	return fmt.Sprintf("%s: field %q %s", ErrSchemaViolation.Error(), e.Field, e.Reason)
}

func (e *SchemaViolationError) Unwrap() error {
	return ErrSchemaViolation
}

func schemaViolation(field, format string, args ...any) error {
	return &SchemaViolationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// UnknownCategoryError is returned when a categorical value was never observed during fit.
type UnknownCategoryError struct {
	Field string
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("%s: field %q value %q was not seen during fit", ErrUnknownCategory.Error(), e.Field, e.Value)
}

func (e *UnknownCategoryError) Unwrap() error {
	return ErrUnknownCategory
}

// TrainingError wraps ErrTrainingFailed with a reason.
func TrainingError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrTrainingFailed, fmt.Sprintf(format, args...))
}

// InvalidInputError wraps ErrInvalidInput with a reason.
func InvalidInputError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ArtifactLoadError wraps ErrArtifactLoad with the artifact path and cause.
func ArtifactLoadError(path string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrArtifactLoad, path, cause)
}
