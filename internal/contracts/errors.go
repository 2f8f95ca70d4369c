package contracts

import (
	"errors"
	"fmt"
)

// ⭐ SSOT: 에러 분류는 여기서만 정의, HTTP 매핑은 api/handlers에서
var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrStageFailed       = errors.New("upstream stage failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotDeletable      = errors.New("only draft quotes can be deleted")
	ErrInvariant         = errors.New("invariant violation")
	ErrRateLimited       = errors.New("rate limit exceeded")
)

// ValidationError names the offending field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a *ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// StageError tags which pipeline stage failed
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage.Label(), e.Err)
}

// Is lets errors.Is(err, ErrStageFailed) match any stage
func (e *StageError) Is(target error) bool { return target == ErrStageFailed }

func (e *StageError) Unwrap() error { return e.Err }

// NewStageError wraps err as a failure of stage. A nil err stays nil.
func NewStageError(stage Stage, err error) error {
	if err == nil {
		return nil
	}
	var existing *StageError
	if errors.As(err, &existing) {
		return err
	}
	return &StageError{Stage: stage, Err: err}
}

// FailedStage extracts the failing stage from err
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}
	return "", false
}

// ErrorKind is the user-visible class of err
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrNotDeletable):
		return "not_deletable"
	case errors.Is(err, ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, ErrStageFailed):
		return "stage_failed"
	case errors.Is(err, ErrInvariant):
		return "invariant"
	default:
		return "internal"
	}
}
