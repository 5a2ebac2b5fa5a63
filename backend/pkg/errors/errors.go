package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeRetrieval represents knowledge-store read failures
	ErrorTypeRetrieval ErrorType = "retrieval"
	// ErrorTypeCompletion represents language-model call failures
	ErrorTypeCompletion ErrorType = "completion"
	// ErrorTypeWrite represents knowledge-store write failures
	ErrorTypeWrite ErrorType = "write"
	// ErrorTypeValidation represents rejected caller input
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// Kind returns the error category. Typed errors embedding *BaseError inherit it.
func (e *BaseError) Kind() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Retrieval Errors

// ErrRetrievalFault is returned when the context store cannot be queried
type ErrRetrievalFault struct {
	*BaseError
	Strategy string
}

func NewRetrievalFault(strategy string, err error) *ErrRetrievalFault {
	return &ErrRetrievalFault{
		BaseError: NewBaseError(ErrorTypeRetrieval, fmt.Sprintf("context retrieval failed (%s)", strategy), err),
		Strategy:  strategy,
	}
}

// Completion Errors

// ErrCompletionFailed is returned when the language-model call fails.
// It is never retried internally.
type ErrCompletionFailed struct {
	*BaseError
	Model string
}

func NewCompletionFailed(model string, err error) *ErrCompletionFailed {
	return &ErrCompletionFailed{
		BaseError: NewBaseError(ErrorTypeCompletion, fmt.Sprintf("completion failed for model %s", model), err),
		Model:     model,
	}
}

// ErrNoChoices is wrapped by ErrCompletionFailed when the model returns nothing
var ErrNoChoices = errors.New("no choices in completion response")

// Write Errors

// ErrWriteFault is returned when a record cannot be persisted
type ErrWriteFault struct {
	*BaseError
	Record string // "turn" or "knowledge"
}

func NewWriteFault(record string, err error) *ErrWriteFault {
	return &ErrWriteFault{
		BaseError: NewBaseError(ErrorTypeWrite, fmt.Sprintf("failed to record %s", record), err),
		Record:    record,
	}
}

// Validation Errors

// ErrValidationFailed is returned when caller input is rejected
type ErrValidationFailed struct {
	*BaseError
	Field string
}

func NewValidationFailed(field, reason string) *ErrValidationFailed {
	return &ErrValidationFailed{
		BaseError: NewBaseError(ErrorTypeValidation, fmt.Sprintf("%s %s", field, reason), nil),
		Field:     field,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// Helper functions

type kinded interface {
	Kind() ErrorType
}

// KindOf returns the category of the outermost typed error in the chain, or "" if none
func KindOf(err error) ErrorType {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind()
	}
	return ""
}

// IsErrorType checks if any error in the chain is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if k, ok := err.(kinded); ok && k.Kind() == errType {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
