// Package errors provides domain-specific errors for the rentfall engine.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common domain error conditions.
var (
	ErrRuleNotFound        = errors.New("rule not found")
	ErrRuleIDRequired      = errors.New("rule ID required")
	ErrRuleNameRequired    = errors.New("rule name required")
	ErrNoEffectsDefined    = errors.New("at least one effect required")
	ErrDuplicateRuleID     = errors.New("rule ID already registered")
	ErrConditionTypeEmpty  = errors.New("condition type required")
	ErrEffectTypeEmpty     = errors.New("effect type required")
	ErrInvalidProbability  = errors.New("probability must be within [0, 1]")
	ErrNegativeCost        = errors.New("cost amounts must not be negative")
	ErrDefinitionMalformed = errors.New("malformed rule definition")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeExecution     ErrorCode = "EXECUTION"
	CodeConfiguration ErrorCode = "CONFIG"
	CodeStorage       ErrorCode = "STORAGE"
)

// EngineError wraps errors with additional context for debugging and handling.
type EngineError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns a formatted error string including the code, message, and cause if present.
func (e *EngineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *EngineError) Unwrap() error {
	return e.Cause
}

// NewError creates a new EngineError with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *EngineError {
	return &EngineError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error's context and returns the error.
// This allows for method chaining when adding multiple context values.
func WithContext(err *EngineError, key string, value interface{}) *EngineError {
	if err.Context == nil {
		err.Context = make(map[string]interface{})
	}
	err.Context[key] = value
	return err
}

// Is reports whether err matches target using errors.Is semantics.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target and sets target to that error value.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
