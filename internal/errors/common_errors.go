package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeDataUnavailable        ErrorType = "DATA_UNAVAILABLE"
	ErrTypeInsufficientPopulation ErrorType = "INSUFFICIENT_POPULATION"
	ErrTypeEmptyPopulation        ErrorType = "EMPTY_POPULATION"
	ErrTypeParsing                ErrorType = "PARSING"
	ErrTypeStorage                ErrorType = "STORAGE"
	ErrTypeValidation             ErrorType = "VALIDATION"
	ErrTypeConfig                 ErrorType = "CONFIG"
)

// Context keys shared by all error constructors
const (
	ContextStage = "stage"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	prefix := string(e.Type)
	if stage := e.Stage(); stage != "" {
		prefix = fmt.Sprintf("%s/%s", e.Type, stage)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", prefix, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", prefix, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithStage records the pipeline stage the error was raised in
func (e *AppError) WithStage(stage string) *AppError {
	return e.WithContext(ContextStage, stage)
}

// Stage returns the pipeline stage recorded on the error, if any
func (e *AppError) Stage() string {
	if e.Context == nil {
		return ""
	}
	stage, _ := e.Context[ContextStage].(string)
	return stage
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewDataUnavailableError reports an input source that is missing or unreadable
func NewDataUnavailableError(message string, cause error) *AppError {
	return NewAppError(ErrTypeDataUnavailable, message, cause)
}

// NewInsufficientPopulationError reports a population too small to form five quantile bins
func NewInsufficientPopulationError(message string) *AppError {
	return NewAppError(ErrTypeInsufficientPopulation, message, nil)
}

// NewEmptyPopulationError reports that no customer survived cleaning and filtering
func NewEmptyPopulationError(message string) *AppError {
	return NewAppError(ErrTypeEmptyPopulation, message, nil)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// AsAppError finds the first AppError in err's chain
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsType reports whether err wraps an AppError of the given type
func IsType(err error, errType ErrorType) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Type == errType
}

// TypeOf returns the AppError type in err's chain, or "" for foreign errors
func TypeOf(err error) ErrorType {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Type
	}
	return ""
}
