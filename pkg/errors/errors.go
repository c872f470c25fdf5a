// Package errors provides a structured error system for the cache manager
// with error codes, categories, and context.
package errors

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// ErrorCode represents a structured error code for cache operations.
type ErrorCode string

// Error code constants organized by category.
const (
	// Capacity and resource errors
	ErrCodeCapacityExceeded ErrorCode = "CAPACITY_EXCEEDED"
	ErrCodeCacheFull        ErrorCode = "CACHE_FULL"

	// Payload codec errors
	ErrCodeSerialization   ErrorCode = "SERIALIZATION_FAILED"
	ErrCodeDecompression   ErrorCode = "DECOMPRESSION_FAILED"
	ErrCodeCompression     ErrorCode = "COMPRESSION_FAILED"
	ErrCodePayloadCorrupt  ErrorCode = "PAYLOAD_CORRUPT"
	ErrCodeUnknownStrategy ErrorCode = "UNKNOWN_STRATEGY"

	// Entry lifecycle errors
	ErrCodeEntryExpired  ErrorCode = "ENTRY_EXPIRED"
	ErrCodeEntryNotFound ErrorCode = "ENTRY_NOT_FOUND"

	// Background task errors
	ErrCodeMaintenance   ErrorCode = "MAINTENANCE_FAILED"
	ErrCodePreloadLoader ErrorCode = "PRELOAD_LOADER_FAILED"

	// Configuration errors
	ErrCodeInvalidConfig    ErrorCode = "INVALID_CONFIG"
	ErrCodeConfigLoad       ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// State management errors
	ErrCodeAlreadyStarted ErrorCode = "ALREADY_STARTED"
	ErrCodeNotStarted     ErrorCode = "NOT_STARTED"
	ErrCodeClosed         ErrorCode = "CLOSED"

	// Internal errors
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// ErrorCategory represents the general category of an error.
type ErrorCategory string

const (
	CategoryCapacity      ErrorCategory = "capacity"
	CategoryCodec         ErrorCategory = "codec"
	CategoryEntry         ErrorCategory = "entry"
	CategoryBackground    ErrorCategory = "background"
	CategoryConfiguration ErrorCategory = "configuration"
	CategoryState         ErrorCategory = "state"
	CategoryInternal      ErrorCategory = "internal"
)

// CacheError represents a structured error with context and metadata.
type CacheError struct {
	Code     ErrorCode      `json:"code"`
	Category ErrorCategory  `json:"category"`
	Message  string         `json:"message"`
	Details  map[string]any `json:"details,omitempty"`

	Cause     error     `json:"-"` // not serialized to avoid circular refs
	Timestamp time.Time `json:"timestamp"`

	Component string `json:"component,omitempty"`
	Operation string `json:"operation,omitempty"`

	// Retryable hints to callers whether retrying the operation may help.
	Retryable bool `json:"retryable"`
}

// Error implements the error interface.
func (e *CacheError) Error() string {
	if e.Component != "" {
		if e.Operation != "" {
			return fmt.Sprintf("[%s:%s] %s: %s", e.Component, e.Operation, e.Code, e.Message)
		}
		return fmt.Sprintf("[%s] %s: %s", e.Component, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/errors.As chains.
func (e *CacheError) Unwrap() error {
	return e.Cause
}

// Is matches two CacheErrors by code.
func (e *CacheError) Is(target error) bool {
	if cacheErr, ok := target.(*CacheError); ok {
		return e.Code == cacheErr.Code
	}
	return false
}

// String returns a detailed representation for logging.
func (e *CacheError) String() string {
	parts := []string{
		fmt.Sprintf("Code=%s", e.Code),
		fmt.Sprintf("Category=%s", e.Category),
		fmt.Sprintf("Message=%q", e.Message),
	}
	if e.Component != "" {
		parts = append(parts, fmt.Sprintf("Component=%s", e.Component))
	}
	if e.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation=%s", e.Operation))
	}
	if len(e.Details) > 0 {
		details, _ := json.Marshal(e.Details)
		parts = append(parts, fmt.Sprintf("Details=%s", details))
	}
	if e.Cause != nil {
		parts = append(parts, fmt.Sprintf("Cause=%q", e.Cause.Error()))
	}
	return fmt.Sprintf("CacheError{%s}", strings.Join(parts, ", "))
}

// NewError creates a new cache error with defaults derived from the code.
func NewError(code ErrorCode, message string) *CacheError {
	return &CacheError{
		Code:      code,
		Category:  GetCategory(code),
		Message:   message,
		Timestamp: time.Now(),
		Retryable: IsRetryableByDefault(code),
	}
}

// Wrap creates a new cache error wrapping an underlying cause.
func Wrap(code ErrorCode, message string, cause error) *CacheError {
	err := NewError(code, message)
	err.Cause = cause
	return err
}

// WithComponent annotates the error with the originating component.
func (e *CacheError) WithComponent(component string) *CacheError {
	e.Component = component
	return e
}

// WithOperation annotates the error with the operation being performed.
func (e *CacheError) WithOperation(operation string) *CacheError {
	e.Operation = operation
	return e
}

// WithDetail adds detailed information to an error.
func (e *CacheError) WithDetail(key string, value any) *CacheError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// GetCategory determines the category based on the error code.
func GetCategory(code ErrorCode) ErrorCategory {
	switch code {
	case ErrCodeCapacityExceeded, ErrCodeCacheFull:
		return CategoryCapacity
	case ErrCodeSerialization, ErrCodeDecompression, ErrCodeCompression,
		ErrCodePayloadCorrupt, ErrCodeUnknownStrategy:
		return CategoryCodec
	case ErrCodeEntryExpired, ErrCodeEntryNotFound:
		return CategoryEntry
	case ErrCodeMaintenance, ErrCodePreloadLoader:
		return CategoryBackground
	case ErrCodeInvalidConfig, ErrCodeConfigLoad, ErrCodeConfigValidation:
		return CategoryConfiguration
	case ErrCodeAlreadyStarted, ErrCodeNotStarted, ErrCodeClosed:
		return CategoryState
	default:
		return CategoryInternal
	}
}

// IsRetryableByDefault determines if an error is retryable by default.
//
// Capacity rejections are retryable in the sense that a later Put may
// succeed after eviction frees space; codec failures are not.
func IsRetryableByDefault(code ErrorCode) bool {
	switch code {
	case ErrCodeCacheFull, ErrCodeMaintenance, ErrCodePreloadLoader, ErrCodeInternal:
		return true
	default:
		return false
	}
}

// IsCode reports whether err (or anything it wraps) carries the given code.
func IsCode(err error, code ErrorCode) bool {
	for err != nil {
		if cacheErr, ok := err.(*CacheError); ok && cacheErr.Code == code {
			return true
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}
