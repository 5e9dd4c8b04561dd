package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Application error codes.
// These map to HTTP status codes and determine user-facing messages.
const (
	EINVALID     = "invalid"         // 400 - Validation error (bad input)
	EFORBIDDEN   = "forbidden"       // 403 - CSRF token missing or wrong
	ENOTFOUND    = "not_found"       // 404 - Unknown form variant, page, etc.
	ETOOLARGE    = "too_large"       // 413 - Request body too large
	ERATELIMIT   = "rate_limit"      // 429 - Too many submissions
	EINTERNAL    = "internal"        // 500 - Internal server error (hide details)
	ENOTIMPL     = "not_implemented" // 501 - Feature not implemented
	EUNAVAILABLE = "unavailable"     // 502 - Outbound mail transport failed
	ECONFIG      = "config"          // 500 - Deployment configuration is incomplete
)

// Error represents an application error with a code and message.
// It implements the error interface and supports error wrapping.
type Error struct {
	// Code is a machine-readable error code (e.g., EINVALID, ENOTFOUND).
	Code string

	// Message is a human-readable error message safe to show to users.
	Message string

	// Op is the operation where the error occurred (e.g., "contact.build_envelope").
	Op string

	// Err is the underlying error, if any.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Op != "" {
			return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrorCode extracts the error code from an error.
// Returns EINTERNAL for non-domain errors and "" for nil.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return EINVALID
	}
	var de *DeliveryError
	if errors.As(err, &de) {
		return EUNAVAILABLE
	}
	var ce *ConfigurationError
	if errors.As(err, &ce) {
		return ECONFIG
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return EINTERNAL
}

// ErrorMessage extracts a user-facing message from an error.
// Internal details are never returned.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}

	switch ErrorCode(err) {
	case EINVALID:
		var e *Error
		if errors.As(err, &e) {
			return e.Message
		}
		return "Please correct the errors below."
	case EUNAVAILABLE:
		return "Your message could not be sent right now. Please try again later."
	case EINTERNAL, ECONFIG:
		return "An internal error occurred. Please try again later."
	}

	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "An internal error occurred. Please try again later."
}

// Errorf creates a new domain error with formatted message.
func Errorf(code, op, format string, args ...interface{}) error {
	return &Error{
		Code:    code,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with a domain error code and operation.
// Returns nil if err is nil.
func WrapError(err error, code, op, message string) error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// IsCode returns true if err has the given error code.
func IsCode(err error, code string) bool {
	return ErrorCode(err) == code
}

// NotFound creates a not found error for a resource.
func NotFound(op, resource, identifier string) error {
	return &Error{
		Code:    ENOTFOUND,
		Op:      op,
		Message: fmt.Sprintf("%s not found: %s", resource, identifier),
	}
}

// Invalid creates an invalid-input error for a single, non field-specific issue.
func Invalid(op, message string) error {
	return &Error{
		Code:    EINVALID,
		Op:      op,
		Message: message,
	}
}

// Internal creates an internal error wrapping err.
func Internal(err error, op, message string) error {
	return &Error{
		Code:    EINTERNAL,
		Op:      op,
		Message: message,
		Err:     err,
	}
}

// =============================================================================
// Validation Errors (field-level errors for forms)
// =============================================================================

// ValidationError represents one or more field validation failures.
type ValidationError struct {
	// Fields maps field names to error messages.
	Fields map[string]string

	// Op is the operation where validation failed.
	Op string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 1 {
		for field, msg := range e.Fields {
			if e.Op != "" {
				return fmt.Sprintf("%s: %s: %s", e.Op, field, msg)
			}
			return fmt.Sprintf("%s: %s", field, msg)
		}
	}
	names := strings.Join(e.FieldNames(), ", ")
	if e.Op != "" {
		return fmt.Sprintf("%s: validation failed for %d fields (%s)", e.Op, len(e.Fields), names)
	}
	return fmt.Sprintf("validation failed for %d fields (%s)", len(e.Fields), names)
}

// FieldNames returns the failing field names in sorted order.
func (e *ValidationError) FieldNames() []string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(op, field, message string) error {
	return &ValidationError{
		Op:     op,
		Fields: map[string]string{field: message},
	}
}

// AddFieldError adds a field error to an existing ValidationError.
// If err is nil or not a ValidationError, a new one is created.
func AddFieldError(err error, field, message string) error {
	var ve *ValidationError
	if err != nil && errors.As(err, &ve) {
		ve.Fields[field] = message
		return ve
	}

	return &ValidationError{
		Fields: map[string]string{field: message},
	}
}

// IsValidationError returns true if err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// GetValidationFields extracts field errors from a ValidationError.
// Returns nil if err is not a ValidationError.
func GetValidationFields(err error) map[string]string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}
	return nil
}

// =============================================================================
// Configuration and delivery errors
// =============================================================================

// ConfigurationError reports a missing or malformed deployment setting.
// It is returned at startup; the process must not begin serving.
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
}

// MissingConfig is shorthand for a required setting that is empty.
func MissingConfig(key string) error {
	return &ConfigurationError{Key: key, Reason: "required but not set"}
}

// IsConfigurationError returns true if err is a ConfigurationError.
func IsConfigurationError(err error) bool {
	var ce *ConfigurationError
	return errors.As(err, &ce)
}

// DeliveryError reports a transport failure during a single send attempt.
type DeliveryError struct {
	Op        string
	Transport string
	Err       error
}

func (e *DeliveryError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s: delivery via %s failed: %v", e.Op, e.Transport, e.Err)
	}
	return fmt.Sprintf("delivery via %s failed: %v", e.Transport, e.Err)
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// IsDeliveryError returns true if err is a DeliveryError.
func IsDeliveryError(err error) bool {
	var de *DeliveryError
	return errors.As(err, &de)
}
