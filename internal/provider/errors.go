package provider

import "fmt"

// These constants mirror domain error codes to avoid circular imports.
const (
	codeInvalid = "invalid"
)

// ProviderError represents a provider-specific error with a code and message.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	return e.Message
}

// ErrorCode returns the error code for HTTP status mapping.
func (e *ProviderError) ErrorCode() string {
	return e.Code
}

// ErrValidationFailed creates an error for config validation failures.
func ErrValidationFailed(providerType string, errors []string) error {
	return &ProviderError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("%s config validation failed: %v", providerType, errors),
	}
}

// ErrUnknownProvider creates an error for unknown provider names.
func ErrUnknownProvider(providerType string, name ProviderName) error {
	return &ProviderError{
		Code:    codeInvalid,
		Message: fmt.Sprintf("unknown %s provider: %s", providerType, name),
	}
}
