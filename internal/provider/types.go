// Package provider builds the outbound email transport named in the
// configuration.
package provider

import (
	"github.com/dukerupert/armstrong/internal/email"
)

// ProviderName identifies an email transport implementation.
type ProviderName string

const (
	// ProviderNameSMTP delivers through an SMTP relay, authenticating when
	// credentials are configured.
	ProviderNameSMTP ProviderName = "smtp"

	// ProviderNameSES delivers through the AWS SES v2 API.
	ProviderNameSES ProviderName = "ses"

	// ProviderNameLog writes messages to the log instead of sending them.
	// Development only.
	ProviderNameLog ProviderName = "log"
)

// EmailConfig selects a transport and carries the settings for each kind.
// Only the section matching Name is read.
type EmailConfig struct {
	Name ProviderName
	SMTP email.SMTPConfig
	SES  email.SESConfig
}

// ValidationResult contains the result of configuration validation.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// AddError adds an error message to the validation result.
func (v *ValidationResult) AddError(err string) {
	v.Valid = false
	v.Errors = append(v.Errors, err)
}

// IsValidProviderName reports whether name is a known email transport.
func IsValidProviderName(name ProviderName) bool {
	switch name {
	case ProviderNameSMTP, ProviderNameSES, ProviderNameLog:
		return true
	}
	return false
}
