package email

import "errors"

var (
	// ErrNoRecipients is returned when an email has no To recipients.
	ErrNoRecipients = errors.New("email: message has no recipients")

	// ErrInvalidFromAddress is returned when the from address is rejected.
	ErrInvalidFromAddress = errors.New("email: invalid from address")

	// ErrInvalidToAddress is returned when a recipient address is rejected.
	ErrInvalidToAddress = errors.New("email: invalid recipient address")

	// ErrNotConfigured is returned when a transport is used without its client.
	ErrNotConfigured = errors.New("email: transport not configured")
)
