// Package email delivers fully assembled messages through an outbound
// transport. It knows nothing about forms or templates; callers hand it a
// ready Email and get back a provider message ID or an error.
package email

import "context"

// Email represents an email message to be sent.
type Email struct {
	From     string            // Sender address, may include a display name
	To       []string          // Primary recipients
	Cc       []string          // Carbon-copy recipients (optional)
	Bcc      []string          // Blind carbon-copy recipients (optional)
	ReplyTo  string            // Reply-To address (optional)
	Subject  string            // Single-line subject
	TextBody string            // Plain text body
	Headers  map[string]string // Custom headers (optional)
}

// Recipients returns every envelope recipient: To, then Cc, then Bcc.
func (e *Email) Recipients() []string {
	out := make([]string, 0, len(e.To)+len(e.Cc)+len(e.Bcc))
	out = append(out, e.To...)
	out = append(out, e.Cc...)
	out = append(out, e.Bcc...)
	return out
}

// Sender defines the interface for sending emails.
// Implementations make exactly one delivery attempt per call.
type Sender interface {
	// Send delivers an email message.
	// Returns the message ID assigned by the transport (if available).
	Send(ctx context.Context, email *Email) (string, error)

	// Name identifies the transport in logs, metrics and errors (e.g. "smtp").
	Name() string
}
