package contact

import "github.com/dukerupert/armstrong/internal/email"

// Envelope is a fully assembled outbound message. It is built fresh for
// every send and never persisted.
type Envelope struct {
	Kind    Kind
	From    string
	Subject string
	Body    string
	To      []string
	Cc      []string
	Bcc     []string
	ReplyTo string

	// silenced is the delivery failure Send swallowed because of failSilently.
	silenced error
}

// SilencedError returns the delivery failure that was logged instead of
// returned, or nil when the transport accepted the message.
func (e *Envelope) SilencedError() error {
	return e.silenced
}

// Email converts the envelope into the transport representation.
func (e *Envelope) Email() *email.Email {
	return &email.Email{
		From:     e.From,
		To:       e.To,
		Cc:       e.Cc,
		Bcc:      e.Bcc,
		ReplyTo:  e.ReplyTo,
		Subject:  e.Subject,
		TextBody: e.Body,
		Headers: map[string]string{
			"X-Contact-Form": string(e.Kind),
		},
	}
}
