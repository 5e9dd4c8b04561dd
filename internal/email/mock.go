package email

import (
	"context"
	"fmt"
	"sync"
)

// Recorder is a test implementation of Sender that keeps every message it
// is asked to send. Set Err to simulate a transport failure.
type Recorder struct {
	mu     sync.Mutex
	Err    error
	Outbox []Email
}

// NewRecorder creates an empty recording sender.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Name implements Sender.
func (r *Recorder) Name() string {
	return "recorder"
}

// Send records the email, or returns Err without recording when set.
func (r *Recorder) Send(ctx context.Context, email *Email) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return "", r.Err
	}
	r.Outbox = append(r.Outbox, *email)
	return fmt.Sprintf("recorded-%d", len(r.Outbox)), nil
}

// Sent returns a copy of the recorded messages.
func (r *Recorder) Sent() []Email {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Email, len(r.Outbox))
	copy(out, r.Outbox)
	return out
}
