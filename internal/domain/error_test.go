package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "message only",
			err:      &Error{Code: EINVALID, Message: "invalid input"},
			expected: "invalid input",
		},
		{
			name:     "with operation",
			err:      &Error{Code: EINVALID, Op: "contact.validate", Message: "invalid input"},
			expected: "contact.validate: invalid input",
		},
		{
			name: "with wrapped error",
			err: &Error{
				Code:    EINTERNAL,
				Op:      "contact.render_body",
				Message: "failed to render",
				Err:     errors.New("unexpected tag"),
			},
			expected: "contact.render_body: failed to render: unexpected tag",
		},
		{
			name: "wrapped error without op",
			err: &Error{
				Code:    EINTERNAL,
				Message: "failed to render",
				Err:     errors.New("unexpected tag"),
			},
			expected: "failed to render: unexpected tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.expected {
				t.Errorf("Error.Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"domain error", &Error{Code: ENOTFOUND, Message: "test"}, ENOTFOUND},
		{"wrapped domain error", fmt.Errorf("wrapped: %w", &Error{Code: ERATELIMIT}), ERATELIMIT},
		{"validation error", NewValidationError("op", "name", "required"), EINVALID},
		{"delivery error", &DeliveryError{Transport: "smtp", Err: errors.New("refused")}, EUNAVAILABLE},
		{"configuration error", MissingConfig("SMTP_HOST"), ECONFIG},
		{"non-domain error", errors.New("some error"), EINTERNAL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorCode(tt.err); got != tt.expected {
				t.Errorf("ErrorCode() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestErrorMessage(t *testing.T) {
	generic := "An internal error occurred. Please try again later."

	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"nil error", nil, ""},
		{"invalid error keeps message", Invalid("contact.validate", "unknown form"), "unknown form"},
		{"not found keeps message", NotFound("contact.variant", "form", "x"), "form not found: x"},
		{"internal hides detail", &Error{Code: EINTERNAL, Message: "smtp password leaked"}, generic},
		{"configuration hides detail", MissingConfig("SMTP_PASSWORD"), generic},
		{"delivery error", &DeliveryError{Transport: "smtp", Err: errors.New("dial tcp: refused")},
			"Your message could not be sent right now. Please try again later."},
		{"validation error", NewValidationError("op", "email", "bad"), "Please correct the errors below."},
		{"non-domain error", errors.New("some internal detail"), generic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ErrorMessage(tt.err); got != tt.expected {
				t.Errorf("ErrorMessage() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestWrapError(t *testing.T) {
	t.Run("wraps non-nil error", func(t *testing.T) {
		underlying := errors.New("template syntax")
		err := WrapError(underlying, EINTERNAL, "contact.render_subject", "failed to render subject")

		var domainErr *Error
		if !errors.As(err, &domainErr) {
			t.Fatal("WrapError should return *Error")
		}
		if domainErr.Code != EINTERNAL {
			t.Errorf("Code = %q, want %q", domainErr.Code, EINTERNAL)
		}
		if !errors.Is(err, underlying) {
			t.Error("should wrap underlying error")
		}
	})

	t.Run("returns nil for nil error", func(t *testing.T) {
		if err := WrapError(nil, EINTERNAL, "test", "test"); err != nil {
			t.Errorf("WrapError(nil) should return nil, got %v", err)
		}
	})
}

func TestValidationError(t *testing.T) {
	t.Run("single field error", func(t *testing.T) {
		err := NewValidationError("contact.validate", "name", "This field is required.")

		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatal("NewValidationError should return *ValidationError")
		}

		expected := "contact.validate: name: This field is required."
		if ve.Error() != expected {
			t.Errorf("Error() = %q, want %q", ve.Error(), expected)
		}
	})

	t.Run("multiple field errors name every field", func(t *testing.T) {
		err := NewValidationError("contact.validate", "name", "required")
		err = AddFieldError(err, "body", "required")

		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatal("should be ValidationError")
		}
		if len(ve.Fields) != 2 {
			t.Errorf("Fields count = %d, want 2", len(ve.Fields))
		}

		expected := "contact.validate: validation failed for 2 fields (body, name)"
		if ve.Error() != expected {
			t.Errorf("Error() = %q, want %q", ve.Error(), expected)
		}
	})

	t.Run("add field to nil error", func(t *testing.T) {
		err := AddFieldError(nil, "email", "Enter a valid email address.")
		if fields := GetValidationFields(err); len(fields) != 1 {
			t.Errorf("Fields count = %d, want 1", len(fields))
		}
	})
}

func TestDeliveryError(t *testing.T) {
	underlying := errors.New("connection refused")
	err := fmt.Errorf("send: %w", &DeliveryError{Op: "contact.send", Transport: "smtp", Err: underlying})

	if !IsDeliveryError(err) {
		t.Fatal("IsDeliveryError should find wrapped DeliveryError")
	}
	if !errors.Is(err, underlying) {
		t.Error("DeliveryError should unwrap to the transport error")
	}
	if IsDeliveryError(errors.New("other")) {
		t.Error("IsDeliveryError should be false for plain errors")
	}
}

func TestConfigurationError(t *testing.T) {
	err := MissingConfig("CONTACT_RECIPIENTS")

	if !IsConfigurationError(err) {
		t.Fatal("MissingConfig should return *ConfigurationError")
	}
	expected := "configuration: CONTACT_RECIPIENTS: required but not set"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}
