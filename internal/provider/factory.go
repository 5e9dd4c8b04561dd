package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukerupert/armstrong/internal/email"
)

// NewEmailSender validates config and creates the sender it names.
func NewEmailSender(ctx context.Context, config EmailConfig, logger *slog.Logger) (email.Sender, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if !IsValidProviderName(config.Name) {
		return nil, ErrUnknownProvider("email", config.Name)
	}

	result := ValidateEmailConfig(config)
	if !result.Valid {
		return nil, ErrValidationFailed("email", result.Errors)
	}

	switch config.Name {
	case ProviderNameSMTP:
		sender, err := email.NewSMTPSender(config.SMTP, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create smtp sender: %w", err)
		}
		return sender, nil

	case ProviderNameSES:
		sender, err := email.NewSESSender(ctx, config.SES, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create ses sender: %w", err)
		}
		return sender, nil

	case ProviderNameLog:
		return email.NewLogSender(logger), nil

	default:
		return nil, ErrUnknownProvider("email", config.Name)
	}
}
