package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// DefaultSMTPTimeout bounds dialing and each SMTP command.
const DefaultSMTPTimeout = 30 * time.Second

// SMTPConfig holds SMTP connection parameters.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string // optional - some relays (Mailhog) allow unauthenticated submission
	Password string
	Timeout  time.Duration
}

// authenticated reports whether SMTP AUTH should be used.
func (c SMTPConfig) authenticated() bool {
	return c.Username != "" && c.Password != ""
}

// SMTPSender implements Sender using go-mail.
// Every Send dials a fresh connection and closes it afterwards; connections
// are never pooled or reused across calls.
type SMTPSender struct {
	config SMTPConfig
	logger *slog.Logger
}

// NewSMTPSender creates a new SMTP email sender.
func NewSMTPSender(config SMTPConfig, logger *slog.Logger) (*SMTPSender, error) {
	if config.Host == "" {
		return nil, fmt.Errorf("email: SMTP host is required")
	}
	if config.Port == 0 {
		config.Port = 587
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultSMTPTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SMTPSender{config: config, logger: logger}, nil
}

// Name implements Sender.
func (s *SMTPSender) Name() string {
	return "smtp"
}

// Send delivers an email via SMTP in a single attempt.
func (s *SMTPSender) Send(ctx context.Context, email *Email) (string, error) {
	msg, messageID, err := s.buildMessage(email)
	if err != nil {
		return "", err
	}

	client, err := mail.NewClient(s.config.Host, clientOptions(s.config)...)
	if err != nil {
		return "", fmt.Errorf("failed to create SMTP client: %w", err)
	}

	// The timeout bounds the whole exchange, not only each command.
	ctx, cancel := context.WithTimeout(ctx, s.config.Timeout)
	defer cancel()

	s.logger.Debug("smtp: sending",
		"host", s.config.Host,
		"port", s.config.Port,
		"recipients", len(email.Recipients()),
		"authenticated", s.config.authenticated(),
	)

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	return messageID, nil
}

// buildMessage converts an Email into a go-mail message and assigns a Message-ID.
func (s *SMTPSender) buildMessage(email *Email) (*mail.Msg, string, error) {
	if len(email.To) == 0 {
		return nil, "", ErrNoRecipients
	}

	msg := mail.NewMsg()

	if err := msg.From(email.From); err != nil {
		return nil, "", errors.Join(ErrInvalidFromAddress, err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, "", errors.Join(ErrInvalidToAddress, err)
	}
	if len(email.Cc) > 0 {
		if err := msg.Cc(email.Cc...); err != nil {
			return nil, "", errors.Join(ErrInvalidToAddress, err)
		}
	}
	if len(email.Bcc) > 0 {
		if err := msg.Bcc(email.Bcc...); err != nil {
			return nil, "", errors.Join(ErrInvalidToAddress, err)
		}
	}
	if email.ReplyTo != "" {
		if err := msg.ReplyTo(email.ReplyTo); err != nil {
			return nil, "", fmt.Errorf("invalid reply-to address: %w", err)
		}
	}

	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextPlain, email.TextBody)

	for key, value := range email.Headers {
		msg.SetGenHeader(mail.Header(key), value)
	}

	messageID := fmt.Sprintf("<%s@%s>", uuid.New().String(), messageIDDomain(email.From, s.config.Host))
	msg.SetGenHeader(mail.HeaderMessageID, messageID)
	msg.SetDate()

	return msg, messageID, nil
}

// clientOptions returns go-mail client options based on configuration.
func clientOptions(config SMTPConfig) []mail.Option {
	opts := []mail.Option{
		mail.WithPort(config.Port),
		mail.WithTimeout(config.Timeout),
	}

	switch config.Port {
	case 465:
		// Implicit TLS (SMTPS)
		opts = append(opts, mail.WithSSL())
	case 587:
		// STARTTLS (submission port)
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	default:
		// Port 25 relays and local catchers (Mailhog on 1025)
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	}

	if config.authenticated() {
		opts = append(opts,
			mail.WithUsername(config.Username),
			mail.WithPassword(config.Password),
			mail.WithSMTPAuth(mail.SMTPAuthAutoDiscover),
		)
	}

	return opts
}

// TestConnection verifies SMTP connectivity and authentication without sending email.
func (s *SMTPSender) TestConnection(ctx context.Context) error {
	return TestSMTPConnection(ctx, s.config)
}

// TestSMTPConnection dials the server, authenticates when credentials are
// configured, and disconnects.
func TestSMTPConnection(ctx context.Context, config SMTPConfig) error {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}

	client, err := mail.NewClient(config.Host, clientOptions(config)...)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}

	if err := client.DialWithContext(ctx); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer client.Close()

	return nil
}

// messageIDDomain picks the right-hand side of generated Message-IDs.
func messageIDDomain(from, fallback string) string {
	addr := from
	if i := strings.LastIndex(addr, "<"); i >= 0 {
		addr = strings.TrimSuffix(addr[i+1:], ">")
	}
	if at := strings.LastIndex(addr, "@"); at >= 0 && at < len(addr)-1 {
		return addr[at+1:]
	}
	return fallback
}
