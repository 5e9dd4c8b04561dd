package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/osteele/liquid"

	"github.com/dukerupert/armstrong/internal/domain"
	"github.com/dukerupert/armstrong/internal/email"
	"github.com/dukerupert/armstrong/internal/telemetry"
)

// DefaultCompanyFromEmail is the sender for the company form when none is configured.
const DefaultCompanyFromEmail = "info@armstrongcms.org"

// ErrUnvalidatedSubmission is returned when a submission that did not come
// out of Validate reaches rendering or envelope construction.
var ErrUnvalidatedSubmission = &domain.Error{
	Code:    domain.EINVALID,
	Message: "contact submission has not been validated",
}

// Config is the deployment configuration the composer needs.
type Config struct {
	// DefaultFromEmail is the sender for the base form.
	DefaultFromEmail string

	// CompanyFromEmail is the sender for the company form, also copied on
	// every company message.
	CompanyFromEmail string

	// Recipients is the staff list that receives base form messages.
	Recipients []string

	// Bcc receives a blind copy of every message.
	Bcc []string

	// Site is used when the request context carries none.
	Site domain.Site

	// TemplateDir optionally overrides the built-in templates.
	TemplateDir string
}

// DeliveryContext is read-only data used to enrich rendered messages.
type DeliveryContext struct {
	Site    domain.Site
	Request domain.RequestInfo
}

// Composer renders and sends contact messages.
// It holds no per-submission state and is safe for concurrent use.
type Composer struct {
	config    Config
	templates *Templates
	sender    email.Sender
	logger    *slog.Logger
	metrics   *telemetry.ContactMetrics
}

// NewComposer checks the configuration, loads templates and returns a
// composer bound to sender. Missing or malformed addresses produce a
// *domain.ConfigurationError so the process can refuse to start.
func NewComposer(cfg Config, sender email.Sender, logger *slog.Logger, metrics *telemetry.ContactMetrics) (*Composer, error) {
	if sender == nil {
		return nil, &domain.ConfigurationError{Key: "EMAIL_PROVIDER", Reason: "no email transport configured"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CompanyFromEmail == "" {
		cfg.CompanyFromEmail = DefaultCompanyFromEmail
	}

	if cfg.DefaultFromEmail == "" {
		return nil, domain.MissingConfig("DEFAULT_FROM_EMAIL")
	}
	if err := checkAddresses("DEFAULT_FROM_EMAIL", cfg.DefaultFromEmail); err != nil {
		return nil, err
	}
	if err := checkAddresses("COMPANY_FROM_EMAIL", cfg.CompanyFromEmail); err != nil {
		return nil, err
	}
	if len(cfg.Recipients) == 0 {
		return nil, domain.MissingConfig("CONTACT_RECIPIENTS")
	}
	if err := checkAddresses("CONTACT_RECIPIENTS", cfg.Recipients...); err != nil {
		return nil, err
	}
	if err := checkAddresses("BCC_EMAIL", cfg.Bcc...); err != nil {
		return nil, err
	}

	templates, err := LoadTemplates(cfg.TemplateDir)
	if err != nil {
		return nil, &domain.ConfigurationError{Key: "TEMPLATE_DIR", Reason: err.Error()}
	}

	return &Composer{
		config:    cfg,
		templates: templates,
		sender:    sender,
		logger:    logger,
		metrics:   metrics,
	}, nil
}

func checkAddresses(key string, addrs ...string) error {
	for _, addr := range addrs {
		if _, err := mail.ParseAddress(addr); err != nil {
			return &domain.ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid address %q", addr)}
		}
	}
	return nil
}

// Transport returns the name of the configured sender.
func (c *Composer) Transport() string {
	return c.sender.Name()
}

// DeliveryContext assembles the rendering context for a request. The site
// stored in ctx wins over the configured default.
func (c *Composer) DeliveryContext(ctx context.Context) DeliveryContext {
	site, ok := domain.SiteFromContext(ctx)
	if !ok {
		site = c.config.Site
	}
	return DeliveryContext{Site: site, Request: domain.RequestInfoFromContext(ctx)}
}

// RenderSubject renders the variant's subject template and collapses the
// result to a single line.
func (c *Composer) RenderSubject(sub *Submission, dctx DeliveryContext) (string, error) {
	const op = "contact.render_subject"

	if !sub.Validated() {
		return "", fmt.Errorf("%s: %w", op, ErrUnvalidatedSubmission)
	}
	out, err := c.templates.render(c.templates.subject, sub.Kind, bindings(sub, dctx))
	if err != nil {
		return "", domain.Internal(err, op, "failed to render subject")
	}
	return collapseLines(out), nil
}

// RenderBody renders the variant's body template.
func (c *Composer) RenderBody(sub *Submission, dctx DeliveryContext) (string, error) {
	const op = "contact.render_body"

	if !sub.Validated() {
		return "", fmt.Errorf("%s: %w", op, ErrUnvalidatedSubmission)
	}
	out, err := c.templates.render(c.templates.body, sub.Kind, bindings(sub, dctx))
	if err != nil {
		return "", domain.Internal(err, op, "failed to render body")
	}
	return out, nil
}

// BuildEnvelope assembles sender, recipients, subject and body for a
// validated submission.
func (c *Composer) BuildEnvelope(sub *Submission, dctx DeliveryContext) (*Envelope, error) {
	const op = "contact.build_envelope"

	if !sub.Validated() {
		return nil, fmt.Errorf("%s: %w", op, ErrUnvalidatedSubmission)
	}

	subject, err := c.RenderSubject(sub, dctx)
	if err != nil {
		return nil, err
	}
	body, err := c.RenderBody(sub, dctx)
	if err != nil {
		return nil, err
	}

	env := &Envelope{
		Kind:    sub.Kind,
		Subject: subject,
		Body:    body,
		Bcc:     append([]string(nil), c.config.Bcc...),
	}

	switch sub.Kind {
	case KindCompany:
		env.From = c.config.CompanyFromEmail
		env.To = []string{sub.Email}
		env.Cc = []string{env.From}
	case KindBase:
		env.From = c.config.DefaultFromEmail
		env.To = append([]string(nil), c.config.Recipients...)
		env.Cc = []string{}
		env.ReplyTo = sub.Email
	default:
		return nil, domain.Invalid(op, fmt.Sprintf("unknown contact form %q", sub.Kind))
	}

	return env, nil
}

// Send hands the envelope to the transport in a single attempt. A transport
// failure is returned as *domain.DeliveryError unless failSilently is set,
// in which case it is logged and kept on env.SilencedError.
func (c *Composer) Send(ctx context.Context, env *Envelope, failSilently bool) error {
	if env == nil {
		return domain.Invalid("contact.send", "no envelope to send")
	}

	env.silenced = nil
	transport := c.sender.Name()
	start := time.Now()
	messageID, err := c.sender.Send(ctx, env.Email())
	c.metrics.RecordSend(string(env.Kind), transport, time.Since(start).Seconds(), err, failSilently)

	if err != nil {
		derr := &domain.DeliveryError{Op: "contact.send", Transport: transport, Err: err}
		if failSilently {
			c.logger.Warn("contact email not delivered",
				"variant", env.Kind,
				"transport", transport,
				"error", err,
			)
			env.silenced = derr
			return nil
		}
		telemetry.CaptureErrorFromContext(ctx, derr, map[string]string{
			"variant":   string(env.Kind),
			"transport": transport,
		})
		return derr
	}

	c.logger.Info("contact email sent",
		"variant", env.Kind,
		"transport", transport,
		"message_id", messageID,
		"recipients", len(env.To)+len(env.Cc)+len(env.Bcc),
	)
	return nil
}

// Submit runs the whole pipeline for one request: validate, build, send.
// Validation failures return before anything is rendered or sent.
func (c *Composer) Submit(ctx context.Context, kind Kind, raw url.Values, dctx DeliveryContext, failSilently bool) (*Envelope, error) {
	c.metrics.RecordSubmission(string(kind))

	sub, err := Validate(kind, raw)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			c.metrics.RecordValidationFailure(string(kind), ve.FieldNames())
		}
		return nil, err
	}

	env, err := c.BuildEnvelope(sub, dctx)
	if err != nil {
		return nil, err
	}

	if err := c.Send(ctx, env, failSilently); err != nil {
		return nil, err
	}
	return env, nil
}

func bindings(sub *Submission, dctx DeliveryContext) liquid.Bindings {
	return liquid.Bindings{
		"name":    sub.Name,
		"email":   sub.Email,
		"body":    sub.Body,
		"company": sub.Company,
		"site": map[string]any{
			"name":   dctx.Site.Name,
			"domain": dctx.Site.Domain,
		},
		"request": map[string]any{
			"request_id":  dctx.Request.RequestID,
			"remote_addr": dctx.Request.RemoteAddr,
			"user_agent":  dctx.Request.UserAgent,
			"referer":     dctx.Request.Referer,
		},
	}
}

// lineBreaks lists every line boundary, Unicode separators included.
var lineBreaks = strings.NewReplacer(
	"\r\n", "",
	"\n", "",
	"\r", "",
	"\v", "",
	"\f", "",
	"\x1c", "",
	"\x1d", "",
	"\x1e", "",
	"\u0085", "",
	"\u2028", "",
	"\u2029", "",
)

// collapseLines joins every line of s with no separator.
func collapseLines(s string) string {
	return lineBreaks.Replace(s)
}
