package contact

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/armstrong/internal/domain"
	"github.com/dukerupert/armstrong/internal/email"
	"github.com/dukerupert/armstrong/internal/telemetry"
)

var staff = []string{"staff@armstrongcms.org", "editor@armstrongcms.org"}

func testConfig() Config {
	return Config{
		DefaultFromEmail: "webmaster@armstrongcms.org",
		Recipients:       staff,
		Bcc:              []string{"archive@armstrongcms.org"},
		Site:             domain.Site{Name: "Armstrong", Domain: "armstrongcms.org"},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestComposer(t *testing.T, sender email.Sender) *Composer {
	t.Helper()
	c, err := NewComposer(testConfig(), sender, testLogger(), nil)
	require.NoError(t, err)
	return c
}

func testDeliveryContext() DeliveryContext {
	return DeliveryContext{
		Site:    domain.Site{Name: "Armstrong", Domain: "armstrongcms.org"},
		Request: domain.RequestInfo{RemoteAddr: "203.0.113.7", UserAgent: "test-agent"},
	}
}

func mustValidate(t *testing.T, kind Kind, raw url.Values) *Submission {
	t.Helper()
	sub, err := Validate(kind, raw)
	require.NoError(t, err)
	return sub
}

func TestNewComposer_Configuration(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"missing from", func(c *Config) { c.DefaultFromEmail = "" }, "DEFAULT_FROM_EMAIL"},
		{"bad from", func(c *Config) { c.DefaultFromEmail = "nope" }, "DEFAULT_FROM_EMAIL"},
		{"bad company from", func(c *Config) { c.CompanyFromEmail = "nope" }, "COMPANY_FROM_EMAIL"},
		{"missing recipients", func(c *Config) { c.Recipients = nil }, "CONTACT_RECIPIENTS"},
		{"bad recipient", func(c *Config) { c.Recipients = []string{"staff"} }, "CONTACT_RECIPIENTS"},
		{"bad bcc", func(c *Config) { c.Bcc = []string{"x"} }, "BCC_EMAIL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			_, err := NewComposer(cfg, email.NewRecorder(), nil, nil)

			var ce *domain.ConfigurationError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.key, ce.Key)
		})
	}

	t.Run("missing sender", func(t *testing.T) {
		_, err := NewComposer(testConfig(), nil, nil, nil)
		assert.True(t, domain.IsConfigurationError(err))
	})

	t.Run("company from defaults", func(t *testing.T) {
		c, err := NewComposer(testConfig(), email.NewRecorder(), nil, nil)
		require.NoError(t, err)
		assert.Equal(t, DefaultCompanyFromEmail, c.config.CompanyFromEmail)
	})
}

func TestBuildEnvelope_BaseUsesStaffList(t *testing.T) {
	c := newTestComposer(t, email.NewRecorder())

	inputs := []url.Values{
		validBase(),
		{"name": {"Grace"}, "email": {"grace@navy.mil"}, "body": {"Different content entirely"}},
	}
	for _, raw := range inputs {
		env, err := c.BuildEnvelope(mustValidate(t, KindBase, raw), testDeliveryContext())
		require.NoError(t, err)

		assert.Equal(t, staff, env.To)
		assert.Empty(t, env.Cc)
		assert.Equal(t, []string{"archive@armstrongcms.org"}, env.Bcc)
		assert.Equal(t, "webmaster@armstrongcms.org", env.From)
		assert.Equal(t, raw.Get("email"), env.ReplyTo)
	}
}

func TestBuildEnvelope_CompanyRepliesToSender(t *testing.T) {
	c := newTestComposer(t, email.NewRecorder())

	env, err := c.BuildEnvelope(mustValidate(t, KindCompany, validCompany()), testDeliveryContext())
	require.NoError(t, err)

	assert.Equal(t, []string{"ada@example.com"}, env.To)
	assert.Equal(t, []string{DefaultCompanyFromEmail}, env.Cc)
	assert.Equal(t, DefaultCompanyFromEmail, env.From)
	assert.Equal(t, []string{"archive@armstrongcms.org"}, env.Bcc)
	assert.Contains(t, env.Subject, "Ada")
	assert.Contains(t, env.Subject, "Analytical Engines Ltd")
	assert.Contains(t, env.Body, "Analytical Engines Ltd")
}

func TestBuildEnvelope_DoesNotAliasConfig(t *testing.T) {
	c := newTestComposer(t, email.NewRecorder())

	env, err := c.BuildEnvelope(mustValidate(t, KindBase, validBase()), testDeliveryContext())
	require.NoError(t, err)

	env.To[0] = "changed@example.com"
	env.Bcc[0] = "changed@example.com"
	assert.Equal(t, "staff@armstrongcms.org", c.config.Recipients[0])
	assert.Equal(t, "archive@armstrongcms.org", c.config.Bcc[0])
}

func TestBuildEnvelope_RejectsUnvalidatedSubmission(t *testing.T) {
	rec := email.NewRecorder()
	c := newTestComposer(t, rec)

	sub := &Submission{Kind: KindBase, Name: "Ada", Email: "ada@example.com", Body: "Hello"}

	env, err := c.BuildEnvelope(sub, testDeliveryContext())
	assert.Nil(t, env)
	assert.ErrorIs(t, err, ErrUnvalidatedSubmission)
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	_, err = c.RenderSubject(sub, testDeliveryContext())
	assert.ErrorIs(t, err, ErrUnvalidatedSubmission)
	_, err = c.RenderBody(nil, testDeliveryContext())
	assert.ErrorIs(t, err, ErrUnvalidatedSubmission)

	assert.Empty(t, rec.Sent())
}

func TestBuildEnvelope_RejectsTamperedSubmission(t *testing.T) {
	c := newTestComposer(t, email.NewRecorder())

	tests := []struct {
		name   string
		kind   Kind
		raw    url.Values
		tamper func(*Submission)
	}{
		{"header injection in email", KindBase, validBase(), func(s *Submission) { s.Email = "x@example.com\r\nBcc: y@example.com" }},
		{"name too long", KindBase, validBase(), func(s *Submission) { s.Name = strings.Repeat("a", 101) }},
		{"body cleared", KindBase, validBase(), func(s *Submission) { s.Body = "  " }},
		{"company on base form", KindBase, validBase(), func(s *Submission) { s.Company = "Navy" }},
		{"kind switched", KindBase, validBase(), func(s *Submission) { s.Kind = KindCompany }},
		{"company cleared", KindCompany, validCompany(), func(s *Submission) { s.Company = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := mustValidate(t, tt.kind, tt.raw)
			tt.tamper(sub)

			assert.False(t, sub.Validated())
			env, err := c.BuildEnvelope(sub, testDeliveryContext())
			assert.Nil(t, env)
			assert.ErrorIs(t, err, ErrUnvalidatedSubmission)
		})
	}
}

func TestRenderSubject_AdaExample(t *testing.T) {
	c := newTestComposer(t, email.NewRecorder())

	subject, err := c.RenderSubject(mustValidate(t, KindBase, validBase()), testDeliveryContext())
	require.NoError(t, err)

	assert.Equal(t, "[Armstrong] Message sent through the web site", subject)
	assert.NotContains(t, subject, "\n")
	assert.NotContains(t, subject, "\r")
}

func TestRenderSubject_CollapsesLineBreaks(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "contact_form_subject.txt"),
		[]byte("{{ site.name }}\r\n says\n hi\r{{ name }}\n\n"),
		0o644,
	))

	cfg := testConfig()
	cfg.TemplateDir = dir
	c, err := NewComposer(cfg, email.NewRecorder(), testLogger(), nil)
	require.NoError(t, err)

	raw := validBase()
	raw.Set("name", "Ada\nBcc: victim@example.com")

	subject, err := c.RenderSubject(mustValidate(t, KindBase, raw), testDeliveryContext())
	require.NoError(t, err)

	assert.Equal(t, "Armstrong says hiAdaBcc: victim@example.com", subject)
}

func TestCollapseLines(t *testing.T) {
	tests := map[string]string{
		"plain":           "plain",
		"a\nb":            "ab",
		"a\r\nb":          "ab",
		"a\rb\vc\fd":      "abcd",
		"a\u2028b\u2029c": "abc",
		"a\u0085b\x1cc":   "abc",
		"trailing\n":      "trailing",
		"\n\n":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, collapseLines(in), "%q", in)
	}
}

func TestRenderBody_IncludesSubmissionAndContext(t *testing.T) {
	c := newTestComposer(t, email.NewRecorder())

	body, err := c.RenderBody(mustValidate(t, KindBase, validBase()), testDeliveryContext())
	require.NoError(t, err)

	assert.Contains(t, body, "Ada <ada@example.com>")
	assert.Contains(t, body, "Hello")
	assert.Contains(t, body, "armstrongcms.org")
	assert.Contains(t, body, "203.0.113.7 (test-agent)")
}

func TestRenderBody_OmitsEmptyRequestInfo(t *testing.T) {
	c := newTestComposer(t, email.NewRecorder())

	body, err := c.RenderBody(mustValidate(t, KindBase, validBase()), DeliveryContext{Site: testConfig().Site})
	require.NoError(t, err)
	assert.NotContains(t, body, "Sent from")
}

func TestLoadTemplates_OverrideDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contact_form.txt"), []byte("custom {{ name }}"), 0o644))

	tpl, err := LoadTemplates(dir)
	require.NoError(t, err)

	sub := mustValidate(t, KindBase, validBase())
	out, err := tpl.render(tpl.body, KindBase, bindings(sub, testDeliveryContext()))
	require.NoError(t, err)
	assert.Equal(t, "custom Ada", out)

	// Files not present in the directory fall back to the built-in set.
	out, err = tpl.render(tpl.subject, KindBase, bindings(sub, testDeliveryContext()))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "[Armstrong]"))
}

func TestLoadTemplates_SyntaxError(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "contact_form.txt"), []byte("{% if name %}never closed"), 0o644))

	_, err := LoadTemplates(dir)
	assert.Error(t, err)

	cfg := testConfig()
	cfg.TemplateDir = dir
	_, err = NewComposer(cfg, email.NewRecorder(), nil, nil)
	assert.True(t, domain.IsConfigurationError(err))
}

func TestSend(t *testing.T) {
	c := newTestComposer(t, email.NewRecorder())
	env, err := c.BuildEnvelope(mustValidate(t, KindBase, validBase()), testDeliveryContext())
	require.NoError(t, err)

	t.Run("delivers through the transport", func(t *testing.T) {
		rec := email.NewRecorder()
		c := newTestComposer(t, rec)

		require.NoError(t, c.Send(context.Background(), env, false))

		sent := rec.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, staff, sent[0].To)
		assert.Equal(t, env.Subject, sent[0].Subject)
		assert.Equal(t, "ada@example.com", sent[0].ReplyTo)
	})

	t.Run("failure surfaces DeliveryError", func(t *testing.T) {
		rec := email.NewRecorder()
		rec.Err = errors.New("connection refused")
		c := newTestComposer(t, rec)

		err := c.Send(context.Background(), env, false)

		var de *domain.DeliveryError
		require.ErrorAs(t, err, &de)
		assert.Equal(t, "recorder", de.Transport)
		assert.ErrorIs(t, err, rec.Err)
		assert.Equal(t, domain.EUNAVAILABLE, domain.ErrorCode(err))
	})

	t.Run("failure with failSilently returns nil", func(t *testing.T) {
		rec := email.NewRecorder()
		rec.Err = errors.New("connection refused")
		c := newTestComposer(t, rec)

		assert.NoError(t, c.Send(context.Background(), env, true))
		assert.Empty(t, rec.Sent())

		var de *domain.DeliveryError
		require.ErrorAs(t, env.SilencedError(), &de)
		assert.ErrorIs(t, de, rec.Err)
	})

	t.Run("successful send clears a silenced failure", func(t *testing.T) {
		c := newTestComposer(t, email.NewRecorder())

		require.NoError(t, c.Send(context.Background(), env, true))
		assert.NoError(t, env.SilencedError())
	})

	t.Run("nil envelope", func(t *testing.T) {
		assert.True(t, domain.IsCode(c.Send(context.Background(), nil, false), domain.EINVALID))
	})
}

func TestSubmit(t *testing.T) {
	t.Run("validation failure sends nothing", func(t *testing.T) {
		rec := email.NewRecorder()
		metrics := telemetry.NewContactMetrics("test", prometheus.NewRegistry())
		c, err := NewComposer(testConfig(), rec, testLogger(), metrics)
		require.NoError(t, err)

		env, err := c.Submit(context.Background(), KindCompany, validBase(), testDeliveryContext(), false)
		assert.Nil(t, env)
		assert.Contains(t, domain.GetValidationFields(err), "company")
		assert.Empty(t, rec.Sent())
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ValidationFailures.WithLabelValues("company", "company")))
	})

	t.Run("company submission is sent to the submitter", func(t *testing.T) {
		rec := email.NewRecorder()
		metrics := telemetry.NewContactMetrics("test", prometheus.NewRegistry())
		c, err := NewComposer(testConfig(), rec, testLogger(), metrics)
		require.NoError(t, err)

		env, err := c.Submit(context.Background(), KindCompany, validCompany(), testDeliveryContext(), false)
		require.NoError(t, err)
		assert.Equal(t, []string{"ada@example.com"}, env.To)

		sent := rec.Sent()
		require.Len(t, sent, 1)
		assert.Equal(t, []string{DefaultCompanyFromEmail}, sent[0].Cc)
		assert.Equal(t, "company", sent[0].Headers["X-Contact-Form"])
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Submissions.WithLabelValues("company")))
		assert.Equal(t, 1.0, testutil.ToFloat64(metrics.EmailSent.WithLabelValues("company", "recorder")))
	})

	t.Run("transport failure", func(t *testing.T) {
		rec := email.NewRecorder()
		rec.Err = errors.New("auth failed")
		c := newTestComposer(t, rec)

		_, err := c.Submit(context.Background(), KindBase, validBase(), testDeliveryContext(), false)
		assert.True(t, domain.IsDeliveryError(err))

		env, err := c.Submit(context.Background(), KindBase, validBase(), testDeliveryContext(), true)
		assert.NoError(t, err)
		assert.NotNil(t, env)
	})
}

func TestDeliveryContext(t *testing.T) {
	c := newTestComposer(t, email.NewRecorder())

	dctx := c.DeliveryContext(context.Background())
	assert.Equal(t, testConfig().Site, dctx.Site)

	site := domain.Site{Name: "Other", Domain: "other.org"}
	info := domain.RequestInfo{RequestID: "req-1"}
	ctx := domain.NewContextWithRequestInfo(domain.NewContextWithSite(context.Background(), site), info)

	dctx = c.DeliveryContext(ctx)
	assert.Equal(t, site, dctx.Site)
	assert.Equal(t, "req-1", dctx.Request.RequestID)
}
