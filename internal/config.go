package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/dukerupert/armstrong/internal/contact"
	"github.com/dukerupert/armstrong/internal/domain"
	"github.com/dukerupert/armstrong/internal/email"
	"github.com/dukerupert/armstrong/internal/provider"
)

// Config is the full runtime configuration.
//
// Values are layered: built-in defaults, then every YAML file listed in
// SETTINGS_FILE (comma separated, later files win), then environment
// variables. Overlays override the keys they set; for strings, lists and
// most numbers an empty value counts as unset. Booleans and the Sentry
// sample rate can be set back to false or 0 by a later file.
type Config struct {
	Env       string          `yaml:"env"`
	LogLevel  string          `yaml:"log_level"`
	Port      uint16          `yaml:"port"`
	BaseURL   string          `yaml:"base_url"`
	Site      domain.Site     `yaml:"site"`
	Contact   ContactConfig   `yaml:"contact"`
	Email     EmailConfig     `yaml:"email"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Sentry    SentryConfig    `yaml:"sentry"`
}

// ContactConfig holds the addresses and templates used by the contact forms.
type ContactConfig struct {
	DefaultFromEmail string   `yaml:"default_from_email"`
	CompanyFromEmail string   `yaml:"company_from_email"`
	Recipients       []string `yaml:"recipients"`
	Bcc              []string `yaml:"bcc"`
	TemplateDir      string   `yaml:"template_dir"`

	// FailSilently suppresses delivery errors from the web forms.
	FailSilently bool `yaml:"fail_silently"`
}

// EmailConfig selects and configures the outbound transport.
type EmailConfig struct {
	Provider string        `yaml:"provider"` // "smtp", "ses" or "log"
	Host     string        `yaml:"host"`
	Port     uint16        `yaml:"port"`
	Username string        `yaml:"username"`
	Password string        `yaml:"password"`
	Timeout  time.Duration `yaml:"timeout"`
	SES      SESConfig     `yaml:"ses"`
}

// SESConfig holds AWS SES settings used when Provider is "ses".
type SESConfig struct {
	Region           string `yaml:"region"`
	AccessKeyID      string `yaml:"access_key_id"`
	SecretAccessKey  string `yaml:"secret_access_key"`
	ConfigurationSet string `yaml:"configuration_set"`
}

// RateLimitConfig limits contact form submissions per client IP.
type RateLimitConfig struct {
	// Rate uses the limiter format "<limit>-<period>", e.g. "5-M".
	Rate               string `yaml:"rate"`
	TrustForwardHeader bool   `yaml:"trust_forward_header"`
}

// CORSConfig configures the JSON contact API.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// SentryConfig holds configuration for Sentry error tracking
type SentryConfig struct {
	DSN         string  `yaml:"dsn"`
	Enabled     bool    `yaml:"enabled"`
	Environment string  `yaml:"environment"`
	Release     string  `yaml:"release"`
	SampleRate  float64 `yaml:"sample_rate"`
	Debug       bool    `yaml:"debug"`
}

// IsProduction reports whether the process runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "prod"
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// EmailProvider converts the email section into the transport factory's
// configuration.
func (c *Config) EmailProvider() provider.EmailConfig {
	return provider.EmailConfig{
		Name: provider.ProviderName(c.Email.Provider),
		SMTP: email.SMTPConfig{
			Host:     c.Email.Host,
			Port:     int(c.Email.Port),
			Username: c.Email.Username,
			Password: c.Email.Password,
			Timeout:  c.Email.Timeout,
		},
		SES: email.SESConfig{
			Region:           c.Email.SES.Region,
			AccessKeyID:      c.Email.SES.AccessKeyID,
			SecretAccessKey:  c.Email.SES.SecretAccessKey,
			ConfigurationSet: c.Email.SES.ConfigurationSet,
		},
	}
}

// ContactComposer converts the contact section into composer settings.
func (c *Config) ContactComposer() contact.Config {
	return contact.Config{
		DefaultFromEmail: c.Contact.DefaultFromEmail,
		CompanyFromEmail: c.Contact.CompanyFromEmail,
		Recipients:       c.Contact.Recipients,
		Bcc:              c.Contact.Bcc,
		Site:             c.Site,
		TemplateDir:      c.Contact.TemplateDir,
	}
}

// defaultConfig mirrors a local development setup with Mailhog on :1025.
func defaultConfig() Config {
	return Config{
		Env:      "dev",
		LogLevel: "info",
		Port:     3000,
		BaseURL:  "http://localhost:3000",
		Site: domain.Site{
			Name:   "Armstrong",
			Domain: "armstrongcms.org",
		},
		Contact: ContactConfig{
			DefaultFromEmail: "webmaster@localhost",
			CompanyFromEmail: "info@armstrongcms.org",
		},
		Email: EmailConfig{
			Provider: "smtp",
			Host:     "localhost",
			Port:     1025,
			Timeout:  30 * time.Second,
			SES: SESConfig{
				Region: "us-east-1",
			},
		},
		RateLimit: RateLimitConfig{
			Rate: "5-M",
		},
		Sentry: SentryConfig{
			Environment: "development",
			SampleRate:  1.0,
		},
	}
}

// NewConfig loads .env (walking up at most two directories), then builds
// the layered configuration and validates it.
func NewConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		dir, _ := os.Getwd()
		found := false
		for i := 0; i < 2; i++ {
			dir = filepath.Join(dir, "..")
			if err := godotenv.Load(filepath.Join(dir, ".env")); err == nil {
				found = true
				break
			}
		}
		if !found {
			slog.Default().Warn("Warning: .env file not found, using environment variables and defaults")
		}
	}

	return Load()
}

// Load builds the configuration from defaults, settings files and the
// environment without touching .env.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	cfg := defaultConfig()

	for _, path := range splitList(v.GetString("SETTINGS_FILE")) {
		if err := mergeSettingsFile(&cfg, path); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(v, &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// mergeSettingsFile overlays the YAML file at path onto cfg.
func mergeSettingsFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &domain.ConfigurationError{Key: "SETTINGS_FILE", Reason: fmt.Sprintf("cannot read %s: %v", path, err)}
	}

	data = []byte(os.ExpandEnv(string(data)))

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return &domain.ConfigurationError{Key: "SETTINGS_FILE", Reason: fmt.Sprintf("cannot parse %s: %v", path, err)}
	}

	if err := mergo.Merge(cfg, overlay, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge settings %s: %w", path, err)
	}

	// mergo skips zero values, so an explicit false or 0 is applied here.
	var explicit explicitOverlay
	if err := yaml.Unmarshal(data, &explicit); err != nil {
		return &domain.ConfigurationError{Key: "SETTINGS_FILE", Reason: fmt.Sprintf("cannot parse %s: %v", path, err)}
	}
	explicit.apply(cfg)
	return nil
}

// explicitOverlay holds the settings whose zero value is meaningful.
// A nil pointer means the key was absent from the file.
type explicitOverlay struct {
	Contact struct {
		FailSilently *bool `yaml:"fail_silently"`
	} `yaml:"contact"`
	RateLimit struct {
		TrustForwardHeader *bool `yaml:"trust_forward_header"`
	} `yaml:"rate_limit"`
	Sentry struct {
		Enabled    *bool    `yaml:"enabled"`
		Debug      *bool    `yaml:"debug"`
		SampleRate *float64 `yaml:"sample_rate"`
	} `yaml:"sentry"`
}

func (o explicitOverlay) apply(cfg *Config) {
	if o.Contact.FailSilently != nil {
		cfg.Contact.FailSilently = *o.Contact.FailSilently
	}
	if o.RateLimit.TrustForwardHeader != nil {
		cfg.RateLimit.TrustForwardHeader = *o.RateLimit.TrustForwardHeader
	}
	if o.Sentry.Enabled != nil {
		cfg.Sentry.Enabled = *o.Sentry.Enabled
	}
	if o.Sentry.Debug != nil {
		cfg.Sentry.Debug = *o.Sentry.Debug
	}
	if o.Sentry.SampleRate != nil {
		cfg.Sentry.SampleRate = *o.Sentry.SampleRate
	}
}

// applyEnv overrides cfg with every environment variable that is set.
// A value that does not parse is a *domain.ConfigurationError.
func applyEnv(v *viper.Viper, cfg *Config) error {
	e := &envReader{v: v}

	e.setString("ENV", &cfg.Env)
	e.setString("LOG_LEVEL", &cfg.LogLevel)
	e.setUint16("PORT", &cfg.Port)
	e.setString("BASE_URL", &cfg.BaseURL)
	e.setString("SITE_NAME", &cfg.Site.Name)
	e.setString("SITE_DOMAIN", &cfg.Site.Domain)

	e.setString("DEFAULT_FROM_EMAIL", &cfg.Contact.DefaultFromEmail)
	e.setString("COMPANY_FROM_EMAIL", &cfg.Contact.CompanyFromEmail)
	e.setList("CONTACT_RECIPIENTS", &cfg.Contact.Recipients)
	e.setList("BCC_EMAIL", &cfg.Contact.Bcc)
	e.setString("TEMPLATE_DIR", &cfg.Contact.TemplateDir)
	e.setBool("CONTACT_FAIL_SILENTLY", &cfg.Contact.FailSilently)

	e.setString("EMAIL_PROVIDER", &cfg.Email.Provider)
	e.setString("SMTP_HOST", &cfg.Email.Host)
	e.setUint16("SMTP_PORT", &cfg.Email.Port)
	e.setString("SMTP_USERNAME", &cfg.Email.Username)
	e.setString("SMTP_USER", &cfg.Email.Username)
	e.setString("SMTP_PASSWORD", &cfg.Email.Password)
	e.setDuration("SMTP_TIMEOUT", &cfg.Email.Timeout)
	e.setString("AWS_REGION", &cfg.Email.SES.Region)
	e.setString("AWS_ACCESS_KEY_ID", &cfg.Email.SES.AccessKeyID)
	e.setString("AWS_SECRET_ACCESS_KEY", &cfg.Email.SES.SecretAccessKey)
	e.setString("SES_CONFIGURATION_SET", &cfg.Email.SES.ConfigurationSet)

	e.setString("RATE_LIMIT", &cfg.RateLimit.Rate)
	e.setBool("RATE_LIMIT_TRUST_PROXY", &cfg.RateLimit.TrustForwardHeader)
	e.setList("CORS_ALLOWED_ORIGINS", &cfg.CORS.AllowedOrigins)

	e.setString("SENTRY_DSN", &cfg.Sentry.DSN)
	e.setBool("SENTRY_ENABLED", &cfg.Sentry.Enabled)
	e.setString("SENTRY_ENVIRONMENT", &cfg.Sentry.Environment)
	e.setString("SENTRY_RELEASE", &cfg.Sentry.Release)
	e.setFloat("SENTRY_SAMPLE_RATE", &cfg.Sentry.SampleRate)
	e.setBool("SENTRY_DEBUG", &cfg.Sentry.Debug)

	return e.err
}

// Validate normalizes Env and LogLevel and fails fast on settings the
// contact pipeline cannot run without.
func (c *Config) Validate() error {
	if c.Env == "production" {
		c.Env = "prod"
	}
	if c.Env != "dev" && c.Env != "prod" {
		slog.Default().Warn("Invalid environment. Using default: prod", slog.String("env", c.Env))
		c.Env = "prod"
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		slog.Default().Warn("Invalid log level. Using default: info", slog.String("value", c.LogLevel))
		c.LogLevel = "info"
	}

	c.Email.Provider = strings.ToLower(c.Email.Provider)
	switch c.Email.Provider {
	case "smtp":
		if c.Email.Host == "" {
			return domain.MissingConfig("SMTP_HOST")
		}
		if c.IsProduction() {
			if c.Email.Username == "" {
				return domain.MissingConfig("SMTP_USER")
			}
			if c.Email.Password == "" {
				return domain.MissingConfig("SMTP_PASSWORD")
			}
		}
	case "ses":
		if c.Email.SES.Region == "" {
			return domain.MissingConfig("AWS_REGION")
		}
	case "log":
		if c.IsProduction() {
			return &domain.ConfigurationError{Key: "EMAIL_PROVIDER", Reason: "log provider is not allowed in production"}
		}
	default:
		return &domain.ConfigurationError{Key: "EMAIL_PROVIDER", Reason: fmt.Sprintf("unknown provider %q", c.Email.Provider)}
	}

	if c.IsProduction() {
		if c.Contact.DefaultFromEmail == "" || strings.HasSuffix(c.Contact.DefaultFromEmail, "@localhost") {
			return domain.MissingConfig("DEFAULT_FROM_EMAIL")
		}
		if len(c.Contact.Recipients) == 0 {
			return domain.MissingConfig("CONTACT_RECIPIENTS")
		}
	}

	return nil
}

// envReader applies environment variables and keeps the first parse error.
type envReader struct {
	v   *viper.Viper
	err error
}

func (e *envReader) lookup(key string) (string, bool) {
	if e.err != nil {
		return "", false
	}
	value := strings.TrimSpace(e.v.GetString(key))
	return value, value != ""
}

func (e *envReader) fail(key, value string, err error) {
	e.err = &domain.ConfigurationError{Key: key, Reason: fmt.Sprintf("invalid value %q: %v", value, err)}
}

func (e *envReader) setString(key string, dst *string) {
	if value, ok := e.lookup(key); ok {
		*dst = value
	}
}

func (e *envReader) setList(key string, dst *[]string) {
	if value, ok := e.lookup(key); ok {
		if list := splitList(value); len(list) > 0 {
			*dst = list
		}
	}
}

func (e *envReader) setUint16(key string, dst *uint16) {
	if value, ok := e.lookup(key); ok {
		n, err := strconv.ParseUint(value, 10, 16)
		if err != nil {
			e.fail(key, value, err)
			return
		}
		*dst = uint16(n)
	}
}

func (e *envReader) setBool(key string, dst *bool) {
	if value, ok := e.lookup(key); ok {
		switch strings.ToLower(value) {
		case "yes", "on":
			*dst = true
			return
		case "no", "off":
			*dst = false
			return
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			e.fail(key, value, err)
			return
		}
		*dst = b
	}
}

func (e *envReader) setFloat(key string, dst *float64) {
	if value, ok := e.lookup(key); ok {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			e.fail(key, value, err)
			return
		}
		*dst = f
	}
}

func (e *envReader) setDuration(key string, dst *time.Duration) {
	if value, ok := e.lookup(key); ok {
		d, err := time.ParseDuration(value)
		if err != nil {
			e.fail(key, value, err)
			return
		}
		*dst = d
	}
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
