package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dukerupert/armstrong/internal/contact"
	"github.com/dukerupert/armstrong/internal/domain"
	"github.com/dukerupert/armstrong/internal/email"
	"github.com/dukerupert/armstrong/internal/provider"
)

type sendOptions struct {
	form         string
	name         string
	email        string
	company      string
	message      string
	failSilently bool
	dryRun       bool
}

func newSendCmd(global *options) *cobra.Command {
	o := &sendOptions{}

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Submit one contact message through the configured transport",
		Long: `Run a submission through the same pipeline as the web forms:
validate, render subject and body, build the envelope and send it.

With --dry-run the envelope is printed and nothing is sent.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := global.logger(cmd.ErrOrStderr())

			kind, err := contact.ParseKind(o.form)
			if err != nil {
				return err
			}

			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			var sender email.Sender
			if o.dryRun {
				sender = email.NewLogSender(slogger(logger))
			} else {
				sender, err = provider.NewEmailSender(cmd.Context(), cfg.EmailProvider(), slogger(logger))
				if err != nil {
					return err
				}
			}

			composer, err := contact.NewComposer(cfg.ContactComposer(), sender, slogger(logger), nil)
			if err != nil {
				return err
			}

			raw := url.Values{
				"name":    {o.name},
				"email":   {o.email},
				"company": {o.company},
				"body":    {o.message},
			}
			dctx := contact.DeliveryContext{
				Site:    cfg.Site,
				Request: domain.RequestInfo{UserAgent: "armstrong-contact"},
			}

			if o.dryRun {
				sub, err := contact.Validate(kind, raw)
				if err != nil {
					return describeValidation(err)
				}
				env, err := composer.BuildEnvelope(sub, dctx)
				if err != nil {
					return err
				}
				printEnvelope(cmd.OutOrStdout(), env)
				return nil
			}

			env, err := composer.Submit(cmd.Context(), kind, raw, dctx, o.failSilently)
			if err != nil {
				return describeValidation(err)
			}

			if serr := env.SilencedError(); serr != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "Not delivered: %s message via %s to %s failed (silenced): %v\n",
					env.Kind, composer.Transport(), strings.Join(env.To, ", "), errors.Unwrap(serr))
				return nil
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sent %s message via %s to %s\n",
				env.Kind, composer.Transport(), strings.Join(env.To, ", "))
			return nil
		},
	}

	cmd.Flags().StringVar(&o.form, "form", string(contact.KindCompany), "contact form: base or company")
	cmd.Flags().StringVar(&o.name, "name", "", "sender name")
	cmd.Flags().StringVar(&o.email, "email", "", "sender email address")
	cmd.Flags().StringVar(&o.company, "company", "", "sender company (company form)")
	cmd.Flags().StringVarP(&o.message, "message", "m", "", "message body")
	cmd.Flags().BoolVar(&o.failSilently, "fail-silently", false, "log delivery failures instead of returning them")
	cmd.Flags().BoolVar(&o.dryRun, "dry-run", false, "print the envelope without sending")

	return cmd
}

// describeValidation expands a validation error into one line per field.
func describeValidation(err error) error {
	var ve *domain.ValidationError
	if !errors.As(err, &ve) {
		return err
	}
	var b strings.Builder
	b.WriteString("invalid submission:")
	for _, name := range ve.FieldNames() {
		fmt.Fprintf(&b, "\n  %s: %s", name, ve.Fields[name])
	}
	return errors.New(b.String())
}

func printEnvelope(w io.Writer, env *contact.Envelope) {
	fmt.Fprintf(w, "From: %s\n", env.From)
	fmt.Fprintf(w, "To: %s\n", strings.Join(env.To, ", "))
	if len(env.Cc) > 0 {
		fmt.Fprintf(w, "Cc: %s\n", strings.Join(env.Cc, ", "))
	}
	if len(env.Bcc) > 0 {
		fmt.Fprintf(w, "Bcc: %s\n", strings.Join(env.Bcc, ", "))
	}
	if env.ReplyTo != "" {
		fmt.Fprintf(w, "Reply-To: %s\n", env.ReplyTo)
	}
	fmt.Fprintf(w, "Subject: %s\n\n%s\n", env.Subject, env.Body)
}
