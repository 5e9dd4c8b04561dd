package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/armstrong/internal/email"
)

type checkSMTPOptions struct {
	host     string
	port     int
	username string
	password string
	timeout  time.Duration
}

func newCheckSMTPCmd(global *options) *cobra.Command {
	o := &checkSMTPOptions{}

	cmd := &cobra.Command{
		Use:   "check-smtp",
		Short: "Verify the SMTP server accepts a connection",
		Long: `Dial the configured SMTP server, negotiate TLS and authenticate when
credentials are set, then disconnect without sending anything.

Flags override the configured values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := global.logger(cmd.ErrOrStderr())

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			smtpCfg := cfg.EmailProvider().SMTP
			if cmd.Flags().Changed("host") {
				smtpCfg.Host = o.host
			}
			if cmd.Flags().Changed("port") {
				smtpCfg.Port = o.port
			}
			if cmd.Flags().Changed("user") {
				smtpCfg.Username = o.username
			}
			if cmd.Flags().Changed("password") {
				smtpCfg.Password = o.password
			}
			smtpCfg.Timeout = o.timeout

			if smtpCfg.Host == "" {
				return fmt.Errorf("no SMTP host configured")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout+time.Second)
			defer cancel()

			logger.Info("Dialing SMTP server", "host", smtpCfg.Host, "port", smtpCfg.Port,
				"authenticated", smtpCfg.Username != "" && smtpCfg.Password != "")
			if err := email.TestSMTPConnection(ctx, smtpCfg); err != nil {
				return fmt.Errorf("smtp check failed for %s:%d: %w", smtpCfg.Host, smtpCfg.Port, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "SMTP OK: %s:%d\n", smtpCfg.Host, smtpCfg.Port)
			return nil
		},
	}

	cmd.Flags().StringVar(&o.host, "host", "", "SMTP host (default from SMTP_HOST)")
	cmd.Flags().IntVar(&o.port, "port", 0, "SMTP port (default from SMTP_PORT)")
	cmd.Flags().StringVar(&o.username, "user", "", "SMTP username (default from SMTP_USER)")
	cmd.Flags().StringVar(&o.password, "password", "", "SMTP password (default from SMTP_PASSWORD)")
	cmd.Flags().DurationVar(&o.timeout, "timeout", 10*time.Second, "connection timeout")

	return cmd
}
