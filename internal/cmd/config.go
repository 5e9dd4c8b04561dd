package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const redacted = "[redacted]"

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		Long: `Print the configuration after defaults, SETTINGS_FILE overlays and
environment variables are applied. Secrets are redacted. The output can
be saved and used as a SETTINGS_FILE.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			shown := *cfg
			if shown.Email.Password != "" {
				shown.Email.Password = redacted
			}
			if shown.Email.SES.SecretAccessKey != "" {
				shown.Email.SES.SecretAccessKey = redacted
			}
			if shown.Sentry.DSN != "" {
				shown.Sentry.DSN = redacted
			}

			out, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}
}
