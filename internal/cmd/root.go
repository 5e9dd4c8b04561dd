/*
Package cmd provides the operator CLI for the contact service: SMTP
connectivity checks, one-shot sends and a dump of the effective settings.
*/
package cmd

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/dukerupert/armstrong/internal"
)

// options holds the global flags.
type options struct {
	verbose bool
	debug   bool
}

// NewRootCmd builds the command tree. Every call returns a fresh tree so
// tests can run commands in isolation.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "armstrong-contact",
		Short: "Operate the Armstrong contact form mailer",
		Long: `armstrong-contact inspects and exercises the contact form pipeline
using the same settings as the web server (.env, SETTINGS_FILE and the
environment).

Example:
  armstrong-contact check-smtp                      # Dial and authenticate
  armstrong-contact send --form base --name Ada \
      --email ada@example.com --message "Hello"     # Send one message
  armstrong-contact send --dry-run ...              # Render without sending
  armstrong-contact config                          # Show effective settings`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug output")

	root.AddCommand(newCheckSMTPCmd(opts))
	root.AddCommand(newSendCmd(opts))
	root.AddCommand(newConfigCmd())

	return root
}

// Execute runs the CLI.
func Execute() error {
	return NewRootCmd().Execute()
}

// logger builds the CLI logger on w at the level chosen by the flags.
func (o *options) logger(w io.Writer) *log.Logger {
	level := log.WarnLevel
	switch {
	case o.debug:
		level = log.DebugLevel
	case o.verbose:
		level = log.InfoLevel
	}
	return log.NewWithOptions(w, log.Options{Level: level, Prefix: "contact"})
}

// slogger adapts the CLI logger for packages that take *slog.Logger.
func slogger(l *log.Logger) *slog.Logger {
	return slog.New(l)
}

// loadConfig reads .env and the layered settings.
func loadConfig() (*internal.Config, error) {
	return internal.NewConfig()
}
