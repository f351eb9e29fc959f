package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"duw-notifier/internal/bot"
	"duw-notifier/internal/config"
	"duw-notifier/internal/logging"
)

// printNotifier writes alerts to a writer instead of sending them.
type printNotifier struct {
	out io.Writer
}

func (p printNotifier) Notify(message string) error {
	_, err := fmt.Fprintln(p.out, message)
	return err
}

func newCheckCmd(opts *options) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run a single status check and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			appConfig, err := loadConfig(cmd, opts)
			if err != nil {
				return fmt.Errorf("failed to parse configuration: %w", err)
			}

			if dryRun {
				err = appConfig.ValidatePolling()
			} else {
				err = appConfig.Validate()
			}
			if err != nil {
				if errors.Is(err, config.ErrTelegramNotConfigured) {
					printSetupSteps(cmd.OutOrStdout(), err)
					return nil
				}
				return err
			}

			logger, err := logging.Open(appConfig.LogFile, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer logger.Close()

			var notifier bot.Notifier = printNotifier{out: cmd.OutOrStdout()}
			if !dryRun {
				notifier = newNotifier(appConfig, logger)
			}

			monitor := bot.NewMonitor(appConfig, bot.NewStatusFetcher(appConfig.StatusURL, logger), notifier, logger)
			return monitor.RunCheck(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the alert instead of sending it")
	return cmd
}
