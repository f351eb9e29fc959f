package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"duw-notifier/internal/bot"
	"duw-notifier/internal/config"
	"duw-notifier/internal/logging"
)

// Version is set at build time via ldflags.
var Version = "dev"

type options struct {
	cfgFile string
	envFile string
}

// Execute runs the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func NewRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "duw-notifier",
		Short: "Telegram alerts for DUW queue ticket availability",
		Long: `duw-notifier polls the DUW queue status page, looks up one queue in one
region and sends a Telegram message when tickets are available.

Credentials are read from TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID, either
from the environment or from a .env file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMonitor(cmd, opts)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.cfgFile, "config", "", "YAML config file")
	flags.StringVar(&opts.envFile, "env-file", ".env", "env file loaded before reading the environment")
	flags.Duration("check-interval", 5*time.Minute, "interval between status checks")
	flags.Int("queue-id", config.DefaultQueueID, "id of the queue to watch")
	flags.String("region", config.DefaultRegion, "region name in the status response")
	flags.String("log-file", "monitor.log", "file the log is appended to")
	flags.Bool("always-notify", false, "alert after every successful check, even with zero tickets")
	flags.String("status-url", config.DefaultStatusURL, "queue status endpoint")

	rootCmd.AddCommand(newCheckCmd(opts), newVersionCmd())
	return rootCmd
}

func loadConfig(cmd *cobra.Command, opts *options) (*config.AppConfig, error) {
	return config.ParseConfiguration(cmd.Flags(), opts.cfgFile, opts.envFile)
}

func yesNo(ok bool) string {
	if ok {
		return "Yes"
	}
	return "No"
}

func printSetupSteps(out io.Writer, err error) {
	fmt.Fprintf(out, "❌ Please configure your Telegram bot token and chat ID first! (%v)\n", err)
	fmt.Fprintln(out, "\nSteps to set up:")
	fmt.Fprintln(out, "1. Create a bot with @BotFather on Telegram")
	fmt.Fprintln(out, "2. Get your chat ID by messaging @userinfobot")
	fmt.Fprintln(out, "3. Put TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID in your environment or .env file")
}

func newNotifier(appConfig *config.AppConfig, logger *logging.Logger) *bot.TelegramNotifier {
	if appConfig.Telegram.APIEndpoint != "" {
		return bot.NewTelegramNotifierWithEndpoint(appConfig.Telegram.BotToken, appConfig.Telegram.ChatID, appConfig.Telegram.APIEndpoint, logger)
	}
	return bot.NewTelegramNotifier(appConfig.Telegram.BotToken, appConfig.Telegram.ChatID, logger)
}

func runMonitor(cmd *cobra.Command, opts *options) error {
	out := cmd.OutOrStdout()

	appConfig, err := loadConfig(cmd, opts)
	if err != nil {
		return fmt.Errorf("failed to parse configuration: %w", err)
	}

	fmt.Fprintf(out, "Bot token loaded: %s\n", yesNo(appConfig.Telegram.BotToken != ""))
	fmt.Fprintf(out, "TELEGRAM_CHAT_ID loaded: %s\n", yesNo(appConfig.Telegram.ChatID != ""))

	if err := appConfig.Validate(); err != nil {
		if errors.Is(err, config.ErrTelegramNotConfigured) {
			printSetupSteps(out, err)
			return nil
		}
		return err
	}

	logger, err := logging.Open(appConfig.LogFile, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer logger.Close()

	logger.Infof("Telegram Bot Token Length: %d", len(appConfig.Telegram.BotToken))
	if hint := appConfig.TokenHint(); hint != "" {
		logger.Infof("Telegram Bot Token Hint: %s", hint)
	}
	logger.Infof("Watching queue %d in %s", appConfig.QueueID, appConfig.Region)

	monitor := bot.NewMonitor(appConfig,
		bot.NewStatusFetcher(appConfig.StatusURL, logger),
		newNotifier(appConfig, logger),
		logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := monitor.Start(ctx); err != nil {
		if errors.Is(err, bot.ErrStartupNotification) {
			fmt.Fprintln(out, "❌ Telegram connection test failed. Check your configuration.")
			return nil
		}
		return err
	}
	return nil
}
