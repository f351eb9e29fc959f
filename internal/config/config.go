package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultStatusURL = "https://rezerwacje.duw.pl/status_kolejek/query.php?status"
	DefaultRegion    = "Wrocław"
	DefaultQueueID   = 24

	// Values shipped in the sample .env; treated the same as unset.
	PlaceholderBotToken = "YOUR_BOT_TOKEN_HERE"
	PlaceholderChatID   = "YOUR_CHAT_ID_HERE"
)

var ErrTelegramNotConfigured = errors.New("telegram bot token or chat id is not configured")

type AppConfig struct {
	CheckInterval time.Duration  `mapstructure:"check_interval"`
	RetryDelay    time.Duration  `mapstructure:"retry_delay"`
	Region        string         `mapstructure:"region"`
	QueueID       int            `mapstructure:"queue_id"`
	StatusURL     string         `mapstructure:"status_url"`
	LogFile       string         `mapstructure:"log_file"`
	AlwaysNotify  bool           `mapstructure:"always_notify"`
	Telegram      TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
	// APIEndpoint overrides the Bot API endpoint format, e.g. for a local
	// Bot API server. Empty means api.telegram.org.
	APIEndpoint string `mapstructure:"api_endpoint"`
}

// flag name -> config key
var flagKeys = map[string]string{
	"check-interval": "check_interval",
	"queue-id":       "queue_id",
	"region":         "region",
	"log-file":       "log_file",
	"always-notify":  "always_notify",
	"status-url":     "status_url",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("check_interval", 5*time.Minute)
	v.SetDefault("retry_delay", 60*time.Second)
	v.SetDefault("region", DefaultRegion)
	v.SetDefault("queue_id", DefaultQueueID)
	v.SetDefault("status_url", DefaultStatusURL)
	v.SetDefault("log_file", "monitor.log")
	v.SetDefault("always_notify", false)
	v.SetDefault("telegram.bot_token", "")
	v.SetDefault("telegram.chat_id", "")
	v.SetDefault("telegram.api_endpoint", "")
}

func loadEnvFiles(envFiles ...string) error {
	if err := godotenv.Load(envFiles...); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

// ParseConfiguration merges defaults, the optional YAML file at cfgFile, the
// environment (after loading .env or envFiles) and any flags set on flags.
func ParseConfiguration(flags *pflag.FlagSet, cfgFile string, envFiles ...string) (*AppConfig, error) {
	if err := loadEnvFiles(envFiles...); err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	}

	if flags != nil {
		for name, key := range flagKeys {
			if flag := flags.Lookup(name); flag != nil {
				if err := v.BindPFlag(key, flag); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Region = strings.TrimSpace(cfg.Region)
	cfg.Telegram.BotToken = strings.TrimSpace(cfg.Telegram.BotToken)
	cfg.Telegram.ChatID = strings.TrimSpace(cfg.Telegram.ChatID)

	return &cfg, nil
}

// Validate reports ErrTelegramNotConfigured for missing or placeholder
// credentials, and a plain error for unusable polling settings.
func (c *AppConfig) Validate() error {
	if c.Telegram.BotToken == "" || c.Telegram.BotToken == PlaceholderBotToken {
		return fmt.Errorf("%w: TELEGRAM_BOT_TOKEN is empty or still the placeholder", ErrTelegramNotConfigured)
	}
	if c.Telegram.ChatID == "" || c.Telegram.ChatID == PlaceholderChatID {
		return fmt.Errorf("%w: TELEGRAM_CHAT_ID is empty or still the placeholder", ErrTelegramNotConfigured)
	}
	return c.ValidatePolling()
}

// ValidatePolling checks only the settings a status check needs.
func (c *AppConfig) ValidatePolling() error {
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check interval must be positive, got %v", c.CheckInterval)
	}
	if c.RetryDelay <= 0 {
		return fmt.Errorf("retry delay must be positive, got %v", c.RetryDelay)
	}
	if c.QueueID <= 0 {
		return fmt.Errorf("queue id must be positive, got %d", c.QueueID)
	}
	if c.Region == "" {
		return errors.New("region must not be empty")
	}
	if c.StatusURL == "" {
		return errors.New("status url must not be empty")
	}
	return nil
}

// TokenHint returns the first and last five characters of the bot token, or
// an empty string when the token is too short to hint at safely.
func (c *AppConfig) TokenHint() string {
	token := c.Telegram.BotToken
	if len(token) <= 10 {
		return ""
	}
	return fmt.Sprintf("%s...%s", token[:5], token[len(token)-5:])
}
