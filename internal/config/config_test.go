package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"TELEGRAM_BOT_TOKEN", "TELEGRAM_CHAT_ID", "CHECK_INTERVAL", "RETRY_DELAY",
		"QUEUE_ID", "REGION", "LOG_FILE", "ALWAYS_NOTIFY", "STATUS_URL", "TELEGRAM_API_ENDPOINT",
	} {
		t.Setenv(key, "")
	}
}

func testFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Duration("check-interval", 5*time.Minute, "")
	flags.Int("queue-id", DefaultQueueID, "")
	flags.String("region", DefaultRegion, "")
	flags.String("log-file", "monitor.log", "")
	flags.Bool("always-notify", false, "")
	flags.String("status-url", DefaultStatusURL, "")
	require.NoError(t, flags.Parse(args))
	return flags
}

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestPassedConfig(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		clearEnv(t)
		cfg, err := ParseConfiguration(testFlags(t), "", missingEnvFile(t))
		require.NoError(t, err)

		assert.Equal(t, 5*time.Minute, cfg.CheckInterval)
		assert.Equal(t, 60*time.Second, cfg.RetryDelay)
		assert.Equal(t, "Wrocław", cfg.Region)
		assert.Equal(t, 24, cfg.QueueID)
		assert.Equal(t, DefaultStatusURL, cfg.StatusURL)
		assert.Equal(t, "monitor.log", cfg.LogFile)
		assert.False(t, cfg.AlwaysNotify)
		assert.Empty(t, cfg.Telegram.BotToken)
	})

	t.Run("Environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("TELEGRAM_BOT_TOKEN", "  123456:abcdefghij  ")
		t.Setenv("TELEGRAM_CHAT_ID", "987")
		t.Setenv("CHECK_INTERVAL", "90s")
		t.Setenv("ALWAYS_NOTIFY", "true")
		t.Setenv("TELEGRAM_API_ENDPOINT", "http://localhost:8081/bot%s/%s")

		cfg, err := ParseConfiguration(nil, "", missingEnvFile(t))
		require.NoError(t, err)

		assert.Equal(t, "123456:abcdefghij", cfg.Telegram.BotToken)
		assert.Equal(t, "987", cfg.Telegram.ChatID)
		assert.Equal(t, 90*time.Second, cfg.CheckInterval)
		assert.True(t, cfg.AlwaysNotify)
		assert.Equal(t, "http://localhost:8081/bot%s/%s", cfg.Telegram.APIEndpoint)
	})

	t.Run("Env file", func(t *testing.T) {
		clearEnv(t)
		os.Unsetenv("TELEGRAM_CHAT_ID")
		envFile := filepath.Join(t.TempDir(), "test.env")
		require.NoError(t, os.WriteFile(envFile, []byte("TELEGRAM_CHAT_ID=555\n"), 0644))
		t.Cleanup(func() { os.Unsetenv("TELEGRAM_CHAT_ID") })

		cfg, err := ParseConfiguration(nil, "", envFile)
		require.NoError(t, err)
		assert.Equal(t, "555", cfg.Telegram.ChatID)
	})

	t.Run("Flags override environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("QUEUE_ID", "3")

		cfg, err := ParseConfiguration(testFlags(t, "--queue-id=7", "--check-interval=2m"), "", missingEnvFile(t))
		require.NoError(t, err)
		assert.Equal(t, 7, cfg.QueueID)
		assert.Equal(t, 2*time.Minute, cfg.CheckInterval)
	})

	t.Run("Config file", func(t *testing.T) {
		clearEnv(t)
		cfgFile := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(cfgFile, []byte("region: Legnica\nqueue_id: 11\ntelegram:\n  chat_id: \"12345\"\n"), 0644))

		cfg, err := ParseConfiguration(testFlags(t), cfgFile, missingEnvFile(t))
		require.NoError(t, err)
		assert.Equal(t, "Legnica", cfg.Region)
		assert.Equal(t, 11, cfg.QueueID)
		assert.Equal(t, "12345", cfg.Telegram.ChatID)
	})

	t.Run("Missing config file", func(t *testing.T) {
		clearEnv(t)
		_, err := ParseConfiguration(nil, filepath.Join(t.TempDir(), "none.yaml"), missingEnvFile(t))
		assert.Error(t, err)
	})
}

func validConfig() *AppConfig {
	return &AppConfig{
		CheckInterval: 5 * time.Minute,
		RetryDelay:    time.Minute,
		Region:        DefaultRegion,
		QueueID:       DefaultQueueID,
		StatusURL:     DefaultStatusURL,
		Telegram:      TelegramConfig{BotToken: "123456:abcdefghij", ChatID: "42"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name          string
		mutate        func(*AppConfig)
		notConfigured bool
		wantErr       bool
	}{
		{name: "valid", mutate: func(*AppConfig) {}},
		{name: "empty token", mutate: func(c *AppConfig) { c.Telegram.BotToken = "" }, notConfigured: true, wantErr: true},
		{name: "placeholder token", mutate: func(c *AppConfig) { c.Telegram.BotToken = PlaceholderBotToken }, notConfigured: true, wantErr: true},
		{name: "empty chat", mutate: func(c *AppConfig) { c.Telegram.ChatID = "" }, notConfigured: true, wantErr: true},
		{name: "placeholder chat", mutate: func(c *AppConfig) { c.Telegram.ChatID = PlaceholderChatID }, notConfigured: true, wantErr: true},
		{name: "zero interval", mutate: func(c *AppConfig) { c.CheckInterval = 0 }, wantErr: true},
		{name: "zero retry delay", mutate: func(c *AppConfig) { c.RetryDelay = 0 }, wantErr: true},
		{name: "negative queue", mutate: func(c *AppConfig) { c.QueueID = -1 }, wantErr: true},
		{name: "empty region", mutate: func(c *AppConfig) { c.Region = "" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.notConfigured, errors.Is(err, ErrTelegramNotConfigured))
		})
	}
}

func TestTokenHint(t *testing.T) {
	cfg := validConfig()
	assert.Equal(t, "12345...fghij", cfg.TokenHint())

	cfg.Telegram.BotToken = "short"
	assert.Empty(t, cfg.TokenHint())
}
