package bot

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"duw-notifier/internal/logging"
)

const notifyTimeout = 10 * time.Second

var errTelegramNotConfigured = errors.New("telegram bot token or chat id is not configured")

// TelegramNotifier posts HTML messages to one chat through the Bot API
// sendMessage method.
type TelegramNotifier struct {
	api    *tgbotapi.BotAPI
	chatID string
	logger *logging.Logger
}

// NewTelegramNotifier builds a notifier for the default Bot API endpoint.
// Unlike tgbotapi.NewBotAPI it does not call getMe, so it never touches the
// network.
func NewTelegramNotifier(token, chatID string, logger *logging.Logger) *TelegramNotifier {
	return NewTelegramNotifierWithEndpoint(token, chatID, tgbotapi.APIEndpoint, logger)
}

// NewTelegramNotifierWithEndpoint is NewTelegramNotifier with an endpoint
// format taking the token and the method name, e.g. "https://host/bot%s/%s".
func NewTelegramNotifierWithEndpoint(token, chatID, endpoint string, logger *logging.Logger) *TelegramNotifier {
	api := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: notifyTimeout},
		Buffer: 100,
	}
	api.SetAPIEndpoint(endpoint)

	return &TelegramNotifier{
		api:    api,
		chatID: chatID,
		logger: logger,
	}
}

func (n *TelegramNotifier) newMessage(text string) tgbotapi.MessageConfig {
	var msg tgbotapi.MessageConfig
	if id, err := strconv.ParseInt(n.chatID, 10, 64); err == nil {
		msg = tgbotapi.NewMessage(id, text)
	} else {
		msg = tgbotapi.NewMessageToChannel(n.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeHTML
	return msg
}

// Notify sends message to the configured chat. Failures are logged and
// returned; they are never fatal to the caller.
func (n *TelegramNotifier) Notify(message string) error {
	if n.api.Token == "" || n.chatID == "" {
		n.logger.Errorf("Error sending Telegram message: %v", errTelegramNotConfigured)
		return errTelegramNotConfigured
	}

	if _, err := n.api.Send(n.newMessage(message)); err != nil {
		n.logger.Errorf("Error sending Telegram message: %s", n.redact(err.Error()))
		return fmt.Errorf("error sending telegram message: %w", err)
	}

	n.logger.Infof("Message sent to Telegram successfully")
	return nil
}

// Transport errors quote the request URL, which embeds the token.
func (n *TelegramNotifier) redact(text string) string {
	if n.api.Token == "" {
		return text
	}
	return strings.ReplaceAll(text, n.api.Token, "[TOKEN]")
}
