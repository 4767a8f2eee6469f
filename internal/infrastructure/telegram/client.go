package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/tablecall/tablecall/internal/domain/messaging"
)

// botAPI is the part of *tgbotapi.BotAPI the client calls.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Client adapts the Telegram Bot API to messaging.Messenger.
type Client struct {
	api    botAPI
	bot    *tgbotapi.BotAPI
	logger zerolog.Logger
}

var _ messaging.Messenger = (*Client)(nil)

// Connect authenticates with token and returns a client for the bot.
func Connect(token string, logger zerolog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect bot api: %w", err)
	}
	c := New(bot, logger)
	c.bot = bot
	c.logger.Info().Str("bot", bot.Self.UserName).Msg("bot authorized")
	return c, nil
}

// New wraps an existing API handle.
func New(api botAPI, logger zerolog.Logger) *Client {
	return &Client{
		api:    api,
		logger: logger.With().Str("service", "telegram").Logger(),
	}
}

// Updates long-polls for inbound updates until ctx is done, then closes the channel.
func (c *Client) Updates(ctx context.Context) (tgbotapi.UpdatesChannel, error) {
	if c.bot == nil {
		return nil, errors.New("client has no bot connection")
	}
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := c.bot.GetUpdatesChan(cfg)
	go func() {
		<-ctx.Done()
		c.bot.StopReceivingUpdates()
	}()
	return updates, nil
}

func (c *Client) Send(_ context.Context, chatID int64, msg messaging.Message) (int64, error) {
	out := tgbotapi.NewMessage(chatID, msg.Text)
	out.DisableWebPagePreview = true
	if msg.HTML {
		out.ParseMode = tgbotapi.ModeHTML
	}
	// A message carries one markup; inline choices take precedence over the menu.
	switch {
	case len(msg.Choices) > 0:
		out.ReplyMarkup = inlineKeyboard(msg.Choices)
	case msg.Menu:
		out.ReplyMarkup = menuKeyboard()
	}
	sent, err := c.api.Send(out)
	if err != nil {
		return 0, fmt.Errorf("send message to %d: %w", chatID, err)
	}
	return int64(sent.MessageID), nil
}

func (c *Client) Delete(_ context.Context, chatID, messageID int64) error {
	_, err := c.api.Request(tgbotapi.NewDeleteMessage(chatID, int(messageID)))
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusBadRequest {
		return fmt.Errorf("%w: %s", messaging.ErrMessageGone, apiErr.Message)
	}
	return fmt.Errorf("delete message %d in %d: %w", messageID, chatID, err)
}

func (c *Client) Answer(_ context.Context, callbackID, text string, alert bool) error {
	cfg := tgbotapi.NewCallback(callbackID, text)
	if alert {
		cfg = tgbotapi.NewCallbackWithAlert(callbackID, text)
	}
	if _, err := c.api.Request(cfg); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func inlineKeyboard(choices [][]messaging.Choice) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(choices))
	for _, row := range choices {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, choice := range row {
			if choice.URL != "" {
				buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonURL(choice.Label, choice.URL))
				continue
			}
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(choice.Label, choice.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func menuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(messaging.MenuStartOver),
			tgbotapi.NewKeyboardButton(messaging.MenuHelp),
		),
	)
}
