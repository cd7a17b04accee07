package telegram

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"runtime"
	"strings"

	"cryptoinfo-bot/internal/commands"
	"cryptoinfo-bot/lib/helpers"
	"cryptoinfo-bot/lib/translation"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// tickerCommand matches the bare commands answered with Binance prices.
var tickerCommand = regexp.MustCompile(`^[a-z]{1,3}$`)

// Bot telegram interaction client
type Bot struct {
	API      *tgbotapi.BotAPI
	Config   BotConfig
	service  *commands.Service
	observer Observer
	sender   sender
	webhook  chan tgbotapi.Update
}

type Option func(*Bot)

func WithObserver(o Observer) Option {
	return func(b *Bot) {
		b.observer = o
	}
}

// NewBot creates new telegram bot
func NewBot(c BotConfig, service *commands.Service, opts ...Option) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(c.Token)
	if err != nil {
		return nil, errors.Wrap(err, "could not create telegram bot")
	}
	api.Debug = c.Debug

	b := newBot(c, service, opts...)
	b.API = api
	b.sender = api
	return b, nil
}

func newBot(c BotConfig, service *commands.Service, opts ...Option) *Bot {
	b := &Bot{
		Config:   c,
		service:  service,
		observer: nopObserver{},
		webhook:  make(chan tgbotapi.Update, 100),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Updates returns the channel new updates arrive on. With a webhook URL configured
// the webhook is registered and updates come in through WebhookHandler.
func (b *Bot) Updates() (tgbotapi.UpdatesChannel, error) {
	if b.Config.WebhookURL == "" {
		updatesConfig := tgbotapi.NewUpdate(0)
		if b.Config.UpdatesTimeout > 0 {
			updatesConfig.Timeout = b.Config.UpdatesTimeout
		}
		return b.API.GetUpdatesChan(updatesConfig), nil
	}

	wh, err := tgbotapi.NewWebhook(b.Config.WebhookURL)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid webhook url %s", b.Config.WebhookURL)
	}
	if _, err := b.API.Request(wh); err != nil {
		return nil, errors.Wrap(err, "could not set webhook")
	}
	log.Infof("Webhook registered at %s", b.Config.WebhookURL)
	return b.webhook, nil
}

// WebhookPath is where Telegram posts updates in webhook mode.
func (b *Bot) WebhookPath() string {
	return "/telegram/" + b.Config.Token
}

// WebhookHandler accepts updates posted by Telegram.
func (b *Bot) WebhookHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		update, err := b.API.HandleUpdate(r)
		if err != nil {
			log.Debugf("Rejected webhook request: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		select {
		case b.webhook <- *update:
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})
}

// Serve handles updates until ctx is done or the channel closes.
func (b *Bot) Serve(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handle(ctx, update)
		}
	}
}

func (b *Bot) handle(ctx context.Context, update tgbotapi.Update) {
	if update.Message == nil || !update.Message.IsCommand() {
		log.Debug("Received non-message or non-command")
		return
	}

	chatID := update.Message.Chat.ID
	chatName := update.Message.Chat.Title
	if chatName == "" {
		chatName = fmt.Sprintf("%s-%d", "PrivateChat", chatID)
	}
	b.observer.MessageHandled(chatID, chatName)

	defer func() {
		if r := recover(); r != nil {
			stackBuf := make([]byte, 1024)
			stackSize := runtime.Stack(stackBuf, false)
			stackTrace := bytes.TrimRight(stackBuf[:stackSize], "\x00")
			log.Errorf("Recovered from panic: %v\nStack trace: %s", r, stackTrace)
		}
	}()

	text := b.HandleUpdate(ctx, update)
	if text == "" {
		return
	}

	err := b.SendMessage(Message{
		ChatID:    chatID,
		Text:      text,
		MessageID: update.Message.MessageID,
	})
	if err != nil {
		log.Errorf("Failed to send message: %v", err)
		return
	}
	b.observer.CommandProcessed()
}

// SendMessage sends a plain text reply. Empty text is never sent.
func (b *Bot) SendMessage(m Message) error {
	if m.Text == "" {
		return nil
	}

	msg := tgbotapi.NewMessage(m.ChatID, m.Text)
	msg.ReplyToMessageID = m.MessageID
	msg.DisableWebPagePreview = true
	_, err := b.sender.Send(msg)
	return errors.Wrapf(err, "could not send message to chat %d", m.ChatID)
}

// HandleUpdate returns the reply for a command message, or "" when nothing
// should be sent.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) string {
	if u.Message == nil {
		return ""
	}

	command := strings.ToLower(u.Message.Command())
	args := u.Message.CommandArguments()
	log.Debugf("received command: %s", command)

	var text string
	var err error

	switch command {
	case "start":
		return commands.Help()
	case "info":
		text, err = b.service.Info(ctx, args)
	case "global":
		text, err = b.service.Global(ctx)
	case "chart":
		return commands.Chart(args)
	default:
		if !tickerCommand.MatchString(command) && !helpers.IsNumeric(command) {
			return ""
		}
		text, err = b.service.Ticker(ctx, command)
	}

	if err != nil {
		return errorReply(err)
	}
	return text
}

// errorReply maps a handler error to the text sent back. Unexpected errors are
// logged and produce no reply.
func errorReply(err error) string {
	switch {
	case errors.Is(err, commands.ErrUsage):
		log.Debug("command without argument, not replying")
		return ""
	case errors.Is(err, commands.ErrTooManyRequests):
		return translation.Translate("You're using the bot too much!")
	case errors.Is(err, commands.ErrNotFound):
		return translation.Translate("No currency found with that name.")
	case errors.Is(err, commands.ErrRankRange):
		return translation.Translate("Rank must be between %d and %d.", commands.MinRank, commands.MaxRank)
	case errors.Is(err, commands.ErrNumericTicker):
		return translation.Translate("A ticker can't be a number.")
	case errors.Is(err, commands.ErrTickerNotFound):
		return translation.Translate("Ticker not found.")
	}

	log.Error(err)
	return ""
}
