package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

// BotConfig configuration of the bot
type BotConfig struct {
	Token          string
	Debug          bool
	UpdatesTimeout int
	// WebhookURL switches the bot from long polling to webhook delivery.
	WebhookURL string
}

// Observer is told about every command message and every reply sent.
type Observer interface {
	MessageHandled(chatID int64, chatName string)
	CommandProcessed()
}

type nopObserver struct{}

func (nopObserver) MessageHandled(int64, string) {}
func (nopObserver) CommandProcessed()            {}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Message a telegram message struct
type Message struct {
	ChatID    int64
	MessageID int
	Text      string
}
