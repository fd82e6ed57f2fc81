package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Bot wraps the Telegram transport: it polls updates and sends messages.
type Bot struct {
	api *tgbotapi.BotAPI
	log *zap.Logger
}

func New(token string, log *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Info("bot authorized", zap.String("account", api.Self.UserName))
	return &Bot{api: api, log: log}, nil
}

// Run polls updates and feeds private text messages to the handler until
// ctx is cancelled.
func (b *Bot) Run(ctx context.Context, handler *Handler) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		msg := update.Message
		if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
			continue
		}
		handler.HandleMessage(ctx, msg.Chat.ID, msg.Chat.FirstName, msg.Text)
	}

	return nil
}

// SendText sends a Markdown-formatted text message.
func (b *Bot) SendText(userID int64, text string) error {
	msg := tgbotapi.NewMessage(userID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(msg)
	return err
}

// SendPhoto sends a photo by URL with a Markdown caption.
func (b *Bot) SendPhoto(userID int64, imageURL, caption string) error {
	photo := tgbotapi.NewPhoto(userID, tgbotapi.FileURL(imageURL))
	photo.Caption = caption
	photo.ParseMode = tgbotapi.ModeMarkdown
	_, err := b.api.Send(photo)
	return err
}
