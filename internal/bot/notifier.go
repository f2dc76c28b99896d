package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier pushes HTML messages to the owner's chat.
type Notifier struct {
	api    *tgbotapi.BotAPI
	chatID int64
}

func NewNotifier(api *tgbotapi.BotAPI, chatID int64) *Notifier {
	return &Notifier{api: api, chatID: chatID}
}

func (n *Notifier) Notify(ctx context.Context, title, body string) error {
	return n.Send(ctx, fmt.Sprintf("🔔 <b>%s</b>\n%s", escape(title), body))
}

// Send delivers text as is.
func (n *Notifier) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(n.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send to %d: %w", n.chatID, err)
	}
	return nil
}
