package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleSettings(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	settings, err := b.svc.Settings.Get(ctx, user)
	if err != nil {
		return b.replyError(msg.Chat.ID, "load settings", err)
	}
	return b.sendText(msg.Chat.ID, formatSettings(settings))
}

// handleSet expects: /set <key> <value>
func (b *Bot) handleSet(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	key, value, ok := strings.Cut(strings.TrimSpace(msg.CommandArguments()), " ")
	if !ok || strings.TrimSpace(value) == "" {
		return b.sendText(msg.Chat.ID, "Usage: <code>/set &lt;key&gt; &lt;value&gt;</code>, for example <code>/set sort priority</code>.\nSee /settings for the keys.")
	}
	settings, err := b.svc.Settings.Apply(ctx, user, key, value)
	if err != nil {
		return b.replyError(msg.Chat.ID, "apply setting", err)
	}
	return b.sendText(msg.Chat.ID, "Saved.\n\n"+formatSettings(settings))
}

func (b *Bot) handleResetSettings(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	settings, err := b.svc.Settings.Reset(ctx, user)
	if err != nil {
		return b.replyError(msg.Chat.ID, "reset settings", err)
	}
	return b.sendText(msg.Chat.ID, "Settings restored to defaults.\n\n"+formatSettings(settings))
}
