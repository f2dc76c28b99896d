package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskmaster/internal/service"
)

// handleRegister expects: /register <email> <password> <name...>
func (b *Bot) handleRegister(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) > 0 {
		b.forget(msg)
	}
	if len(args) < 3 {
		return b.sendText(msg.Chat.ID, "Usage: <code>/register &lt;email&gt; &lt;password&gt; &lt;name&gt;</code>")
	}

	user, err := b.svc.Auth.Register(ctx, strings.Join(args[2:], " "), args[0], args[1])
	if err != nil {
		return b.replyError(msg.Chat.ID, "register", err)
	}
	log.Info("account registered from chat", "user", user.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🎉 Welcome, %s! Your account is ready and you are logged in.\nStart with /newtask.", escape(user.Name)))
}

func (b *Bot) handleLogin(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) > 0 {
		b.forget(msg)
	}
	if len(args) != 2 {
		return b.sendText(msg.Chat.ID, "Usage: <code>/login &lt;email&gt; &lt;password&gt;</code>")
	}

	user, err := b.svc.Auth.Login(ctx, args[0], args[1])
	if err != nil {
		return b.replyError(msg.Chat.ID, "login", err)
	}
	b.resetDialogs(msg.From.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🔓 Logged in as %s.", escape(user.Name)))
}

func (b *Bot) handleLogout(ctx context.Context, msg *tgbotapi.Message) error {
	if err := b.svc.Auth.Logout(ctx); err != nil {
		return b.replyError(msg.Chat.ID, "logout", err)
	}
	b.resetDialogs(msg.From.ID)
	b.updateFilter(func(f *service.Filter) { *f = service.Filter{} })
	return b.sendText(msg.Chat.ID, "🔒 Logged out.")
}

// handleProfile shows the profile, or changes one field:
// /profile name <name...> | /profile email <email>
func (b *Bot) handleProfile(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}

	field, value, _ := strings.Cut(strings.TrimSpace(msg.CommandArguments()), " ")
	value = strings.TrimSpace(value)
	name, email := user.Name, user.Email
	switch strings.ToLower(field) {
	case "":
		return b.sendText(msg.Chat.ID, formatProfile(user))
	case "name":
		name = value
	case "email":
		email = value
	default:
		return b.sendText(msg.Chat.ID, "Usage: <code>/profile name &lt;name&gt;</code> or <code>/profile email &lt;email&gt;</code>")
	}

	updated, err := b.svc.Auth.UpdateProfile(ctx, user, name, email)
	if err != nil {
		return b.replyError(msg.Chat.ID, "update profile", err)
	}
	return b.sendText(msg.Chat.ID, "Profile updated.\n\n"+formatProfile(updated))
}

func (b *Bot) handlePassword(ctx context.Context, msg *tgbotapi.Message) error {
	args := strings.Fields(msg.CommandArguments())
	if len(args) > 0 {
		b.forget(msg)
	}
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	if len(args) != 3 {
		return b.sendText(msg.Chat.ID, "Usage: <code>/password &lt;current&gt; &lt;new&gt; &lt;confirm&gt;</code>")
	}
	if err := b.svc.Auth.ChangePassword(ctx, user, args[0], args[1], args[2]); err != nil {
		return b.replyError(msg.Chat.ID, "change password", err)
	}
	return b.sendText(msg.Chat.ID, "🔑 Password changed.")
}
