package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskmaster/internal/model"
)

// maxImportSize bounds downloaded import files.
const maxImportSize = 5 << 20

func (b *Bot) handleExport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	name, content, err := b.svc.Data.Export(ctx, user, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, "export", err)
	}
	doc := tgbotapi.NewDocument(msg.Chat.ID, tgbotapi.FileBytes{Name: name, Bytes: []byte(content)})
	doc.Caption = "📦 Your tasks. Send this file back after /import to restore them."
	_, err = b.api.Send(doc)
	return err
}

// handleImport replaces the task collection. The payload is either the
// command argument or the next message (a .json document or pasted text).
func (b *Bot) handleImport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	if payload := strings.TrimSpace(msg.CommandArguments()); payload != "" {
		return b.importPayload(ctx, msg.Chat.ID, user, payload)
	}
	b.setAwaitingImport(msg.From.ID, true)
	return b.sendWithReplyMarkup(msg.Chat.ID, "📥 Send the export file or paste its JSON. Importing <b>replaces</b> all current tasks.", cancelKeyboard())
}

func (b *Bot) handleImportPayload(ctx context.Context, msg *tgbotapi.Message) error {
	b.setAwaitingImport(msg.From.ID, false)
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}

	payload := msg.Text
	if msg.Document != nil {
		payload, err = b.downloadDocument(ctx, msg.Document)
		if err != nil {
			log.Error("download import file", "file", msg.Document.FileName, "err", err)
			return b.sendText(msg.Chat.ID, "Could not download the file. Try again with /import.")
		}
	}
	return b.importPayload(ctx, msg.Chat.ID, user, payload)
}

func (b *Bot) importPayload(ctx context.Context, chatID int64, user *model.User, payload string) error {
	tasks, err := b.svc.Data.Import(ctx, user, payload)
	if err != nil {
		return b.replyError(chatID, "import", err)
	}
	return b.sendText(chatID, fmt.Sprintf("📥 Imported %d tasks.", len(tasks)))
}

func (b *Bot) downloadDocument(ctx context.Context, doc *tgbotapi.Document) (string, error) {
	if doc.FileSize > maxImportSize {
		return "", fmt.Errorf("file is %d bytes, limit %d", doc.FileSize, maxImportSize)
	}
	url, err := b.api.GetFileDirectURL(doc.FileID)
	if err != nil {
		return "", fmt.Errorf("resolve file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download: unexpected status %s", resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImportSize))
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return string(data), nil
}

func (b *Bot) handleClear(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	b.setConfirmation(msg.From.ID, confirmationRequest{action: actionClear})
	return b.sendWithReplyMarkup(msg.Chat.ID, "⚠️ Delete <b>all</b> tasks? This cannot be undone. Consider /export first.", confirmKeyboard())
}

func (b *Bot) clearAllTasks(ctx context.Context, chatID int64) error {
	user, err := b.currentUser(ctx, chatID)
	if err != nil || user == nil {
		return err
	}
	if err := b.svc.Data.Clear(ctx, user); err != nil {
		return b.replyError(chatID, "clear", err)
	}
	return b.sendText(chatID, "🧹 All tasks deleted.")
}

func (b *Bot) handleRetention(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	settings, err := b.svc.Settings.Get(ctx, user)
	if err != nil {
		return b.replyError(msg.Chat.ID, "load settings", err)
	}
	if settings.Data.DataRetention == model.RetentionForever {
		return b.sendText(msg.Chat.ID, "Retention is set to forever, nothing to purge. Change it with <code>/set retention 90days</code>.")
	}
	removed, err := b.svc.Data.ApplyRetention(ctx, user)
	if err != nil {
		return b.replyError(msg.Chat.ID, "retention", err)
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🧹 Removed %d completed tasks older than %s.", removed, settings.Data.DataRetention))
}

func (b *Bot) handleReport(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	text, err := b.svc.Reminders.DailySummary(ctx, user, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, "report", err)
	}
	return b.sendText(msg.Chat.ID, text)
}
