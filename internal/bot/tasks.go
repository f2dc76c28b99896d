package bot

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskmaster/internal/model"
	"taskmaster/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageTitle
	stageDescription
	stageCategory
	stagePriority
	stageDue
	stageTags
	stageEdit
)

type conversationState struct {
	stage  conversationStage
	input  service.TaskInput
	taskID string
}

func (b *Bot) startNewTaskConversation(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	b.setConversation(msg.From.ID, &conversationState{stage: stageTitle})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 New task.\n<b>Step 1/6:</b> what is it called?", cancelKeyboard())
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	state := b.getConversation(msg.From.ID)
	if state == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	switch state.stage {
	case stageTitle:
		if text == "" {
			return b.sendWithReplyMarkup(msg.Chat.ID, "The title cannot be empty. What is the task called?", cancelKeyboard())
		}
		state.input.Title = text
		state.stage = stageDescription
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Step 2/6:</b> add a short description (or skip).", skipKeyboard())
	case stageDescription:
		if !isSkipInput(text) {
			state.input.Description = text
		}
		state.stage = stageCategory
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Step 3/6:</b> pick a category.", categoryKeyboard())
	case stageCategory:
		if !isSkipInput(text) {
			category, err := model.ParseCategory(stripIcon(text))
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick one of the listed categories.", categoryKeyboard())
			}
			state.input.Category = category
		}
		state.stage = stagePriority
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Step 4/6:</b> how important is it?", priorityKeyboard())
	case stagePriority:
		if !isSkipInput(text) {
			priority, err := model.ParsePriority(stripIcon(text))
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "Pick high, medium or low.", priorityKeyboard())
			}
			state.input.Priority = priority
		}
		state.stage = stageDue
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Step 5/6:</b> due date as <code>2025-11-30</code>, <code>today</code> or <code>tomorrow</code> (skip means today).", skipKeyboard())
	case stageDue:
		if !isSkipInput(text) {
			due, err := parseDue(text, b.now())
			if err != nil {
				return b.sendWithReplyMarkup(msg.Chat.ID, "I cannot read that date. Use <code>2025-11-30</code>, <code>today</code> or <code>tomorrow</code>.", skipKeyboard())
			}
			state.input.DueDate = due
		}
		state.stage = stageTags
		return b.sendWithReplyMarkup(msg.Chat.ID, "<b>Step 6/6:</b> tags separated by spaces or commas (or skip).", skipKeyboard())
	case stageTags:
		if !isSkipInput(text) {
			state.input.Tags = parseTags(text)
		}
		err := b.finishTaskCreation(ctx, msg.Chat.ID, state.input)
		b.clearConversation(msg.From.ID)
		return err
	case stageEdit:
		patch, err := parseTaskEdit(text, b.now())
		if err != nil {
			return b.sendWithReplyMarkup(msg.Chat.ID, escape(err.Error())+"\n\n"+editUsage, cancelKeyboard())
		}
		b.clearConversation(msg.From.ID)
		return b.applyEdit(ctx, msg.Chat.ID, state.taskID, patch)
	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "Input reset. Try /newtask again.")
	}
}

func (b *Bot) finishTaskCreation(ctx context.Context, chatID int64, input service.TaskInput) error {
	user, err := b.currentUser(ctx, chatID)
	if err != nil || user == nil {
		return err
	}

	task, err := b.svc.Tasks.CreateTask(ctx, user, input)
	if err != nil {
		return b.replyError(chatID, "create task", err)
	}

	text := "✅ <b>Task saved</b>\n\n" + formatTask(*task, model.DateOf(b.now()), false)
	if err := b.sendText(chatID, strings.TrimSpace(text)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) handleDefaultView(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	settings, err := b.svc.Settings.Get(ctx, user)
	if err != nil {
		return b.replyError(msg.Chat.ID, "load settings", err)
	}
	switch settings.DefaultView {
	case model.ViewBoard:
		return b.handleBoard(ctx, msg)
	case model.ViewCalendar:
		return b.handleCalendar(ctx, msg)
	case model.ViewStats:
		return b.handleStats(ctx, msg)
	default:
		return b.handleList(ctx, msg)
	}
}

func (b *Bot) handleList(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) sendTaskList(ctx context.Context, chatID int64, user *model.User) error {
	filter := b.currentFilter()
	tasks, err := b.svc.Tasks.Visible(ctx, user, filter)
	if err != nil {
		return b.replyError(chatID, "list tasks", err)
	}
	settings, err := b.svc.Settings.Get(ctx, user)
	if err != nil {
		return b.replyError(chatID, "load settings", err)
	}

	compact := settings.Display.TaskDensity == model.DensityCompact
	msg := tgbotapi.NewMessage(chatID, formatList(tasks, filter, model.DateOf(b.now()), compact))
	msg.ParseMode = tgbotapi.ModeHTML
	if rows := taskButtons(tasks); len(rows) > 0 {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	_, err = b.api.Send(msg)
	return err
}

func taskButtons(tasks []model.Task) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, task := range tasks {
		if i == maxListed {
			break
		}
		var row []tgbotapi.InlineKeyboardButton
		label := shortTitle(task.Title, 14)
		if task.Status == model.StatusTodo {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("▶️ "+label, cbStartPrefix+task.ID))
		}
		if !task.IsCompleted() {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("✅ "+label, cbCompletePrefix+task.ID))
		}
		if task.Status != model.StatusTodo {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData("↩️ "+label, cbReopenPrefix+task.ID))
		}
		row = append(row,
			tgbotapi.NewInlineKeyboardButtonData("✏️", cbEditPrefix+task.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑", cbDeletePrefix+task.ID),
		)
		rows = append(rows, row)
	}
	return rows
}

func (b *Bot) handleBoard(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	filter := b.currentFilter()
	board, err := b.svc.Tasks.Board(ctx, user, filter)
	if err != nil {
		return b.replyError(msg.Chat.ID, "board", err)
	}
	return b.sendText(msg.Chat.ID, formatBoard(board, filter))
}

func (b *Bot) handleCalendar(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	now := b.now()
	arg := ""
	if msg.Command() == "calendar" {
		arg = msg.CommandArguments()
	}
	year, month, err := parseMonth(arg, now)
	if err != nil {
		return b.sendText(msg.Chat.ID, escape(err.Error()))
	}
	cal, err := b.svc.Tasks.Calendar(ctx, user, b.currentFilter(), year, month)
	if err != nil {
		return b.replyError(msg.Chat.ID, "calendar", err)
	}
	return b.sendText(msg.Chat.ID, formatCalendar(cal, model.DateOf(now)))
}

func (b *Bot) handleStats(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	stats, err := b.svc.Tasks.Stats(ctx, user, b.now())
	if err != nil {
		return b.replyError(msg.Chat.ID, "stats", err)
	}
	return b.sendText(msg.Chat.ID, formatStats(stats))
}

// handleCategory narrows the views to one category; "all" clears it.
func (b *Bot) handleCategory(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	arg := strings.TrimSpace(msg.CommandArguments())
	if arg == "" {
		names := make([]string, 0, len(model.Categories))
		for _, c := range model.Categories {
			names = append(names, categoryLabel(c))
		}
		return b.sendText(msg.Chat.ID, "Usage: <code>/category &lt;name|all&gt;</code>\n"+strings.Join(names, "\n"))
	}

	var category model.Category
	if !strings.EqualFold(arg, "all") {
		category, err = model.ParseCategory(arg)
		if err != nil {
			return b.sendText(msg.Chat.ID, escape(err.Error()))
		}
	}
	b.updateFilter(func(f *service.Filter) { f.Category = category })
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

// handleSearch sets the title/description query; no argument clears it.
func (b *Bot) handleSearch(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.currentUser(ctx, msg.Chat.ID)
	if err != nil || user == nil {
		return err
	}
	query := strings.TrimSpace(msg.CommandArguments())
	b.updateFilter(func(f *service.Filter) { f.Search = query })
	return b.sendTaskList(ctx, msg.Chat.ID, user)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Warn("callback ack", "err", err)
	}
	if !b.isOwner(cb.From) {
		log.Warn("refused callback from stranger", "from", cb.From.ID)
		return nil
	}

	chatID := cb.Message.Chat.ID
	data := cb.Data
	switch {
	case strings.HasPrefix(data, cbStartPrefix):
		return b.setStatusAndRefresh(ctx, chatID, strings.TrimPrefix(data, cbStartPrefix), model.StatusInProgress)
	case strings.HasPrefix(data, cbCompletePrefix):
		return b.setStatusAndRefresh(ctx, chatID, strings.TrimPrefix(data, cbCompletePrefix), model.StatusCompleted)
	case strings.HasPrefix(data, cbReopenPrefix):
		return b.setStatusAndRefresh(ctx, chatID, strings.TrimPrefix(data, cbReopenPrefix), model.StatusTodo)
	case strings.HasPrefix(data, cbEditPrefix):
		return b.startEdit(ctx, chatID, cb.From, strings.TrimPrefix(data, cbEditPrefix))
	case strings.HasPrefix(data, cbDeletePrefix):
		return b.askDeleteConfirmation(ctx, chatID, cb.From, strings.TrimPrefix(data, cbDeletePrefix))
	default:
		return nil
	}
}

func (b *Bot) setStatusAndRefresh(ctx context.Context, chatID int64, taskID string, status model.Status) error {
	user, err := b.currentUser(ctx, chatID)
	if err != nil || user == nil {
		return err
	}
	task, err := b.svc.Tasks.SetStatus(ctx, user, taskID, status)
	if err != nil {
		return b.replyError(chatID, "set status", err)
	}
	title := escape(normalizeTitle(task.Title))
	var info string
	switch status {
	case model.StatusCompleted:
		info = fmt.Sprintf("✅ “%s” completed.", title)
	case model.StatusTodo:
		info = fmt.Sprintf("↩️ “%s” is back in to do.", title)
	default:
		info = fmt.Sprintf("🚧 “%s” started.", title)
	}
	if err := b.sendText(chatID, info); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

// startEdit shows the task and waits for one "<field> <value>" message.
func (b *Bot) startEdit(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.currentUser(ctx, chatID)
	if err != nil || user == nil {
		return err
	}
	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.replyError(chatID, "get task", err)
	}
	b.clearConfirmation(from.ID)
	b.setConversation(from.ID, &conversationState{stage: stageEdit, taskID: task.ID})
	text := "✏️ <b>Editing</b>\n\n" + formatTask(*task, model.DateOf(b.now()), false) + "\n" + editUsage
	return b.sendWithReplyMarkup(chatID, text, cancelKeyboard())
}

func (b *Bot) applyEdit(ctx context.Context, chatID int64, taskID string, patch model.TaskPatch) error {
	user, err := b.currentUser(ctx, chatID)
	if err != nil || user == nil {
		return err
	}
	task, err := b.svc.Tasks.UpdateTask(ctx, user, taskID, patch)
	if err != nil {
		return b.replyError(chatID, "edit task", err)
	}
	text := "✏️ <b>Task updated</b>\n\n" + formatTask(*task, model.DateOf(b.now()), false)
	if err := b.sendText(chatID, strings.TrimSpace(text)); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

func (b *Bot) askDeleteConfirmation(ctx context.Context, chatID int64, from *tgbotapi.User, taskID string) error {
	user, err := b.currentUser(ctx, chatID)
	if err != nil || user == nil {
		return err
	}
	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.replyError(chatID, "get task", err)
	}
	b.setConfirmation(from.ID, confirmationRequest{taskID: task.ID, action: actionDelete})
	text := fmt.Sprintf("Delete “%s”?", escape(normalizeTitle(task.Title)))
	return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		if req.action == actionClear {
			return b.clearAllTasks(ctx, msg.Chat.ID)
		}
		return b.deleteTaskAndRefresh(ctx, msg.Chat.ID, req.taskID)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "↩️ Nothing changed.")
	default:
		prompt := "Confirm or cancel the deletion."
		if req.action == actionClear {
			prompt = "Confirm or cancel clearing all tasks."
		}
		return b.sendWithReplyMarkup(msg.Chat.ID, prompt, confirmKeyboard())
	}
}

func (b *Bot) deleteTaskAndRefresh(ctx context.Context, chatID int64, taskID string) error {
	user, err := b.currentUser(ctx, chatID)
	if err != nil || user == nil {
		return err
	}
	task, err := b.svc.Tasks.GetTask(ctx, user, taskID)
	if err != nil {
		return b.replyError(chatID, "get task", err)
	}
	if err := b.svc.Tasks.DeleteTask(ctx, user, taskID); err != nil {
		return b.replyError(chatID, "delete task", err)
	}
	if err := b.sendText(chatID, fmt.Sprintf("🗑 “%s” deleted.", escape(normalizeTitle(task.Title)))); err != nil {
		return err
	}
	return b.sendTaskList(ctx, chatID, user)
}

// stripIcon drops a leading emoji label so keyboard buttons parse as plain names.
func stripIcon(text string) string {
	text = strings.TrimSpace(text)
	if i := strings.LastIndex(text, " "); i >= 0 {
		return text[i+1:]
	}
	return text
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(model.Categories); i += 2 {
		row := tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(categoryLabel(model.Categories[i])))
		if i+1 < len(model.Categories) {
			row = append(row, tgbotapi.NewKeyboardButton(categoryLabel(model.Categories[i+1])))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton(btnSkip),
		tgbotapi.NewKeyboardButton(btnCancelDialog),
	))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	var row []tgbotapi.KeyboardButton
	for _, p := range model.Priorities {
		row = append(row, tgbotapi.NewKeyboardButton(priorityLabel(p)))
	}
	kb := tgbotapi.NewReplyKeyboard(
		row,
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}
