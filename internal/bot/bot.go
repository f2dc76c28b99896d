package bot

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"taskmaster/internal/config"
	"taskmaster/internal/model"
	"taskmaster/internal/service"
)

const (
	cbStartPrefix    = "start:"
	cbCompletePrefix = "complete:"
	cbReopenPrefix   = "reopen:"
	cbEditPrefix     = "edit:"
	cbDeletePrefix   = "delete:"
)

const (
	btnSkip         = "⏭️ Skip"
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	btnCancelDialog = "⏪ Stop input"
	menuLabelNew    = "➕ New task"
	menuLabelList   = "📋 Tasks"
	menuLabelBoard  = "🗂 Board"
	menuLabelStats  = "📊 Stats"
)

type confirmationAction int

const (
	actionDelete confirmationAction = iota
	actionClear
)

type confirmationRequest struct {
	taskID string
	action confirmationAction
}

// Services bundles what the bot drives.
type Services struct {
	Auth      *service.AuthService
	Tasks     *service.TaskService
	Settings  *service.SettingsService
	Data      *service.DataService
	Reminders *service.ReminderService
}

// Bot is the Telegram front end for a single owner.
type Bot struct {
	api        *tgbotapi.BotAPI
	svc        Services
	config     *config.Config
	httpClient *http.Client
	now        func() time.Time

	mu             sync.Mutex
	conversations  map[int64]*conversationState
	confirmations  map[int64]confirmationRequest
	awaitingImport map[int64]bool
	filter         service.Filter
}

// NewAPI authorizes against Telegram. The API is shared by the bot and its Notifier.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("bot authorized", "account", api.Self.UserName)
	return api, nil
}

func New(api *tgbotapi.BotAPI, svc Services, cfg *config.Config) *Bot {
	return &Bot{
		api:            api,
		svc:            svc,
		config:         cfg,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		now:            time.Now,
		conversations:  make(map[int64]*conversationState),
		confirmations:  make(map[int64]confirmationRequest),
		awaitingImport: make(map[int64]bool),
	}
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Info("start polling updates", "owner", b.config.OwnerID)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Error("handle callback", "err", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Error("handle message", "err", err)
			}
		}
	}

	return ctx.Err()
}

func (b *Bot) isOwner(from *tgbotapi.User) bool {
	return from != nil && from.ID == b.config.OwnerID
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if !b.isOwner(msg.From) {
		log.Warn("refused update from stranger", "from", msg.From.ID, "username", msg.From.UserName)
		return b.sendPlain(msg.Chat.ID, "This is a private task manager.")
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.resetDialogs(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	}

	if msg.IsCommand() {
		log.Debug("command", "name", msg.Command())
		return b.handleCommand(ctx, msg)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		return b.handleConversation(ctx, msg)
	}

	if b.isAwaitingImport(msg.From.ID) {
		return b.handleImportPayload(ctx, msg)
	}

	return b.sendText(msg.Chat.ID, "I did not get that. Use /newtask to add a task or /help for the command list.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.handleHelp(msg)
	case "register":
		return b.handleRegister(ctx, msg)
	case "login":
		return b.handleLogin(ctx, msg)
	case "logout":
		return b.handleLogout(ctx, msg)
	case "profile":
		return b.handleProfile(ctx, msg)
	case "password":
		return b.handlePassword(ctx, msg)
	case "view":
		return b.handleDefaultView(ctx, msg)
	case "list", "tasks":
		return b.handleList(ctx, msg)
	case "board":
		return b.handleBoard(ctx, msg)
	case "calendar":
		return b.handleCalendar(ctx, msg)
	case "stats":
		return b.handleStats(ctx, msg)
	case "category":
		return b.handleCategory(ctx, msg)
	case "search":
		return b.handleSearch(ctx, msg)
	case "newtask":
		return b.startNewTaskConversation(ctx, msg)
	case "settings":
		return b.handleSettings(ctx, msg)
	case "set":
		return b.handleSet(ctx, msg)
	case "reset":
		return b.handleResetSettings(ctx, msg)
	case "export":
		return b.handleExport(ctx, msg)
	case "import":
		return b.handleImport(ctx, msg)
	case "clear":
		return b.handleClear(ctx, msg)
	case "retention":
		return b.handleRetention(ctx, msg)
	case "report":
		return b.handleReport(ctx, msg)
	case "cancel":
		b.resetDialogs(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Input cancelled.")
	default:
		return b.sendText(msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if user, err := b.svc.Auth.Current(ctx); err == nil {
		name = user.Name
	}
	if name == "" {
		name = "there"
	}
	text := fmt.Sprintf("👋 Hi, %s!\n<b>I keep your tasks, reminders and backups in one place.</b>\n\n", escape(name)) +
		"New here? Create the account with <code>/register &lt;email&gt; &lt;password&gt; &lt;name&gt;</code>.\n" +
		"Back again? <code>/login &lt;email&gt; &lt;password&gt;</code>.\n\n" +
		"Then try /newtask, /list or /help."
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	text := "ℹ️ <b>Commands</b>\n" +
		"<b>Account</b>\n" +
		"• /register &lt;email&gt; &lt;password&gt; &lt;name&gt; · /login &lt;email&gt; &lt;password&gt; · /logout\n" +
		"• /profile [name|email &lt;value&gt;] · /password &lt;current&gt; &lt;new&gt; &lt;confirm&gt;\n" +
		"<b>Tasks</b>\n" +
		"• /newtask — add a task step by step\n" +
		"• /view — your default view\n" +
		"• /list — list with start, complete, reopen, edit and delete buttons\n" +
		"• /board — tasks by status\n" +
		"• /calendar [YYYY-MM] — month grid\n" +
		"• /stats — dashboard numbers\n" +
		"• /category &lt;name|all&gt; · /search [text] — narrow the views\n" +
		"<b>Settings</b>\n" +
		"• /settings · /set &lt;key&gt; &lt;value&gt; · /reset\n" +
		"<b>Data</b>\n" +
		"• /export · /import · /clear · /retention · /report\n" +
		"• /cancel — stop the current input"
	return b.sendText(msg.Chat.ID, text)
}

// currentUser returns the logged-in account. When nobody is logged in it tells
// the owner so and returns a nil user with a nil error.
func (b *Bot) currentUser(ctx context.Context, chatID int64) (*model.User, error) {
	user, err := b.svc.Auth.Current(ctx)
	if errors.Is(err, service.ErrNotAuthenticated) {
		text, _ := errorText(err)
		return nil, b.sendText(chatID, text)
	}
	return user, err
}

// replyError reports err to the owner and logs it when it is unexpected.
func (b *Bot) replyError(chatID int64, action string, err error) error {
	text, ok := errorText(err)
	if !ok {
		log.Error(action, "err", err)
	}
	return b.sendText(chatID, text)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelNew):
		return true, b.startNewTaskConversation(ctx, msg)
	case strings.ToLower(menuLabelList):
		return true, b.handleList(ctx, msg)
	case strings.ToLower(menuLabelBoard):
		return true, b.handleBoard(ctx, msg)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(ctx, msg)
	default:
		return false, nil
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = mainMenuKeyboard()
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendPlain(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

// forget deletes a message that carried a password.
func (b *Bot) forget(msg *tgbotapi.Message) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		log.Warn("could not delete credentials message", "err", err)
	}
}

func (b *Bot) resetDialogs(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
	delete(b.confirmations, userID)
	delete(b.awaitingImport, userID)
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) setAwaitingImport(userID int64, v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v {
		b.awaitingImport[userID] = true
	} else {
		delete(b.awaitingImport, userID)
	}
}

func (b *Bot) isAwaitingImport(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.awaitingImport[userID]
}

func (b *Bot) currentFilter() service.Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filter
}

func (b *Bot) updateFilter(fn func(f *service.Filter)) service.Filter {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(&b.filter)
	return b.filter
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelNew),
			tgbotapi.NewKeyboardButton(menuLabelList),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelBoard),
			tgbotapi.NewKeyboardButton(menuLabelStats),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "stop"
}
