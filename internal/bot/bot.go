// Package bot is the Telegram front-end. It talks to the HTTP API through
// BackendClient and keeps per-chat conversation state in a StateStore.
package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prodentai/companion/internal/facts"
	"github.com/prodentai/companion/internal/logging"
	"github.com/prodentai/companion/internal/models"
	"github.com/prodentai/companion/internal/psychology"
	"github.com/prodentai/companion/internal/reminders"
)

// API is the part of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Backend is the HTTP API as seen by the bot.
type Backend interface {
	Register(ctx context.Context, p TelegramProfile) (uint, error)
	RandomFact(ctx context.Context) (facts.Item, error)
	PsychologyTips(ctx context.Context) ([]psychology.Tip, error)
	PsychologyChat(ctx context.Context, userID uint, message string) (string, error)
	CreateReminder(ctx context.Context, userID uint, reminderType, at string, date *string) (models.Reminder, error)
	UserReminders(ctx context.Context, userID uint) ([]models.Reminder, error)
	SetReminderActive(ctx context.Context, id uint, active bool) error
	DeleteReminder(ctx context.Context, id uint) error
}

const (
	updateTimeout  = 2 * time.Minute
	pollTimeoutSec = 60

	msgUnknownUser = "Error: could not identify you. Try /start"
	msgGenericFail = "Something went wrong. Please try again."
)

// Bot handles Telegram updates.
type Bot struct {
	api      API
	backend  Backend
	state    StateStore
	location *time.Location
	log      *logging.Logger
	now      func() time.Time
}

// New creates a bot. Dates offered for dental visits are computed in location.
func New(api API, backend Backend, state StateStore, location *time.Location, log *logging.Logger) *Bot {
	if location == nil {
		location = time.UTC
	}
	return &Bot{
		api:      api,
		backend:  backend,
		state:    state,
		location: location,
		log:      log,
		now:      time.Now,
	}
}

// Run long-polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSec
	updates := b.api.GetUpdatesChan(u)
	b.log.Info("Telegram bot started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("Telegram bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			uctx, cancel := context.WithTimeout(ctx, updateTimeout)
			b.HandleUpdate(uctx, update)
			cancel()
		}
	}
}

// HandleUpdate dispatches one update. Errors are reported to the chat and
// logged, never returned.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		if update.Message.IsCommand() {
			b.handleCommand(ctx, update.Message)
			return
		}
		if update.Message.Text != "" {
			b.handleText(ctx, update.Message)
		}
	}
}

func (b *Bot) handleCommand(ctx context.Context, m *tgbotapi.Message) {
	chatID := m.Chat.ID
	b.log.Debug("Command received", "chat_id", chatID, "command", m.Command())

	switch m.Command() {
	case "start", "menu":
		b.send(chatID, b.start(ctx, chatID, m.From))
	case "help":
		b.send(chatID, helpScreen())
	case "psychology":
		b.send(chatID, psychologyMenu())
	case "reminders":
		b.send(chatID, remindersMenu())
	case "fact":
		b.send(chatID, b.fact(ctx))
	default:
		b.send(chatID, errorScreen("Unknown command. Try /help"))
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if q.Message == nil {
		return
	}
	chatID := q.Message.Chat.ID
	messageID := q.Message.MessageID
	data := q.Data
	b.log.Debug("Callback received", "chat_id", chatID, "data", data)

	notice := ""
	var sc screen
	var err error

	switch {
	case data == cbMainMenu:
		sc = b.start(ctx, chatID, q.From)
	case data == cbHelp:
		sc = helpScreen()
	case data == cbFact:
		sc = b.fact(ctx)
	case data == cbPsychology:
		sc = psychologyMenu()
	case data == cbStartPsychology:
		err = b.updateState(ctx, chatID, q.From, func(s *State) { s.Mode = ModePsychology })
		sc = psychologyChatIntro()
	case data == cbPsychologyTips:
		sc = b.tips(ctx)
	case data == cbReminders:
		sc = remindersMenu()
	case data == cbAddReminder:
		sc = addReminderScreen()
	case data == cbMyReminders:
		sc, err = b.myReminders(ctx, chatID, q.From)
	case strings.HasPrefix(data, prefixReminderDate):
		sc, err = b.createDatedReminder(ctx, chatID, q.From, strings.TrimPrefix(data, prefixReminderDate))
	case strings.HasPrefix(data, prefixReminderEdit):
		sc, err = b.withReminder(ctx, chatID, q.From, strings.TrimPrefix(data, prefixReminderEdit), func(r models.Reminder) (screen, error) {
			return editReminderScreen(r), nil
		})
	case strings.HasPrefix(data, prefixReminderToggle):
		sc, err = b.withReminder(ctx, chatID, q.From, strings.TrimPrefix(data, prefixReminderToggle), func(r models.Reminder) (screen, error) {
			if err := b.backend.SetReminderActive(ctx, r.ID, !r.IsActive); err != nil {
				return screen{}, err
			}
			r.IsActive = !r.IsActive
			notice = "❌ Reminder turned off"
			if r.IsActive {
				notice = "✅ Reminder turned on"
			}
			return editReminderScreen(r), nil
		})
	case strings.HasPrefix(data, prefixReminderDelete):
		sc, err = b.withReminder(ctx, chatID, q.From, strings.TrimPrefix(data, prefixReminderDelete), func(r models.Reminder) (screen, error) {
			if err := b.backend.DeleteReminder(ctx, r.ID); err != nil {
				return screen{}, err
			}
			notice = "✅ Reminder deleted"
			return b.myReminders(ctx, chatID, q.From)
		})
	default:
		if kind, ok := reminderKind(data); ok {
			sc, err = b.chooseReminderType(ctx, chatID, q.From, kind)
			break
		}
		notice = "Unknown action"
		sc = errorScreen("This feature is not available yet.")
	}

	if _, reqErr := b.api.Request(tgbotapi.NewCallback(q.ID, notice)); reqErr != nil {
		b.log.Warn("Failed to answer callback", "chat_id", chatID, "error", reqErr)
	}
	if err != nil {
		b.log.Error("Callback failed", "chat_id", chatID, "data", data, "error", err)
		sc = errorScreen(userMessage(err))
	}
	b.edit(chatID, messageID, sc)
}

func (b *Bot) handleText(ctx context.Context, m *tgbotapi.Message) {
	chatID := m.Chat.ID
	st, err := b.state.Get(ctx, chatID)
	if err != nil {
		b.log.Error("Failed to load chat state", "chat_id", chatID, "error", err)
	}

	switch st.Mode {
	case ModePsychology:
		b.psychologyTurn(ctx, chatID, m)
	case ModeAwaitVisitDate:
		sc, err := b.typedVisitDate(ctx, chatID, m.From, strings.TrimSpace(m.Text))
		if err != nil {
			b.log.Error("Failed to create dated reminder", "chat_id", chatID, "error", err)
			sc = errorScreen(userMessage(err))
		}
		b.send(chatID, sc)
	default:
		b.sendText(chatID, smallTalk(m.Text))
	}
}

func (b *Bot) start(ctx context.Context, chatID int64, from *tgbotapi.User) screen {
	name := "friend"
	if from != nil {
		name = (&models.User{FirstName: from.FirstName, Username: from.UserName}).DisplayName()
	}

	// Returning to the menu leaves chat mode and abandons a half-made reminder
	if err := b.updateState(ctx, chatID, from, func(s *State) {
		s.Mode = ModeIdle
		s.ReminderType = ""
		s.ReminderTime = ""
	}); err != nil {
		b.log.Warn("Failed to register user", "chat_id", chatID, "error", err)
	}
	return mainMenu(name)
}

func (b *Bot) fact(ctx context.Context) screen {
	item, err := b.backend.RandomFact(ctx)
	if err != nil {
		b.log.Warn("Failed to fetch fact, using fallback", "error", err)
		item = fallbackFact
	}
	return factScreen(item)
}

func (b *Bot) tips(ctx context.Context) screen {
	tips, err := b.backend.PsychologyTips(ctx)
	if err != nil {
		b.log.Warn("Failed to fetch tips, using fallback", "error", err)
	}
	return tipsScreen(tips)
}

func (b *Bot) psychologyTurn(ctx context.Context, chatID int64, m *tgbotapi.Message) {
	userID, err := b.userID(ctx, chatID, m.From)
	if err != nil {
		b.log.Error("Failed to resolve user", "chat_id", chatID, "error", err)
		b.sendText(chatID, msgUnknownUser)
		return
	}

	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		b.log.Debug("Failed to send typing action", "chat_id", chatID, "error", err)
	}

	answer, err := b.backend.PsychologyChat(ctx, userID, m.Text)
	if err != nil {
		b.log.Error("Psychology chat failed", "chat_id", chatID, "error", err)
		b.sendText(chatID, "Error while processing your message. Please try again later.")
		return
	}
	if answer == "" {
		answer = "Sorry, I can't answer right now."
	}
	b.send(chatID, screen{text: answer, keyboard: tgbotapi.NewInlineKeyboardMarkup(backRow())})
}

func (b *Bot) chooseReminderType(ctx context.Context, chatID int64, from *tgbotapi.User, kind string) (screen, error) {
	c, _ := reminders.Lookup(kind)
	userID, err := b.userID(ctx, chatID, from)
	if err != nil {
		return screen{}, err
	}

	if c.NeedsDate {
		err := b.updateState(ctx, chatID, from, func(s *State) {
			s.Mode = ModeAwaitVisitDate
			s.ReminderType = c.Type
			s.ReminderTime = c.DefaultTime
		})
		if err != nil {
			return screen{}, err
		}
		return visitDateScreen(b.now().In(b.location)), nil
	}

	r, err := b.backend.CreateReminder(ctx, userID, c.Type, c.DefaultTime, nil)
	if err != nil {
		return screen{}, err
	}
	return reminderCreatedScreen(r), nil
}

func (b *Bot) createDatedReminder(ctx context.Context, chatID int64, from *tgbotapi.User, date string) (screen, error) {
	st, err := b.state.Get(ctx, chatID)
	if err != nil {
		return screen{}, err
	}
	if st.Mode != ModeAwaitVisitDate || st.ReminderType == "" {
		return errorScreen("Error: reminder details not found. Start again from ⏰ Reminders."), nil
	}
	d, err := time.ParseInLocation(callbackDateFmt, date, b.location)
	if err != nil {
		return errorScreen("Error: invalid date."), nil
	}
	// Date buttons from an older message can point to a day that has passed
	today := b.now().In(b.location)
	if d.Before(time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, b.location)) {
		sc := visitDateScreen(today)
		sc.text = "❗ That date is in the past. Enter today's date or a later one:"
		return sc, nil
	}

	userID, err := b.userID(ctx, chatID, from)
	if err != nil {
		return screen{}, err
	}
	r, err := b.backend.CreateReminder(ctx, userID, st.ReminderType, st.ReminderTime, &date)
	if err != nil {
		return screen{}, err
	}
	if err := b.updateState(ctx, chatID, from, func(s *State) {
		s.Mode = ModeIdle
		s.ReminderType = ""
		s.ReminderTime = ""
	}); err != nil {
		b.log.Warn("Failed to clear chat state", "chat_id", chatID, "error", err)
	}
	return reminderCreatedScreen(r), nil
}

// typedVisitDate accepts "DD.MM.YYYY" for today or a later day.
func (b *Bot) typedVisitDate(ctx context.Context, chatID int64, from *tgbotapi.User, text string) (screen, error) {
	d, err := time.ParseInLocation(buttonDateFmt, text, b.location)
	if err != nil {
		sc := visitDateScreen(b.now().In(b.location))
		sc.text = "❗ I couldn't read that date. Use DD.MM.YYYY, for example 15.12.2026, or pick a date below:"
		return sc, nil
	}
	return b.createDatedReminder(ctx, chatID, from, d.Format(callbackDateFmt))
}

func (b *Bot) myReminders(ctx context.Context, chatID int64, from *tgbotapi.User) (screen, error) {
	userID, err := b.userID(ctx, chatID, from)
	if err != nil {
		return screen{}, err
	}
	list, err := b.backend.UserReminders(ctx, userID)
	if err != nil {
		return screen{}, err
	}
	return myRemindersScreen(list), nil
}

// withReminder finds one of the caller's reminders by id and applies fn.
func (b *Bot) withReminder(ctx context.Context, chatID int64, from *tgbotapi.User, rawID string, fn func(models.Reminder) (screen, error)) (screen, error) {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return errorScreen("Error: invalid reminder."), nil
	}
	userID, err := b.userID(ctx, chatID, from)
	if err != nil {
		return screen{}, err
	}
	list, err := b.backend.UserReminders(ctx, userID)
	if err != nil {
		return screen{}, err
	}
	for _, r := range list {
		if r.ID == uint(id) {
			return fn(r)
		}
	}
	return errorScreen("Reminder not found."), nil
}

// userID returns the backend user for a chat, registering it on first use.
func (b *Bot) userID(ctx context.Context, chatID int64, from *tgbotapi.User) (uint, error) {
	st, err := b.state.Get(ctx, chatID)
	if err == nil && st.UserID != 0 {
		return st.UserID, nil
	}
	if from == nil {
		return 0, errUnknownUser
	}
	id, err := b.backend.Register(ctx, TelegramProfile{
		TelegramID: from.ID,
		Username:   from.UserName,
		FirstName:  from.FirstName,
		LastName:   from.LastName,
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errUnknownUser, err)
	}
	st.UserID = id
	if err := b.state.Set(ctx, chatID, st); err != nil {
		b.log.Warn("Failed to cache user id", "chat_id", chatID, "error", err)
	}
	return id, nil
}

// updateState registers the user if needed, then applies fn to the chat state.
func (b *Bot) updateState(ctx context.Context, chatID int64, from *tgbotapi.User, fn func(*State)) error {
	if _, err := b.userID(ctx, chatID, from); err != nil {
		return err
	}
	st, err := b.state.Get(ctx, chatID)
	if err != nil {
		return err
	}
	fn(&st)
	return b.state.Set(ctx, chatID, st)
}

var errUnknownUser = errors.New("could not identify user")

func userMessage(err error) string {
	if errors.Is(err, errUnknownUser) {
		return msgUnknownUser
	}
	return msgGenericFail
}

func reminderKind(data string) (string, bool) {
	for _, rb := range reminderButtons {
		if rb.data == data {
			return rb.kind, true
		}
	}
	return "", false
}

func smallTalk(text string) string {
	lower := strings.ToLower(text)
	switch {
	case containsWord(lower, "hello", "hi", "hey"):
		return "Hi! How are you? How can I help with your dental health?"
	case strings.Contains(lower, "thank"):
		return "You're welcome! Happy to help! 😊"
	default:
		return "I didn't quite get that. Try the commands or the menu! /menu"
	}
}

func containsWord(text string, words ...string) bool {
	for _, field := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z')
	}) {
		for _, w := range words {
			if field == w {
				return true
			}
		}
	}
	return false
}

func (b *Bot) send(chatID int64, sc screen) {
	msg := tgbotapi.NewMessage(chatID, sc.text)
	if len(sc.keyboard.InlineKeyboard) > 0 {
		msg.ReplyMarkup = sc.keyboard
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("Failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	b.send(chatID, screen{text: text})
}

// edit replaces a menu message in place.
func (b *Bot) edit(chatID int64, messageID int, sc screen) {
	msg := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, sc.text, sc.keyboard)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("Failed to edit message", "chat_id", chatID, "error", err)
	}
}
