package bot

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prodentai/companion/internal/facts"
	"github.com/prodentai/companion/internal/models"
	"github.com/prodentai/companion/internal/psychology"
	"github.com/prodentai/companion/internal/reminders"
)

// Callback data
const (
	cbMainMenu        = "main_menu"
	cbFact            = "fact"
	cbHelp            = "help"
	cbPsychology      = "psychology"
	cbStartPsychology = "start_psychology"
	cbPsychologyTips  = "psychology_tips"
	cbReminders       = "reminders"
	cbAddReminder     = "add_reminder"
	cbMyReminders     = "my_reminders"

	prefixReminderDate   = "reminder_date_"
	prefixReminderEdit   = "reminder_edit_"
	prefixReminderToggle = "reminder_toggle_"
	prefixReminderDelete = "reminder_delete_"
)

// Reminder type buttons map to categories.
var reminderButtons = []struct {
	data  string
	emoji string
	kind  string
}{
	{"reminder_morning", "🌅", models.ReminderMorningHygiene},
	{"reminder_evening", "🌙", models.ReminderEveningHygiene},
	{"reminder_dental", "🦷", models.ReminderDentalVisit},
	{"reminder_floss", "🧵", models.ReminderFloss},
}

const (
	visitDateDays   = 7
	buttonDateFmt   = "02.01.2006"
	callbackDateFmt = "2006-01-02"
)

// screen is a message body with its inline keyboard.
type screen struct {
	text     string
	keyboard tgbotapi.InlineKeyboardMarkup
}

func button(text, data string) []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(text, data))
}

func backRow() []tgbotapi.InlineKeyboardButton {
	return button("🔙 Main menu", cbMainMenu)
}

func mainMenu(name string) screen {
	return screen{
		text: fmt.Sprintf("🦷 Welcome to ProDentAI, %s!\n\nI'm your personal AI companion for keeping your teeth healthy.\n\nChoose an action:", name),
		keyboard: tgbotapi.NewInlineKeyboardMarkup(
			button("⏰ Reminders", cbReminders),
			button("💡 Hygiene fact", cbFact),
			button("💬 Psychological support", cbPsychology),
			button("❓ Help", cbHelp),
		),
	}
}

func helpScreen() screen {
	return screen{
		text: strings.Join([]string{
			"🦷 ProDentAI: your dental health assistant",
			"",
			"Commands:",
			"/start - open the main menu",
			"/menu - open the main menu",
			"/psychology - psychological support",
			"/reminders - set up reminders",
			"/fact - a random hygiene fact",
			"/help - this help",
			"",
			"1️⃣ Psychological support 💬",
			"Start a conversation with the assistant or read tips for coping with dental anxiety.",
			"",
			"2️⃣ Reminders ⏰",
			"Add hygiene reminders, pick a time, and switch them on or off.",
			"",
			"3️⃣ Hygiene facts 💡",
			"Press \"💡 Another fact\" for a new one.",
		}, "\n"),
		keyboard: tgbotapi.NewInlineKeyboardMarkup(backRow()),
	}
}

func psychologyMenu() screen {
	return screen{
		text: "💬 Psychological support\n\nI'll help you cope with anxiety before a dental visit.\n\nChoose an action:",
		keyboard: tgbotapi.NewInlineKeyboardMarkup(
			button("💬 Start a conversation", cbStartPsychology),
			button("💡 Tips", cbPsychologyTips),
			backRow(),
		),
	}
}

func psychologyChatIntro() screen {
	return screen{
		text: "💬 Psychological support\n\nTell me about your worries, fears or questions and I'll support you.\n\nFor example:\n• \"I'm afraid of going to the dentist\"\n• \"What if it hurts?\"\n• \"How do I cope with anxiety?\"\n\nJust type your message.",
		keyboard: tgbotapi.NewInlineKeyboardMarkup(
			button("💡 Tips", cbPsychologyTips),
			backRow(),
		),
	}
}

var fallbackTips = []psychology.Tip{
	{Title: "Breathe slowly", Content: "Take deep, slow breaths."},
	{Title: "Music", Content: "Listen to music during the procedure."},
	{Title: "Talk", Content: "Tell your dentist about your fears."},
}

func tipsScreen(tips []psychology.Tip) screen {
	if len(tips) == 0 {
		tips = fallbackTips
	}
	var b strings.Builder
	b.WriteString("💡 Tips for reducing anxiety\n\n")
	for _, t := range tips {
		fmt.Fprintf(&b, "• %s\n  %s\n\n", t.Title, t.Content)
	}
	return screen{
		text: strings.TrimRight(b.String(), "\n"),
		keyboard: tgbotapi.NewInlineKeyboardMarkup(
			button("💬 Start a conversation", cbStartPsychology),
			backRow(),
		),
	}
}

var fallbackFact = facts.Item{
	Title:    "An interesting hygiene fact",
	Content:  "The first bristle toothbrush was invented in China in 1498 and was made from boar hair.",
	Category: facts.CategoryHistory,
}

func factScreen(item facts.Item) screen {
	category := item.Category
	for _, c := range facts.Categories {
		if c.Name == item.Category {
			category = c.Title
		}
	}
	return screen{
		text: fmt.Sprintf("💡 %s\n\n%s\n\nCategory: %s", item.Title, item.Content, category),
		keyboard: tgbotapi.NewInlineKeyboardMarkup(
			button("💡 Another fact", cbFact),
			backRow(),
		),
	}
}

func remindersMenu() screen {
	return screen{
		text: "⏰ Hygiene reminders\n\nSet up reminders to build healthy habits:\n• Add a new reminder\n• See my reminders",
		keyboard: tgbotapi.NewInlineKeyboardMarkup(
			button("➕ Add reminder", cbAddReminder),
			button("📋 My reminders", cbMyReminders),
			backRow(),
		),
	}
}

func addReminderScreen() screen {
	var b strings.Builder
	b.WriteString("➕ Add a reminder\n\nChoose the reminder type:\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reminderButtons)+1)
	for _, rb := range reminderButtons {
		c, _ := reminders.Lookup(rb.kind)
		fmt.Fprintf(&b, "\n%s %s\n   %s\n", rb.emoji, c.Name, c.Description)
		rows = append(rows, button(rb.emoji+" "+c.Name, rb.data))
	}
	rows = append(rows, backRow())
	return screen{text: b.String(), keyboard: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func emojiFor(kind string) string {
	for _, rb := range reminderButtons {
		if rb.kind == kind {
			return rb.emoji
		}
	}
	return "⏰"
}

func categoryName(kind string) string {
	if c, ok := reminders.Lookup(kind); ok {
		return c.Name
	}
	return kind
}

// displayDate turns "YYYY-MM-DD" into "DD.MM.YYYY", leaving other input as is.
func displayDate(date string) string {
	t, err := time.Parse(callbackDateFmt, date)
	if err != nil {
		return date
	}
	return t.Format(buttonDateFmt)
}

func visitDateScreen(today time.Time) screen {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, visitDateDays+1)
	for i := 0; i < visitDateDays; i++ {
		d := today.AddDate(0, 0, i)
		rows = append(rows, button("📅 "+d.Format(buttonDateFmt), prefixReminderDate+d.Format(callbackDateFmt)))
	}
	rows = append(rows, backRow())
	return screen{
		text:     "📅 Dental visit\n\nType the visit date as DD.MM.YYYY, for example 15.12.2026,\nor pick a date below:",
		keyboard: tgbotapi.NewInlineKeyboardMarkup(rows...),
	}
}

func reminderCreatedScreen(r models.Reminder) screen {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Reminder \"%s\" created!\n\n", categoryName(r.ReminderType))
	if r.Date != nil && *r.Date != "" {
		fmt.Fprintf(&b, "📅 Date: %s\n", displayDate(*r.Date))
	}
	fmt.Fprintf(&b, "🕐 Time: %s\n\nYou'll get a notification.", r.Time)
	return screen{
		text: b.String(),
		keyboard: tgbotapi.NewInlineKeyboardMarkup(
			button("📋 My reminders", cbMyReminders),
			backRow(),
		),
	}
}

func myRemindersScreen(list []models.Reminder) screen {
	if len(list) == 0 {
		return screen{
			text: "📋 My reminders\n\nYou have no reminders yet.\n\nPress \"➕ Add\" to create your first one.",
			keyboard: tgbotapi.NewInlineKeyboardMarkup(
				button("➕ Add", cbAddReminder),
				backRow(),
			),
		}
	}

	var b strings.Builder
	b.WriteString("📋 My reminders\n\n")
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(list)+2)
	for i, r := range list {
		fmt.Fprintf(&b, "%d. %s %s %s\n   🕐 Time: %s\n", i+1, statusIcon(r.IsActive), categoryName(r.ReminderType), emojiFor(r.ReminderType), r.Time)
		if r.Date != nil && *r.Date != "" {
			fmt.Fprintf(&b, "   📅 Date: %s\n", displayDate(*r.Date))
		}
		if r.Message != "" {
			fmt.Fprintf(&b, "   💬 %s\n", r.Message)
		}
		b.WriteString("\n")
		rows = append(rows, button(fmt.Sprintf("⚙️ %d. %s %s", i+1, categoryName(r.ReminderType), r.Time), fmt.Sprintf("%s%d", prefixReminderEdit, r.ID)))
	}
	rows = append(rows, button("➕ Add", cbAddReminder), backRow())
	return screen{text: strings.TrimRight(b.String(), "\n"), keyboard: tgbotapi.NewInlineKeyboardMarkup(rows...)}
}

func editReminderScreen(r models.Reminder) screen {
	var b strings.Builder
	fmt.Fprintf(&b, "⚙️ Edit reminder\n\n%s %s\n🕐 Time: %s\n", emojiFor(r.ReminderType), categoryName(r.ReminderType), r.Time)
	if r.Date != nil && *r.Date != "" {
		fmt.Fprintf(&b, "📅 Date: %s\n", displayDate(*r.Date))
	}
	if r.Message != "" {
		fmt.Fprintf(&b, "💬 Message: %s\n", r.Message)
	}
	status := "❌ Inactive"
	toggle := "✅ Turn on"
	if r.IsActive {
		status = "✅ Active"
		toggle = "❌ Turn off"
	}
	fmt.Fprintf(&b, "Status: %s", status)
	return screen{
		text: b.String(),
		keyboard: tgbotapi.NewInlineKeyboardMarkup(
			button(toggle, fmt.Sprintf("%s%d", prefixReminderToggle, r.ID)),
			button("🗑 Delete", fmt.Sprintf("%s%d", prefixReminderDelete, r.ID)),
			button("📋 My reminders", cbMyReminders),
			backRow(),
		),
	}
}

func statusIcon(active bool) string {
	if active {
		return "✅"
	}
	return "❌"
}

func errorScreen(text string) screen {
	return screen{text: text, keyboard: tgbotapi.NewInlineKeyboardMarkup(backRow())}
}
