package telegram

import (
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/warrior-reminders/internal/domain"
	"github.com/ykvlv/warrior-reminders/internal/reminder"
	"github.com/ykvlv/warrior-reminders/internal/scheduler"
)

// UI texts in English
const (
	startText = "👋 I am your Warrior Journal reminder bot.\n\n" +
		"This chat now receives your reminders.\n\n" +
		"/list - your reminders\n" +
		"/add HH:MM category Title | Body - new daily reminder\n" +
		"/templates - start from a template\n" +
		"/every - repeating hydration reminder\n" +
		"/notify - allow notifications\n" +
		"/stop - stop sending reminders here"
	stopText    = "This chat will no longer receive reminders. Send /start to resume."
	addUsage    = "Usage: /add HH:MM [category] Title | Body\nCategories: %s"
	emptyList   = "No reminders yet. Use /add or /templates."
	listTitle   = "⏰ Your reminders:"
	askTimeText = "Send the time as HH:MM (24h), e.g. 08:30"
	badTimeText = "Invalid time. Use HH:MM, e.g. 08:30"
	failedText  = "Something went wrong. Please try again later."
)

func categoryList() string {
	names := make([]string, 0, len(domain.Categories()))
	for _, c := range domain.Categories() {
		names = append(names, string(c))
	}
	return strings.Join(names, ", ")
}

// formatReminder renders one reminder line.
func formatReminder(v reminder.View) string {
	state := "⏸"
	if v.Enabled {
		state = "✅"
	}
	line := fmt.Sprintf("%s %s · %s (%s)", state, v.Time, v.Title, v.Category.Label())
	if v.NextFire != nil {
		line += "\n   next: " + v.NextFire.Format("Mon 02 Jan 15:04")
	}
	return line
}

func formatInterval(e scheduler.Entry) string {
	return fmt.Sprintf("🔁 every %s · %s\n   next: %s", shortDuration(e.Every), e.Title, e.NextFire.Format("15:04"))
}

// reminderKeyboard has one row of actions per reminder.
func reminderKeyboard(views []reminder.View) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(views))
	for _, v := range views {
		toggle := "⏸ " + v.Time.String()
		if !v.Enabled {
			toggle = "▶️ " + v.Time.String()
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(toggle, "toggle:"+v.ID),
			tgbotapi.NewInlineKeyboardButtonData("🕘 Time", "time:"+v.ID),
			tgbotapi.NewInlineKeyboardButtonData("🗑 Delete", "delete:"+v.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func templatesKeyboard(tpls []domain.Template) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(tpls))
	for _, t := range tpls {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(t.Title, "tpl:"+string(t.Category)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func intervalPresetsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("30m", "interval:30m"),
			tgbotapi.NewInlineKeyboardButtonData("1h", "interval:1h"),
			tgbotapi.NewInlineKeyboardButtonData("2h", "interval:2h"),
			tgbotapi.NewInlineKeyboardButtonData("3h", "interval:3h"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("4h", "interval:4h"),
			tgbotapi.NewInlineKeyboardButtonData("6h", "interval:6h"),
			tgbotapi.NewInlineKeyboardButtonData("✍️ Custom…", "interval:custom"),
		),
	)
}

func intervalsKeyboard(entries []scheduler.Entry) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏹ Stop every "+shortDuration(e.Every), "stopiv:"+e.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// shortDuration drops zero units: 2h0m0s -> 2h, 1h30m0s -> 1h30m.
func shortDuration(d time.Duration) string {
	s := d.String()
	if strings.HasSuffix(s, "m0s") {
		s = strings.TrimSuffix(s, "0s")
	}
	if strings.HasSuffix(s, "h0m") {
		s = strings.TrimSuffix(s, "0m")
	}
	return s
}
