package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/domain"
	"github.com/ykvlv/warrior-reminders/internal/scheduler"
)

const maxTextLen = 512

var errEmptyTitle = errors.New("title is required")

// parseAdd parses "HH:MM [category] Title | Body". A second word that is
// not a category starts the title and makes the reminder custom.
func parseAdd(args string) (domain.ReminderConfig, error) {
	timeStr, rest, _ := strings.Cut(strings.TrimSpace(args), " ")
	tod, err := domain.ParseTimeOfDay(timeStr)
	if err != nil {
		return domain.ReminderConfig{}, err
	}

	rest = strings.TrimSpace(rest)
	cat := domain.CategoryCustom
	if word, tail, _ := strings.Cut(rest, " "); word != "" {
		if c, err := domain.ParseCategory(word); err == nil {
			cat, rest = c, strings.TrimSpace(tail)
		}
	}

	title, body, _ := strings.Cut(rest, "|")
	title, body = strings.TrimSpace(title), strings.TrimSpace(body)
	if title == "" {
		if t, ok := domain.TemplateFor(cat); ok {
			title, body = t.Title, t.Body
		}
	}
	if title == "" {
		return domain.ReminderConfig{}, errEmptyTitle
	}
	if len(title)+len(body) > maxTextLen {
		return domain.ReminderConfig{}, fmt.Errorf("too long, keep it under %d characters", maxTextLen)
	}
	return domain.ReminderConfig{
		Time:     tod,
		Title:    title,
		Body:     body,
		Category: cat,
		Enabled:  true,
	}, nil
}

// --- Generic helpers ---

func (r *Router) sendText(chatID int64, text string) {
	_, _ = r.bot.Send(tgbotapi.NewMessage(chatID, text))
}

func (r *Router) answerCallback(id, text string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, text))
	return err
}

// --- Core commands ---

func (r *Router) handleStart(ctx context.Context, chatID int64) {
	if err := r.targets.Register(ctx, chatID); err != nil {
		r.log.Error("register chat failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, failedText)
		return
	}
	r.sendText(chatID, startText)
}

func (r *Router) handleStop(ctx context.Context, chatID int64) {
	if err := r.targets.Unregister(ctx, chatID); err != nil {
		r.log.Error("unregister chat failed", zap.Int64("chatID", chatID), zap.Error(err))
		r.sendText(chatID, failedText)
		return
	}
	r.sendText(chatID, stopText)
}

func (r *Router) handleList(chatID int64) {
	views := r.svc.List()
	intervals := r.svc.Intervals()
	if len(views) == 0 && len(intervals) == 0 {
		r.sendText(chatID, emptyList)
		return
	}

	if len(views) > 0 {
		lines := []string{listTitle}
		for _, v := range views {
			lines = append(lines, formatReminder(v))
		}
		msg := tgbotapi.NewMessage(chatID, strings.Join(lines, "\n"))
		msg.ReplyMarkup = reminderKeyboard(views)
		_, _ = r.bot.Send(msg)
	}

	if len(intervals) > 0 {
		lines := make([]string, 0, len(intervals))
		for _, e := range intervals {
			lines = append(lines, formatInterval(e))
		}
		msg := tgbotapi.NewMessage(chatID, strings.Join(lines, "\n"))
		msg.ReplyMarkup = intervalsKeyboard(intervals)
		_, _ = r.bot.Send(msg)
	}
}

func (r *Router) handleAdd(ctx context.Context, chatID int64, args string) {
	cfg, err := parseAdd(args)
	if err != nil {
		r.sendText(chatID, fmt.Sprintf(addUsage, categoryList()))
		return
	}
	v, err := r.svc.Create(ctx, cfg)
	if err != nil {
		r.log.Error("create reminder failed", zap.Error(err))
		r.sendText(chatID, failedText)
		return
	}
	r.sendText(chatID, "Reminder added:\n"+formatReminder(v))
}

func (r *Router) handleTemplates(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Pick a template:")
	msg.ReplyMarkup = templatesKeyboard(r.svc.Templates())
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleNotify(ctx context.Context, chatID int64) {
	ok, err := r.perms.RequestPermission(ctx)
	switch {
	case err != nil:
		r.log.Error("permission request failed", zap.Error(err))
		r.sendText(chatID, failedText)
	case ok:
		r.sendText(chatID, "🔔 Notifications are enabled.")
	default:
		r.sendText(chatID, "🔕 Notifications are blocked. Use /notify again to retry.")
	}
}

// --- Inline actions ---

func (r *Router) handleToggleCallback(ctx context.Context, chatID int64, id, cbID string) {
	v, err := r.svc.Toggle(ctx, id)
	if err != nil {
		_ = r.answerCallback(cbID, "Reminder not found")
		return
	}
	state := "paused"
	if v.Enabled {
		state = "enabled"
	}
	_ = r.answerCallback(cbID, v.Title+" "+state)
	r.handleList(chatID)
}

func (r *Router) handleDeleteCallback(ctx context.Context, chatID int64, id, cbID string) {
	if err := r.svc.Delete(ctx, id); err != nil {
		r.log.Error("delete reminder failed", zap.String("id", id), zap.Error(err))
		_ = r.answerCallback(cbID, "Could not delete")
		return
	}
	_ = r.answerCallback(cbID, "Deleted")
	r.handleList(chatID)
}

func (r *Router) askTime(chatID int64, kind, arg, cbID string) {
	_ = r.answerCallback(cbID, "")
	r.setPending(chatID, kind, arg)
	r.sendText(chatID, askTimeText)
}

// --- Interval flow ---

func (r *Router) handleEvery(chatID int64) {
	msg := tgbotapi.NewMessage(chatID, "Remind me to drink water every:")
	msg.ReplyMarkup = intervalPresetsKeyboard()
	_, _ = r.bot.Send(msg)
}

func (r *Router) handleIntervalCallback(chatID int64, val, cbID string) {
	_ = r.answerCallback(cbID, "")
	if val == "custom" {
		r.sendText(chatID, "Enter interval, e.g.: 30m, 1h, 1h30m, 90m")
		r.setPending(chatID, pendingInterval, "")
		return
	}
	r.startInterval(chatID, val)
}

func (r *Router) startInterval(chatID int64, val string) {
	dur, err := domain.ParseDurationHuman(val)
	if err != nil {
		r.sendText(chatID, "Invalid interval. Examples: 30m, 1h, 1h30m.")
		return
	}
	t, _ := domain.TemplateFor(domain.CategoryWater)
	e, err := r.svc.StartInterval(scheduler.Interval{
		Every:    dur,
		Title:    t.Title,
		Body:     t.Body,
		Category: t.Category,
	})
	if err != nil {
		r.log.Error("start interval failed", zap.Error(err))
		r.sendText(chatID, failedText)
		return
	}
	r.sendText(chatID, "Started:\n"+formatInterval(e))
}

func (r *Router) handleStopInterval(chatID int64, id, cbID string) {
	if !r.svc.StopInterval(id) {
		_ = r.answerCallback(cbID, "Already stopped")
		return
	}
	_ = r.answerCallback(cbID, "Stopped")
	r.handleList(chatID)
}

// --- Free-form dispatcher (for pending inputs) ---

func (r *Router) handleFreeForm(ctx context.Context, chatID int64, text string) {
	p, ok := r.takePending(chatID)
	if !ok {
		return // no pending flow: ignore free-form message
	}

	switch p.kind {
	case pendingInterval:
		r.startInterval(chatID, text)

	case pendingTemplateTime:
		tod, err := domain.ParseTimeOfDay(text)
		if err != nil {
			r.setPending(chatID, p.kind, p.arg)
			r.sendText(chatID, badTimeText)
			return
		}
		v, err := r.svc.CreateFromTemplate(ctx, domain.Category(p.arg), tod)
		if err != nil {
			r.log.Error("create from template failed", zap.String("type", p.arg), zap.Error(err))
			r.sendText(chatID, failedText)
			return
		}
		r.sendText(chatID, "Reminder added:\n"+formatReminder(v))

	case pendingEditTime:
		tod, err := domain.ParseTimeOfDay(text)
		if err != nil {
			r.setPending(chatID, p.kind, p.arg)
			r.sendText(chatID, badTimeText)
			return
		}
		v, err := r.svc.Update(ctx, p.arg, domain.Patch{Time: &tod})
		if errors.Is(err, domain.ErrNotFound) {
			r.sendText(chatID, "That reminder no longer exists.")
			return
		}
		if err != nil {
			r.log.Error("update time failed", zap.String("id", p.arg), zap.Error(err))
			r.sendText(chatID, failedText)
			return
		}
		r.sendText(chatID, "Time updated:\n"+formatReminder(v))
	}
}

// Poll feeds long-polled updates to the router until ctx is canceled.
func (r *Router) Poll(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			r.handle(ctx, upd)
		}
	}
}

func (r *Router) handle(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("telegram handler panicked", zap.Any("panic", rec))
		}
	}()
	hctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	r.HandleUpdate(hctx, upd)
}
