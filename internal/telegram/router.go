package telegram

import (
	"context"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/reminder"
)

// Pending state kinds used in conversational flows.
const (
	pendingTemplateTime = "await_template_time" // arg: category
	pendingEditTime     = "await_edit_time"     // arg: reminder id
	pendingInterval     = "await_interval_text"
)

type pending struct {
	kind string
	arg  string
}

// Bot is the part of *tgbotapi.BotAPI the router uses.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Targets registers chats as delivery targets.
type Targets interface {
	Register(ctx context.Context, chatID int64) error
	Unregister(ctx context.Context, chatID int64) error
}

// Permissions is the explicit permission request.
type Permissions interface {
	RequestPermission(ctx context.Context) (bool, error)
}

// Router wires Telegram updates to handlers and holds minimal in-memory state.
type Router struct {
	bot     Bot
	log     *zap.Logger
	svc     *reminder.Service
	targets Targets
	perms   Permissions
	state   map[int64]pending // chatID -> pending state
	mu      sync.RWMutex
}

// NewRouter creates a new Telegram router.
func NewRouter(bot Bot, log *zap.Logger, svc *reminder.Service, targets Targets, perms Permissions) *Router {
	return &Router{
		bot:     bot,
		log:     log,
		svc:     svc,
		targets: targets,
		perms:   perms,
		state:   make(map[int64]pending),
	}
}

func (r *Router) setPending(chatID int64, kind, arg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state[chatID] = pending{kind: kind, arg: arg}
}

// takePending returns and clears the pending state for a chat.
func (r *Router) takePending(chatID int64) (pending, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.state[chatID]
	delete(r.state, chatID)
	return p, ok
}

// commandArgs returns the text after the command word.
func commandArgs(text string) string {
	_, args, _ := strings.Cut(text, " ")
	return strings.TrimSpace(args)
}

// HandleUpdate routes a single update to appropriate handler.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.Message != nil {
		msg := upd.Message
		if msg.Chat == nil {
			return
		}
		chatID := msg.Chat.ID
		text := strings.TrimSpace(msg.Text)

		switch {
		case strings.HasPrefix(text, "/start"):
			r.handleStart(ctx, chatID)
		case strings.HasPrefix(text, "/stop"):
			r.handleStop(ctx, chatID)
		case strings.HasPrefix(text, "/list"):
			r.handleList(chatID)
		case strings.HasPrefix(text, "/add"):
			r.handleAdd(ctx, chatID, commandArgs(text))
		case strings.HasPrefix(text, "/templates"):
			r.handleTemplates(chatID)
		case strings.HasPrefix(text, "/every"):
			r.handleEvery(chatID)
		case strings.HasPrefix(text, "/notify"):
			r.handleNotify(ctx, chatID)
		default:
			r.handleFreeForm(ctx, chatID, text)
		}
		return
	}

	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		chatID := cb.Message.Chat.ID
		kind, arg, _ := strings.Cut(cb.Data, ":")

		switch kind {
		case "toggle":
			r.handleToggleCallback(ctx, chatID, arg, cb.ID)
		case "delete":
			r.handleDeleteCallback(ctx, chatID, arg, cb.ID)
		case "time":
			r.askTime(chatID, pendingEditTime, arg, cb.ID)
		case "tpl":
			r.askTime(chatID, pendingTemplateTime, arg, cb.ID)
		case "interval":
			r.handleIntervalCallback(chatID, arg, cb.ID)
		case "stopiv":
			r.handleStopInterval(chatID, arg, cb.ID)
		default:
			_ = r.answerCallback(cb.ID, "")
		}
	}
}
