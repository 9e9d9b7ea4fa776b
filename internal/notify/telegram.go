package notify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/domain"
	"github.com/ykvlv/warrior-reminders/internal/store"
)

// ChatKeyPrefix addresses registered Telegram chats.
const ChatKeyPrefix = "telegram_chat_"

// Sender is the part of *tgbotapi.BotAPI the channel needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramChannel sends reminders as chat messages to every registered chat.
type TelegramChannel struct {
	bot Sender
	kv  store.KV
	log *zap.Logger
}

func NewTelegramChannel(bot Sender, kv store.KV, log *zap.Logger) *TelegramChannel {
	return &TelegramChannel{bot: bot, kv: kv, log: log}
}

func (*TelegramChannel) Name() string { return "telegram" }

func (c *TelegramChannel) Ready(ctx context.Context) bool {
	keys, err := c.kv.Keys(ctx, ChatKeyPrefix)
	return err == nil && len(keys) > 0
}

// Register adds chatID as a delivery target.
func (c *TelegramChannel) Register(ctx context.Context, chatID int64) error {
	return c.kv.Set(ctx, chatKey(chatID), strconv.FormatInt(chatID, 10))
}

// Unregister removes chatID. Unknown chats are ignored.
func (c *TelegramChannel) Unregister(ctx context.Context, chatID int64) error {
	return c.kv.Delete(ctx, chatKey(chatID))
}

// Chats lists the registered chat ids.
func (c *TelegramChannel) Chats(ctx context.Context) ([]int64, error) {
	keys, err := c.kv.Keys(ctx, ChatKeyPrefix)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(keys))
	for _, k := range keys {
		id, err := strconv.ParseInt(strings.TrimPrefix(k, ChatKeyPrefix), 10, 64)
		if err != nil {
			c.log.Warn("skipping bad chat key", zap.String("key", k))
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// FormatMessage renders a notification as chat text.
func FormatMessage(n domain.Notification) string {
	if n.Options.Body == "" {
		return n.Title
	}
	return n.Title + "\n\n" + n.Options.Body
}

func (c *TelegramChannel) Show(ctx context.Context, n domain.Notification) error {
	chats, err := c.Chats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}
	if len(chats) == 0 {
		return ErrNoTargets
	}

	text := FormatMessage(n)
	var (
		delivered int
		errs      []error
	)
	for _, id := range chats {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		msg := tgbotapi.NewMessage(id, text)
		msg.DisableNotification = n.Options.Silent
		if _, err := c.bot.Send(msg); err != nil {
			errs = append(errs, fmt.Errorf("chat %d: %w", id, err))
			continue
		}
		delivered++
	}
	if delivered == 0 {
		return errors.Join(errs...)
	}
	return nil
}

func chatKey(chatID int64) string {
	return ChatKeyPrefix + strconv.FormatInt(chatID, 10)
}
