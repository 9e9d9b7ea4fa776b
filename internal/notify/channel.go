package notify

import (
	"context"
	"errors"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNoTargets is returned by a channel with nobody to deliver to.
var ErrNoTargets = errors.New("no delivery targets")

// Channel shows a notification to the user.
type Channel interface {
	Name() string
	// Ready reports whether Show has at least one target.
	Ready(ctx context.Context) bool
	Show(ctx context.Context, n domain.Notification) error
}

// LogChannel writes notifications to the log. It is the last-resort
// ephemeral channel and is always ready.
type LogChannel struct {
	log *zap.Logger
}

func NewLogChannel(log *zap.Logger) *LogChannel { return &LogChannel{log: log} }

func (*LogChannel) Name() string               { return "log" }
func (*LogChannel) Ready(context.Context) bool { return true }

func (c *LogChannel) Show(_ context.Context, n domain.Notification) error {
	c.log.Info("notification",
		zap.String("reminder_id", n.ReminderID),
		zap.String("type", string(n.Category)),
		zap.String("title", n.Title),
		zap.String("body", n.Options.Body),
		zap.String("tag", n.Options.Tag),
	)
	return nil
}
