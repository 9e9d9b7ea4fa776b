package app

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/clock"
	"github.com/ykvlv/warrior-reminders/internal/config"
	"github.com/ykvlv/warrior-reminders/internal/notify"
	"github.com/ykvlv/warrior-reminders/internal/reminder"
	"github.com/ykvlv/warrior-reminders/internal/scheduler"
	"github.com/ykvlv/warrior-reminders/internal/store"
)

// Core is the reminder subsystem shared by every entry point: backend,
// channels, dispatcher, scheduler and service.
type Core struct {
	KV         store.KV
	Dispatcher *notify.Dispatcher
	Scheduler  *scheduler.Scheduler
	Service    *reminder.Service
	WebPush    *notify.WebPushChannel  // nil when VAPID keys are unset
	Telegram   *notify.TelegramChannel // nil when no bot token is set
	Bot        *tgbotapi.BotAPI
}

// Option configures Open.
type Option func(*options)

type options struct {
	storeOnly bool
}

// StoreOnly opens the backend for editing only: no timers are armed and no
// delivery channel is connected. reminderd, sharing the backend, fires the
// reminders and picks edits up on SIGHUP or restart.
func StoreOnly() Option { return func(o *options) { o.storeOnly = true } }

// Open builds the subsystem and rehydrates stored reminders.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger, opts ...Option) (*Core, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	kv, err := OpenKV(ctx, cfg)
	if err != nil {
		return nil, err
	}
	log.Info("storage ready", zap.String("driver", cfg.StorageDriver))

	c := &Core{KV: kv}

	var primary notify.Channel
	if cfg.WebPushEnabled() && !o.storeOnly {
		c.WebPush = notify.NewWebPushChannel(kv, notify.VAPID{
			PublicKey:  cfg.VAPIDPublicKey,
			PrivateKey: cfg.VAPIDPrivateKey,
			Subscriber: cfg.VAPIDSubscriber,
		}, log)
		primary = c.WebPush
	}

	var fallback notify.Channel = notify.NewLogChannel(log)
	if cfg.TelegramToken != "" && !o.storeOnly {
		bot, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
		if err != nil {
			_ = kv.Close()
			return nil, fmt.Errorf("telegram: %w", err)
		}
		bot.Debug = false
		c.Bot = bot
		c.Telegram = notify.NewTelegramChannel(bot, kv, log)
		fallback = c.Telegram
	}

	prompter := permissionPolicy(cfg.NotifyPermission, primary, fallback)
	c.Dispatcher = notify.NewDispatcher(kv, prompter, primary, fallback, log)
	c.Scheduler = scheduler.New(c.Dispatcher, log,
		scheduler.WithClock(clock.New(loc)),
		scheduler.WithDispatchTimeout(cfg.DispatchTimeout),
	)
	var svcOpts []reminder.ServiceOption
	if o.storeOnly {
		svcOpts = append(svcOpts, reminder.StoreOnly())
	}
	c.Service = reminder.NewService(store.NewReminderStore(kv, log), c.Scheduler, c.Dispatcher, log, svcOpts...)

	if _, err := c.Service.Rehydrate(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("rehydrate: %w", err)
	}
	if cfg.SeedDefaults {
		if _, err := c.Service.SeedDefaults(ctx); err != nil {
			c.Close()
			return nil, err
		}
	}
	return c, nil
}

// Close stops every timer and closes the backend.
func (c *Core) Close() error {
	c.Scheduler.Stop()
	return c.KV.Close()
}

// OpenKV opens the configured backend.
func OpenKV(ctx context.Context, cfg config.Config) (store.KV, error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		return store.OpenSQLite(ctx, cfg.DBPath)
	case config.DriverRedis:
		return store.OpenRedis(ctx, cfg.RedisURL)
	case config.DriverMemory:
		return store.NewMemoryKV(), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

// permissionPolicy answers the permission prompt on behalf of the user.
// With auto, permission is granted once some channel can deliver and the
// prompt is left unanswered otherwise.
func permissionPolicy(policy string, channels ...notify.Channel) notify.Prompter {
	switch policy {
	case config.PermissionGranted:
		return notify.Answer(notify.PermissionGranted)
	case config.PermissionDenied:
		return notify.Answer(notify.PermissionDenied)
	}
	return notify.PrompterFunc(func(ctx context.Context) (notify.Permission, error) {
		for _, ch := range channels {
			if ch != nil && ch.Ready(ctx) {
				return notify.PermissionGranted, nil
			}
		}
		return notify.PermissionDefault, nil
	})
}

