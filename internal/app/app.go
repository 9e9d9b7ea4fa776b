package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/config"
	"github.com/ykvlv/warrior-reminders/internal/httpapi"
	"github.com/ykvlv/warrior-reminders/internal/telegram"
)

var errNoBot = errors.New("telegram bot is not configured")

// App is the reminders daemon: REST API, optional Telegram bot and the
// scheduler behind them.
type App struct {
	cfg     config.Config
	log     *zap.Logger
	httpSrv *http.Server
	core    *Core
	router  *telegram.Router
}

func New(cfg config.Config, log *zap.Logger) (*App, error) {
	return &App{cfg: cfg, log: log}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.log.Info("starting warrior-reminders",
		zap.String("http", a.cfg.HTTPAddr),
		zap.String("storage", a.cfg.StorageDriver),
		zap.String("tz", a.cfg.DefaultTZ),
		zap.Bool("webpush", a.cfg.WebPushEnabled()),
		zap.Bool("telegram", a.cfg.TelegramToken != ""),
	)

	core, err := Open(ctx, a.cfg, a.log)
	if err != nil {
		a.log.Error("init failed", zap.Error(err))
		return err
	}
	a.core = core

	var push httpapi.Subscriptions
	if core.WebPush != nil {
		push = core.WebPush
	}
	api := httpapi.NewServer(core.Service, core.Dispatcher, push, a.log)
	a.httpSrv = &http.Server{
		Addr:         a.cfg.HTTPAddr,
		Handler:      api.Handler(a.cfg.CORSOrigins),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := a.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("http server error", zap.Error(err))
		}
	}()

	if err := a.startTelegram(ctx); err != nil && !errors.Is(err, errNoBot) {
		a.log.Warn("telegram disabled", zap.Error(err))
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("shutdown signal received")
			a.shutdown()
			return nil
		case <-hup:
			a.reload(ctx)
		}
	}
}

// reload rereads the backend so edits made by another process, such as
// mcp-reminder, are armed.
func (a *App) reload(ctx context.Context) {
	armed, err := a.core.Service.Rehydrate(ctx)
	if err != nil {
		a.log.Error("reload failed", zap.Error(err))
		return
	}
	a.log.Info("reminders reloaded", zap.Int("armed", armed))
}

func (a *App) startTelegram(ctx context.Context) error {
	if a.core.Bot == nil {
		return errNoBot
	}
	a.router = telegram.NewRouter(a.core.Bot, a.log, a.core.Service, a.core.Telegram, a.core.Dispatcher)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updCh := a.core.Bot.GetUpdatesChan(u)

	go a.router.Poll(ctx, updCh)
	a.log.Info("telegram polling started", zap.String("bot", a.core.Bot.Self.UserName))
	return nil
}

func (a *App) shutdown() {
	// Create a short-lived shutdown context and cancel it immediately after use.
	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err := a.httpSrv.Shutdown(shCtx)
	cancel()
	if err != nil {
		a.log.Warn("http server shutdown error", zap.Error(err))
	}

	if a.core.Bot != nil {
		a.core.Bot.StopReceivingUpdates()
	}
	if err := a.core.Close(); err != nil {
		a.log.Warn("storage close error", zap.Error(err))
	}
	a.log.Info("stopped")
}
