package notify

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/domain"
	"github.com/ykvlv/warrior-reminders/internal/store"
)

// Dispatcher gates delivery on the stored permission and sends through a
// primary channel with one fallback attempt.
type Dispatcher struct {
	kv       store.KV
	prompter Prompter
	primary  Channel // nil when no persistent channel is configured
	fallback Channel
	log      *zap.Logger

	mu sync.Mutex // serializes permission read-prompt-write
}

// NewDispatcher builds a dispatcher. primary may be nil; fallback must not be.
func NewDispatcher(kv store.KV, prompter Prompter, primary, fallback Channel, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		kv:       kv,
		prompter: prompter,
		primary:  primary,
		fallback: fallback,
		log:      log,
	}
}

// Status describes the delivery setup.
type Status struct {
	Permission Permission `json:"permission"`
	Primary    string     `json:"primary,omitempty"`
	Fallback   string     `json:"fallback"`
	Supported  bool       `json:"supported"`
}

// Status reports permission and channel names. Supported is true when at
// least one channel can deliver right now.
func (d *Dispatcher) Status(ctx context.Context) (Status, error) {
	p, err := d.Permission(ctx)
	if err != nil {
		return Status{}, err
	}
	st := Status{Permission: p, Fallback: d.fallback.Name()}
	if d.primary != nil {
		st.Primary = d.primary.Name()
		st.Supported = d.primary.Ready(ctx)
	}
	st.Supported = st.Supported || d.fallback.Ready(ctx)
	return st, nil
}

// Permission returns the stored decision, default when none is stored.
func (d *Dispatcher) Permission(ctx context.Context) (Permission, error) {
	raw, ok, err := d.kv.Get(ctx, PermissionKey)
	if err != nil {
		return "", fmt.Errorf("read permission: %w", err)
	}
	if !ok {
		return PermissionDefault, nil
	}
	p, err := ParsePermission(raw)
	if err != nil {
		d.log.Warn("ignoring stored permission", zap.String("value", raw))
		return PermissionDefault, nil
	}
	return p, nil
}

// RequestPermission is the explicit user request: it prompts unless
// permission is already granted, including after an earlier denial.
func (d *Dispatcher) RequestPermission(ctx context.Context) (bool, error) {
	return d.RequestPermissionWith(ctx, d.prompter)
}

// RequestPermissionWith is RequestPermission with a one-off prompter, used
// when the UI already collected the user's answer.
func (d *Dispatcher) RequestPermissionWith(ctx context.Context, p Prompter) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, err := d.Permission(ctx)
	if err != nil {
		return false, err
	}
	if cur == PermissionGranted {
		return true, nil
	}
	got, err := d.promptLocked(ctx, p)
	if err != nil {
		return false, err
	}
	return got == PermissionGranted, nil
}

// Dispatch shows n if permission allows. While permission is default the
// user is prompted; once denied it returns false without prompting. Errors
// are logged, never returned.
func (d *Dispatcher) Dispatch(ctx context.Context, n domain.Notification) bool {
	if !d.allowed(ctx) {
		d.log.Debug("notification suppressed", zap.String("reminder_id", n.ReminderID))
		return false
	}

	if d.primary != nil {
		err := d.primary.Show(ctx, n)
		if err == nil {
			return true
		}
		d.log.Warn("primary channel failed, falling back",
			zap.String("channel", d.primary.Name()),
			zap.String("reminder_id", n.ReminderID),
			zap.Error(err),
		)
	}

	if err := d.fallback.Show(ctx, n); err != nil {
		d.log.Error("notification not shown",
			zap.String("channel", d.fallback.Name()),
			zap.String("reminder_id", n.ReminderID),
			zap.Error(err),
		)
		return false
	}
	return true
}

func (d *Dispatcher) allowed(ctx context.Context) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	cur, err := d.Permission(ctx)
	if err != nil {
		d.log.Error("permission unavailable", zap.Error(err))
		return false
	}
	switch cur {
	case PermissionGranted:
		return true
	case PermissionDenied:
		return false
	}
	got, err := d.promptLocked(ctx, d.prompter)
	if err != nil {
		d.log.Error("permission prompt failed", zap.Error(err))
		return false
	}
	return got == PermissionGranted
}

// promptLocked asks p and stores any definite answer.
func (d *Dispatcher) promptLocked(ctx context.Context, p Prompter) (Permission, error) {
	got, err := p.Prompt(ctx)
	if err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	if got, err = ParsePermission(string(got)); err != nil {
		return "", fmt.Errorf("prompt: %w", err)
	}
	if got == PermissionDefault {
		return got, nil
	}
	if err := d.kv.Set(ctx, PermissionKey, string(got)); err != nil {
		return "", fmt.Errorf("store permission: %w", err)
	}
	d.log.Info("notification permission set", zap.String("permission", string(got)))
	return got, nil
}
