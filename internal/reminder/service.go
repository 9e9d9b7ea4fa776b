// Package reminder composes the store, the scheduler and notification
// dispatch behind the operations every UI uses.
package reminder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/domain"
	"github.com/ykvlv/warrior-reminders/internal/scheduler"
	"github.com/ykvlv/warrior-reminders/internal/store"
)

// IntervalIDPrefix marks runtime-only interval reminders.
const IntervalIDPrefix = "interval_"

// View is a reminder with its scheduling state.
type View struct {
	domain.ReminderConfig
	Armed    bool       `json:"armed"`
	NextFire *time.Time `json:"next_fire,omitempty"`
}

// ErrStoreOnly is returned by timer operations of a store-only service.
var ErrStoreOnly = errors.New("reminder service has no timers")

// Service keeps the store and the scheduler in step: every persisted change
// is followed by the matching arm or cancel. mu makes each store write and
// its scheduler call one step, so concurrent callers cannot interleave them.
type Service struct {
	store     *store.ReminderStore
	sched     *scheduler.Scheduler
	disp      scheduler.Dispatcher
	log       *zap.Logger
	storeOnly bool

	mu sync.Mutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// StoreOnly makes the service edit records without arming timers. Another
// process owning the same backend fires them.
func StoreOnly() ServiceOption { return func(s *Service) { s.storeOnly = true } }

func NewService(st *store.ReminderStore, sched *scheduler.Scheduler, disp scheduler.Dispatcher, log *zap.Logger, opts ...ServiceOption) *Service {
	s := &Service{store: st, sched: sched, disp: disp, log: log}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewID returns a fresh reminder id.
func NewID() string { return uuid.NewString() }

// Rehydrate reloads every record and arms the enabled ones. It runs at
// process start and on reload; it is not a creation event. Timers of
// reminders no longer in the backend are cancelled. Interval reminders are
// left alone.
func (s *Service) Rehydrate(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.store.GetAll()
	all, err := s.store.LoadAll(ctx)
	if err != nil {
		return 0, err
	}

	present := make(map[string]struct{}, len(all))
	armed := 0
	for _, r := range all {
		present[r.ID] = struct{}{}
		if err := s.arm(r); err != nil {
			s.log.Error("rehydrate: arm failed", zap.String("id", r.ID), zap.Error(err))
			continue
		}
		if r.Enabled && !s.storeOnly {
			armed++
		}
	}
	for _, r := range before {
		if _, ok := present[r.ID]; !ok {
			s.cancel(r.ID)
		}
	}
	s.log.Info("reminders rehydrated", zap.Int("total", len(all)), zap.Int("armed", armed))
	return armed, nil
}

func (s *Service) arm(r domain.ReminderConfig) error {
	if s.storeOnly {
		return nil
	}
	_, err := s.sched.ArmDaily(r)
	return err
}

func (s *Service) cancel(id string) {
	if !s.storeOnly {
		s.sched.Cancel(id)
	}
}

// SeedDefaults stores the default reminders, disabled, when the store is
// empty. It returns how many were added.
func (s *Service) SeedDefaults(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.store.Len() > 0 {
		return 0, nil
	}
	n := 0
	for _, r := range domain.DefaultReminders() {
		if _, err := s.store.Create(ctx, r); err != nil {
			return n, fmt.Errorf("seed %s: %w", r.ID, err)
		}
		n++
	}
	s.log.Info("default reminders seeded", zap.Int("count", n))
	return n, nil
}

// Create persists r and arms it when enabled. An empty id gets a fresh one.
func (s *Service) Create(ctx context.Context, r domain.ReminderConfig) (View, error) {
	if strings.TrimSpace(r.ID) == "" {
		r.ID = NewID()
	}
	if strings.HasPrefix(r.ID, IntervalIDPrefix) {
		return View{}, fmt.Errorf("%w: id prefix %q is reserved", domain.ErrInvalid, IntervalIDPrefix)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	created, err := s.store.Create(ctx, r)
	if err != nil {
		return View{}, err
	}
	if err := s.arm(created); err != nil {
		return View{}, err
	}
	s.log.Info("reminder created", zap.String("id", created.ID), zap.Bool("enabled", created.Enabled))
	return s.view(created), nil
}

// CreateFromTemplate creates an enabled reminder from the category template.
func (s *Service) CreateFromTemplate(ctx context.Context, c domain.Category, at domain.TimeOfDay) (View, error) {
	t, ok := domain.TemplateFor(c)
	if !ok {
		return View{}, fmt.Errorf("%w: no template for %q", domain.ErrInvalid, c)
	}
	return s.Create(ctx, domain.ReminderConfig{
		Time:     at,
		Title:    t.Title,
		Body:     t.Body,
		Category: t.Category,
		Enabled:  true,
	})
}

// Update applies p and re-arms when anything changed.
func (s *Service) Update(ctx context.Context, id string, p domain.Patch) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	updated, changed, err := s.store.Update(ctx, id, p)
	if err != nil {
		return View{}, err
	}
	if changed {
		if err := s.arm(updated); err != nil {
			return View{}, err
		}
		s.log.Info("reminder updated", zap.String("id", id), zap.Bool("enabled", updated.Enabled))
	}
	return s.view(updated), nil
}

// Toggle flips enabled.
func (s *Service) Toggle(ctx context.Context, id string) (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	toggled, err := s.store.Toggle(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := s.arm(toggled); err != nil {
		return View{}, err
	}
	s.log.Info("reminder toggled", zap.String("id", id), zap.Bool("enabled", toggled.Enabled))
	return s.view(toggled), nil
}

// Delete removes a reminder and then cancels its timer. A failed delete
// keeps the timer. Unknown ids are not an error.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.cancel(id)
	s.log.Info("reminder deleted", zap.String("id", id))
	return nil
}

// ClearAll removes every record and then cancels every timer, intervals
// included. A failed clear keeps the timers.
func (s *Service) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	n := 0
	if !s.storeOnly {
		n = s.sched.CancelAll()
	}
	s.log.Info("all reminders cleared", zap.Int("timers", n))
	return nil
}

func (s *Service) Get(id string) (View, error) {
	r, err := s.store.Get(id)
	if err != nil {
		return View{}, err
	}
	return s.view(r), nil
}

// List returns every reminder in insertion order.
func (s *Service) List() []View {
	all := s.store.GetAll()
	out := make([]View, 0, len(all))
	for _, r := range all {
		out = append(out, s.view(r))
	}
	return out
}

func (s *Service) Templates() []domain.Template { return domain.Templates() }

// StartInterval arms a runtime-only reminder repeating every iv.Every.
// Interval reminders are not persisted and do not survive a restart.
func (s *Service) StartInterval(iv scheduler.Interval) (scheduler.Entry, error) {
	if s.storeOnly {
		return scheduler.Entry{}, ErrStoreOnly
	}
	if strings.TrimSpace(iv.ID) == "" {
		iv.ID = IntervalIDPrefix + NewID()
	}
	if !strings.HasPrefix(iv.ID, IntervalIDPrefix) {
		iv.ID = IntervalIDPrefix + iv.ID
	}
	next, err := s.sched.ArmInterval(iv)
	if err != nil {
		return scheduler.Entry{}, err
	}
	if iv.Category == "" {
		iv.Category = domain.CategoryCustom
	}
	return scheduler.Entry{
		ID:       iv.ID,
		Kind:     scheduler.KindInterval,
		NextFire: next,
		Every:    iv.Every,
		Title:    iv.Title,
		Body:     iv.Body,
		Category: iv.Category,
	}, nil
}

// Intervals lists the running interval reminders.
func (s *Service) Intervals() []scheduler.Entry {
	if s.storeOnly {
		return nil
	}
	var out []scheduler.Entry
	for _, e := range s.sched.Entries() {
		if e.Kind == scheduler.KindInterval {
			out = append(out, e)
		}
	}
	return out
}

// StopInterval cancels an interval reminder. It reports whether one was running.
func (s *Service) StopInterval(id string) bool {
	if s.storeOnly || !strings.HasPrefix(id, IntervalIDPrefix) {
		return false
	}
	return s.sched.Cancel(id)
}

// SendTest dispatches a sample notification right away.
func (s *Service) SendTest(ctx context.Context) bool {
	opts := domain.OptionsFor(domain.CategoryCustom)
	opts.Body = "Notifications are working. You will be reminded on time."
	return s.disp.Dispatch(ctx, domain.Notification{
		Category: domain.CategoryCustom,
		Title:    "Test Notification",
		Options:  opts,
	})
}

func (s *Service) view(r domain.ReminderConfig) View {
	v := View{ReminderConfig: r}
	if s.storeOnly {
		if r.Enabled {
			next := domain.NextOccurrence(s.sched.Now(), r.Time)
			v.NextFire = &next
		}
		return v
	}
	if next, ok := s.sched.NextFire(r.ID); ok {
		v.Armed = true
		v.NextFire = &next
	}
	return v
}
