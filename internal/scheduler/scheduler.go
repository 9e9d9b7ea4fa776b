package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/clock"
	"github.com/ykvlv/warrior-reminders/internal/domain"
)

// ErrStopped is returned by arm calls after Stop.
var ErrStopped = errors.New("scheduler stopped")

// Dispatcher delivers a fired notification. It must not block longer than
// the context allows and reports delivery as a bool, never as a panic.
type Dispatcher interface {
	Dispatch(ctx context.Context, n domain.Notification) bool
}

// Kind tells daily reminders from fixed-period ones.
type Kind string

const (
	KindDaily    Kind = "daily"
	KindInterval Kind = "interval"
)

// Interval is a runtime-only reminder repeating every Every.
type Interval struct {
	ID       string          `json:"id"`
	Every    time.Duration   `json:"every"`
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Category domain.Category `json:"type"`
}

// Validate checks the id and the period bounds.
func (iv Interval) Validate() error {
	if strings.TrimSpace(iv.ID) == "" {
		return fmt.Errorf("%w: empty id", domain.ErrInvalid)
	}
	if len(iv.ID) > domain.MaxIDLen {
		return fmt.Errorf("%w: id longer than %d bytes", domain.ErrInvalid, domain.MaxIDLen)
	}
	if iv.Every < domain.MinInterval {
		return fmt.Errorf("%w: %w", domain.ErrInvalid, domain.ErrTooSmall)
	}
	if iv.Every > domain.MaxInterval {
		return fmt.Errorf("%w: %w", domain.ErrInvalid, domain.ErrTooLarge)
	}
	return nil
}

// Entry is a snapshot of one armed timer.
type Entry struct {
	ID       string          `json:"id"`
	Kind     Kind            `json:"kind"`
	NextFire time.Time       `json:"next_fire"`
	Every    time.Duration   `json:"every,omitempty"`
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Category domain.Category `json:"type"`
}

type entry struct {
	id     string
	kind   Kind
	gen    uint64
	tod    domain.TimeOfDay
	every  time.Duration
	target time.Time // next scheduled fire
	note   domain.Notification
	timer  clock.Timer
}

// Scheduler keeps at most one pending timer per id. A fired daily entry is
// re-armed for its following occurrence before the notification goes out.
//
// Timer callbacks run on their own goroutines; every callback carries the
// generation it was armed with and does nothing once the entry was
// cancelled or replaced.
type Scheduler struct {
	clock    clock.Clock
	disp     Dispatcher
	log      *zap.Logger
	maxDelay time.Duration
	recheck  time.Duration
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	gen     uint64
	entries map[string]*entry
	stopped bool
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the system clock.
func WithClock(c clock.Clock) Option { return func(s *Scheduler) { s.clock = c } }

// WithMaxDelay sets the largest delay armed in one timer.
func WithMaxDelay(d time.Duration) Option { return func(s *Scheduler) { s.maxDelay = d } }

// WithRecheck sets the intermediate wake-up used above the max delay.
func WithRecheck(d time.Duration) Option { return func(s *Scheduler) { s.recheck = d } }

// WithDispatchTimeout bounds a single dispatch.
func WithDispatchTimeout(d time.Duration) Option { return func(s *Scheduler) { s.timeout = d } }

// New creates a scheduler delivering through disp.
func New(disp Dispatcher, log *zap.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		clock:    clock.New(time.UTC),
		disp:     disp,
		log:      log,
		maxDelay: domain.MaxTimerDelay,
		recheck:  domain.DefaultRecheck,
		timeout:  15 * time.Second,
		ctx:      ctx,
		cancel:   cancel,
		entries:  make(map[string]*entry),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Now is the scheduler's clock reading.
func (s *Scheduler) Now() time.Time { return s.clock.Now() }

// ArmDaily cancels any pending timer for r.ID and, when r is enabled, arms
// one for the next occurrence of r.Time. It returns the fire time, or the
// zero time for a disabled reminder.
func (s *Scheduler) ArmDaily(r domain.ReminderConfig) (time.Time, error) {
	if err := r.Validate(); err != nil {
		return time.Time{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return time.Time{}, ErrStopped
	}

	s.cancelLocked(r.ID)
	if !r.Enabled {
		return time.Time{}, nil
	}

	e := &entry{
		id:     r.ID,
		kind:   KindDaily,
		tod:    r.Time,
		target: domain.NextOccurrence(s.clock.Now(), r.Time),
		note:   domain.NotificationFor(r),
	}
	s.installLocked(e)
	s.log.Debug("reminder armed",
		zap.String("id", r.ID),
		zap.String("time", r.Time.String()),
		zap.Time("next_fire", e.target),
	)
	return e.target, nil
}

// ArmInterval replaces any pending timer for iv.ID with one firing every iv.Every.
func (s *Scheduler) ArmInterval(iv Interval) (time.Time, error) {
	if err := iv.Validate(); err != nil {
		return time.Time{}, err
	}
	if iv.Category == "" {
		iv.Category = domain.CategoryCustom
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return time.Time{}, ErrStopped
	}

	s.cancelLocked(iv.ID)
	opts := domain.OptionsFor(iv.Category)
	opts.Body = iv.Body
	e := &entry{
		id:     iv.ID,
		kind:   KindInterval,
		every:  iv.Every,
		target: s.clock.Now().Add(iv.Every),
		note: domain.Notification{
			ReminderID: iv.ID,
			Category:   iv.Category,
			Title:      iv.Title,
			Options:    opts,
		},
	}
	s.installLocked(e)
	s.log.Debug("interval armed",
		zap.String("id", iv.ID),
		zap.Duration("every", iv.Every),
		zap.Time("next_fire", e.target),
	)
	return e.target, nil
}

// Cancel drops the pending timer for id. It reports whether one existed.
func (s *Scheduler) Cancel(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(id)
}

// CancelAll drops every pending timer and returns how many there were.
func (s *Scheduler) CancelAll() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.entries)
	for id := range s.entries {
		s.cancelLocked(id)
	}
	return n
}

// Armed reports whether id has a pending timer.
func (s *Scheduler) Armed(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[id]
	return ok
}

// NextFire returns the scheduled fire time of id.
func (s *Scheduler) NextFire(id string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[id]
	if !ok {
		return time.Time{}, false
	}
	return e.target, true
}

// Entries snapshots the armed timers, soonest first.
func (s *Scheduler) Entries() []Entry {
	s.mu.Lock()
	out := make([]Entry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, Entry{
			ID:       e.id,
			Kind:     e.kind,
			NextFire: e.target,
			Every:    e.every,
			Title:    e.note.Title,
			Body:     e.note.Options.Body,
			Category: e.note.Category,
		})
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].NextFire.Equal(out[j].NextFire) {
			return out[i].NextFire.Before(out[j].NextFire)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Run blocks until ctx is canceled, then stops the scheduler.
func (s *Scheduler) Run(ctx context.Context) {
	<-ctx.Done()
	s.log.Info("scheduler stopping")
	s.Stop()
}

// Stop cancels all timers, aborts in-flight dispatches and waits for them.
// Later arm calls fail with ErrStopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for id := range s.entries {
		s.cancelLocked(id)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) cancelLocked(id string) bool {
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	if e.timer != nil {
		e.timer.Stop()
	}
	delete(s.entries, id)
	return true
}

func (s *Scheduler) installLocked(e *entry) {
	s.gen++
	e.gen = s.gen
	s.entries[e.id] = e
	s.armTimerLocked(e)
}

// armTimerLocked schedules the next wake-up towards e.target. Delays above
// maxDelay become a recheck wake-up that recomputes against the same target.
func (s *Scheduler) armTimerLocked(e *entry) {
	delay := e.target.Sub(s.clock.Now())
	wait, final := domain.SplitDelay(delay, s.maxDelay, s.recheck)
	id, gen := e.id, e.gen
	e.timer = s.clock.AfterFunc(wait, func() { s.wake(id, gen, final) })
}

func (s *Scheduler) wake(id string, gen uint64, final bool) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || e.gen != gen {
		s.mu.Unlock()
		return
	}
	if !final {
		s.armTimerLocked(e)
		s.mu.Unlock()
		return
	}

	now := s.clock.Now()
	scheduled := e.target
	switch e.kind {
	case KindInterval:
		e.target = domain.FollowingInterval(scheduled, now, e.every)
	default:
		e.target = domain.FollowingOccurrence(scheduled, now, e.tod)
	}
	s.armTimerLocked(e)
	note := e.note
	s.wg.Add(1)
	s.mu.Unlock()

	defer s.wg.Done()
	s.dispatch(id, scheduled, note)
}

func (s *Scheduler) dispatch(id string, scheduled time.Time, n domain.Notification) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("dispatch panicked", zap.String("id", id), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(s.ctx, s.timeout)
	defer cancel()

	if !s.disp.Dispatch(ctx, n) {
		s.log.Warn("reminder not delivered", zap.String("id", id), zap.Time("scheduled", scheduled))
		return
	}
	s.log.Info("reminder delivered", zap.String("id", id), zap.Time("scheduled", scheduled))
}
