package store

import (
	"context"
	"fmt"
	"sync"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/domain"
)

// ReminderStore is the durable CRUD layer over reminder records. The backend
// is the source of truth; the in-memory view is rebuilt by LoadAll and kept
// in insertion order so listings are stable within a session.
//
// Every mutation is written to the backend before the view changes, so a
// failed write leaves both untouched.
type ReminderStore struct {
	kv  KV
	log *zap.Logger

	mu    sync.RWMutex
	items *orderedmap.OrderedMap[string, domain.ReminderConfig]
}

// NewReminderStore returns an empty view over kv. Call LoadAll to populate it.
func NewReminderStore(kv KV, log *zap.Logger) *ReminderStore {
	return &ReminderStore{
		kv:    kv,
		log:   log,
		items: orderedmap.New[string, domain.ReminderConfig](),
	}
}

// LoadAll rescans the backend and replaces the view. Malformed records and
// records whose id does not match their key are logged and skipped; they
// never abort the load.
func (s *ReminderStore) LoadAll(ctx context.Context) ([]domain.ReminderConfig, error) {
	keys, err := s.kv.Keys(ctx, ReminderKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("list reminder keys: %w", err)
	}

	items := orderedmap.New[string, domain.ReminderConfig]()
	for _, key := range keys {
		raw, ok, err := s.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		if !ok {
			continue // deleted between Keys and Get
		}
		r, err := decodeReminder(raw)
		if err != nil {
			s.log.Warn("skipping malformed reminder record", zap.String("key", key), zap.Error(err))
			continue
		}
		if ReminderKey(r.ID) != key {
			s.log.Warn("skipping reminder record stored under a foreign key",
				zap.String("key", key), zap.String("id", r.ID))
			continue
		}
		items.Set(r.ID, r)
	}

	s.mu.Lock()
	s.items = items
	s.mu.Unlock()

	s.log.Info("reminders loaded", zap.Int("count", items.Len()), zap.Int("keys", len(keys)))
	return s.GetAll(), nil
}

// Create stores a new reminder. An existing id is rejected with ErrAlreadyExists.
func (s *ReminderStore) Create(ctx context.Context, r domain.ReminderConfig) (domain.ReminderConfig, error) {
	if r.Category == "" {
		r.Category = domain.CategoryCustom
	}
	if err := r.Validate(); err != nil {
		return domain.ReminderConfig{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items.Get(r.ID); exists {
		return domain.ReminderConfig{}, fmt.Errorf("%w: %s", domain.ErrAlreadyExists, r.ID)
	}
	if err := s.persist(ctx, r); err != nil {
		return domain.ReminderConfig{}, err
	}
	s.items.Set(r.ID, r)
	return r, nil
}

// Update merges p into the stored record. changed reports whether any field
// actually differs; an unchanged record is not rewritten.
func (s *ReminderStore) Update(ctx context.Context, id string, p domain.Patch) (domain.ReminderConfig, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items.Get(id)
	if !ok {
		return domain.ReminderConfig{}, false, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	next, changed := p.Apply(cur)
	if !changed {
		return cur, false, nil
	}
	if err := next.Validate(); err != nil {
		return domain.ReminderConfig{}, false, err
	}
	if err := s.persist(ctx, next); err != nil {
		return domain.ReminderConfig{}, false, err
	}
	s.items.Set(id, next)
	return next, true, nil
}

// Toggle flips enabled. Read and write happen under one lock, so concurrent
// toggles each flip once.
func (s *ReminderStore) Toggle(ctx context.Context, id string) (domain.ReminderConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items.Get(id)
	if !ok {
		return domain.ReminderConfig{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	cur.Enabled = !cur.Enabled
	if err := s.persist(ctx, cur); err != nil {
		return domain.ReminderConfig{}, err
	}
	s.items.Set(id, cur)
	return cur, nil
}

// Delete removes a reminder. Deleting an unknown id is not an error.
func (s *ReminderStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(ctx, ReminderKey(id)); err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	s.items.Delete(id)
	return nil
}

// Clear removes every reminder record, including ones not in the view.
func (s *ReminderStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys, err := s.kv.Keys(ctx, ReminderKeyPrefix)
	if err != nil {
		return fmt.Errorf("list reminder keys: %w", err)
	}
	for _, key := range keys {
		if err := s.kv.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete %s: %w", key, err)
		}
	}
	s.items = orderedmap.New[string, domain.ReminderConfig]()
	return nil
}

// Get returns one reminder or ErrNotFound.
func (s *ReminderStore) Get(id string) (domain.ReminderConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.items.Get(id)
	if !ok {
		return domain.ReminderConfig{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return r, nil
}

// GetAll returns every reminder in insertion order.
func (s *ReminderStore) GetAll() []domain.ReminderConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ReminderConfig, 0, s.items.Len())
	for p := s.items.Oldest(); p != nil; p = p.Next() {
		out = append(out, p.Value)
	}
	return out
}

// Len is the number of reminders in the view.
func (s *ReminderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.Len()
}

func (s *ReminderStore) persist(ctx context.Context, r domain.ReminderConfig) error {
	raw, err := encodeReminder(r)
	if err != nil {
		return fmt.Errorf("encode %s: %w", r.ID, err)
	}
	if err := s.kv.Set(ctx, ReminderKey(r.ID), raw); err != nil {
		return fmt.Errorf("persist %s: %w", r.ID, err)
	}
	return nil
}
