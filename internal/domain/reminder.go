package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound      = errors.New("reminder not found")
	ErrAlreadyExists = errors.New("reminder already exists")
	ErrInvalid       = errors.New("invalid reminder")
)

// MaxIDLen bounds reminder ids in bytes so an id fits Telegram's 64-byte
// callback data next to its action prefix.
const MaxIDLen = 48

// Category drives default notification behaviour. The wire name is "type".
type Category string

const (
	CategoryMedication  Category = "medication"
	CategoryWater       Category = "water"
	CategoryHealthCheck Category = "health-check"
	CategoryExercise    Category = "exercise"
	CategoryAppointment Category = "appointment"
	CategoryCustom      Category = "custom"
)

// Categories lists the closed set in display order.
func Categories() []Category {
	return []Category{
		CategoryMedication,
		CategoryWater,
		CategoryHealthCheck,
		CategoryExercise,
		CategoryAppointment,
		CategoryCustom,
	}
}

// ParseCategory validates s against the closed set. Empty means custom.
func ParseCategory(s string) (Category, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return CategoryCustom, nil
	}
	for _, c := range Categories() {
		if string(c) == s {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w: unknown category %q", ErrInvalid, s)
}

// Label is the human name of a category.
func (c Category) Label() string {
	switch c {
	case CategoryMedication:
		return "Medication"
	case CategoryWater:
		return "Hydration"
	case CategoryHealthCheck:
		return "Health Check"
	case CategoryExercise:
		return "Exercise"
	case CategoryAppointment:
		return "Appointment"
	default:
		return "Custom"
	}
}

// ReminderConfig is one user-defined daily reminder.
type ReminderConfig struct {
	ID       string    `json:"id"`
	Time     TimeOfDay `json:"time"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Category Category  `json:"type"`
	Enabled  bool      `json:"enabled"`
}

// Validate checks the fields a record needs to be stored and scheduled.
func (r ReminderConfig) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalid)
	}
	if len(r.ID) > MaxIDLen {
		return fmt.Errorf("%w: id longer than %d bytes", ErrInvalid, MaxIDLen)
	}
	if !r.Time.Valid() {
		return fmt.Errorf("%w: time %s out of range", ErrInvalid, r.Time)
	}
	if _, err := ParseCategory(string(r.Category)); err != nil {
		return err
	}
	return nil
}

// Patch holds optional fields for a partial update; nil means unchanged.
type Patch struct {
	Time     *TimeOfDay
	Title    *string
	Body     *string
	Category *Category
	Enabled  *bool
}

// Apply merges p into r and reports whether any scheduling-relevant field changed.
func (p Patch) Apply(r ReminderConfig) (ReminderConfig, bool) {
	changed := false
	if p.Time != nil && *p.Time != r.Time {
		r.Time, changed = *p.Time, true
	}
	if p.Title != nil && *p.Title != r.Title {
		r.Title, changed = *p.Title, true
	}
	if p.Body != nil && *p.Body != r.Body {
		r.Body, changed = *p.Body, true
	}
	if p.Category != nil && *p.Category != r.Category {
		r.Category, changed = *p.Category, true
	}
	if p.Enabled != nil && *p.Enabled != r.Enabled {
		r.Enabled, changed = *p.Enabled, true
	}
	return r, changed
}

// Empty reports whether the patch carries no fields.
func (p Patch) Empty() bool {
	return p.Time == nil && p.Title == nil && p.Body == nil && p.Category == nil && p.Enabled == nil
}
