package store

import (
	"errors"
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/ykvlv/warrior-reminders/internal/domain"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ReminderKeyPrefix addresses reminder records in the backend.
const ReminderKeyPrefix = "reminder_"

// ErrMalformed marks a persisted record that cannot be decoded.
var ErrMalformed = errors.New("malformed reminder record")

// ReminderKey derives the backend key of a reminder id.
func ReminderKey(id string) string { return ReminderKeyPrefix + id }

// record is the persisted layout: {id, time, title, body, type, enabled}.
type record struct {
	ID      string `json:"id"`
	Time    string `json:"time"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Type    string `json:"type"`
	Enabled *bool  `json:"enabled,omitempty"`
}

func encodeReminder(r domain.ReminderConfig) (string, error) {
	enabled := r.Enabled
	b, err := json.Marshal(record{
		ID:      r.ID,
		Time:    r.Time.String(),
		Title:   r.Title,
		Body:    r.Body,
		Type:    string(r.Category),
		Enabled: &enabled,
	})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// decodeReminder parses a stored record. A missing enabled flag means
// enabled; an unknown type decodes as custom.
func decodeReminder(raw string) (domain.ReminderConfig, error) {
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return domain.ReminderConfig{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if strings.TrimSpace(rec.ID) == "" {
		return domain.ReminderConfig{}, fmt.Errorf("%w: missing id", ErrMalformed)
	}
	tod, err := domain.ParseTimeOfDay(rec.Time)
	if err != nil {
		return domain.ReminderConfig{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	cat, err := domain.ParseCategory(rec.Type)
	if err != nil {
		cat = domain.CategoryCustom
	}
	enabled := true
	if rec.Enabled != nil {
		enabled = *rec.Enabled
	}
	return domain.ReminderConfig{
		ID:       rec.ID,
		Time:     tod,
		Title:    rec.Title,
		Body:     rec.Body,
		Category: cat,
		Enabled:  enabled,
	}, nil
}
