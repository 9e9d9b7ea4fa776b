package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory("Health-Check")
	if err != nil || c != CategoryHealthCheck {
		t.Fatalf("got %q, %v", c, err)
	}
	if c, _ := ParseCategory(""); c != CategoryCustom {
		t.Fatalf("empty should be custom, got %q", c)
	}
	if _, err := ParseCategory("vitamins"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("want ErrInvalid, got %v", err)
	}
}

func TestPatchApply(t *testing.T) {
	r := ReminderConfig{ID: "r1", Time: MustTimeOfDay("08:00"), Title: "Meds", Body: "Take pills", Category: CategoryMedication, Enabled: true}

	same := "Meds"
	if _, changed := (Patch{Title: &same}).Apply(r); changed {
		t.Fatal("identical title must not count as a change")
	}

	at := MustTimeOfDay("09:30")
	off := false
	got, changed := (Patch{Time: &at, Enabled: &off}).Apply(r)
	if !changed || got.Time != at || got.Enabled || got.Title != "Meds" {
		t.Fatalf("unexpected merge: %+v changed=%v", got, changed)
	}
	if !(Patch{}).Empty() {
		t.Fatal("zero patch must be empty")
	}
}

func TestValidate(t *testing.T) {
	ok := ReminderConfig{ID: "r1", Time: MustTimeOfDay("08:00"), Category: CategoryWater}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid record rejected: %v", err)
	}
	longest := ok
	longest.ID = strings.Repeat("x", MaxIDLen)
	if err := longest.Validate(); err != nil {
		t.Fatalf("id of %d bytes rejected: %v", MaxIDLen, err)
	}
	bad := []ReminderConfig{
		{ID: " ", Time: MustTimeOfDay("08:00")},
		{ID: "r1", Time: TimeOfDay{Hour: 25}},
		{ID: "r1", Category: "snacks"},
		{ID: strings.Repeat("x", MaxIDLen+1), Time: MustTimeOfDay("08:00")},
	}
	for _, r := range bad {
		if err := r.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%+v: want ErrInvalid, got %v", r, err)
		}
	}
}

func TestOptionsFor(t *testing.T) {
	med := OptionsFor(CategoryMedication)
	if !med.RequireInteraction || med.Tag != "warrior-medication" || len(med.Actions) != 2 {
		t.Fatalf("medication options: %+v", med)
	}
	if !OptionsFor(CategoryAppointment).RequireInteraction {
		t.Fatal("appointment must require interaction")
	}
	water := OptionsFor(CategoryWater)
	if water.RequireInteraction || water.Tag != "warrior-water" || water.Icon != Icon {
		t.Fatalf("water options: %+v", water)
	}
	if OptionsFor("bogus").Tag != "warrior-custom" {
		t.Fatal("unknown category must fall back to custom")
	}
}

func TestTemplatesAndDefaults(t *testing.T) {
	if len(Templates()) != 5 {
		t.Fatalf("want 5 templates, got %d", len(Templates()))
	}
	if _, ok := TemplateFor(CategoryCustom); ok {
		t.Fatal("custom has no template")
	}
	for _, r := range DefaultReminders() {
		if r.Enabled {
			t.Fatalf("%s: defaults are seeded disabled", r.ID)
		}
		if err := r.Validate(); err != nil {
			t.Fatalf("%s: %v", r.ID, err)
		}
	}
}
