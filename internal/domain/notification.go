package domain

// Icon is served by the web client next to the service worker.
const Icon = "/warriors-journal.png"

// Action is a button on a persistent notification.
type Action struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

// NotificationOptions mirrors the option bag the web client's service worker
// passes to showNotification.
type NotificationOptions struct {
	Body               string   `json:"body,omitempty"`
	Icon               string   `json:"icon,omitempty"`
	Badge              string   `json:"badge,omitempty"`
	Tag                string   `json:"tag,omitempty"`
	RequireInteraction bool     `json:"requireInteraction"`
	Silent             bool     `json:"silent"`
	Actions            []Action `json:"actions,omitempty"`
}

// Notification is one alert ready for a delivery channel.
type Notification struct {
	ReminderID string              `json:"reminderId,omitempty"`
	Category   Category            `json:"type"`
	Title      string              `json:"title"`
	Options    NotificationOptions `json:"options"`
}

// OptionsFor returns the defaults for a category. Medication and
// appointment alerts stay on screen until dismissed.
func OptionsFor(c Category) NotificationOptions {
	if _, err := ParseCategory(string(c)); err != nil || c == "" {
		c = CategoryCustom
	}
	opts := NotificationOptions{
		Icon:  Icon,
		Badge: Icon,
		Tag:   "warrior-" + string(c),
	}
	switch c {
	case CategoryMedication:
		opts.RequireInteraction = true
		opts.Actions = []Action{
			{Action: "taken", Title: "Mark as Taken"},
			{Action: "snooze", Title: "Remind Later"},
		}
	case CategoryAppointment:
		opts.RequireInteraction = true
	}
	return opts
}

// NotificationFor builds the alert a reminder fires.
func NotificationFor(r ReminderConfig) Notification {
	opts := OptionsFor(r.Category)
	opts.Body = r.Body
	return Notification{
		ReminderID: r.ID,
		Category:   r.Category,
		Title:      r.Title,
		Options:    opts,
	}
}

// Template is the suggested text for a category.
type Template struct {
	Category Category `json:"type"`
	Title    string   `json:"title"`
	Body     string   `json:"body"`
}

var templates = map[Category]Template{
	CategoryMedication: {
		Category: CategoryMedication,
		Title:    "Medication Reminder",
		Body:     "Time to take your medication. Stay on track with your health!",
	},
	CategoryWater: {
		Category: CategoryWater,
		Title:    "Hydration Reminder",
		Body:     "Remember to drink water and stay hydrated!",
	},
	CategoryHealthCheck: {
		Category: CategoryHealthCheck,
		Title:    "Daily Health Check",
		Body:     "Time for your daily health journal entry. How are you feeling today?",
	},
	CategoryExercise: {
		Category: CategoryExercise,
		Title:    "Exercise Reminder",
		Body:     "A little movement can make a big difference. Time for some exercise!",
	},
	CategoryAppointment: {
		Category: CategoryAppointment,
		Title:    "Appointment Reminder",
		Body:     "You have an upcoming appointment. Don't forget!",
	},
}

// Templates returns the predefined templates in category order. Custom has none.
func Templates() []Template {
	out := make([]Template, 0, len(templates))
	for _, c := range Categories() {
		if t, ok := templates[c]; ok {
			out = append(out, t)
		}
	}
	return out
}

// TemplateFor looks up the template of a category.
func TemplateFor(c Category) (Template, bool) {
	t, ok := templates[c]
	return t, ok
}

// DefaultReminders are seeded, disabled, into an empty store.
func DefaultReminders() []ReminderConfig {
	seed := func(id, at string, c Category) ReminderConfig {
		t := templates[c]
		return ReminderConfig{
			ID:       id,
			Time:     MustTimeOfDay(at),
			Title:    t.Title,
			Body:     t.Body,
			Category: c,
			Enabled:  false,
		}
	}
	return []ReminderConfig{
		seed("default_medication", "08:00", CategoryMedication),
		seed("default_water", "10:00", CategoryWater),
		seed("default_health_check", "20:00", CategoryHealthCheck),
	}
}
