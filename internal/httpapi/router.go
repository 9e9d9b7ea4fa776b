// Package httpapi is the REST layer the web client talks to.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/notify"
	"github.com/ykvlv/warrior-reminders/internal/reminder"
)

// Notifications is the permission side of dispatch.
type Notifications interface {
	Status(ctx context.Context) (notify.Status, error)
	RequestPermission(ctx context.Context) (bool, error)
	RequestPermissionWith(ctx context.Context, p notify.Prompter) (bool, error)
}

// Subscriptions manages Web Push subscriptions.
type Subscriptions interface {
	Subscribe(ctx context.Context, sub webpush.Subscription) error
	Unsubscribe(ctx context.Context, endpoint string) error
	PublicKey() string
}

// Server holds the handler dependencies.
type Server struct {
	svc      *reminder.Service
	notif    Notifications
	push     Subscriptions // nil when Web Push is not configured
	log      *zap.Logger
	validate *validator.Validate
}

func NewServer(svc *reminder.Service, notif Notifications, push Subscriptions, log *zap.Logger) *Server {
	return &Server{
		svc:      svc,
		notif:    notif,
		push:     push,
		log:      log,
		validate: validator.New(),
	}
}

// Handler returns the routed handler wrapped in CORS for origins.
func (s *Server) Handler(origins []string) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }).Methods("GET")

	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/reminders", s.listReminders).Methods("GET")
	api.HandleFunc("/reminders", s.createReminder).Methods("POST")
	api.HandleFunc("/reminders", s.clearReminders).Methods("DELETE")
	api.HandleFunc("/reminders/{id}", s.getReminder).Methods("GET")
	api.HandleFunc("/reminders/{id}", s.updateReminder).Methods("PATCH")
	api.HandleFunc("/reminders/{id}", s.deleteReminder).Methods("DELETE")
	api.HandleFunc("/reminders/{id}/toggle", s.toggleReminder).Methods("POST")

	api.HandleFunc("/templates", s.listTemplates).Methods("GET")

	api.HandleFunc("/intervals", s.listIntervals).Methods("GET")
	api.HandleFunc("/intervals", s.startInterval).Methods("POST")
	api.HandleFunc("/intervals/{id}", s.stopInterval).Methods("DELETE")

	api.HandleFunc("/notifications/permission", s.getPermission).Methods("GET")
	api.HandleFunc("/notifications/permission", s.requestPermission).Methods("POST")
	api.HandleFunc("/notifications/subscriptions", s.subscribe).Methods("POST")
	api.HandleFunc("/notifications/subscriptions", s.unsubscribe).Methods("DELETE")
	api.HandleFunc("/notifications/test", s.sendTest).Methods("POST")

	router.Use(s.logging)

	c := cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)),
		)
	})
}
