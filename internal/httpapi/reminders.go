package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ykvlv/warrior-reminders/internal/domain"
	"github.com/ykvlv/warrior-reminders/internal/scheduler"
)

type createReminderRequest struct {
	ID      string `json:"id" validate:"omitempty,max=48"`
	Time    string `json:"time" validate:"required"`
	Title   string `json:"title" validate:"required,max=200"`
	Body    string `json:"body" validate:"max=1000"`
	Type    string `json:"type" validate:"omitempty,max=32"`
	Enabled *bool  `json:"enabled"`
}

func (req createReminderRequest) config() (domain.ReminderConfig, error) {
	tod, err := domain.ParseTimeOfDay(req.Time)
	if err != nil {
		return domain.ReminderConfig{}, err
	}
	cat, err := domain.ParseCategory(req.Type)
	if err != nil {
		return domain.ReminderConfig{}, err
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	return domain.ReminderConfig{
		ID:       req.ID,
		Time:     tod,
		Title:    req.Title,
		Body:     req.Body,
		Category: cat,
		Enabled:  enabled,
	}, nil
}

type patchReminderRequest struct {
	Time    *string `json:"time"`
	Title   *string `json:"title" validate:"omitempty,min=1,max=200"`
	Body    *string `json:"body" validate:"omitempty,max=1000"`
	Type    *string `json:"type"`
	Enabled *bool   `json:"enabled"`
}

func (req patchReminderRequest) patch() (domain.Patch, error) {
	p := domain.Patch{Title: req.Title, Body: req.Body, Enabled: req.Enabled}
	if req.Time != nil {
		tod, err := domain.ParseTimeOfDay(*req.Time)
		if err != nil {
			return p, err
		}
		p.Time = &tod
	}
	if req.Type != nil {
		cat, err := domain.ParseCategory(*req.Type)
		if err != nil {
			return p, err
		}
		p.Category = &cat
	}
	return p, nil
}

func (s *Server) listReminders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.List())
}

func (s *Server) createReminder(w http.ResponseWriter, r *http.Request) {
	var req createReminderRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	cfg, err := req.config()
	if err != nil {
		s.fail(w, err)
		return
	}
	v, err := s.svc.Create(r.Context(), cfg)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) getReminder(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Get(mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) updateReminder(w http.ResponseWriter, r *http.Request) {
	var req patchReminderRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	p, err := req.patch()
	if err != nil {
		s.fail(w, err)
		return
	}
	v, err := s.svc.Update(r.Context(), mux.Vars(r)["id"], p)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) toggleReminder(w http.ResponseWriter, r *http.Request) {
	v, err := s.svc.Toggle(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) deleteReminder(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) clearReminders(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearAll(r.Context()); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listTemplates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Templates())
}

type intervalRequest struct {
	ID    string `json:"id" validate:"omitempty,max=39"`
	Every string `json:"every" validate:"required"`
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"max=1000"`
	Type  string `json:"type" validate:"omitempty,max=32"`
}

type intervalView struct {
	ID       string          `json:"id"`
	Every    string          `json:"every"`
	NextFire time.Time       `json:"next_fire"`
	Title    string          `json:"title"`
	Body     string          `json:"body"`
	Category domain.Category `json:"type"`
}

func viewInterval(e scheduler.Entry) intervalView {
	return intervalView{
		ID:       e.ID,
		Every:    e.Every.String(),
		NextFire: e.NextFire,
		Title:    e.Title,
		Body:     e.Body,
		Category: e.Category,
	}
}

func (s *Server) listIntervals(w http.ResponseWriter, _ *http.Request) {
	entries := s.svc.Intervals()
	out := make([]intervalView, 0, len(entries))
	for _, e := range entries {
		out = append(out, viewInterval(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) startInterval(w http.ResponseWriter, r *http.Request) {
	var req intervalRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	every, err := domain.ParseDurationHuman(req.Every)
	if err != nil {
		s.fail(w, err)
		return
	}
	cat, err := domain.ParseCategory(req.Type)
	if err != nil {
		s.fail(w, err)
		return
	}
	e, err := s.svc.StartInterval(scheduler.Interval{
		ID:       req.ID,
		Every:    every,
		Title:    req.Title,
		Body:     req.Body,
		Category: cat,
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewInterval(e))
}

func (s *Server) stopInterval(w http.ResponseWriter, r *http.Request) {
	if !s.svc.StopInterval(mux.Vars(r)["id"]) {
		s.fail(w, domain.ErrNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
