package httpapi

import (
	"net/http"

	"github.com/SherClockHolmes/webpush-go"

	"github.com/ykvlv/warrior-reminders/internal/notify"
)

type permissionView struct {
	notify.Status
	VAPIDPublicKey string `json:"vapid_public_key,omitempty"`
}

type permissionRequest struct {
	// Decision carries the answer the client already collected from the
	// platform prompt. Empty asks the server-side prompter.
	Decision string `json:"decision" validate:"omitempty,oneof=default granted denied"`
}

type subscriptionRequest struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	Keys     struct {
		Auth   string `json:"auth" validate:"required"`
		P256dh string `json:"p256dh" validate:"required"`
	} `json:"keys"`
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
}

func (s *Server) getPermission(w http.ResponseWriter, r *http.Request) {
	st, err := s.notif.Status(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	v := permissionView{Status: st}
	if s.push != nil {
		v.VAPIDPublicKey = s.push.PublicKey()
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) requestPermission(w http.ResponseWriter, r *http.Request) {
	var req permissionRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}

	var (
		granted bool
		err     error
	)
	if req.Decision == "" {
		granted, err = s.notif.RequestPermission(r.Context())
	} else {
		granted, err = s.notif.RequestPermissionWith(r.Context(), notify.Answer(notify.Permission(req.Decision)))
	}
	if err != nil {
		s.fail(w, err)
		return
	}
	st, err := s.notif.Status(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"granted": granted, "permission": st.Permission})
}

func (s *Server) subscribe(w http.ResponseWriter, r *http.Request) {
	if s.push == nil {
		writeJSON(w, http.StatusNotImplemented, apiError{Error: "web push is not configured"})
		return
	}
	var req subscriptionRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	sub := webpush.Subscription{
		Endpoint: req.Endpoint,
		Keys:     webpush.Keys{Auth: req.Keys.Auth, P256dh: req.Keys.P256dh},
	}
	if err := s.push.Subscribe(r.Context(), sub); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

func (s *Server) unsubscribe(w http.ResponseWriter, r *http.Request) {
	if s.push == nil {
		writeJSON(w, http.StatusNotImplemented, apiError{Error: "web push is not configured"})
		return
	}
	var req unsubscribeRequest
	if err := s.decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	if err := s.push.Unsubscribe(r.Context(), req.Endpoint); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) sendTest(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"delivered": s.svc.SendTest(r.Context())})
}
