package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/ykvlv/warrior-reminders/internal/domain"
	"github.com/ykvlv/warrior-reminders/internal/notify"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxBody = 64 << 10

var errBadJSON = errors.New("invalid JSON body")

type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into dst and runs struct validation.
func (s *Server) decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		return fmt.Errorf("%w: %v", errBadJSON, err)
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, dst); err != nil {
			return fmt.Errorf("%w: %v", errBadJSON, err)
		}
	}
	return s.validate.Struct(dst)
}

// fail maps service errors onto HTTP statuses.
func (s *Server) fail(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[strings.ToLower(fe.Field())] = fe.Tag()
		}
		writeJSON(w, http.StatusBadRequest, apiError{Error: verrs[0].Error(), Fields: fields})
	case errors.Is(err, errBadJSON),
		errors.Is(err, domain.ErrInvalid),
		errors.Is(err, domain.ErrInvalidDuration),
		errors.Is(err, domain.ErrEmptyDuration),
		errors.Is(err, domain.ErrTooSmall),
		errors.Is(err, domain.ErrTooLarge),
		errors.Is(err, notify.ErrInvalidSubscription):
		writeJSON(w, http.StatusBadRequest, apiError{Error: err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyExists):
		writeJSON(w, http.StatusConflict, apiError{Error: err.Error()})
	default:
		s.log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
	}
}
