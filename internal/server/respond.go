package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"aetheria-site/internal/draft"
	"aetheria-site/internal/pages"
	"aetheria-site/internal/storage"
)

const (
	messageSuccess = "success"
	messageError   = "error"
)

// message is the toast shown by the admin panel. It is sent both in the HX-Trigger header
// and in the JSON body.
type message struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type messageEnvelope struct {
	ShowMessage message `json:"showMessage"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode JSON response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		s.logger.Debug().Err(err).Msg("Failed to write response")
	}
}

// triggerMessage sets the HX-Trigger header carrying a showMessage event.
func triggerMessage(w http.ResponseWriter, kind, text string) {
	event, _ := json.Marshal(messageEnvelope{ShowMessage: message{Message: text, Type: kind}})
	w.Header().Set("HX-Trigger", string(event))
}

// showMessage answers with only a message.
func (s *Server) showMessage(w http.ResponseWriter, status int, kind, text string) {
	triggerMessage(w, kind, text)
	s.writeJSON(w, status, messageEnvelope{ShowMessage: message{Message: text, Type: kind}})
}

// fail maps a draft or storage error to a status code and reports it as an error message.
func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error().Err(err).Msg("Request failed")
	}
	s.showMessage(w, status, messageError, err.Error())
}

func statusFor(err error) int {
	var (
		pathErr   *draft.PathError
		collision *pages.SlugCollisionError
	)
	switch {
	case errors.As(err, &pathErr):
		return http.StatusBadRequest
	case errors.Is(err, draft.ErrIncompleteItem):
		return http.StatusUnprocessableEntity
	case errors.Is(err, draft.ErrUnknownID):
		return http.StatusNotFound
	case errors.As(err, &collision):
		return http.StatusConflict
	case errors.Is(err, storage.ErrQuotaExceeded):
		return http.StatusInsufficientStorage
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON request body into v, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
