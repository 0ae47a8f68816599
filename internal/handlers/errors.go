package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"nextgenschool/internal/identity"
	"nextgenschool/internal/logger"
	"nextgenschool/internal/repository"
	"nextgenschool/internal/security"
	"nextgenschool/internal/service"
	"nextgenschool/internal/session"
	"nextgenschool/internal/validation"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func respondWithError(w http.ResponseWriter, log *logger.Logger, status int, userMsg, logMsg string, err error) {
	if err != nil {
		if logMsg == "" {
			logMsg = userMsg
		}
		if status >= http.StatusInternalServerError {
			log.Error(logMsg, "error", err)
		} else {
			log.Debug(logMsg, "error", err)
		}
	}

	respondWithJSON(w, status, errorResponse{Error: userMsg})
}

// respondWithServiceError maps domain errors onto HTTP statuses. Anything
// unrecognised is a 500 and is logged with logMsg.
func respondWithServiceError(w http.ResponseWriter, log *logger.Logger, logMsg string, err error) {
	var ve validation.ValidationError
	switch {
	case errors.As(err, &ve):
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: ve.Message, Field: ve.Field})
	case identity.IsAuthError(err),
		errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, security.ErrInvalidToken),
		errors.Is(err, security.ErrInvalidState):
		respondWithError(w, log, http.StatusUnauthorized, ErrUnauthorized, logMsg, err)
	case errors.Is(err, session.ErrChapterLocked):
		respondWithError(w, log, http.StatusForbidden, ErrChapterLocked, "", nil)
	case errors.Is(err, service.ErrNotYourLearner):
		respondWithError(w, log, http.StatusForbidden, ErrForbidden, logMsg, err)
	case errors.Is(err, service.ErrLearnerNotFound),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, session.ErrNotFound):
		respondWithError(w, log, http.StatusNotFound, ErrNotFound, logMsg, err)
	case errors.Is(err, service.ErrEmailTaken):
		respondWithError(w, log, http.StatusConflict, "Email already registered", logMsg, err)
	case errors.Is(err, service.ErrPINSpaceBusy):
		respondWithError(w, log, http.StatusServiceUnavailable, "Could not allocate a PIN, try again", logMsg, err)
	default:
		respondWithError(w, log, http.StatusInternalServerError, ErrInternalServerError, logMsg, err)
	}
}

// decodeJSON reads a bounded JSON body into v, rejecting unknown fields
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
