package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"nextgenschool/internal/identity"
	"nextgenschool/internal/logger"
	"nextgenschool/internal/service"
	"nextgenschool/internal/session"
	"nextgenschool/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, logger.Nop(), 418, "Teapot", "", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	var body errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "Teapot" {
		t.Fatalf("expected error 'Teapot', got %q", body.Error)
	}
}

func TestRespondWithErrorLogsMessage(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	recorder := httptest.NewRecorder()
	respondWithError(recorder, log, 500, ErrInternalServerError, "", errors.New("boom"))

	if logs.Len() != 1 {
		t.Fatalf("expected one log entry, got %d", logs.Len())
	}
	entry := logs.All()[0]
	if entry.Message != ErrInternalServerError {
		t.Fatalf("expected log to use user message, got %q", entry.Message)
	}
	if entry.Level != zapcore.ErrorLevel {
		t.Fatalf("expected error level, got %v", entry.Level)
	}
	if got := fmt.Sprint(entry.ContextMap()["error"]); got != "boom" {
		t.Fatalf("expected log to include error, got %q", got)
	}
}

func TestRespondWithServiceErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: validation.ValidationError{Field: "pin", Message: "pin must be exactly 4 digits"}, want: http.StatusBadRequest},
		{name: "auth", err: &identity.AuthError{Err: identity.ErrPINNotFound}, want: http.StatusUnauthorized},
		{name: "bad credentials", err: identity.ErrInvalidCredentials, want: http.StatusUnauthorized},
		{name: "chapter locked", err: session.ErrChapterLocked, want: http.StatusForbidden},
		{name: "not your learner", err: service.ErrNotYourLearner, want: http.StatusForbidden},
		{name: "learner not found", err: service.ErrLearnerNotFound, want: http.StatusNotFound},
		{name: "session not found", err: session.ErrNotFound, want: http.StatusNotFound},
		{name: "email taken", err: service.ErrEmailTaken, want: http.StatusConflict},
		{name: "pin space busy", err: service.ErrPINSpaceBusy, want: http.StatusServiceUnavailable},
		{name: "wrapped unknown", err: fmt.Errorf("failed to query: %w", errors.New("disk")), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, logger.Nop(), "", tt.err)
			if recorder.Code != tt.want {
				t.Errorf("status = %d, want %d", recorder.Code, tt.want)
			}
		})
	}
}

func TestValidationErrorCarriesField(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondWithServiceError(recorder, logger.Nop(), "", validation.ValidationError{Field: "age", Message: "age must be between 9 and 13"})

	var body errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Field != "age" {
		t.Fatalf("expected field 'age', got %q", body.Field)
	}
}
