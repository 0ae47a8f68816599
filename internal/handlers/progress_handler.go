package handlers

import (
	"net/http"
	"time"

	"nextgenschool/internal/logger"
	"nextgenschool/internal/progress"
)

// ProgressHandler serves the active session's progress and the catalog
type ProgressHandler struct {
	log *logger.Logger
	now func() time.Time
}

// NewProgressHandler creates a new progress handler
func NewProgressHandler(log *logger.Logger) *ProgressHandler {
	return &ProgressHandler{log: log, now: time.Now}
}

type chapterRequest struct {
	CourseID string `json:"courseId"`
	Chapter  int    `json:"chapter"`
}

type pointsRequest struct {
	Amount int    `json:"amount"`
	Reason string `json:"reason"`
}

// GetProgress returns the current snapshot
func (h *ProgressHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())
	respondWithJSON(w, http.StatusOK, newStateView(s, s.Snapshot(), h.now()))
}

// CompleteChapter marks a chapter completed. Locked chapters are refused.
func (h *ProgressHandler) CompleteChapter(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())

	var req chapterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	snap, err := s.CompleteChapter(r.Context(), req.CourseID, req.Chapter)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to complete chapter", err)
		return
	}
	respondWithJSON(w, http.StatusOK, newStateView(s, snap, h.now()))
}

// AddPoints grants bonus points
func (h *ProgressHandler) AddPoints(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())

	var req pointsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	if req.Amount == 0 {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{Error: "amount must not be zero", Field: "amount"})
		return
	}

	snap := s.AddPoints(r.Context(), req.Amount, req.Reason)
	respondWithJSON(w, http.StatusOK, newStateView(s, snap, h.now()))
}

// SetCursor selects a course and chapter
func (h *ProgressHandler) SetCursor(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())

	var req chapterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}
	if err := s.SetCursor(req.CourseID, req.Chapter); err != nil {
		respondWithServiceError(w, h.log, "failed to set cursor", err)
		return
	}
	respondWithJSON(w, http.StatusOK, newStateView(s, s.Snapshot(), h.now()))
}

// Reload rebuilds the snapshot from the identity's store
func (h *ProgressHandler) Reload(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())
	snap := s.Reload(r.Context())
	respondWithJSON(w, http.StatusOK, newStateView(s, snap, h.now()))
}

// Courses lists the catalog with per-session lock and completion flags
func (h *ProgressHandler) Courses(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())
	respondWithJSON(w, http.StatusOK, newCourseViews(s))
}

// Levels lists the level ladder
func (h *ProgressHandler) Levels(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, progress.Levels())
}
