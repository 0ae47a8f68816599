package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"nextgenschool/internal/logger"
	"nextgenschool/internal/service"
)

// ParentHandler handles a parent's learner management
type ParentHandler struct {
	learnerService *service.LearnerService
	backupService  *service.BackupService
	log            *logger.Logger
}

// NewParentHandler creates a new parent handler
func NewParentHandler(learnerService *service.LearnerService, backupService *service.BackupService, log *logger.Logger) *ParentHandler {
	return &ParentHandler{
		learnerService: learnerService,
		backupService:  backupService,
		log:            log,
	}
}

type createLearnerRequest struct {
	Name string `json:"name"`
	Age  int    `json:"age"`
}

// ListLearners returns the parent's learners with their PINs
func (h *ParentHandler) ListLearners(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())

	learners, err := h.learnerService.GetParentLearners(r.Context(), s.Identity().ParentID)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to list learners", err)
		return
	}

	views := make([]LearnerView, 0, len(learners))
	for _, l := range learners {
		views = append(views, newLearnerView(l))
	}
	respondWithJSON(w, http.StatusOK, views)
}

// CreateLearner adds a learner and refreshes the aggregate dashboard
func (h *ParentHandler) CreateLearner(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())

	var req createLearnerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	learner, err := h.learnerService.CreateLearner(r.Context(), s.Identity().ParentID, req.Name, req.Age)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to create learner", err)
		return
	}

	s.Reload(r.Context())
	respondWithJSON(w, http.StatusCreated, newLearnerView(*learner))
}

// DeleteLearner removes a learner and their progress
func (h *ParentHandler) DeleteLearner(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())

	if err := h.learnerService.DeleteLearner(r.Context(), s.Identity().ParentID, r.PathValue("id")); err != nil {
		respondWithServiceError(w, h.log, "failed to delete learner", err)
		return
	}

	s.Reload(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// RegeneratePIN issues a new PIN for a learner
func (h *ParentHandler) RegeneratePIN(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())

	learner, err := h.learnerService.RegeneratePIN(r.Context(), s.Identity().ParentID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to regenerate pin", err)
		return
	}
	respondWithJSON(w, http.StatusOK, newLearnerView(*learner))
}

// ExportLearner downloads every record of one learner as JSON
func (h *ParentHandler) ExportLearner(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())

	learner, err := h.learnerService.GetLearner(r.Context(), s.Identity().ParentID, r.PathValue("id"))
	if err != nil {
		respondWithServiceError(w, h.log, "failed to get learner", err)
		return
	}

	var buf bytes.Buffer
	if err := h.backupService.ExportLearner(r.Context(), learner.ID, &buf); err != nil {
		respondWithServiceError(w, h.log, "failed to export learner", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="learner-%s.json"`, learner.ID))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
