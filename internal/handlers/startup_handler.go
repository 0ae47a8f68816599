package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// Startup step names reported by /healthz
const (
	StepDatabase   = "Database connection"
	StepMigrations = "Running migrations"
	StepCache      = "Local progress cache"
	StepServices   = "Initializing services"
)

// StartupStatus tracks the initialization progress
type StartupStatus struct {
	mu       sync.RWMutex
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
}

type StartupStep struct {
	Name      string `json:"name"`
	Completed bool   `json:"completed"`
}

// NewStartupStatus creates a status with every step pending
func NewStartupStatus() *StartupStatus {
	st := &StartupStatus{Current: "Initializing..."}
	for _, name := range []string{StepDatabase, StepMigrations, StepCache, StepServices} {
		st.Steps = append(st.Steps, StartupStep{Name: name})
	}
	return st
}

// SetCurrentStep updates the current initialization step
func (st *StartupStatus) SetCurrentStep(step string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.Current = step
}

// CompleteStep marks a step as completed and updates progress
func (st *StartupStatus) CompleteStep(stepName string) {
	st.mu.Lock()
	defer st.mu.Unlock()

	for i := range st.Steps {
		if st.Steps[i].Name == stepName {
			st.Steps[i].Completed = true
			break
		}
	}

	completed := 0
	for _, step := range st.Steps {
		if step.Completed {
			completed++
		}
	}
	st.Progress = (completed * 100) / len(st.Steps)
}

// MarkReady marks the server as fully initialized
func (st *StartupStatus) MarkReady() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.Ready = true
	st.Current = "Server ready"
	st.Progress = 100
}

// IsReady returns whether the server is fully initialized
func (st *StartupStatus) IsReady() bool {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.Ready
}

// Pinger is satisfied by the database handle
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports readiness and database reachability
type HealthHandler struct {
	status *StartupStatus
	db     Pinger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(status *StartupStatus, db Pinger) *HealthHandler {
	return &HealthHandler{status: status, db: db}
}

type healthResponse struct {
	Ready    bool          `json:"ready"`
	Current  string        `json:"current"`
	Progress int           `json:"progress"`
	Steps    []StartupStep `json:"steps"`
	Database string        `json:"database"`
}

// Health answers 200 once startup finished and the database responds
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.status.mu.RLock()
	resp := healthResponse{
		Ready:    h.status.Ready,
		Current:  h.status.Current,
		Progress: h.status.Progress,
		Steps:    append([]StartupStep(nil), h.status.Steps...),
		Database: "ok",
	}
	h.status.mu.RUnlock()

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.PingContext(ctx); err != nil {
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	respondWithJSON(w, status, resp)
}
