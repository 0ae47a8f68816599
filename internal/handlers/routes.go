package handlers

import "net/http"

// Router bundles the handlers served by the API
type Router struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Progress   *ProgressHandler
	Parent     *ParentHandler
	Health     *HealthHandler
	Metrics    http.Handler
}

// Handler builds the route table wrapped in request logging
func (rt *Router) Handler() http.Handler {
	mw := rt.Middleware
	mux := http.NewServeMux()

	// Operational
	mux.HandleFunc("GET /healthz", rt.Health.Health)
	mux.Handle("GET /metrics", rt.Metrics)

	// Sessions and identity
	mux.HandleFunc("POST /api/session", rt.Auth.CreateSession)
	mux.HandleFunc("GET /api/session", mw.RequireSession(rt.Auth.GetSession))
	mux.HandleFunc("POST /api/auth/register", mw.RequireSession(rt.Auth.Register))
	mux.HandleFunc("POST /api/auth/login", mw.RequireSession(rt.Auth.Login))
	mux.HandleFunc("POST /api/auth/pin", mw.RateLimit(mw.RequireSession(rt.Auth.LoginWithPIN)))
	mux.HandleFunc("POST /api/auth/demo", mw.RequireSession(rt.Auth.EnterDemo))
	mux.HandleFunc("POST /api/auth/logout", mw.RequireSession(rt.Auth.Logout))
	mux.HandleFunc("GET /auth/{provider}/start", mw.RequireSession(rt.Auth.StartOAuth))
	mux.HandleFunc("GET /auth/{provider}/callback", mw.RequireSession(rt.Auth.OAuthCallback))

	// Progress
	mux.HandleFunc("GET /api/progress", mw.RequireSession(rt.Progress.GetProgress))
	mux.HandleFunc("POST /api/progress/complete", mw.RequireSession(rt.Progress.CompleteChapter))
	mux.HandleFunc("POST /api/progress/points", mw.RequireSession(rt.Progress.AddPoints))
	mux.HandleFunc("POST /api/progress/reload", mw.RequireSession(rt.Progress.Reload))
	mux.HandleFunc("POST /api/progress/cursor", mw.RequireSession(rt.Progress.SetCursor))
	mux.HandleFunc("GET /api/courses", mw.RequireSession(rt.Progress.Courses))
	mux.HandleFunc("GET /api/levels", rt.Progress.Levels)

	// Parent dashboard
	mux.HandleFunc("GET /api/parent/learners", mw.RequireParent(rt.Parent.ListLearners))
	mux.HandleFunc("POST /api/parent/learners", mw.RequireParent(rt.Parent.CreateLearner))
	mux.HandleFunc("DELETE /api/parent/learners/{id}", mw.RequireParent(rt.Parent.DeleteLearner))
	mux.HandleFunc("POST /api/parent/learners/{id}/pin", mw.RequireParent(rt.Parent.RegeneratePIN))
	mux.HandleFunc("GET /api/parent/learners/{id}/export", mw.RequireParent(rt.Parent.ExportLearner))

	return mw.Logging(mux)
}
