package handlers

import (
	"context"
	"net/http"
	"time"

	"nextgenschool/internal/logger"
	"nextgenschool/internal/security"
	"nextgenschool/internal/service"
	"nextgenschool/internal/session"
)

// AuthHandler handles session and identity transitions
type AuthHandler struct {
	sessions             *session.Manager
	tokens               *security.TokenIssuer
	authService          *service.AuthService
	emailService         *service.EmailService
	oauthProviders       map[string]OAuthProvider
	oauthState           *security.StateSigner
	oauthRedirectBaseURL string
	appBaseURL           string
	log                  *logger.Logger
	now                  func() time.Time
}

// AuthConfig groups the OAuth settings of the auth handler
type AuthConfig struct {
	OAuthProviders       map[string]OAuthProvider
	OAuthState           *security.StateSigner
	OAuthRedirectBaseURL string
	AppBaseURL           string
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(sessions *session.Manager, tokens *security.TokenIssuer, authService *service.AuthService, emailService *service.EmailService, cfg AuthConfig, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		sessions:             sessions,
		tokens:               tokens,
		authService:          authService,
		emailService:         emailService,
		oauthProviders:       cfg.OAuthProviders,
		oauthState:           cfg.OAuthState,
		oauthRedirectBaseURL: cfg.OAuthRedirectBaseURL,
		appBaseURL:           cfg.AppBaseURL,
		log:                  log,
		now:                  time.Now,
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type pinRequest struct {
	PIN string `json:"pin"`
}

// CreateSession starts a guest session and hands out its token
func (h *AuthHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create(r.Context())

	token, expiresAt, err := h.tokens.Issue(s.ID)
	if err != nil {
		h.sessions.Remove(s.ID)
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "failed to issue session token", err)
		return
	}

	security.SetTokenCookie(w, r, token, expiresAt)
	respondWithJSON(w, http.StatusCreated, SessionView{
		Token:     token,
		ExpiresAt: expiresAt,
		StateView: newStateView(s, s.Snapshot(), h.now()),
	})
}

// GetSession returns the identity and progress of the session
func (h *AuthHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())
	respondWithJSON(w, http.StatusOK, newStateView(s, s.Snapshot(), h.now()))
}

// Register creates a parent account and signs the session in as it
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	parent, err := h.authService.Register(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to register parent", err)
		return
	}

	if err := h.emailService.SendWelcomeEmail(context.WithoutCancel(r.Context()), parent.Email, parent.Name); err != nil {
		h.log.Warn("failed to send welcome email", "parent", parent.ID, "error", err)
	}

	snap := s.AcceptParent(r.Context(), parent)
	respondWithJSON(w, http.StatusCreated, newStateView(s, snap, h.now()))
}

// Login authenticates a parent with email and password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	snap, err := s.LoginParent(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to log in parent", err)
		return
	}
	respondWithJSON(w, http.StatusOK, newStateView(s, snap, h.now()))
}

// LoginWithPIN authenticates a learner by PIN
func (h *AuthHandler) LoginWithPIN(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())

	var req pinRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidRequestBody, "", err)
		return
	}

	snap, err := s.LoginWithPIN(r.Context(), req.PIN)
	if err != nil {
		respondWithServiceError(w, h.log, "failed to log in learner", err)
		return
	}
	respondWithJSON(w, http.StatusOK, newStateView(s, snap, h.now()))
}

// EnterDemo switches the session to demo mode
func (h *AuthHandler) EnterDemo(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())
	snap := s.EnterDemo(r.Context())
	respondWithJSON(w, http.StatusOK, newStateView(s, snap, h.now()))
}

// Logout returns the session to guest. The session token stays valid.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	s := GetSessionFromContext(r.Context())
	snap := s.Logout(r.Context())
	respondWithJSON(w, http.StatusOK, newStateView(s, snap, h.now()))
}
