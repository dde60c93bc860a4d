package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/isdelr/filevault-be/internal/auth"
	"github.com/isdelr/filevault-be/internal/services"
	"github.com/rs/zerolog/log"
)

// UserHandler handles HTTP requests for accounts and sessions.
type UserHandler struct {
	service       services.IdentityServiceProvider
	secureCookies bool
	sessionTTL    time.Duration
}

// NewUserHandler creates a new UserHandler. secureCookies marks the session
// cookie Secure, which production deployments behind TLS want.
func NewUserHandler(service services.IdentityServiceProvider, secureCookies bool, sessionTTL time.Duration) *UserHandler {
	if sessionTTL <= 0 {
		sessionTTL = services.DefaultSessionTTL
	}
	return &UserHandler{service: service, secureCookies: secureCookies, sessionTTL: sessionTTL}
}

// RegisterPayload defines the structure for registration requests.
type RegisterPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
}

// LoginPayload defines the structure for login requests.
type LoginPayload struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register handles new user registration.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload RegisterPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	payload.Username = strings.TrimSpace(payload.Username)
	payload.Email = strings.TrimSpace(payload.Email)

	if err := h.service.Register(payload.Username, payload.Password, payload.Email); err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed to register user")
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusCreated, "User registered successfully")
}

// Login authenticates the user and hands out a session token, both in the
// body and as an HttpOnly cookie.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if !decodeJSON(w, r, &payload) {
		return
	}

	payload.Username = strings.TrimSpace(payload.Username)

	token, err := h.service.Login(payload.Username, payload.Password)
	if err != nil {
		log.Warn().Err(err).Str("username", payload.Username).Msg("Failed authentication attempt")
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Expires:  time.Now().Add(h.sessionTTL),
		MaxAge:   int(h.sessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	writeJSON(w, http.StatusOK, map[string]string{
		"message":       "Login successful",
		"session_token": token,
		"username":      payload.Username,
	})
}

// Logout ends the session the request was authenticated with.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.SessionTokenFromContext(r.Context())
	if err := h.service.Logout(token); err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
		Path:     "/",
	})
	writeMessage(w, http.StatusOK, "Logout successful")
}

// ForgotPassword issues a reset token and mails the link to the account's address.
func (h *UserHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.service.RequestPasswordReset(strings.TrimSpace(payload.Email)); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset instructions sent")
}

// ResetPassword redeems a reset token.
func (h *UserHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.service.ResetPassword(payload.Token, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Password reset successful")
}

// GetMe returns the profile of the authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())
	info, err := h.service.UserInfo(username)
	if err != nil {
		log.Error().Err(err).Str("username", username).Msg("User from session not found")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// UpdateEmail changes the authenticated user's email address.
func (h *UserHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	username, _ := auth.UsernameFromContext(r.Context())
	var payload struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &payload) {
		return
	}

	if err := h.service.UpdateEmail(username, strings.TrimSpace(payload.Email)); err != nil {
		writeError(w, err)
		return
	}
	writeMessage(w, http.StatusOK, "Email updated successfully")
}
