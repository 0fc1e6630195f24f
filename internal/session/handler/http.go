// Package handler exposes the session lifecycle over HTTP: login,
// token refresh, and logout.
package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"user-session-api/internal/apperr"
	"user-session-api/internal/audit"
	"user-session-api/internal/security"
	"user-session-api/internal/server/middleware"
	"user-session-api/internal/server/respond"
	"user-session-api/internal/session/service"
	userdomain "user-session-api/internal/user/domain"
)

// Handler serves the session endpoints.
type Handler struct {
	svc     *service.Service
	cookies *security.CookieManager
	audit   audit.AuditLogger
}

// New returns a session Handler. auditLogger may be nil.
func New(svc *service.Service, cookies *security.CookieManager, auditLogger audit.AuditLogger) *Handler {
	return &Handler{svc: svc, cookies: cookies, audit: auditLogger}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User  userdomain.Response `json:"user"`
	Token string              `json:"token"`
}

func (h *Handler) logEvent(r *http.Request, userUUID, action string) {
	if h.audit == nil {
		return
	}
	h.audit.LogEvent(r.Context(), userUUID, action, "session", "")
}

// Create handles POST /api/sessions: login. The credential is returned
// in the body for API clients and set as a cookie for browsers. Logging
// in with an active session rotates it instead of failing.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Err(w, apperr.Validation("Payload must be an object, got malformed JSON"))
		return
	}
	res, err := h.svc.Create(r.Context(), service.CreateInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		h.logEvent(r, "", "login_failure")
		respond.Err(w, err)
		return
	}
	h.logEvent(r, res.User.UUID, "login")
	h.cookies.Set(w, res.Token)
	respond.JSON(w, http.StatusCreated, sessionResponse{User: res.User, Token: res.Token})
}

// Update handles PUT /api/sessions: token refresh for the caller's own
// session. When the rotation ceiling is hit the session is torn down —
// the row deleted, the cookie cleared — and the client must log in again.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok || id == nil {
		respond.Err(w, apperr.Unauthorized("missing or invalid authorization"))
		return
	}
	res, err := h.svc.Update(r.Context(), id.UserID)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindUnauthorized {
			if rmErr := h.svc.Remove(r.Context(), id.UserID); rmErr != nil {
				log.Printf("session: teardown after refresh denial: %v", rmErr)
			}
			h.cookies.Clear(w)
			h.logEvent(r, id.UserID, "refresh_denied")
			respond.Err(w, err)
			return
		}
		respond.Err(w, err)
		return
	}
	h.logEvent(r, id.UserID, "refresh")
	h.cookies.Set(w, res.Token)
	respond.JSON(w, http.StatusOK, sessionResponse{User: res.User, Token: res.Token})
}

// Delete handles DELETE /api/sessions: logout. The guard is optional, so
// a stale or missing credential still clears the cookie and succeeds;
// logout is not a place to fail.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	if id != nil {
		if err := h.svc.Remove(r.Context(), id.UserID); err != nil {
			log.Printf("session: logout cleanup for %s: %v", id.UserID, err)
		}
		h.logEvent(r, id.UserID, "logout")
	} else {
		h.logEvent(r, "", "logout")
	}
	h.cookies.Clear(w)
	respond.NoContent(w)
}
