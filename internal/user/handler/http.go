// Package handler exposes user management over HTTP.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"user-session-api/internal/apperr"
	"user-session-api/internal/audit"
	"user-session-api/internal/server/respond"
	"user-session-api/internal/user/domain"
	"user-session-api/internal/user/service"
)

// Handler serves the user CRUD endpoints.
type Handler struct {
	svc   *service.Service
	audit audit.AuditLogger
}

// New returns a user Handler. auditLogger may be nil.
func New(svc *service.Service, auditLogger audit.AuditLogger) *Handler {
	return &Handler{svc: svc, audit: auditLogger}
}

// decodeObject reads the request body as a JSON object. Anything else —
// null, arrays, scalars, malformed JSON — fails validation with the same
// vocabulary the entity layer uses.
func decodeObject(r *http.Request) (map[string]any, error) {
	var v any
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		return nil, apperr.Validation("Payload must be an object, got malformed JSON")
	}
	if v == nil {
		return nil, apperr.Validation("Payload must be an object, got nothing")
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, apperr.Validation("Payload must be an object, got %T", v)
	}
	return obj, nil
}

func (h *Handler) logEvent(r *http.Request, userUUID, action string) {
	if h.audit == nil {
		return
	}
	h.audit.LogEvent(r.Context(), userUUID, action, "user", "")
}

// Create handles POST /api/users: registration, the one public user route.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeObject(r)
	if err != nil {
		respond.Err(w, err)
		return
	}
	user, err := h.svc.Create(r.Context(), payload)
	if err != nil {
		respond.Err(w, err)
		return
	}
	h.logEvent(r, user.UUID, "create")
	respond.JSON(w, http.StatusCreated, user.Response())
}

// Get handles GET /api/users/{uuid}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Get(r.Context(), chi.URLParam(r, "uuid"))
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, user.Response())
}

// List handles GET /api/users.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.svc.List(r.Context())
	if err != nil {
		respond.Err(w, err)
		return
	}
	out := make([]domain.Response, 0, len(users))
	for _, u := range users {
		out = append(out, u.Response())
	}
	respond.JSON(w, http.StatusOK, out)
}

// Update handles PUT /api/users/{uuid}: a partial payload merged and
// re-validated as a whole before anything is persisted.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	payload, err := decodeObject(r)
	if err != nil {
		respond.Err(w, err)
		return
	}
	user, err := h.svc.Update(r.Context(), chi.URLParam(r, "uuid"), payload)
	if err != nil {
		respond.Err(w, err)
		return
	}
	h.logEvent(r, user.UUID, "update")
	respond.JSON(w, http.StatusOK, user.Response())
}

// Delete handles DELETE /api/users/{uuid}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")
	if err := h.svc.Delete(r.Context(), uuid); err != nil {
		respond.Err(w, err)
		return
	}
	h.logEvent(r, uuid, "delete")
	respond.NoContent(w)
}
