package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"caretrack/internal/audit"
	"caretrack/internal/middleware"
	"caretrack/internal/service"
)

// Common error message constants shared across handlers
const (
	ErrMsgInvalidRequestBody = "Invalid request body"
	ErrMsgUnauthorized       = "Unauthorized"
	ErrMsgInvalidID          = "Invalid ID in path"
)

// Role names carried in tokens issued by the identity service
const (
	RoleAdmin       = "admin"
	RoleAssessor    = "assessor"
	RoleCoordinator = "coordinator"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := JSONEncode(w, payload); err != nil {
			// headers already sent; nothing left to do but note it
			return
		}
	}
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps the service error taxonomy to HTTP statuses
func respondWithServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotLinked):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAlreadyResolved):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrConflict):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrExpired):
		respondWithError(w, http.StatusGone, err.Error())
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// pathID parses one numeric path segment from the route pattern
func pathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return uint(id), nil
}

// actorFromRequest builds the audit actor for the current request
func actorFromRequest(r *http.Request) audit.Actor {
	actor := audit.Actor{
		IPAddress: middleware.GetIP(r),
		UserAgent: r.UserAgent(),
	}
	if userID, ok := middleware.GetUserID(r); ok {
		id := userID
		actor.ID = &id
	}
	if name, ok := middleware.GetUserName(r); ok {
		actor.Name = name
	}
	return actor
}

// hasRole reports whether the caller carries the role
func hasRole(r *http.Request, roleName string) bool {
	roles, ok := middleware.GetRoles(r)
	if !ok {
		return false
	}
	for _, role := range roles {
		if role == roleName {
			return true
		}
	}
	return false
}

func decodeBody(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
