package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/techradar/apiserver/internal/services"
	"github.com/techradar/apiserver/internal/store"
)

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError translates service errors into status codes. Internal
// causes are logged with detail but surfaced generically.
func writeServiceError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: validationErr.Message,
			Field: validationErr.Field,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrBadCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, services.ErrInvalidRefreshToken):
		writeError(w, http.StatusUnauthorized, "invalid refresh token")
	case errors.Is(err, services.ErrForbidden),
		errors.Is(err, services.ErrPrivateWorkspace),
		errors.Is(err, services.ErrOwnerCannotLeave):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrDuplicateEmail),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrDuplicateName):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrSlugTaken),
		errors.Is(err, services.ErrCannotModifySelf),
		errors.Is(err, services.ErrCannotRemoveOwner):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrInviteInvalid):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func errInvalidQuery(param string) error {
	return fmt.Errorf("invalid query parameter %q", param)
}

// clientIP extracts the caller address. chi's RealIP middleware has
// already folded X-Forwarded-For into RemoteAddr when present.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
