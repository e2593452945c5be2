package web

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Envelope is the uniform response body of the catalog API.
// Error carries the original failure detail for diagnostics; its shape
// is not stable across error kinds.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Respond writes an arbitrary payload as JSON.
func Respond(w http.ResponseWriter, logger *slog.Logger, status int, payload any) {
	if payload == nil {
		w.WriteHeader(status)
		return
	}

	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Error encoding response to JSON", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(response)
}

// RespondData writes a success envelope with the given message and data.
func RespondData(w http.ResponseWriter, logger *slog.Logger, status int, message string, data any) {
	Respond(w, logger, status, Envelope{Success: true, Message: message, Data: data})
}

// RespondError writes a failure envelope. err may be nil when there is
// no underlying cause worth surfacing.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, message string, err error) {
	envelope := Envelope{Success: false, Message: message}
	if err != nil {
		envelope.Error = err.Error()
	}
	Respond(w, logger, status, envelope)
}

// ParseID extracts and validates the ID from the request path. Returns the ID and a boolean indicating success.
func ParseID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	pathValueID := r.PathValue("id")
	id, err := uuid.Parse(pathValueID)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid ID: %s", pathValueID), err)
		return uuid.UUID{}, false
	}
	return id, true
}

// RequireUserID retrieves the authenticated user's ID from the request
// context. Returns the user ID and a boolean indicating success.
func RequireUserID(w http.ResponseWriter, r *http.Request, logger *slog.Logger) (uuid.UUID, bool) {
	userID, ok := UserID(r.Context())
	if !ok || userID == "" {
		RespondError(w, logger, http.StatusUnauthorized, "Unauthorized: missing user ID", nil)
		return uuid.Nil, false
	}
	parsed, err := uuid.Parse(userID)
	if err != nil {
		RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid user ID: %s", userID), err)
		return uuid.Nil, false
	}
	return parsed, true
}
