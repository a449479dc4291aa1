package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"fintrack/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeStoreError maps domain errors onto HTTP statuses: unknown records are
// 404, validation failures 422, everything else 500.
func writeStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidQuantity),
		errors.Is(err, core.ErrInvalidKind),
		errors.Is(err, core.ErrInvalidPeriod),
		errors.Is(err, core.ErrInvalidWindow),
		errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrEmptyName),
		errors.Is(err, core.ErrEmptyLender),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrKindMismatch):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method, "url", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// requireUserID reads the user_id query parameter; every /api route is scoped
// by it.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		writeError(w, http.StatusBadRequest, "user_id query parameter is required")
		return "", false
	}
	return userID, true
}

// requirePeriod reads the start and end query parameters as YYYY-MM-DD.
func requirePeriod(w http.ResponseWriter, r *http.Request) (core.Date, core.Date, bool) {
	from, err := core.ParseDate(strings.TrimSpace(r.URL.Query().Get("start")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "start must be a YYYY-MM-DD date")
		return core.Date{}, core.Date{}, false
	}
	to, err := core.ParseDate(strings.TrimSpace(r.URL.Query().Get("end")))
	if err != nil {
		writeError(w, http.StatusBadRequest, "end must be a YYYY-MM-DD date")
		return core.Date{}, core.Date{}, false
	}
	if to.Time.Before(from.Time) {
		writeError(w, http.StatusBadRequest, "end must not precede start")
		return core.Date{}, core.Date{}, false
	}
	return from, to, true
}

// optionalDate reads an optional YYYY-MM-DD query parameter.
func optionalDate(w http.ResponseWriter, r *http.Request, key string) (*core.Date, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, true
	}
	d, err := core.ParseDate(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, key+" must be a YYYY-MM-DD date")
		return nil, false
	}
	return &d, true
}
