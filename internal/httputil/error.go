package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/bracket-engine/internal/bracket"
)

type errorBody struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	WriteJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error"})
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusBadRequest, "bad request", msg, err)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusNotFound, "not found", msg, err)
}

func Conflict(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusConflict, "conflict", msg, err)
}

func UnprocessableEntity(w http.ResponseWriter, msg string, err error) {
	clientError(w, http.StatusUnprocessableEntity, "unprocessable entity", msg, err)
}

// Error picks the response for an error coming out of the bracket engine or
// a store. Caller errors echo the error text; everything else is a 500.
func Error(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, bracket.ErrNotFound):
		NotFound(w, err.Error(), err)
	case errors.Is(err, bracket.ErrAlreadyCompleted), errors.Is(err, bracket.ErrMatchNotReady):
		Conflict(w, err.Error(), err)
	case errors.Is(err, bracket.ErrInconsistentResult):
		UnprocessableEntity(w, err.Error(), err)
	case errors.Is(err, bracket.ErrInsufficientEntrants),
		errors.Is(err, bracket.ErrUnsupportedFormat),
		errors.Is(err, bracket.ErrInvalidEntrant):
		BadRequest(w, err.Error(), err)
	default:
		InternalServerError(w, msg, err)
	}
}

func clientError(w http.ResponseWriter, status int, kind, msg string, err error) {
	if err != nil {
		slog.Warn(kind, "message", msg, "error", err)
	} else {
		slog.Warn(kind, "message", msg)
	}
	WriteJSON(w, status, errorBody{Error: msg})
}
