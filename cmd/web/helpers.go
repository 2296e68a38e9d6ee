package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/jkorri/gumshoe/internal/engine"
	"github.com/jkorri/gumshoe/internal/errors"
	"github.com/jkorri/gumshoe/internal/repositories"
)

func (app *application) serverError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.LogAttrs(r.Context(), slog.LevelError, "server error",
		slog.String("method", method), slog.String("uri", uri), errors.SlogError(err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (app *application) clientError(w http.ResponseWriter, r *http.Request, status int) {
	var (
		method = r.Method
		uri    = r.URL.RequestURI()
	)

	app.logger.Debug(http.StatusText(status), "method", method, "uri", uri)
	http.Error(w, http.StatusText(status), status)
}

// gameError maps engine failures to HTTP statuses. Anything unrecognized is
// a server error.
func (app *application) gameError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, engine.ErrCaseNotFound),
		errors.Is(err, engine.ErrSessionNotFound),
		errors.Is(err, repositories.ErrNotFound):
		app.clientError(w, r, http.StatusNotFound)
	case errors.Is(err, engine.ErrSessionClosed):
		app.clientError(w, r, http.StatusConflict)
	case errors.Is(err, engine.ErrAuthRequired):
		app.clientError(w, r, http.StatusUnauthorized)
	case errors.Is(err, engine.ErrInvalidVerdict),
		errors.Is(err, engine.ErrNoCharacterAvailable):
		app.clientError(w, r, http.StatusBadRequest)
	case errors.Is(err, engine.ErrGenerationFailed):
		app.logger.LogAttrs(r.Context(), slog.LevelWarn, "generation failed",
			slog.String("uri", r.URL.RequestURI()), errors.SlogError(err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
	default:
		app.serverError(w, r, err)
	}
}

// decodeJSON decodes the request body into dst and writes a 400 on failure.
// It reports whether decoding succeeded.
func (app *application) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		app.clientError(w, r, http.StatusBadRequest)
		return false
	}
	return true
}

func (app *application) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "write response", errors.SlogError(err))
	}
}
