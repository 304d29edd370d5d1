package common

import (
	"errors"
	"log"
	"net/http"

	"github.com/matst80/slask-tyres/pkg/common/jsoncompat"
	"github.com/matst80/slask-tyres/pkg/types"
)

// StatusError carries the status a handler wants for err.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string { return e.Err.Error() }

func (e *StatusError) Unwrap() error { return e.Err }

func BadRequest(err error) error {
	return &StatusError{Status: http.StatusBadRequest, Err: err}
}

// StatusFor maps catalog errors to response codes.
func StatusFor(err error) int {
	var se *StatusError
	switch {
	case errors.As(err, &se):
		return se.Status
	case errors.Is(err, types.ErrInvalidId):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrNoDataset):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

type headerTracker struct {
	http.ResponseWriter
	wrote bool
}

func (w *headerTracker) WriteHeader(status int) {
	w.wrote = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *headerTracker) Write(b []byte) (int, error) {
	w.wrote = true
	return w.ResponseWriter.Write(b)
}

// JsonHandler adapts a catalog handler. The handler gets the visitor's
// session id and a JSON encoder on the response. An error returned before
// anything was written becomes a JSON error body with the mapped status.
func JsonHandler(fn func(w http.ResponseWriter, r *http.Request, sessionId string, enc jsoncompat.Encoder) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			RespondToOptions(w, r)
			return
		}
		sessionId := HandleSessionCookie(w, r)
		w.Header().Set("Content-Type", "application/json")

		tw := &headerTracker{ResponseWriter: w}
		err := fn(tw, r, sessionId, jsoncompat.NewEncoder(tw))
		if err == nil {
			return
		}
		status := StatusFor(err)
		if status >= http.StatusInternalServerError {
			log.Printf("Error handling %s %s: %v", r.Method, r.URL.Path, err)
		}
		if tw.wrote {
			return
		}
		w.WriteHeader(status)
		_ = jsoncompat.NewEncoder(w).Encode(struct {
			Error string `json:"error"`
		}{err.Error()})
	}
}

// RespondToOptions answers CORS preflight for the catalog api, which
// includes DELETE for favorites.
func RespondToOptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "public, max-age=3600")
	if origin := r.Header.Get("Origin"); origin != "" {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Max-Age", "86400")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
	}
	w.WriteHeader(http.StatusNoContent)
}
