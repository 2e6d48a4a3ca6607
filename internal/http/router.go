// Package http exposes the REST and websocket endpoints.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"sense-adaptive-core/internal/app"
	"sense-adaptive-core/internal/models"
	"sense-adaptive-core/internal/schema"
	"sense-adaptive-core/internal/service/adaptation"
	"sense-adaptive-core/internal/service/command"
)

const maxBodyBytes = 1 << 20

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !application.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	h := &handlers{app: application}

	// API routes
	r.Route("/v1", func(r chi.Router) {
		r.Post("/classify", h.classify)
		r.Post("/score", h.score)
		r.Get("/profiles/{userID}", h.getProfile)
		r.Put("/profiles/{userID}", h.putProfile)
		r.Handle("/ws", application.Gateway)
	})

	return r
}

type handlers struct {
	app *app.Application
}

func (h *handlers) classify(w http.ResponseWriter, r *http.Request) {
	var req models.ClassifyRequest
	if !h.decode(w, r, &req) {
		return
	}
	cmd := h.app.Interpreter.ProcessInContext(req.Text, req.CommandMode, command.Context{
		Route:   req.Route,
		Product: req.Product,
	})
	writeJSON(w, http.StatusOK, cmd)
}

func (h *handlers) score(w http.ResponseWriter, r *http.Request) {
	var req models.ScoreRequest
	if !h.decode(w, r, &req) {
		return
	}
	window := time.Duration(req.WindowSeconds) * time.Second
	writeJSON(w, http.StatusOK, h.app.Scorer.ScoreBatch(req.Events, window, time.Now()))
}

func (h *handlers) getProfile(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	p, err := h.app.Profiles.Get(r.Context(), userID)
	if errors.Is(err, adaptation.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) putProfile(w http.ResponseWriter, r *http.Request) {
	req := models.ProfileRequest{UserID: chi.URLParam(r, "userID")}
	if !h.decode(w, r, &req.Profile) {
		return
	}
	if err := h.app.Validator.Validate(req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := h.app.Profiles.Put(r.Context(), req.UserID, req.Profile); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, req.Profile)
}

// decode reads a JSON body into v and validates structs that carry rules.
func (h *handlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	if err := h.app.Validator.Validate(v); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	code := "internal"
	switch {
	case errors.Is(err, schema.ErrInvalid):
		code = "invalid_request"
	case status == http.StatusBadRequest:
		code = "bad_request"
	case status == http.StatusNotFound:
		code = "not_found"
	}
	writeJSON(w, status, map[string]string{"error": err.Error(), "code": code})
}
