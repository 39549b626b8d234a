package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/ppiankov/saferstep/internal/model"
	"github.com/ppiankov/saferstep/internal/session"
)

const maxBodyBytes = 64 << 10

// Handler serves the session API.
type Handler struct {
	store SessionStore
	log   zerolog.Logger
}

// New creates a session API handler
func New(store SessionStore, logger zerolog.Logger) *Handler {
	return &Handler{store: store, log: logger}
}

// RegisterRoutes registers the session routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions", h.handleCreateSession)
	r.Route("/sessions/{sessionID}", func(sr chi.Router) {
		sr.Get("/", h.handleGetSession)
		sr.Delete("/", h.handleDeleteSession)
		sr.Post("/messages", h.handleSubmit)
		sr.Get("/transcript", h.handleTranscript)
	})
}

type createSessionRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type sessionView struct {
	session.Info
	Transcript []model.Turn `json:"transcript"`
}

type submitRequest struct {
	Content string `json:"content"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var payload createSessionRequest
	if err := decodeJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var loc *model.Location
	switch {
	case payload.Lat != nil && payload.Lng != nil:
		loc = &model.Location{Latitude: *payload.Lat, Longitude: *payload.Lng}
	case payload.Lat != nil || payload.Lng != nil:
		respondError(w, http.StatusBadRequest, "lat and lng must be given together")
		return
	}

	s, err := h.store.Create(loc)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, sessionView{Info: s.Info(), Transcript: s.Transcript()})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.Info())
}

func (h *Handler) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Delete(chi.URLParam(r, "sessionID")); err != nil {
		h.respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var payload submitRequest
	if err := decodeJSON(w, r, &payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	resp, err := s.Submit(r.Context(), payload.Content)
	switch {
	case errors.Is(err, model.ErrEmptyInput):
		respondError(w, http.StatusBadRequest, "content is required")
		return
	case errors.Is(err, model.ErrUtteranceTooLong):
		respondError(w, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		h.log.Error().Err(err).Str("session_id", s.ID).Msg("submit failed")
		respondError(w, http.StatusInternalServerError, "could not process message")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.Transcript())
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.store.Count(),
	})
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.store.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondStoreError(w, err)
		return nil, false
	}
	return s, true
}

func (h *Handler) respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, model.ErrSessionNotFound) {
		respondError(w, http.StatusNotFound, "session not found")
		return
	}
	h.log.Error().Err(err).Msg("session store error")
	respondError(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
