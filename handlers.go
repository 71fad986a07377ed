package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Handler handles HTTP requests for food sightings.
type Handler struct {
	repo   *SightingRepository
	logger zerolog.Logger
}

// NewHandler creates a Handler with dependencies.
func NewHandler(repo *SightingRepository, logger zerolog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

// Register mounts the routes on r.
func (h *Handler) Register(r *mux.Router) {
	r.HandleFunc("/", h.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/food-sightings", h.handleSearchSightings).Methods(http.MethodGet)
	r.HandleFunc("/food-sightings", h.handleCreateSighting).Methods(http.MethodPost)
	r.HandleFunc("/food-sightings/{sighting_id}", h.handleUpdateSighting).Methods(http.MethodPut)
	r.HandleFunc("/food-sightings/{sighting_id}", h.handleDeleteSighting).Methods(http.MethodDelete)
}

// newRouter builds the full HTTP handler: routes plus middleware. The
// middleware wraps the router itself so unmatched paths and methods are
// tagged and logged too.
func newRouter(h *Handler, logger zerolog.Logger, corsOrigins []string) http.Handler {
	r := mux.NewRouter()
	h.Register(r)

	var handler http.Handler = r
	handler = recoverMiddleware(logger)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware(handler)
	return corsMiddleware(corsOrigins)(handler)
}

// handleRoot processes GET /.
func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, "Hello world")
}

// handleCreateSighting processes POST /food-sightings.
func (h *Handler) handleCreateSighting(w http.ResponseWriter, r *http.Request) {
	var req CreateSightingRequest
	if err := decodeBody(r.Body, &req); err != nil {
		h.writeError(w, err)
		return
	}

	result, err := h.repo.Create(r.Context(), req)
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID(r.Context())).Msg("error creating sighting")
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleSearchSightings processes GET /food-sightings.
func (h *Handler) handleSearchSightings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := SearchFilter{
		Description: q.Get("description"),
		Food:        q.Get("food"),
	}
	h.logger.Debug().Str("description", filter.Description).Str("food", filter.Food).Msg("searching sightings")

	sightings, err := h.repo.Search(r.Context(), filter)
	if err != nil {
		h.logger.Error().Err(err).Str("request_id", requestID(r.Context())).Msg("error searching sightings")
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sightings)
}

// handleUpdateSighting processes PUT /food-sightings/{sighting_id}.
func (h *Handler) handleUpdateSighting(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sighting_id"]
	var req UpdateSightingRequest
	if err := decodeBody(r.Body, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.repo.Update(r.Context(), id, req); err != nil {
		h.logger.Error().Err(err).Str("id", id).Str("request_id", requestID(r.Context())).Msg("error updating sighting")
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Update success"})
}

// handleDeleteSighting processes DELETE /food-sightings/{sighting_id}.
func (h *Handler) handleDeleteSighting(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["sighting_id"]
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.logger.Error().Err(err).Str("id", id).Str("request_id", requestID(r.Context())).Msg("error deleting sighting")
		if errors.Is(err, ErrInvalidIdentifier) {
			h.writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"msg": "Data deleted successfully"})
}

// writeError maps err to a status code and writes it as {"error": ...}.
// Storage failures are reported without driver detail.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = ErrStorage.Error()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrInvalidIdentifier), errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeBody decodes a single JSON object into v. An empty body leaves v
// untouched, since every field is optional.
func decodeBody(body io.Reader, v interface{}) error {
	dec := json.NewDecoder(body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := ensureSingleJSON(dec); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// ensureSingleJSON ensures only a single JSON object is in the request body.
func ensureSingleJSON(dec *json.Decoder) error {
	if t, err := dec.Token(); err != io.EOF || t != nil {
		return fmt.Errorf("request body must only contain a single JSON object")
	}
	return nil
}
