package directory

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Handler serves the room directory over HTTP:
//
//	POST /api/room {"slug", "adminId"}
//	GET  /api/room?slug=
type Handler struct {
	app *App
}

// NewHandler creates the directory HTTP handler.
func NewHandler(app *App) *Handler {
	return &Handler{app: app}
}

// RegisterRoutes mounts the directory routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/room", h.createRoom)
	mux.HandleFunc("GET /api/room", h.getRoom)
}

func (h *Handler) createRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 4096)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	room, err := h.app.CreateRoom(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, room)
}

func (h *Handler) getRoom(w http.ResponseWriter, r *http.Request) {
	slug := r.URL.Query().Get("slug")
	if slug == "" {
		writeError(w, http.StatusBadRequest, "Room slug is required")
		return
	}

	room, err := h.app.GetRoom(r.Context(), slug)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, room)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidSlug), errors.Is(err, ErrMissingAdmin):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrRoomNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSlugTaken):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.Error().Err(err).Msg("room directory request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to write response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
