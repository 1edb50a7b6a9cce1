package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcdev12/focusroom/go/internal/auth"
	"github.com/rs/zerolog/log"
)

// TokenAuthenticator validates handshake tokens.
type TokenAuthenticator interface {
	Authenticate(token string) (auth.Identity, error)
}

// WebSocketHandler handles WebSocket upgrade requests for room connections
type WebSocketHandler struct {
	connectionManager *ConnectionManager
	authenticator     TokenAuthenticator
	hub               *Hub
	metrics           *Metrics
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager, authenticator TokenAuthenticator, hub *Hub, metrics *Metrics) *WebSocketHandler {
	if metrics == nil {
		metrics = NewNopMetrics()
	}
	return &WebSocketHandler{
		connectionManager: cm,
		authenticator:     authenticator,
		hub:               hub,
		metrics:           metrics,
	}
}

// HandleRoomConnection upgrades the request, authenticates the handshake token and hands
// the connection to the hub. A rejected handshake is closed before any message is read.
func (h *WebSocketHandler) HandleRoomConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.connectionManager.Upgrade(w, r)
	if err != nil {
		log.Error().Err(err).Msg("failed to upgrade WebSocket connection")
		return
	}

	identity, err := h.authenticator.Authenticate(auth.TokenFromRequest(r))
	if err != nil {
		kind := auth.KindInvalidToken
		var authErr *auth.AuthError
		if errors.As(err, &authErr) {
			kind = authErr.Kind
		}
		h.metrics.HandshakeFailures.WithLabelValues(kind.String()).Inc()

		event := log.Warn()
		if kind == auth.KindMisconfigured {
			event = log.Error()
		}
		event.Err(err).
			Str("remote_addr", r.RemoteAddr).
			Int("close_code", kind.CloseCode()).
			Msg("rejecting WebSocket handshake")

		h.connectionManager.Reject(conn, kind.CloseCode(), kind.Reason())
		return
	}

	if _, err := h.connectionManager.Attach(conn, identity); err != nil {
		log.Error().Err(err).Str("user_id", identity.UserID).Msg("failed to attach connection")
	}
}

// HandleConnectionStats returns statistics about active connections
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.hub.Stats(r.Context())
	if err != nil {
		http.Error(w, "stats unavailable", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(stats); err != nil {
		log.Error().Err(err).Msg("failed to write stats response")
	}
}

// RegisterRoutes registers WebSocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/ws", h.HandleRoomConnection)
	mux.HandleFunc("/ws/stats", h.HandleConnectionStats)
}
