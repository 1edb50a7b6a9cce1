package gateway

import (
	"encoding/json"

	"github.com/mcdev12/focusroom/go/internal/room"
	"github.com/rs/zerolog/log"
)

// broadcastTimer sends the room's timer snapshot to every member.
func (h *Hub) broadcastTimer(rm *room.Room) {
	h.broadcast(rm.ID(), "timer", newUpdateTimer(rm.Snapshot()))
}

// broadcastRoster sends the current roster of roomID to every member.
func (h *Hub) broadcastRoster(roomID string) {
	h.broadcast(roomID, "roster", newMemberUpdate(roomID, h.members.Roster(roomID)))
}

// broadcast is best effort: a member whose send buffer is full is dropped as a slow
// consumer after everyone else has been served.
func (h *Hub) broadcast(roomID, kind string, msg any) {
	targets := h.members.ConnIDs(roomID)
	if len(targets) == 0 {
		return
	}

	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("room_id", roomID).Msg("failed to marshal broadcast")
		return
	}

	var slow []*Connection
	for _, id := range targets {
		c, ok := h.conns[id]
		if !ok {
			continue
		}
		if !enqueue(c, data) {
			slow = append(slow, c)
		}
	}
	h.metrics.Broadcasts.WithLabelValues(kind).Inc()

	log.Debug().
		Str("room_id", roomID).
		Str("kind", kind).
		Int("connections", len(targets)).
		Msg("broadcast sent")

	for _, c := range slow {
		h.dropSlow(c)
	}
}

// send delivers a message to a single connection.
func (h *Hub) send(c *Connection, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Error().Err(err).Str("connection_id", c.ID).Msg("failed to marshal message")
		return
	}
	if !enqueue(c, data) {
		h.dropSlow(c)
	}
}

func (h *Hub) dropSlow(c *Connection) {
	h.metrics.DroppedDeliveries.Inc()
	log.Warn().
		Str("connection_id", c.ID).
		Str("user_id", c.Identity.UserID).
		Msg("connection send buffer full, closing connection")
	h.removeConnection(c, "slow consumer")
	c.closeTransport()
}

func enqueue(c *Connection, data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}
