package gateway

import (
	"context"

	"github.com/mcdev12/focusroom/go/internal/models"
)

// RoomState is a point-in-time view of one room.
type RoomState struct {
	Timer   models.TimerSnapshot `json:"timer"`
	Members []models.Member      `json:"members"`
}

// Stats summarises the hub.
type Stats struct {
	TotalConnections int `json:"total_connections"`
	ActiveRooms      int `json:"active_rooms"`
	OccupiedRooms    int `json:"occupied_rooms"`
}

// RoomState returns the state of roomID, or ErrRoomNotFound.
func (h *Hub) RoomState(ctx context.Context, roomID string) (RoomState, error) {
	var (
		state RoomState
		found bool
	)
	err := h.query(ctx, func() {
		rm, ok := h.registry.Peek(roomID)
		if !ok {
			return
		}
		found = true
		state = RoomState{Timer: rm.Snapshot(), Members: h.members.Roster(roomID)}
	})
	if err != nil {
		return RoomState{}, err
	}
	if !found {
		return RoomState{}, ErrRoomNotFound
	}
	return state, nil
}

// Rooms returns the state of every room ordered by id.
func (h *Hub) Rooms(ctx context.Context) ([]RoomState, error) {
	var states []RoomState
	err := h.query(ctx, func() {
		for _, id := range h.registry.IDs() {
			rm, _ := h.registry.Peek(id)
			states = append(states, RoomState{Timer: rm.Snapshot(), Members: h.members.Roster(id)})
		}
	})
	return states, err
}

// Stats returns connection and room counts.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	var stats Stats
	err := h.query(ctx, func() {
		stats.TotalConnections = len(h.conns)
		stats.ActiveRooms = h.registry.Len()
		for _, id := range h.registry.IDs() {
			if h.members.Occupied(id) {
				stats.OccupiedRooms++
			}
		}
	})
	return stats, err
}
