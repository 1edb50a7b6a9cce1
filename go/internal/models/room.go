package models

import (
	"time"

	"github.com/google/uuid"
)

// TimerSnapshot is the canonical shared timer state of a room.
type TimerSnapshot struct {
	RoomID           string `json:"roomId"`
	RemainingSeconds int    `json:"timer"`
	IsRunning        bool   `json:"isRunning"`
	Preset           Preset `json:"preset"`
}

// DirectoryRoom is a provisioned room record owned by the room directory.
type DirectoryRoom struct {
	ID        uuid.UUID `json:"id"`
	Slug      string    `json:"slug"`
	AdminID   string    `json:"adminId"`
	CreatedAt time.Time `json:"createdAt"`
}
