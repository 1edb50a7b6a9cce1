package directory

import "errors"

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrSlugTaken    = errors.New("room slug already taken")
	ErrInvalidSlug  = errors.New("invalid room slug")
	ErrMissingAdmin = errors.New("adminId is required")
)

// CreateRoomRequest is the payload of POST /api/room.
type CreateRoomRequest struct {
	Slug    string `json:"slug"`
	AdminID string `json:"adminId"`
}
