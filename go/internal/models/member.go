package models

// PresenceStatus is what a room member is currently doing.
type PresenceStatus string

const (
	PresenceFocusing PresenceStatus = "Focusing"
	PresenceBreak    PresenceStatus = "Break"
)

// Member is one entry of a room roster as sent to clients.
// ID is the connection id, so a user connected twice shows up twice.
type Member struct {
	ID      string         `json:"id"`
	UserID  string         `json:"userId"`
	Name    string         `json:"name"`
	Image   string         `json:"image"`
	Status  PresenceStatus `json:"status"`
	IsAdmin bool           `json:"isAdmin"`
}
