package directory

import (
	"context"
	"fmt"
	"sync"

	"github.com/mcdev12/focusroom/go/internal/models"
)

// AdminCache answers "is this user the admin of this room" from memory. The room hub
// asks it on every join, so it never touches the database; Warm and the notification
// listener keep it current.
type AdminCache struct {
	mu     sync.RWMutex
	admins map[string]string // slug -> admin user id
}

// NewAdminCache creates an empty cache.
func NewAdminCache() *AdminCache {
	return &AdminCache{admins: make(map[string]string)}
}

// IsAdmin reports whether userID administers roomID.
func (c *AdminCache) IsAdmin(roomID, userID string) bool {
	if userID == "" {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.admins[roomID] == userID
}

// Put records a provisioned room.
func (c *AdminCache) Put(room *models.DirectoryRoom) {
	if room == nil || room.Slug == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.admins[room.Slug] = room.AdminID
}

// Len is the number of cached rooms.
func (c *AdminCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.admins)
}

// Warm loads every room from the directory and returns them.
func (c *AdminCache) Warm(ctx context.Context, repo RoomRepository) ([]*models.DirectoryRoom, error) {
	rooms, err := repo.ListRooms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to warm admin cache: %w", err)
	}
	for _, room := range rooms {
		c.Put(room)
	}
	return rooms, nil
}
