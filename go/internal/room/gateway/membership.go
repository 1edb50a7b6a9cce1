package gateway

import (
	"sort"

	"github.com/mcdev12/focusroom/go/internal/auth"
	"github.com/mcdev12/focusroom/go/internal/models"
)

// member is the membership record of one live connection.
type member struct {
	connID   string
	seq      uint64
	identity auth.Identity
	roomID   string
	isAdmin  bool
	status   models.PresenceStatus
}

// Membership tracks which room each live connection is in.
// Owned by the Hub goroutine; not safe for concurrent use.
type Membership struct {
	byConn  map[string]*member
	nextSeq uint64
}

// NewMembership creates an empty tracker.
func NewMembership() *Membership {
	return &Membership{byConn: make(map[string]*member)}
}

// Add records a newly accepted connection that is not in any room yet.
func (m *Membership) Add(connID string, identity auth.Identity) {
	if _, ok := m.byConn[connID]; ok {
		return
	}
	m.nextSeq++
	m.byConn[connID] = &member{
		connID:   connID,
		seq:      m.nextSeq,
		identity: identity,
		status:   models.PresenceFocusing,
	}
}

// Join moves the connection into roomID and returns the room it was in before, if any.
func (m *Membership) Join(connID, roomID string, asAdmin bool, status models.PresenceStatus) (previous string, ok bool) {
	mem, ok := m.byConn[connID]
	if !ok {
		return "", false
	}
	previous = mem.roomID
	mem.roomID = roomID
	mem.isAdmin = asAdmin
	mem.status = status
	return previous, true
}

// Leave clears the connection's room and returns the room it vacated ("" if none).
func (m *Membership) Leave(connID string) string {
	mem, ok := m.byConn[connID]
	if !ok {
		return ""
	}
	vacated := mem.roomID
	mem.roomID = ""
	mem.isAdmin = false
	return vacated
}

// Disconnect forgets the connection and returns the room it vacated ("" if none).
func (m *Membership) Disconnect(connID string) string {
	mem, ok := m.byConn[connID]
	if !ok {
		return ""
	}
	delete(m.byConn, connID)
	return mem.roomID
}

// Roster returns the members of roomID in connection acceptance order.
func (m *Membership) Roster(roomID string) []models.Member {
	in := m.inRoom(roomID)
	roster := make([]models.Member, 0, len(in))
	for _, mem := range in {
		roster = append(roster, models.Member{
			ID:      mem.connID,
			UserID:  mem.identity.UserID,
			Name:    mem.identity.DisplayName,
			Image:   mem.identity.AvatarRef,
			Status:  mem.status,
			IsAdmin: mem.isAdmin,
		})
	}
	return roster
}

// ConnIDs returns the connection ids in roomID in acceptance order.
func (m *Membership) ConnIDs(roomID string) []string {
	in := m.inRoom(roomID)
	ids := make([]string, 0, len(in))
	for _, mem := range in {
		ids = append(ids, mem.connID)
	}
	return ids
}

// Occupied reports whether anyone is in roomID.
func (m *Membership) Occupied(roomID string) bool {
	for _, mem := range m.byConn {
		if mem.roomID == roomID {
			return true
		}
	}
	return false
}

// SetPresence sets the presence status of every member of roomID.
func (m *Membership) SetPresence(roomID string, status models.PresenceStatus) {
	for _, mem := range m.byConn {
		if mem.roomID == roomID {
			mem.status = status
		}
	}
}

func (m *Membership) inRoom(roomID string) []*member {
	if roomID == "" {
		return nil
	}
	var in []*member
	for _, mem := range m.byConn {
		if mem.roomID == roomID {
			in = append(in, mem)
		}
	}
	sort.Slice(in, func(i, j int) bool { return in[i].seq < in[j].seq })
	return in
}
