package gateway

import (
	"testing"

	"github.com/mcdev12/focusroom/go/internal/auth"
	"github.com/mcdev12/focusroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func identity(userID, name string) auth.Identity {
	return auth.Identity{UserID: userID, DisplayName: name, AvatarRef: auth.AvatarFor(userID)}
}

func userIDs(members []models.Member) []string {
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.UserID)
	}
	return ids
}

func TestMembership_JoinAndRoster(t *testing.T) {
	m := NewMembership()
	m.Add("c1", identity("alice", "Alice"))
	m.Add("c2", identity("bob", "Bob"))
	m.Add("c3", identity("carol", "Carol"))

	prev, ok := m.Join("c2", "r1", false, models.PresenceFocusing)
	require.True(t, ok)
	assert.Equal(t, "", prev)
	_, ok = m.Join("c1", "r1", true, models.PresenceFocusing)
	require.True(t, ok)
	_, ok = m.Join("c3", "r2", false, models.PresenceBreak)
	require.True(t, ok)

	roster := m.Roster("r1")
	assert.Equal(t, []string{"alice", "bob"}, userIDs(roster), "roster follows acceptance order")
	assert.Equal(t, models.Member{
		ID:      "c1",
		UserID:  "alice",
		Name:    "Alice",
		Image:   "https://i.pravatar.cc/150?u=alice",
		Status:  models.PresenceFocusing,
		IsAdmin: true,
	}, roster[0])
	assert.Equal(t, []string{"carol"}, userIDs(m.Roster("r2")))
	assert.Empty(t, m.Roster(""))
}

func TestMembership_SwitchRoom(t *testing.T) {
	m := NewMembership()
	m.Add("c1", identity("alice", "Alice"))

	m.Join("c1", "r1", false, models.PresenceFocusing)
	prev, _ := m.Join("c1", "r2", false, models.PresenceFocusing)

	assert.Equal(t, "r1", prev)
	assert.Empty(t, m.Roster("r1"))
	assert.Equal(t, []string{"c1"}, m.ConnIDs("r2"))
}

func TestMembership_LeaveAndDisconnect(t *testing.T) {
	m := NewMembership()
	m.Add("a", identity("alice", "Alice"))
	m.Add("b", identity("bob", "Bob"))
	m.Join("a", "r1", false, models.PresenceFocusing)
	m.Join("b", "r1", false, models.PresenceFocusing)

	assert.Equal(t, []string{"alice", "bob"}, userIDs(m.Roster("r1")))

	assert.Equal(t, "r1", m.Disconnect("a"))
	assert.Equal(t, []string{"bob"}, userIDs(m.Roster("r1")))
	assert.Equal(t, "", m.Disconnect("a"), "second disconnect is a no-op")

	assert.Equal(t, "r1", m.Leave("b"))
	assert.Equal(t, "", m.Leave("b"))
	assert.False(t, m.Occupied("r1"))
	_, ok := m.Join("b", "r2", false, models.PresenceFocusing)
	assert.True(t, ok, "left connection stays tracked and can rejoin")
}

func TestMembership_JoinUnknownConnection(t *testing.T) {
	m := NewMembership()
	_, ok := m.Join("ghost", "r1", false, models.PresenceFocusing)
	assert.False(t, ok)
	assert.False(t, m.Occupied("r1"))
}

func TestMembership_SetPresence(t *testing.T) {
	m := NewMembership()
	m.Add("a", identity("alice", "Alice"))
	m.Add("b", identity("bob", "Bob"))
	m.Join("a", "r1", false, models.PresenceFocusing)
	m.Join("b", "r2", false, models.PresenceFocusing)

	m.SetPresence("r1", models.PresenceBreak)

	assert.Equal(t, models.PresenceBreak, m.Roster("r1")[0].Status)
	assert.Equal(t, models.PresenceFocusing, m.Roster("r2")[0].Status)
}
