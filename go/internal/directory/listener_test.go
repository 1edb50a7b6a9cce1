package directory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestListener(repo RoomRepository) (*Listener, *AdminCache, *recordingSeeder) {
	cache := NewAdminCache()
	seeder := &recordingSeeder{}
	return &Listener{repo: repo, cache: cache, seeder: seeder, cfg: DefaultListenerConfig()}, cache, seeder
}

func TestListener_HandleNotification(t *testing.T) {
	l, cache, seeder := newTestListener(newMemRepo(room("lofi", "alice")))

	require.NoError(t, l.handleNotification(context.Background(), "lofi"))
	assert.True(t, cache.IsAdmin("lofi", "alice"))
	assert.Equal(t, []string{"lofi"}, seeder.rooms)
}

func TestListener_HandleNotificationErrors(t *testing.T) {
	l, cache, seeder := newTestListener(newMemRepo())

	assert.Error(t, l.handleNotification(context.Background(), ""))
	err := l.handleNotification(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Zero(t, cache.Len())
	assert.Empty(t, seeder.rooms)
}

func TestListener_Resync(t *testing.T) {
	l, cache, seeder := newTestListener(newMemRepo(room("a", "alice"), room("b", "bob")))

	require.NoError(t, l.resync(context.Background()))
	assert.Equal(t, []string{"a", "b"}, seeder.rooms)
	assert.True(t, cache.IsAdmin("a", "alice"))
	assert.True(t, cache.IsAdmin("b", "bob"))
}
