package directory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminCache(t *testing.T) {
	cache := NewAdminCache()
	assert.False(t, cache.IsAdmin("lofi", "alice"))

	cache.Put(room("lofi", "alice"))
	cache.Put(nil)
	assert.True(t, cache.IsAdmin("lofi", "alice"))
	assert.False(t, cache.IsAdmin("lofi", "bob"))
	assert.False(t, cache.IsAdmin("lofi", ""))
	assert.False(t, cache.IsAdmin("other", "alice"))
	assert.Equal(t, 1, cache.Len())
}

func TestAdminCache_Warm(t *testing.T) {
	cache := NewAdminCache()
	rooms, err := cache.Warm(context.Background(), newMemRepo(room("a", "alice"), room("b", "bob")))
	require.NoError(t, err)
	assert.Len(t, rooms, 2)
	assert.True(t, cache.IsAdmin("b", "bob"))

	failing := newMemRepo()
	failing.err = errors.New("down")
	_, err = cache.Warm(context.Background(), failing)
	assert.ErrorContains(t, err, "failed to warm admin cache")
	assert.Equal(t, 2, cache.Len(), "failed warm keeps what is cached")
}
