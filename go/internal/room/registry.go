package room

import (
	"sort"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Registry maps room ids to rooms, creating them on first reference.
// Like Room, it must only be used from a single goroutine.
type Registry struct {
	rooms map[string]*Room
	sched Scheduler
	clock clockwork.Clock
}

// NewRegistry creates an empty registry whose rooms install drivers through sched.
func NewRegistry(sched Scheduler, clock clockwork.Clock) *Registry {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Registry{
		rooms: make(map[string]*Room),
		sched: sched,
		clock: clock,
	}
}

// GetOrCreate returns the room for id, creating it with default state if needed.
// The second return value reports whether the room was created.
func (r *Registry) GetOrCreate(id string) (*Room, bool) {
	if rm, ok := r.rooms[id]; ok {
		rm.lastActive = r.clock.Now()
		return rm, false
	}
	rm := newRoom(id, r.sched, r.clock.Now())
	r.rooms[id] = rm
	log.Debug().Str("room_id", id).Int("rooms", len(r.rooms)).Msg("room created")
	return rm, true
}

// Get returns the room for id without creating it.
func (r *Registry) Get(id string) (*Room, bool) {
	rm, ok := r.rooms[id]
	if ok {
		rm.lastActive = r.clock.Now()
	}
	return rm, ok
}

// Peek returns the room for id without creating it or counting as activity.
func (r *Registry) Peek(id string) (*Room, bool) {
	rm, ok := r.rooms[id]
	return rm, ok
}

// Seed makes sure a room exists for id. An existing room is left untouched, so
// repeated seeding does not keep it from idle eviction.
func (r *Registry) Seed(id string) bool {
	if _, ok := r.rooms[id]; ok {
		return false
	}
	r.GetOrCreate(id)
	return true
}

// Len returns the number of rooms.
func (r *Registry) Len() int { return len(r.rooms) }

// IDs returns the sorted room ids.
func (r *Registry) IDs() []string {
	ids := make([]string, 0, len(r.rooms))
	for id := range r.rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Evict removes rooms that are not running, not occupied and have seen no activity
// for longer than idleTTL. Rooms listed in keep are never evicted. It returns the evicted ids.
func (r *Registry) Evict(idleTTL time.Duration, occupied func(id string) bool, keep map[string]bool) []string {
	if idleTTL <= 0 {
		return nil
	}
	now := r.clock.Now()
	var evicted []string
	for id, rm := range r.rooms {
		if rm.running || keep[id] || occupied(id) {
			continue
		}
		if now.Sub(rm.lastActive) < idleTTL {
			continue
		}
		rm.Close()
		delete(r.rooms, id)
		evicted = append(evicted, id)
	}
	sort.Strings(evicted)
	return evicted
}

// CloseAll cancels every installed driver.
func (r *Registry) CloseAll() {
	for _, rm := range r.rooms {
		rm.Close()
	}
}
