package directory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/focusroom/go/internal/models"
)

// memRepo is an in-memory RoomRepository.
type memRepo struct {
	mu    sync.Mutex
	rooms map[string]*models.DirectoryRoom
	err   error
}

func newMemRepo(rooms ...*models.DirectoryRoom) *memRepo {
	r := &memRepo{rooms: make(map[string]*models.DirectoryRoom)}
	for _, room := range rooms {
		r.rooms[room.Slug] = room
	}
	return r
}

func (r *memRepo) CreateRoom(_ context.Context, req CreateRoomRequest) (*models.DirectoryRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	if _, ok := r.rooms[req.Slug]; ok {
		return nil, ErrSlugTaken
	}
	room := &models.DirectoryRoom{ID: uuid.New(), Slug: req.Slug, AdminID: req.AdminID, CreatedAt: time.Now().UTC()}
	r.rooms[req.Slug] = room
	return room, nil
}

func (r *memRepo) GetRoomBySlug(_ context.Context, slug string) (*models.DirectoryRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	room, ok := r.rooms[slug]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return room, nil
}

func (r *memRepo) ListRooms(context.Context) ([]*models.DirectoryRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*models.DirectoryRoom, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

type recordingSeeder struct {
	mu    sync.Mutex
	rooms []string
}

func (s *recordingSeeder) Seed(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms = append(s.rooms, roomID)
}

func room(slug, admin string) *models.DirectoryRoom {
	return &models.DirectoryRoom{ID: uuid.New(), Slug: slug, AdminID: admin, CreatedAt: time.Now().UTC()}
}
