package directory

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mcdev12/focusroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

var slugPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// RoomRepository defines what the app layer needs from the repository.
type RoomRepository interface {
	CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.DirectoryRoom, error)
	GetRoomBySlug(ctx context.Context, slug string) (*models.DirectoryRoom, error)
	ListRooms(ctx context.Context) ([]*models.DirectoryRoom, error)
}

// App handles room directory business logic.
type App struct {
	repo RoomRepository
}

// NewApp creates a new directory App.
func NewApp(repo RoomRepository) *App {
	return &App{repo: repo}
}

// CreateRoom provisions a room after validating the request.
func (a *App) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.DirectoryRoom, error) {
	req.Slug = strings.TrimSpace(req.Slug)
	req.AdminID = strings.TrimSpace(req.AdminID)
	if err := validateCreateRoomRequest(req); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	room, err := a.repo.CreateRoom(ctx, req)
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("slug", room.Slug).
		Str("admin_id", room.AdminID).
		Msg("room provisioned")
	return room, nil
}

// GetRoom looks a room up by slug.
func (a *App) GetRoom(ctx context.Context, slug string) (*models.DirectoryRoom, error) {
	slug = strings.TrimSpace(slug)
	if !slugPattern.MatchString(slug) {
		return nil, fmt.Errorf("validation failed: %w", ErrInvalidSlug)
	}
	return a.repo.GetRoomBySlug(ctx, slug)
}

// ListRooms returns every provisioned room.
func (a *App) ListRooms(ctx context.Context) ([]*models.DirectoryRoom, error) {
	return a.repo.ListRooms(ctx)
}

func validateCreateRoomRequest(req CreateRoomRequest) error {
	if !slugPattern.MatchString(req.Slug) {
		return ErrInvalidSlug
	}
	if req.AdminID == "" {
		return ErrMissingAdmin
	}
	return nil
}
