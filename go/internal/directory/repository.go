package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mcdev12/focusroom/go/internal/models"
)

const uniqueViolation = "23505"

// DB defines what the repository needs from the database layer.
// *pgxpool.Pool satisfies it.
type DB interface {
	Execer
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Repository implements room directory data access.
type Repository struct {
	db  DB
	now func() time.Time
}

// NewRepository creates a new directory repository.
func NewRepository(db DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// CreateRoom inserts a new room record.
func (r *Repository) CreateRoom(ctx context.Context, req CreateRoomRequest) (*models.DirectoryRoom, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO rooms (id, slug, admin_id, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, slug, admin_id, created_at
	`, uuid.New(), req.Slug, req.AdminID, r.now().UTC())

	room, err := scanRoom(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create room: %w", mapError(err))
	}
	return room, nil
}

// GetRoomBySlug retrieves a room by its slug.
func (r *Repository) GetRoomBySlug(ctx context.Context, slug string) (*models.DirectoryRoom, error) {
	row := r.db.QueryRow(ctx, `
		SELECT id, slug, admin_id, created_at
		FROM rooms
		WHERE slug = $1
	`, slug)

	room, err := scanRoom(row)
	if err != nil {
		return nil, fmt.Errorf("failed to get room by slug: %w", mapError(err))
	}
	return room, nil
}

// ListRooms returns every room, oldest first.
func (r *Repository) ListRooms(ctx context.Context) ([]*models.DirectoryRoom, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, slug, admin_id, created_at
		FROM rooms
		ORDER BY created_at, slug
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	defer rows.Close()

	var out []*models.DirectoryRoom
	for rows.Next() {
		room, err := scanRoom(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan room: %w", err)
		}
		out = append(out, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list rooms: %w", err)
	}
	return out, nil
}

func scanRoom(row pgx.Row) (*models.DirectoryRoom, error) {
	var room models.DirectoryRoom
	if err := row.Scan(&room.ID, &room.Slug, &room.AdminID, &room.CreatedAt); err != nil {
		return nil, err
	}
	return &room, nil
}

// mapError translates driver errors into directory errors.
func mapError(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrRoomNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrSlugTaken
	}
	return err
}
