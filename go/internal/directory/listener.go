package directory

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/mcdev12/focusroom/go/internal/models"
	"github.com/rs/zerolog/log"
)

// RoomSeeder pre-creates rooms in the live registry.
type RoomSeeder interface {
	Seed(roomID string)
}

type ListenerConfig struct {
	DatabaseURL      string        // Postgres DSN for LISTEN/NOTIFY
	NotifyChannel    string        // Channel name to LISTEN on
	FallbackInterval time.Duration // How often to resync in case a notification was missed
	PingInterval     time.Duration
}

func DefaultListenerConfig() ListenerConfig {
	return ListenerConfig{
		NotifyChannel:    DefaultNotifyChannel,
		FallbackInterval: 5 * time.Minute,
		PingInterval:     90 * time.Second,
	}
}

// Listener follows room_created notifications so that provisioned rooms are seeded
// in the hub and their admins are known before anyone joins.
type Listener struct {
	listener *pq.Listener
	repo     RoomRepository
	cache    *AdminCache
	seeder   RoomSeeder
	cfg      ListenerConfig
}

func NewListener(repo RoomRepository, cache *AdminCache, seeder RoomSeeder, cfg ListenerConfig) (*Listener, error) {
	l := pq.NewListener(
		cfg.DatabaseURL,
		10*time.Second,
		time.Minute,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				log.Error().Err(err).Msg("directory listener event")
			}
		},
	)
	if err := l.Listen(cfg.NotifyChannel); err != nil {
		l.Close()
		return nil, fmt.Errorf("failed to listen to channel: %w", err)
	}

	log.Info().
		Str("channel", cfg.NotifyChannel).
		Msg("listening for room notifications")

	return &Listener{
		listener: l,
		repo:     repo,
		cache:    cache,
		seeder:   seeder,
		cfg:      cfg,
	}, nil
}

// Start processes notifications until ctx is cancelled.
func (l *Listener) Start(ctx context.Context) error {
	if err := l.resync(ctx); err != nil {
		log.Error().Err(err).Msg("initial room directory sync failed")
	}

	pingTicker := time.NewTicker(l.cfg.PingInterval)
	fallbackTicker := time.NewTicker(l.cfg.FallbackInterval)
	defer pingTicker.Stop()
	defer fallbackTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("directory listener shutting down")
			return l.Stop()
		case note := <-l.listener.Notify:
			if note == nil {
				// connection was re-established; notifications may have been lost
				if err := l.resync(ctx); err != nil {
					log.Error().Err(err).Msg("room directory resync failed")
				}
				continue
			}
			if err := l.handleNotification(ctx, note.Extra); err != nil {
				log.Error().Err(err).Str("slug", note.Extra).Msg("failed to handle room notification")
			}
		case <-fallbackTicker.C:
			if err := l.resync(ctx); err != nil {
				log.Error().Err(err).Msg("room directory resync failed")
			}
		case <-pingTicker.C:
			if err := l.listener.Ping(); err != nil {
				log.Error().Err(err).Msg("failed to ping listener")
			}
		}
	}
}

func (l *Listener) Stop() error {
	return l.listener.Close()
}

// handleNotification handles one notification. The payload is the new room's slug.
func (l *Listener) handleNotification(ctx context.Context, slug string) error {
	if slug == "" {
		return fmt.Errorf("empty room notification")
	}
	room, err := l.repo.GetRoomBySlug(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to fetch room: %w", err)
	}
	l.cache.Put(room)
	l.seed(room)

	log.Info().Str("slug", room.Slug).Msg("room seeded from directory")
	return nil
}

// resync reloads the whole directory.
func (l *Listener) resync(ctx context.Context) error {
	rooms, err := l.cache.Warm(ctx, l.repo)
	if err != nil {
		return err
	}
	for _, room := range rooms {
		l.seed(room)
	}
	log.Debug().Int("rooms", len(rooms)).Msg("room directory synced")
	return nil
}

func (l *Listener) seed(room *models.DirectoryRoom) {
	if l.seeder != nil {
		l.seeder.Seed(room.Slug)
	}
}
