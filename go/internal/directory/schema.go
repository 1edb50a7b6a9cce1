package directory

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultNotifyChannel is the channel the rooms table trigger notifies on.
const DefaultNotifyChannel = "room_created"

var channelPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]{0,62}$`)

// Execer is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS rooms (
	id         UUID PRIMARY KEY,
	slug       TEXT NOT NULL UNIQUE,
	admin_id   TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE OR REPLACE FUNCTION notify_room_created() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify('%[1]s', NEW.slug);
	RETURN NEW;
END;
$$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS rooms_notify_created ON rooms;
CREATE TRIGGER rooms_notify_created
	AFTER INSERT ON rooms
	FOR EACH ROW EXECUTE FUNCTION notify_room_created();
`

// EnsureSchema creates the rooms table and the trigger that announces new rooms
// on channel.
func EnsureSchema(ctx context.Context, db Execer, channel string) error {
	if channel == "" {
		channel = DefaultNotifyChannel
	}
	if !channelPattern.MatchString(channel) {
		return fmt.Errorf("invalid notify channel %q", channel)
	}
	if _, err := db.Exec(ctx, fmt.Sprintf(schemaSQL, channel)); err != nil {
		return fmt.Errorf("failed to ensure directory schema: %w", err)
	}
	return nil
}
