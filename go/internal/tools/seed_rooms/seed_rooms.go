package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mcdev12/focusroom/go/internal/dbconfig"
	"github.com/mcdev12/focusroom/go/internal/directory"
)

func main() {
	path := "go/internal/assets/rooms.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	// 1) Load the JSON snapshot: [{"slug": "...", "adminId": "..."}]
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var rooms []directory.CreateRoomRequest
	if err := json.Unmarshal(data, &rooms); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Connect using shared dbconfig
	ctx := context.Background()
	cfg := dbconfig.NewConfigFromEnv()
	pool, err := pgxpool.New(ctx, cfg.DSN())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := directory.EnsureSchema(ctx, pool, directory.DefaultNotifyChannel); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// 3) Insert and count; existing slugs are skipped
	app := directory.NewApp(directory.NewRepository(pool))
	var (
		total    = len(rooms)
		inserted int
		skipped  int
		errs     int
	)

	for _, r := range rooms {
		_, err := app.CreateRoom(ctx, r)
		switch {
		case err == nil:
			inserted++
		case errors.Is(err, directory.ErrSlugTaken):
			skipped++
		default:
			errs++
			fmt.Fprintf(os.Stderr, "room %q: %v\n", r.Slug, err)
		}
	}

	fmt.Printf("Rooms seeded: %d total, %d inserted, %d skipped, %d errors\n", total, inserted, skipped, errs)
	if errs > 0 {
		os.Exit(1)
	}
}
