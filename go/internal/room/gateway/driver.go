package gateway

import (
	"context"

	"github.com/rs/zerolog/log"
)

// Schedule implements room.Scheduler. Each driver is a goroutine that turns clock ticks
// into tick events on the hub's channel; the hub applies them in order with every other
// event, so a driver never touches room state itself.
func (h *Hub) Schedule(roomID string, gen uint64) func() {
	ctx, cancel := context.WithCancel(h.runCtx)
	ticker := h.clock.NewTicker(h.config.TickInterval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.Chan():
				select {
				case h.events <- hubEvent{kind: evTick, roomID: roomID, gen: gen}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	log.Debug().
		Str("room_id", roomID).
		Uint64("generation", gen).
		Msg("countdown driver started")

	return cancel
}
