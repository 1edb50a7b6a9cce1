package room

import (
	"errors"
	"time"

	"github.com/mcdev12/focusroom/go/internal/models"
)

// ErrInvalidPreset is returned by SetPreset for an unknown preset.
var ErrInvalidPreset = errors.New("invalid preset")

// Scheduler installs countdown drivers for running rooms.
type Scheduler interface {
	// Schedule starts a driver that reports one tick per second for roomID, tagged with gen.
	// The returned func stops the driver and must be safe to call more than once.
	Schedule(roomID string, gen uint64) (cancel func())
}

// Room is the shared timer of one room.
//
// A Room is not safe for concurrent use; all calls must come from the goroutine that
// owns the Registry. isRunning is true exactly when a driver is installed.
type Room struct {
	id         string
	remaining  int
	running    bool
	preset     models.Preset
	sched      Scheduler
	gen        uint64
	cancel     func()
	lastActive time.Time
}

func newRoom(id string, sched Scheduler, now time.Time) *Room {
	return &Room{
		id:         id,
		remaining:  models.DefaultPreset.Seconds(),
		preset:     models.DefaultPreset,
		sched:      sched,
		lastActive: now,
	}
}

// ID returns the room identifier.
func (r *Room) ID() string { return r.id }

// Remaining returns the seconds left on the countdown.
func (r *Room) Remaining() int { return r.remaining }

// Running reports whether the countdown is running.
func (r *Room) Running() bool { return r.running }

// Preset returns the active preset.
func (r *Room) Preset() models.Preset { return r.preset }

// Generation identifies the currently installed driver. Ticks from older drivers are ignored.
func (r *Room) Generation() uint64 { return r.gen }

// Snapshot returns the canonical timer state.
func (r *Room) Snapshot() models.TimerSnapshot {
	return models.TimerSnapshot{
		RoomID:           r.id,
		RemainingSeconds: r.remaining,
		IsRunning:        r.running,
		Preset:           r.preset,
	}
}

// Start moves an idle room with time left into the running state.
// It reports whether the state changed; starting a running room or an expired one is a no-op.
func (r *Room) Start() bool {
	if r.running || r.remaining <= 0 {
		return false
	}
	r.installDriver()
	r.running = true
	return true
}

// Pause stops the countdown, keeping the remaining time.
func (r *Room) Pause() bool {
	if !r.running {
		return false
	}
	r.stop()
	return true
}

// Reset stops the countdown and rewinds it to the active preset's duration.
func (r *Room) Reset() bool {
	changed := r.running || r.remaining != r.preset.Seconds()
	r.stop()
	r.remaining = r.preset.Seconds()
	return changed
}

// SetPreset switches the preset, stopping and rewinding the countdown.
func (r *Room) SetPreset(p models.Preset) (bool, error) {
	if !p.Valid() {
		return false, ErrInvalidPreset
	}
	changed := r.running || r.preset != p || r.remaining != p.Seconds()
	r.stop()
	r.preset = p
	r.remaining = p.Seconds()
	return changed, nil
}

// Tick applies one driver tick. Ticks whose generation does not match the installed
// driver are dropped. Reaching zero stops the countdown.
func (r *Room) Tick(gen uint64) bool {
	if !r.running || gen != r.gen {
		return false
	}
	r.remaining--
	if r.remaining <= 0 {
		r.remaining = 0
		r.stop()
	}
	return true
}

// Expired reports whether the countdown has run out.
func (r *Room) Expired() bool {
	return r.remaining == 0 && !r.running
}

// Close cancels any installed driver.
func (r *Room) Close() {
	r.stop()
}

func (r *Room) installDriver() {
	r.cancelDriver()
	r.gen++
	r.cancel = r.sched.Schedule(r.id, r.gen)
}

func (r *Room) cancelDriver() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
}

func (r *Room) stop() {
	r.cancelDriver()
	r.running = false
}
