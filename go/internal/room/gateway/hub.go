package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/focusroom/go/internal/models"
	"github.com/mcdev12/focusroom/go/internal/room"
	"github.com/rs/zerolog/log"
)

var (
	// ErrHubStopped is returned by queries issued after the hub has shut down.
	ErrHubStopped = errors.New("hub stopped")
	// ErrRoomNotFound is returned when a room is not in the registry.
	ErrRoomNotFound = errors.New("room not found")
)

// AdminResolver decides the room-scoped admin flag at join time.
// Implementations must not block; the hub calls it from its event loop.
type AdminResolver interface {
	IsAdmin(roomID, userID string) bool
}

// Notifier receives room activity for downstream consumers. Must not block.
type Notifier interface {
	Notify(event models.RoomEvent)
}

// HubConfig holds the dispatcher settings
type HubConfig struct {
	TickInterval  time.Duration
	IdleTTL       time.Duration // zero disables idle room eviction
	SweepInterval time.Duration
	SeedRooms     []string // created at startup and never evicted
	EventBuffer   int
}

// DefaultHubConfig returns the default dispatcher settings
func DefaultHubConfig() HubConfig {
	return HubConfig{
		TickInterval:  time.Second,
		IdleTTL:       30 * time.Minute,
		SweepInterval: time.Minute,
		SeedRooms:     []string{"default_room"},
		EventBuffer:   1024,
	}
}

type hubEventKind int

const (
	evRegister hubEventKind = iota
	evUnregister
	evMessage
	evTick
	evSeed
	evQuery
)

type hubEvent struct {
	kind   hubEventKind
	conn   *Connection
	data   []byte
	roomID string
	gen    uint64
	fn     func()
	done   chan struct{}
}

// Hub is the connection dispatcher. A single goroutine (Run) owns the room registry,
// the membership tracker and the connection index; everything else talks to it
// through its event channel, countdown drivers included.
type Hub struct {
	config   HubConfig
	clock    clockwork.Clock
	registry *room.Registry
	members  *Membership
	conns    map[string]*Connection
	keep     map[string]bool

	admins   AdminResolver
	notifier Notifier
	metrics  *Metrics

	events chan hubEvent
	quit   chan struct{}
	runCtx context.Context
}

// HubOption customises a Hub.
type HubOption func(*Hub)

// WithClock sets the clock used by drivers, the idle sweep and eviction.
func WithClock(clock clockwork.Clock) HubOption {
	return func(h *Hub) { h.clock = clock }
}

// WithAdminResolver sets how the join-time admin flag is decided.
func WithAdminResolver(r AdminResolver) HubOption {
	return func(h *Hub) { h.admins = r }
}

// WithNotifier sets where room activity is published.
func WithNotifier(n Notifier) HubOption {
	return func(h *Hub) { h.notifier = n }
}

// WithMetrics sets the metrics collectors.
func WithMetrics(m *Metrics) HubOption {
	return func(h *Hub) { h.metrics = m }
}

// NewHub creates a dispatcher. Call Run to start processing.
func NewHub(config HubConfig, opts ...HubOption) *Hub {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.EventBuffer <= 0 {
		config.EventBuffer = 1024
	}

	h := &Hub{
		config: config,
		clock:  clockwork.NewRealClock(),
		conns:  make(map[string]*Connection),
		keep:   make(map[string]bool),
		events: make(chan hubEvent, config.EventBuffer),
		quit:   make(chan struct{}),
		runCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.metrics == nil {
		h.metrics = NewNopMetrics()
	}
	h.members = NewMembership()
	h.registry = room.NewRegistry(h, h.clock)
	for _, id := range config.SeedRooms {
		h.keep[id] = true
	}
	return h
}

// Run processes events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	h.runCtx = ctx
	defer close(h.quit)

	for _, id := range h.config.SeedRooms {
		h.registry.Seed(id)
	}
	h.metrics.Rooms.Set(float64(h.registry.Len()))

	var sweepC <-chan time.Time
	if h.config.IdleTTL > 0 && h.config.SweepInterval > 0 {
		sweep := h.clock.NewTicker(h.config.SweepInterval)
		defer sweep.Stop()
		sweepC = sweep.Chan()
	}

	log.Info().
		Dur("idle_ttl", h.config.IdleTTL).
		Strs("seed_rooms", h.config.SeedRooms).
		Msg("room hub started")

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			log.Info().Msg("room hub shutting down")
			return
		case ev := <-h.events:
			h.handle(ev)
		case <-sweepC:
			h.sweep()
		}
	}
}

// Register hands a freshly authenticated connection to the hub.
func (h *Hub) Register(c *Connection) bool {
	return h.post(hubEvent{kind: evRegister, conn: c})
}

// Unregister removes a connection; safe to call more than once.
func (h *Hub) Unregister(c *Connection) {
	h.post(hubEvent{kind: evUnregister, conn: c})
}

// Deliver queues a raw client frame for processing.
func (h *Hub) Deliver(c *Connection, data []byte) bool {
	return h.post(hubEvent{kind: evMessage, conn: c, data: data})
}

// Seed makes sure a room exists, e.g. after it was provisioned in the room directory.
func (h *Hub) Seed(roomID string) {
	if roomID == "" {
		return
	}
	h.post(hubEvent{kind: evSeed, roomID: roomID})
}

func (h *Hub) post(ev hubEvent) bool {
	select {
	case <-h.quit:
		return false
	default:
	}
	select {
	case h.events <- ev:
		return true
	case <-h.quit:
		return false
	}
}

// query runs fn on the hub goroutine and waits for it to finish.
func (h *Hub) query(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case <-h.quit:
		return ErrHubStopped
	default:
	}
	select {
	case h.events <- hubEvent{kind: evQuery, fn: fn, done: done}:
	case <-ctx.Done():
		return ctx.Err()
	case <-h.quit:
		return ErrHubStopped
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-h.quit:
		return ErrHubStopped
	}
}

func (h *Hub) handle(ev hubEvent) {
	switch ev.kind {
	case evRegister:
		h.register(ev.conn)
	case evUnregister:
		h.removeConnection(ev.conn, "disconnected")
	case evMessage:
		h.dispatch(ev.conn, ev.data)
	case evTick:
		h.tick(ev.roomID, ev.gen)
	case evSeed:
		if h.registry.Seed(ev.roomID) {
			h.metrics.Rooms.Set(float64(h.registry.Len()))
		}
	case evQuery:
		ev.fn()
		close(ev.done)
	}
}

func (h *Hub) register(c *Connection) {
	if _, exists := h.conns[c.ID]; exists {
		return
	}
	h.conns[c.ID] = c
	h.members.Add(c.ID, c.Identity)
	h.metrics.Connections.Set(float64(len(h.conns)))

	log.Info().
		Str("connection_id", c.ID).
		Str("user_id", c.Identity.UserID).
		Int("total_connections", len(h.conns)).
		Msg("connection registered")

	h.send(c, AuthenticatedMessage{
		Type: MessageAuthenticated,
		User: AuthenticatedUser{Name: c.Identity.DisplayName, UserID: c.Identity.UserID},
	})
}

func (h *Hub) removeConnection(c *Connection, reason string) {
	if _, ok := h.conns[c.ID]; !ok {
		return
	}
	delete(h.conns, c.ID)
	close(c.send)
	vacated := h.members.Disconnect(c.ID)
	h.metrics.Connections.Set(float64(len(h.conns)))

	log.Info().
		Str("connection_id", c.ID).
		Str("user_id", c.Identity.UserID).
		Str("room_id", vacated).
		Str("reason", reason).
		Msg("connection unregistered")

	if vacated != "" {
		h.broadcastRoster(vacated)
		h.notify(models.RoomEventMemberLeft, vacated, c.Identity.UserID, nil)
	}
}

func (h *Hub) dispatch(c *Connection, data []byte) {
	if _, ok := h.conns[c.ID]; !ok {
		return
	}

	msg, err := DecodeClientMessage(data)
	if err != nil {
		h.metrics.MalformedMessages.Inc()
		log.Warn().
			Err(err).
			Str("connection_id", c.ID).
			Msg("dropping malformed client message")
		h.send(c, newError(ErrCodeMalformed, "message could not be decoded", ""))
		return
	}
	h.metrics.Messages.WithLabelValues(messageLabel(msg.Type)).Inc()

	log.Debug().
		Str("connection_id", c.ID).
		Str("type", string(msg.Type)).
		Str("room_id", msg.RoomID).
		Msg("received client message")

	switch msg.Type {
	case MessageJoin:
		h.join(c, msg.RoomID)
	case MessageLeave, MessageLeaveRoom:
		h.leave(c, msg.RoomID)
	case MessageStartTimer, MessagePauseTimer, MessageResetTimer, MessageSetPreset:
		h.timerCommand(c, msg)
	default:
		h.send(c, newError(ErrCodeUnknownType, "unknown message type "+string(msg.Type), msg.RoomID))
	}
}

func (h *Hub) join(c *Connection, roomID string) {
	if roomID == "" {
		h.send(c, newError(ErrCodeMissingRoomID, "roomId is required", ""))
		return
	}

	rm, created := h.registry.GetOrCreate(roomID)
	if created {
		h.metrics.Rooms.Set(float64(h.registry.Len()))
	}
	isAdmin := h.admins != nil && h.admins.IsAdmin(roomID, c.Identity.UserID)

	previous, _ := h.members.Join(c.ID, roomID, isAdmin, rm.Preset().Presence())
	if previous != "" && previous != roomID {
		h.broadcastRoster(previous)
		h.notify(models.RoomEventMemberLeft, previous, c.Identity.UserID, nil)
	}

	snap := rm.Snapshot()
	h.send(c, JoinedRoomMessage{
		Type:      MessageJoinedRoom,
		RoomID:    roomID,
		Timer:     snap.RemainingSeconds,
		IsRunning: snap.IsRunning,
		Preset:    snap.Preset,
		IsAdmin:   isAdmin,
		Members:   h.members.Roster(roomID),
	})
	h.broadcastRoster(roomID)
	h.notify(models.RoomEventMemberJoined, roomID, c.Identity.UserID, &snap)

	log.Info().
		Str("connection_id", c.ID).
		Str("user_id", c.Identity.UserID).
		Str("room_id", roomID).
		Bool("is_admin", isAdmin).
		Bool("room_created", created).
		Msg("joined room")
}

func (h *Hub) leave(c *Connection, roomID string) {
	vacated := h.members.Leave(c.ID)
	reply := roomID
	if reply == "" {
		reply = vacated
	}
	h.send(c, LeaveMessage{Type: MessageLeave, RoomID: reply})

	if vacated != "" {
		h.broadcastRoster(vacated)
		h.notify(models.RoomEventMemberLeft, vacated, c.Identity.UserID, nil)
	}
}

func (h *Hub) timerCommand(c *Connection, msg ClientMessage) {
	if msg.RoomID == "" {
		h.send(c, newError(ErrCodeMissingRoomID, "roomId is required", ""))
		return
	}
	rm, ok := h.registry.Get(msg.RoomID)
	if !ok {
		log.Debug().
			Str("connection_id", c.ID).
			Str("room_id", msg.RoomID).
			Str("type", string(msg.Type)).
			Msg("timer command for unknown room")
		h.send(c, newError(ErrCodeUnknownRoom, "room does not exist", msg.RoomID))
		return
	}

	var event models.RoomEventType
	rosterChanged := false

	switch msg.Type {
	case MessageStartTimer:
		if rm.Start() {
			event = models.RoomEventTimerStarted
		}
	case MessagePauseTimer:
		if rm.Pause() {
			event = models.RoomEventTimerPaused
		}
	case MessageResetTimer:
		rm.Reset()
		event = models.RoomEventTimerReset
	case MessageSetPreset:
		preset, err := models.ParsePreset(msg.Preset)
		if err != nil {
			h.send(c, newError(ErrCodeInvalidPreset, err.Error(), msg.RoomID))
			return
		}
		if _, err := rm.SetPreset(preset); err != nil {
			h.send(c, newError(ErrCodeInvalidPreset, err.Error(), msg.RoomID))
			return
		}
		h.members.SetPresence(rm.ID(), preset.Presence())
		event = models.RoomEventPresetChanged
		rosterChanged = true
	}

	h.broadcastTimer(rm)
	if rosterChanged {
		h.broadcastRoster(rm.ID())
	}
	if event != "" {
		snap := rm.Snapshot()
		h.notify(event, rm.ID(), c.Identity.UserID, &snap)
	}
}

func (h *Hub) tick(roomID string, gen uint64) {
	rm, ok := h.registry.Get(roomID)
	if !ok || !rm.Tick(gen) {
		return
	}
	h.broadcastTimer(rm)

	if rm.Expired() {
		snap := rm.Snapshot()
		h.notify(models.RoomEventTimerCompleted, roomID, "", &snap)
		log.Info().
			Str("room_id", roomID).
			Str("preset", string(rm.Preset())).
			Msg("timer completed")
	}
}

func (h *Hub) sweep() {
	evicted := h.registry.Evict(h.config.IdleTTL, h.members.Occupied, h.keep)
	if len(evicted) == 0 {
		return
	}
	h.metrics.Rooms.Set(float64(h.registry.Len()))
	log.Info().
		Strs("room_ids", evicted).
		Int("rooms", h.registry.Len()).
		Msg("evicted idle rooms")
}

func (h *Hub) shutdown() {
	for id, c := range h.conns {
		close(c.send)
		delete(h.conns, id)
	}
	h.registry.CloseAll()
	h.metrics.Connections.Set(0)
}

func (h *Hub) notify(kind models.RoomEventType, roomID, userID string, snap *models.TimerSnapshot) {
	if h.notifier == nil {
		return
	}
	h.notifier.Notify(models.RoomEvent{
		Type:    kind,
		RoomID:  roomID,
		UserID:  userID,
		Timer:   snap,
		Members: len(h.members.ConnIDs(roomID)),
		At:      h.clock.Now().UTC(),
	})
}

func messageLabel(t MessageType) string {
	switch t {
	case MessageJoin, MessageLeave, MessageLeaveRoom, MessageStartTimer,
		MessagePauseTimer, MessageResetTimer, MessageSetPreset:
		return string(t)
	default:
		return "unknown"
	}
}
