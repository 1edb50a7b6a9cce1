package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/focusroom/go/internal/models"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
)

type Config struct {
	URL           string
	SubjectPrefix string
	MaxReconnects int
	ReconnectWait time.Duration
	Buffer        int // events queued before Notify starts dropping
}

func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		SubjectPrefix: "focusroom.rooms",
		MaxReconnects: -1, // Infinite
		ReconnectWait: 2 * time.Second,
		Buffer:        1024,
	}
}

// publisher is the part of *nats.Conn the notifier uses.
type publisher interface {
	Publish(subject string, data []byte) error
}

// Envelope is the message body published for every room event.
type Envelope struct {
	EventID string `json:"eventId"`
	models.RoomEvent
}

// NATSNotifier publishes room activity to NATS subjects of the form
// <prefix>.<roomId>.<event>. Notify never blocks the caller: events are queued and
// published by Run, and dropped when the queue is full.
type NATSNotifier struct {
	nc     *nats.Conn
	pub    publisher
	prefix string
	queue  chan models.RoomEvent
}

// Connect dials NATS and returns a notifier. Call Run to start publishing.
func Connect(cfg Config) (*NATSNotifier, error) {
	opts := []nats.Option{
		nats.Name("focusroom-gateway"),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	n := newNotifier(nc, cfg)
	n.nc = nc
	return n, nil
}

func newNotifier(pub publisher, cfg Config) *NATSNotifier {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 1024
	}
	return &NATSNotifier{
		pub:    pub,
		prefix: strings.TrimSuffix(cfg.SubjectPrefix, "."),
		queue:  make(chan models.RoomEvent, cfg.Buffer),
	}
}

// Notify queues ev for publishing.
func (n *NATSNotifier) Notify(ev models.RoomEvent) {
	select {
	case n.queue <- ev:
	default:
		log.Warn().
			Str("room_id", ev.RoomID).
			Str("event_type", string(ev.Type)).
			Msg("activity queue full, dropping event")
	}
}

// Run publishes queued events until ctx is cancelled, then drains the connection.
func (n *NATSNotifier) Run(ctx context.Context) {
	log.Info().Str("subject_prefix", n.prefix).Msg("activity publisher started")
	for {
		select {
		case <-ctx.Done():
			n.flush()
			n.Close()
			log.Info().Msg("activity publisher stopped")
			return
		case ev := <-n.queue:
			if err := n.publish(ev); err != nil {
				log.Error().
					Err(err).
					Str("room_id", ev.RoomID).
					Str("event_type", string(ev.Type)).
					Msg("failed to publish room event")
			}
		}
	}
}

// flush publishes whatever is still queued.
func (n *NATSNotifier) flush() {
	for {
		select {
		case ev := <-n.queue:
			if err := n.publish(ev); err != nil {
				log.Error().Err(err).Str("room_id", ev.RoomID).Msg("failed to publish room event")
			}
		default:
			return
		}
	}
}

func (n *NATSNotifier) publish(ev models.RoomEvent) error {
	data, err := json.Marshal(Envelope{EventID: uuid.NewString(), RoomEvent: ev})
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := Subject(n.prefix, ev.RoomID, ev.Type)
	if err := n.pub.Publish(subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	log.Debug().
		Str("subject", subject).
		Msg("published room event")
	return nil
}

// Close drains the NATS connection if the notifier owns one.
func (n *NATSNotifier) Close() {
	if n.nc == nil {
		return
	}
	if err := n.nc.Drain(); err != nil {
		log.Error().Err(err).Msg("failed to drain NATS connection")
		n.nc.Close()
	}
}

// Subject builds <prefix>.<roomId>.<event>. Room ids are client supplied, so the
// characters NATS treats as separators or wildcards are replaced.
func Subject(prefix, roomID string, event models.RoomEventType) string {
	return prefix + "." + sanitizeToken(roomID) + "." + string(event)
}

func sanitizeToken(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
}

// Nop discards every event; used when NATS is not configured.
type Nop struct{}

func (Nop) Notify(models.RoomEvent) {}
