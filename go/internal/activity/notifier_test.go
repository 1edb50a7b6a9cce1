package activity

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mcdev12/focusroom/go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(subject string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{subject: subject, data: data})
	return nil
}

func (p *fakePublisher) snapshot() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.msgs...)
}

func TestSubject(t *testing.T) {
	tests := []struct {
		roomID string
		want   string
	}{
		{roomID: "abc", want: "focusroom.rooms.abc.TimerStarted"},
		{roomID: "a.b", want: "focusroom.rooms.a_b.TimerStarted"},
		{roomID: "x*>y z", want: "focusroom.rooms.x__y_z.TimerStarted"},
		{roomID: "", want: "focusroom.rooms._.TimerStarted"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Subject("focusroom.rooms", tt.roomID, models.RoomEventTimerStarted))
	}
}

func TestNATSNotifier_Publishes(t *testing.T) {
	pub := &fakePublisher{}
	n := newNotifier(pub, Config{SubjectPrefix: "focusroom.rooms."})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		n.Run(ctx)
		close(done)
	}()

	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	n.Notify(models.RoomEvent{
		Type:    models.RoomEventTimerStarted,
		RoomID:  "abc",
		UserID:  "alice",
		Timer:   &models.TimerSnapshot{RoomID: "abc", RemainingSeconds: 1500, IsRunning: true, Preset: models.PresetFocus},
		Members: 2,
		At:      at,
	})

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	msg := pub.snapshot()[0]
	assert.Equal(t, "focusroom.rooms.abc.TimerStarted", msg.subject)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.data, &env))
	assert.NotEmpty(t, env.EventID)
	assert.Equal(t, models.RoomEventTimerStarted, env.Type)
	assert.Equal(t, "alice", env.UserID)
	assert.Equal(t, 2, env.Members)
	assert.True(t, at.Equal(env.At))
	require.NotNil(t, env.Timer)
	assert.Equal(t, 1500, env.Timer.RemainingSeconds)
}

func TestNATSNotifier_DropsWhenFull(t *testing.T) {
	pub := &fakePublisher{}
	n := newNotifier(pub, Config{SubjectPrefix: "p", Buffer: 2})

	for i := 0; i < 5; i++ {
		n.Notify(models.RoomEvent{Type: models.RoomEventMemberJoined, RoomID: "r"})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n.Run(ctx)

	assert.Len(t, pub.snapshot(), 2, "queued events are flushed on shutdown, the rest dropped")
}

func TestNATSNotifier_PublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("nats: connection closed")}
	n := newNotifier(pub, Config{SubjectPrefix: "p"})

	err := n.publish(models.RoomEvent{Type: models.RoomEventMemberLeft, RoomID: "r"})
	assert.ErrorContains(t, err, "publish p.r.MemberLeft")
}
