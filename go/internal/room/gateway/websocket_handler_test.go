package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mcdev12/focusroom/go/internal/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T, secret string) (*httptest.Server, *Service) {
	t.Helper()
	cfg := DefaultConfig()
	cfg.HubConfig.IdleTTL = 0

	svc := NewService(cfg, auth.NewAuthenticator(secret, nil), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.Start(ctx)
		close(done)
	}()

	mux := http.NewServeMux()
	svc.RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-done
	})
	return srv, svc
}

func wsURL(srv *httptest.Server, token string) string {
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	if token != "" {
		u += "?token=" + url.QueryEscape(token)
	}
	return u
}

func mintToken(t *testing.T, secret, userID, name string) string {
	t.Helper()
	tok, err := auth.NewIssuer(secret, time.Hour, nil).Issue(userID, name)
	require.NoError(t, err)
	return tok
}

func dial(t *testing.T, u string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, out any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(recvTimeout)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, out))
}

func TestWebSocketHandler_RejectsHandshake(t *testing.T) {
	tests := []struct {
		name       string
		serverKey  string
		tokenKey   string // signs a token for alice when set
		rawToken   string
		wantCode   int
		wantReason string
	}{
		{
			name:       "missing token",
			serverKey:  testSecret,
			wantCode:   auth.ClosePolicyViolation,
			wantReason: auth.KindMissingToken.Reason(),
		},
		{
			name:       "wrong secret",
			serverKey:  testSecret,
			tokenKey:   "other-secret",
			wantCode:   auth.ClosePolicyViolation,
			wantReason: auth.KindInvalidToken.Reason(),
		},
		{
			name:       "server secret missing",
			serverKey:  "",
			rawToken:   "any",
			wantCode:   auth.CloseInternalError,
			wantReason: auth.KindMisconfigured.Reason(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, svc := newTestServer(t, tt.serverKey)
			token := tt.rawToken
			if tt.tokenKey != "" {
				token = mintToken(t, tt.tokenKey, "alice", "Alice")
			}

			conn := dial(t, wsURL(srv, token))
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(recvTimeout)))
			_, _, err := conn.ReadMessage()

			var closeErr *websocket.CloseError
			require.ErrorAs(t, err, &closeErr)
			assert.Equal(t, tt.wantCode, closeErr.Code)
			assert.Equal(t, tt.wantReason, closeErr.Text)

			stats, err := svc.Hub().Stats(context.Background())
			require.NoError(t, err)
			assert.Zero(t, stats.TotalConnections, "rejected connections never reach the hub")
		})
	}
}

func TestWebSocketHandler_AuthenticatedSession(t *testing.T) {
	srv, _ := newTestServer(t, testSecret)
	conn := dial(t, wsURL(srv, mintToken(t, testSecret, "alice", "Alice")))

	var authed AuthenticatedMessage
	readJSON(t, conn, &authed)
	assert.Equal(t, MessageAuthenticated, authed.Type)
	assert.Equal(t, AuthenticatedUser{Name: "Alice", UserID: "alice"}, authed.User)

	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageJoin, RoomID: "default_room"}))

	var joined JoinedRoomMessage
	readJSON(t, conn, &joined)
	assert.Equal(t, MessageJoinedRoom, joined.Type)
	assert.Equal(t, "default_room", joined.RoomID)
	assert.Equal(t, 1500, joined.Timer)
	require.Len(t, joined.Members, 1)
	assert.Equal(t, "Alice", joined.Members[0].Name)
	assert.Equal(t, auth.AvatarFor("alice"), joined.Members[0].Image)

	var roster MemberUpdateMessage
	readJSON(t, conn, &roster)
	assert.Equal(t, MessageMemberUpdate, roster.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	var errMsg ErrorMessage
	readJSON(t, conn, &errMsg)
	assert.Equal(t, ErrCodeMalformed, errMsg.Code)

	// Still usable after a malformed frame.
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageStartTimer, RoomID: "default_room"}))
	var upd UpdateTimerMessage
	readJSON(t, conn, &upd)
	assert.True(t, upd.IsRunning)
}

func TestWebSocketHandler_BearerHeader(t *testing.T) {
	srv, _ := newTestServer(t, testSecret)
	header := http.Header{}
	header.Set("Authorization", "Bearer "+mintToken(t, testSecret, "bob", ""))

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), header)
	require.NoError(t, err)
	defer conn.Close()

	var authed AuthenticatedMessage
	readJSON(t, conn, &authed)
	assert.Equal(t, AuthenticatedUser{Name: "bob", UserID: "bob"}, authed.User)
}

func TestWebSocketHandler_Stats(t *testing.T) {
	srv, _ := newTestServer(t, testSecret)
	conn := dial(t, wsURL(srv, mintToken(t, testSecret, "alice", "Alice")))
	var authed AuthenticatedMessage
	readJSON(t, conn, &authed)

	resp, err := http.Get(srv.URL + "/ws/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stats Stats
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 1, stats.TotalConnections)
	assert.Equal(t, 1, stats.ActiveRooms)
}

func TestWebSocketHandler_LongRoomID(t *testing.T) {
	srv, _ := newTestServer(t, testSecret)
	conn := dial(t, wsURL(srv, mintToken(t, testSecret, "alice", "Alice")))
	var authed AuthenticatedMessage
	readJSON(t, conn, &authed)

	roomID := strings.Repeat("r", 1100)
	require.NoError(t, conn.WriteJSON(ClientMessage{Type: MessageJoin, RoomID: roomID}))

	var joined JoinedRoomMessage
	readJSON(t, conn, &joined)
	assert.Equal(t, MessageJoinedRoom, joined.Type)
	assert.Equal(t, roomID, joined.RoomID)
}
