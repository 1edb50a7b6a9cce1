package gateway

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/focusroom/go/internal/models"
)

// MessageType is the "type" field of every envelope.
type MessageType string

// Client -> server.
const (
	MessageJoin       MessageType = "join"
	MessageLeave      MessageType = "leave"
	MessageLeaveRoom  MessageType = "leaveRoom"
	MessageStartTimer MessageType = "startTimer"
	MessagePauseTimer MessageType = "pauseTimer"
	MessageResetTimer MessageType = "resetTimer"
	MessageSetPreset  MessageType = "setPreset"
)

// Server -> client.
const (
	MessageAuthenticated MessageType = "authenticated"
	MessageJoinedRoom    MessageType = "joinedRoom"
	MessageUpdateTimer   MessageType = "updateTimer"
	MessageMemberUpdate  MessageType = "memberUpdate"
	MessageError         MessageType = "error"
)

// Error codes carried by error envelopes.
const (
	ErrCodeMalformed     = "malformedMessage"
	ErrCodeUnknownType   = "unknownType"
	ErrCodeUnknownRoom   = "unknownRoom"
	ErrCodeMissingRoomID = "missingRoomId"
	ErrCodeInvalidPreset = "invalidPreset"
)

// ErrMalformedMessage is returned for payloads that cannot be decoded into an envelope.
var ErrMalformedMessage = errors.New("malformed message")

// ClientMessage is an inbound envelope.
type ClientMessage struct {
	Type   MessageType `json:"type"`
	RoomID string      `json:"roomId"`
	Preset string      `json:"preset,omitempty"`
}

// DecodeClientMessage parses a raw frame.
func DecodeClientMessage(data []byte) (ClientMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return ClientMessage{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if msg.Type == "" {
		return ClientMessage{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	}
	return msg, nil
}

// AuthenticatedUser is the identity echoed back after a successful handshake.
type AuthenticatedUser struct {
	Name   string `json:"name"`
	UserID string `json:"userId"`
}

type AuthenticatedMessage struct {
	Type MessageType       `json:"type"`
	User AuthenticatedUser `json:"user"`
}

type JoinedRoomMessage struct {
	Type      MessageType     `json:"type"`
	RoomID    string          `json:"roomId"`
	Timer     int             `json:"timer"`
	IsRunning bool            `json:"isRunning"`
	Preset    models.Preset   `json:"preset"`
	IsAdmin   bool            `json:"isAdmin"`
	Members   []models.Member `json:"members"`
}

type UpdateTimerMessage struct {
	Type      MessageType   `json:"type"`
	RoomID    string        `json:"roomId"`
	Timer     int           `json:"timer"`
	IsRunning bool          `json:"isRunning"`
	Preset    models.Preset `json:"preset"`
}

type MemberUpdateMessage struct {
	Type    MessageType     `json:"type"`
	RoomID  string          `json:"roomId"`
	Members []models.Member `json:"members"`
}

type LeaveMessage struct {
	Type   MessageType `json:"type"`
	RoomID string      `json:"roomId"`
}

type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Code    string      `json:"code"`
	Message string      `json:"message"`
	RoomID  string      `json:"roomId,omitempty"`
}

func newUpdateTimer(s models.TimerSnapshot) UpdateTimerMessage {
	return UpdateTimerMessage{
		Type:      MessageUpdateTimer,
		RoomID:    s.RoomID,
		Timer:     s.RemainingSeconds,
		IsRunning: s.IsRunning,
		Preset:    s.Preset,
	}
}

func newMemberUpdate(roomID string, members []models.Member) MemberUpdateMessage {
	if members == nil {
		members = []models.Member{}
	}
	return MemberUpdateMessage{Type: MessageMemberUpdate, RoomID: roomID, Members: members}
}

func newError(code, message, roomID string) ErrorMessage {
	return ErrorMessage{Type: MessageError, Code: code, Message: message, RoomID: roomID}
}
