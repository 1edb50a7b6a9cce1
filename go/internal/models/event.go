package models

import "time"

// RoomEventType identifies a room activity notification.
type RoomEventType string

const (
	RoomEventMemberJoined   RoomEventType = "MemberJoined"
	RoomEventMemberLeft     RoomEventType = "MemberLeft"
	RoomEventTimerStarted   RoomEventType = "TimerStarted"
	RoomEventTimerPaused    RoomEventType = "TimerPaused"
	RoomEventTimerReset     RoomEventType = "TimerReset"
	RoomEventPresetChanged  RoomEventType = "PresetChanged"
	RoomEventTimerCompleted RoomEventType = "TimerCompleted"
)

// RoomEvent is published to downstream consumers whenever something happens in a room.
type RoomEvent struct {
	Type    RoomEventType  `json:"type"`
	RoomID  string         `json:"roomId"`
	UserID  string         `json:"userId,omitempty"`
	Timer   *TimerSnapshot `json:"timer,omitempty"`
	Members int            `json:"members"`
	At      time.Time      `json:"at"`
}
