package model

import "time"

// EventType identifies the type of session event
type EventType string

const (
	EventRoomCreated     EventType = "room_created"
	EventRoomJoined      EventType = "room_joined"
	EventOpponentJoined  EventType = "opponent_joined"
	EventMoveSubmitted   EventType = "move_submitted"
	EventOpponentMoved   EventType = "opponent_moved"
	EventOpponentPending EventType = "opponent_pending"
	EventResolved        EventType = "resolved"
	EventReset           EventType = "reset"
	EventTransportError  EventType = "transport_error"
)

// Event is emitted by the room coordinator whenever observable state changes
type Event struct {
	Type      EventType
	Timestamp time.Time
	RoomID    RoomID // Empty for reset events
	Snapshot  Snapshot
	Err       error // Set for transport errors only
}
