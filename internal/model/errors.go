package model

import "errors"

// Common errors used across the application
var (
	// Input errors
	ErrInvalidRoomID   = errors.New("invalid room id")
	ErrInvalidMove     = errors.New("invalid move")
	ErrInvalidEnvelope = errors.New("invalid envelope")

	// Session errors
	ErrNotStarted   = errors.New("session not started")
	ErrRoomActive   = errors.New("a room is already active")
	ErrNoActiveRoom = errors.New("no active room")
)
