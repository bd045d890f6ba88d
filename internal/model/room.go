package model

// RoomID names a room and is used verbatim as its transport channel
type RoomID string

// Channel returns the transport channel carrying this room's moves
func (r RoomID) Channel() string {
	return string(r)
}

// Validate rejects empty IDs and the lobby channel, which never carries moves
func (r RoomID) Validate() error {
	if r == "" || r.Channel() == LobbyChannel {
		return ErrInvalidRoomID
	}
	return nil
}

// Phase is the room coordinator's current state
type Phase string

const (
	PhaseIdle             Phase = "idle"              // No room bound
	PhaseAwaitingOpponent Phase = "awaiting_opponent" // Room channel subscribed, no local move yet
	PhaseInGame           Phase = "in_game"           // Local move published
	PhaseResolved         Phase = "resolved"          // Both moves known, outcome fixed
)

// MatchState is derived from the moves seen for the active room
type MatchState struct {
	LocalMove  Move
	RemoteMove Move
	Result     Outcome // Empty until both moves are present
}

// Complete reports whether both moves are known
func (m MatchState) Complete() bool {
	return m.LocalMove != "" && m.RemoteMove != ""
}

// Snapshot is the observable state exposed to the presentation layer
type Snapshot struct {
	Identity     Identity
	Phase        Phase
	RoomID       RoomID
	IsCreator    bool
	Creator      Identity // Set when the room was created locally
	OpponentSeen bool // A join announcement from another client was observed
	Match        MatchState
}
