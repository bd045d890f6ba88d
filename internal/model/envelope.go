package model

// Action identifies the kind of envelope on the wire
type Action string

const (
	ActionCreate Action = "create"
	ActionJoin   Action = "join"
	ActionMove   Action = "move"
)

// LobbyChannel is the well-known channel carrying create/join announcements
const LobbyChannel = "rps-room"

// Envelope is the only unit exchanged between participants
type Envelope struct {
	Action Action   `json:"action"`
	RoomID RoomID   `json:"roomId"`
	Sender Identity `json:"sender,omitempty"`
	Move   Move     `json:"move,omitempty"`
}

// Validate checks the envelope is well-formed enough to dispatch
func (e Envelope) Validate() error {
	if e.RoomID == "" {
		return ErrInvalidRoomID
	}
	switch e.Action {
	case ActionCreate, ActionJoin:
		return nil
	case ActionMove:
		if !e.Move.Valid() {
			return ErrInvalidMove
		}
		return nil
	default:
		return ErrInvalidEnvelope
	}
}
