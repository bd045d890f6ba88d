package response

import (
	"time"

	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/services/outcome"
)

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}

// Session represents the session snapshot in API responses.
// The opponent's move is withheld until the room is resolved.
type Session struct {
	Identity      string `json:"identity"`
	Phase         string `json:"phase"`
	RoomID        string `json:"room_id,omitempty"`
	IsCreator     bool   `json:"is_creator"`
	Creator       string `json:"creator,omitempty"`
	OpponentSeen  bool   `json:"opponent_seen"`
	OpponentMoved bool   `json:"opponent_moved"`
	LocalMove     string `json:"local_move,omitempty"`
	RemoteMove    string `json:"remote_move,omitempty"`
	Result        string `json:"result,omitempty"`
	ResultText    string `json:"result_text,omitempty"`
}

// SessionFromModel converts a model.Snapshot to a response Session
func SessionFromModel(s model.Snapshot) Session {
	resp := Session{
		Identity:      string(s.Identity),
		Phase:         string(s.Phase),
		RoomID:        string(s.RoomID),
		IsCreator:     s.IsCreator,
		Creator:       string(s.Creator),
		OpponentSeen:  s.OpponentSeen,
		OpponentMoved: s.Match.RemoteMove != "",
		LocalMove:     string(s.Match.LocalMove),
	}
	if s.Phase == model.PhaseResolved {
		resp.RemoteMove = string(s.Match.RemoteMove)
		resp.Result = string(s.Match.Result)
		resp.ResultText = outcome.Describe(s.Match.Result)
	}
	return resp
}

// Event represents a session event pushed over SSE
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	RoomID    string    `json:"room_id,omitempty"`
	Session   Session   `json:"session"`
	Error     string    `json:"error,omitempty"`
}

// EventFromModel converts a model.Event to a response Event
func EventFromModel(e model.Event) Event {
	resp := Event{
		Type:      string(e.Type),
		Timestamp: e.Timestamp,
		RoomID:    string(e.RoomID),
		Session:   SessionFromModel(e.Snapshot),
	}
	if e.Err != nil {
		resp.Error = e.Err.Error()
	}
	return resp
}
