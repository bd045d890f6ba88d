package exchange

import (
	"context"
	"log/slog"

	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/services/outcome"
)

// Publisher is the part of a transport the exchange publishes through
type Publisher interface {
	Publish(ctx context.Context, channel string, env model.Envelope) error
}

// Disposition describes what AcceptRemote did with an envelope
type Disposition string

const (
	Accepted    Disposition = "accepted"
	NotAMove    Disposition = "not_a_move"
	ForeignRoom Disposition = "foreign_room"
	Echo        Disposition = "echo"
	Anonymous   Disposition = "anonymous"
	Duplicate   Disposition = "duplicate"
	ExtraSender Disposition = "extra_sender" // a third participant; the room holds two
)

// Exchange collects exactly one move per participant for a single room.
//
// It is not safe for concurrent use; the room coordinator serializes every call.
type Exchange struct {
	room      model.RoomID
	identity  model.Identity
	publisher Publisher
	logger    *slog.Logger

	local        model.Move
	remote       model.Move
	remoteSender model.Identity
}

// New creates an exchange for room on behalf of identity
func New(room model.RoomID, identity model.Identity, publisher Publisher, logger *slog.Logger) *Exchange {
	return &Exchange{
		room:      room,
		identity:  identity,
		publisher: publisher,
		logger:    logger.With(slog.String("room_id", string(room))),
	}
}

// SubmitLocal publishes the local move on the room channel and binds it.
// It returns false without publishing if a local move is already bound. The move
// is bound only once the publish succeeded, so a transport failure can be retried.
func (e *Exchange) SubmitLocal(ctx context.Context, move model.Move) (bool, error) {
	if e.local != "" {
		e.logger.Debug("local move already submitted",
			slog.String("bound", string(e.local)),
			slog.String("ignored", string(move)))
		return false, nil
	}
	if !move.Valid() {
		return false, model.ErrInvalidMove
	}

	env := model.Envelope{
		Action: model.ActionMove,
		RoomID: e.room,
		Sender: e.identity,
		Move:   move,
	}
	if err := e.publisher.Publish(ctx, e.room.Channel(), env); err != nil {
		return false, err
	}

	e.local = move
	return true, nil
}

// AcceptRemote records the opponent's move from env if env is one
func (e *Exchange) AcceptRemote(env model.Envelope) Disposition {
	switch {
	case env.RoomID != e.room:
		return ForeignRoom
	case env.Action != model.ActionMove || !env.Move.Valid():
		return NotAMove
	case env.Sender == "":
		return Anonymous
	case env.Sender == e.identity:
		return Echo
	case e.remoteSender != "" && env.Sender != e.remoteSender:
		return ExtraSender
	case e.remote != "":
		return Duplicate
	}

	e.remoteSender = env.Sender
	e.remote = env.Move
	return Accepted
}

// Evaluate resolves the room once both moves are known; it never changes a result
func (e *Exchange) Evaluate() (model.Outcome, bool) {
	state := model.MatchState{LocalMove: e.local, RemoteMove: e.remote}
	if !state.Complete() {
		return "", false
	}
	return outcome.Resolve(e.local, e.remote), true
}

// State returns the derived match state
func (e *Exchange) State() model.MatchState {
	state := model.MatchState{LocalMove: e.local, RemoteMove: e.remote}
	if result, ok := e.Evaluate(); ok {
		state.Result = result
	}
	return state
}

// Opponent returns the identity whose move was accepted, if any
func (e *Exchange) Opponent() model.Identity {
	return e.remoteSender
}
