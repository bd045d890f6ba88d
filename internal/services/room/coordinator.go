package room

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/rpsroom/internal/dependencies/clock"
	"github.com/mcoot/rpsroom/internal/dependencies/random"
	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/services/exchange"
	"github.com/mcoot/rpsroom/internal/transport"
)

const (
	// RoomIDLength is the length of generated room IDs
	RoomIDLength = 6
	// RoomIDAlphabet is the characters used in generated room IDs
	RoomIDAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	// DefaultResolveDelay is how long after the local move the opponent is given to respond
	DefaultResolveDelay = 2 * time.Second
)

// Notifier receives session events once the state change they describe is visible
type Notifier interface {
	Notify(event model.Event)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(event model.Event)

func (f NotifierFunc) Notify(event model.Event) {
	f(event)
}

// Config holds coordinator settings
type Config struct {
	// ResolveDelay is the heuristic wait after the local move; zero means DefaultResolveDelay
	ResolveDelay time.Duration
}

// Coordinator runs the room state machine for one client session.
//
// Every trigger, every inbound envelope and every timer callback takes the same
// mutex, so room and match state only ever change one handler at a time.
type Coordinator struct {
	transport    transport.Transport
	identity     model.Identity
	clock        clock.Clock
	random       random.Random
	notifier     Notifier
	logger       *slog.Logger
	resolveDelay time.Duration

	mu           sync.Mutex
	started      bool
	phase        model.Phase
	room         model.RoomID
	isCreator    bool
	opponentSeen bool
	exchange     *exchange.Exchange
	generation   uint64 // bumped whenever a room is bound or reset
	timer        clock.Timer
}

// NewCoordinator creates a coordinator; Start must be called before any trigger
func NewCoordinator(
	tr transport.Transport,
	identity model.Identity,
	clock clock.Clock,
	random random.Random,
	notifier Notifier,
	cfg Config,
	logger *slog.Logger,
) *Coordinator {
	delay := cfg.ResolveDelay
	if delay <= 0 {
		delay = DefaultResolveDelay
	}
	if notifier == nil {
		notifier = NotifierFunc(func(model.Event) {})
	}
	return &Coordinator{
		transport:    tr,
		identity:     identity,
		clock:        clock,
		random:       random,
		notifier:     notifier,
		logger:       logger.With(slog.String("component", "room"), slog.String("identity", string(identity))),
		resolveDelay: delay,
		phase:        model.PhaseIdle,
	}
}

// Identity returns the identity this session acts as
func (c *Coordinator) Identity() model.Identity {
	return c.identity
}

// Start connects the transport with the dispatcher and subscribes to the lobby.
// It is safe to call again after a failure.
func (c *Coordinator) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}
	if err := c.transport.Connect(ctx, c.identity, c.dispatch); err != nil {
		return err
	}
	if err := c.transport.Subscribe(ctx, model.LobbyChannel); err != nil {
		return err
	}

	c.started = true
	c.logger.Info("session started")
	return nil
}

// CreateRoom binds a freshly generated room as its creator and announces it on the lobby
func (c *Coordinator) CreateRoom(ctx context.Context) (model.RoomID, error) {
	c.mu.Lock()
	var events []model.Event
	defer func() {
		c.mu.Unlock()
		c.emit(events)
	}()

	if err := c.checkIdleLocked(); err != nil {
		return "", err
	}

	// Collisions with another live room are possible and not detected up front
	id := model.RoomID(c.random.String(RoomIDLength, RoomIDAlphabet))
	if err := id.Validate(); err != nil {
		return "", fmt.Errorf("generate room id %q: %w", id, err)
	}

	if err := c.bindRoomLocked(ctx, id, true, &events); err != nil {
		return "", err
	}
	return id, nil
}

// JoinRoom binds the room named by roomID and announces the join on the lobby
func (c *Coordinator) JoinRoom(ctx context.Context, roomID string) error {
	id := model.RoomID(strings.TrimSpace(roomID))
	if err := id.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	var events []model.Event
	defer func() {
		c.mu.Unlock()
		c.emit(events)
	}()

	if err := c.checkIdleLocked(); err != nil {
		return err
	}
	return c.bindRoomLocked(ctx, id, false, &events)
}

// SubmitMove publishes the local move for the active room.
// A second submission for the same room is ignored.
func (c *Coordinator) SubmitMove(ctx context.Context, move model.Move) error {
	c.mu.Lock()
	var events []model.Event
	defer func() {
		c.mu.Unlock()
		c.emit(events)
	}()

	if !c.started {
		return model.ErrNotStarted
	}
	if c.exchange == nil {
		return model.ErrNoActiveRoom
	}
	if !move.Valid() {
		return model.ErrInvalidMove
	}

	submitted, err := c.exchange.SubmitLocal(ctx, move)
	if err != nil {
		c.transportErrorLocked(err, &events)
		return err
	}
	if !submitted {
		return nil
	}

	c.phase = model.PhaseInGame
	c.logger.Info("move submitted",
		slog.String("room_id", string(c.room)),
		slog.String("move", string(move)))
	events = append(events, c.eventLocked(model.EventMoveSubmitted))

	generation := c.generation
	c.timer = c.clock.AfterFunc(c.resolveDelay, func() {
		c.onResolveDelay(generation)
	})

	c.evaluateLocked(&events)
	return nil
}

// Reset abandons the current room and returns to Idle with no state carried over.
// Channels subscribed so far stay subscribed.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	var events []model.Event
	defer func() {
		c.mu.Unlock()
		c.emit(events)
	}()

	c.stopTimerLocked()
	c.generation++

	previous := c.room
	c.phase = model.PhaseIdle
	c.room = ""
	c.isCreator = false
	c.opponentSeen = false
	c.exchange = nil

	c.logger.Info("session reset", slog.String("previous_room_id", string(previous)))
	events = append(events, c.eventLocked(model.EventReset))
}

// Evaluate re-checks whether the active room can be resolved.
// It is safe to call at any time and never changes an outcome once fixed.
func (c *Coordinator) Evaluate() (model.Outcome, bool) {
	c.mu.Lock()
	var events []model.Event
	defer func() {
		c.mu.Unlock()
		c.emit(events)
	}()

	c.evaluateLocked(&events)
	if c.phase != model.PhaseResolved {
		return "", false
	}
	return c.exchange.State().Result, true
}

// Snapshot returns the current observable state
func (c *Coordinator) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Close stops any pending resolution timer; the transport is owned by the caller
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimerLocked()
	c.generation++
}

// dispatch is the transport handler for every inbound envelope
func (c *Coordinator) dispatch(msg transport.Message) {
	c.mu.Lock()
	var events []model.Event
	defer func() {
		c.mu.Unlock()
		c.emit(events)
	}()

	env := msg.Envelope
	log := c.logger.With(
		slog.String("channel", msg.Channel),
		slog.String("action", string(env.Action)),
		slog.String("envelope_room_id", string(env.RoomID)),
		slog.String("sender", string(env.Sender)),
	)

	if c.exchange == nil {
		if env.Action == model.ActionMove {
			log.Debug("discarding move with no active room")
		}
		return
	}
	if env.RoomID != c.room {
		return
	}

	switch env.Action {
	case model.ActionCreate, model.ActionJoin:
		if msg.Channel != model.LobbyChannel {
			log.Debug("ignoring announcement outside the lobby")
			return
		}
		if env.Sender == "" || env.Sender == c.identity {
			return
		}
		if env.Action == model.ActionCreate {
			log.Warn("another client announced the same room id")
			return
		}
		if !c.opponentSeen {
			c.opponentSeen = true
			log.Info("opponent joined")
			events = append(events, c.eventLocked(model.EventOpponentJoined))
		}

	case model.ActionMove:
		if msg.Channel != c.room.Channel() {
			log.Warn("discarding move outside the room channel")
			return
		}
		switch disposition := c.exchange.AcceptRemote(env); disposition {
		case exchange.Accepted:
			log.Info("opponent moved")
			c.opponentSeen = true
			events = append(events, c.eventLocked(model.EventOpponentMoved))
			c.evaluateLocked(&events)
		case exchange.ExtraSender:
			log.Warn("discarding move from a third participant",
				slog.String("opponent", string(c.exchange.Opponent())))
		default:
			log.Debug("ignoring move", slog.String("disposition", string(disposition)))
		}
	}
}

// onResolveDelay runs when the opponent's response window after the local move has passed
func (c *Coordinator) onResolveDelay(generation uint64) {
	c.mu.Lock()
	var events []model.Event
	defer func() {
		c.mu.Unlock()
		c.emit(events)
	}()

	if generation != c.generation {
		return
	}
	c.timer = nil

	c.evaluateLocked(&events)
	if c.phase == model.PhaseInGame {
		c.logger.Info("opponent has not moved yet", slog.String("room_id", string(c.room)))
		events = append(events, c.eventLocked(model.EventOpponentPending))
	}
}

func (c *Coordinator) checkIdleLocked() error {
	if !c.started {
		return model.ErrNotStarted
	}
	if c.phase != model.PhaseIdle {
		return model.ErrRoomActive
	}
	return nil
}

// bindRoomLocked subscribes to the room channel, announces it and moves to AwaitingOpponent.
// On a transport failure nothing is bound and the phase stays Idle.
func (c *Coordinator) bindRoomLocked(ctx context.Context, id model.RoomID, creator bool, events *[]model.Event) error {
	if err := c.transport.Subscribe(ctx, id.Channel()); err != nil {
		c.transportErrorLocked(err, events)
		return err
	}

	action, eventType := model.ActionJoin, model.EventRoomJoined
	if creator {
		action, eventType = model.ActionCreate, model.EventRoomCreated
	}
	announcement := model.Envelope{Action: action, RoomID: id, Sender: c.identity}
	if err := c.transport.Publish(ctx, model.LobbyChannel, announcement); err != nil {
		c.transportErrorLocked(err, events)
		return err
	}

	c.generation++
	c.room = id
	c.isCreator = creator
	c.opponentSeen = false
	c.exchange = exchange.New(id, c.identity, c.transport, c.logger)
	c.phase = model.PhaseAwaitingOpponent

	c.logger.Info("room bound",
		slog.String("room_id", string(id)),
		slog.Bool("creator", creator))
	*events = append(*events, c.eventLocked(eventType))
	return nil
}

// evaluateLocked resolves the room if the local move is out and both moves are known
func (c *Coordinator) evaluateLocked(events *[]model.Event) {
	if c.phase != model.PhaseInGame {
		return
	}
	result, ok := c.exchange.Evaluate()
	if !ok {
		return
	}

	c.phase = model.PhaseResolved
	c.stopTimerLocked()

	c.logger.Info("room resolved",
		slog.String("room_id", string(c.room)),
		slog.String("result", string(result)))
	*events = append(*events, c.eventLocked(model.EventResolved))
}

func (c *Coordinator) transportErrorLocked(err error, events *[]model.Event) {
	if !errors.Is(err, transport.ErrTransport) {
		return
	}
	c.logger.Warn("transport operation failed",
		slog.String("room_id", string(c.room)),
		slog.String("error", err.Error()))
	event := c.eventLocked(model.EventTransportError)
	event.Err = err
	*events = append(*events, event)
}

func (c *Coordinator) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Coordinator) snapshotLocked() model.Snapshot {
	snap := model.Snapshot{
		Identity:     c.identity,
		Phase:        c.phase,
		RoomID:       c.room,
		IsCreator:    c.isCreator,
		OpponentSeen: c.opponentSeen,
	}
	if c.isCreator {
		snap.Creator = c.identity
	}
	if c.exchange != nil {
		snap.Match = c.exchange.State()
	}
	return snap
}

func (c *Coordinator) eventLocked(t model.EventType) model.Event {
	return model.Event{
		Type:      t,
		Timestamp: c.clock.Now(),
		RoomID:    c.room,
		Snapshot:  c.snapshotLocked(),
	}
}

func (c *Coordinator) emit(events []model.Event) {
	for _, e := range events {
		c.notifier.Notify(e)
	}
}

// CoordinatorInterface is the set of triggers and outputs exposed to presentation layers
type CoordinatorInterface interface {
	Identity() model.Identity
	Start(ctx context.Context) error
	CreateRoom(ctx context.Context) (model.RoomID, error)
	JoinRoom(ctx context.Context, roomID string) error
	SubmitMove(ctx context.Context, move model.Move) error
	Reset()
	Evaluate() (model.Outcome, bool)
	Snapshot() model.Snapshot
}

var _ CoordinatorInterface = (*Coordinator)(nil)
