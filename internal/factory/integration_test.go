package factory

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/rpsroom/internal/identity"
	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/services/room"
	"github.com/mcoot/rpsroom/internal/testutil"
	"github.com/mcoot/rpsroom/internal/transport"
	"github.com/mcoot/rpsroom/internal/transport/memory"
	redistransport "github.com/mcoot/rpsroom/internal/transport/redis"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

// scenarioSuite plays whole rooms between two sessions over a real transport
type scenarioSuite struct {
	suite.Suite
	ctx context.Context

	// newTransport returns an unconnected transport on the shared pub/sub backend
	newTransport func() transport.Transport
	// requireSubscribers checks channel already has n subscribers on the backend
	requireSubscribers func(channel string, n int)
}

func (s *scenarioSuite) newSession(id model.Identity) *TestApp {
	app := NewTestApp(id, s.newTransport())
	s.Require().NoError(app.Start(s.ctx))
	s.T().Cleanup(func() { _ = app.Close() })
	return app
}

func (s *scenarioSuite) pair(roomID string) (alice, bob *TestApp) {
	alice = s.newSession("alice")
	bob = s.newSession("bob")
	s.requireSubscribers(model.LobbyChannel, 2)

	alice.MockRandom.QueueString(roomID)
	id, err := alice.Coordinator.CreateRoom(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(model.RoomID(roomID), id)

	s.Require().NoError(bob.Coordinator.JoinRoom(s.ctx, roomID))
	s.requireSubscribers(roomID, 2)
	return alice, bob
}

func (s *scenarioSuite) waitResolved(apps ...*TestApp) {
	for _, app := range apps {
		s.Require().Eventually(func() bool {
			return app.Phase() == model.PhaseResolved
		}, waitFor, tick, "%s did not resolve", app.Identity)
	}
}

func (s *scenarioSuite) TestPaperAgainstScissors() {
	alice, bob := s.pair("ab12cd")

	s.Require().NoError(alice.Coordinator.SubmitMove(s.ctx, model.MovePaper))
	s.Require().NoError(bob.Coordinator.SubmitMove(s.ctx, model.MoveScissors))
	s.waitResolved(alice, bob)

	a := alice.Coordinator.Snapshot()
	s.Equal(model.MovePaper, a.Match.LocalMove)
	s.Equal(model.MoveScissors, a.Match.RemoteMove)
	s.Equal(model.OutcomeLose, a.Match.Result)
	s.True(a.IsCreator)

	b := bob.Coordinator.Snapshot()
	s.Equal(model.MoveScissors, b.Match.LocalMove)
	s.Equal(model.MovePaper, b.Match.RemoteMove)
	s.Equal(model.OutcomeWin, b.Match.Result)
	s.False(b.IsCreator)
}

func (s *scenarioSuite) TestCreatorSeesJoin() {
	alice, _ := s.pair("ab12cd")

	s.Eventually(func() bool {
		return alice.Coordinator.Snapshot().OpponentSeen
	}, waitFor, tick)
	s.Equal(model.PhaseAwaitingOpponent, alice.Phase())
}

func (s *scenarioSuite) TestJoinerMovesFirst() {
	alice, bob := s.pair("ab12cd")

	s.Require().NoError(bob.Coordinator.SubmitMove(s.ctx, model.MoveRock))
	s.Eventually(func() bool {
		return alice.Coordinator.Snapshot().Match.RemoteMove == model.MoveRock
	}, waitFor, tick)
	s.Equal(model.PhaseAwaitingOpponent, alice.Phase())

	s.Require().NoError(alice.Coordinator.SubmitMove(s.ctx, model.MoveRock))
	s.waitResolved(alice, bob)

	s.Equal(model.OutcomeTie, alice.Coordinator.Snapshot().Match.Result)
	s.Equal(model.OutcomeTie, bob.Coordinator.Snapshot().Match.Result)
}

func (s *scenarioSuite) TestLateOpponentAfterResolveDelay() {
	alice, bob := s.pair("ab12cd")

	s.Require().NoError(alice.Coordinator.SubmitMove(s.ctx, model.MoveRock))
	alice.MockClock.Advance(room.DefaultResolveDelay)
	s.Equal(model.PhaseInGame, alice.Phase())

	s.Require().NoError(bob.Coordinator.SubmitMove(s.ctx, model.MovePaper))
	s.waitResolved(alice, bob)

	s.Equal(model.OutcomeLose, alice.Coordinator.Snapshot().Match.Result)
	s.Equal(model.OutcomeWin, bob.Coordinator.Snapshot().Match.Result)
}

func (s *scenarioSuite) TestOwnEchoNeverResolves() {
	alice, _ := s.pair("ab12cd")

	s.Require().NoError(alice.Coordinator.SubmitMove(s.ctx, model.MoveScissors))

	s.Never(func() bool {
		return alice.Coordinator.Snapshot().Match.RemoteMove != ""
	}, 100*time.Millisecond, 10*time.Millisecond)
	s.Equal(model.PhaseInGame, alice.Phase())
}

func (s *scenarioSuite) TestConcurrentRoomsStayIsolated() {
	alice, bob := s.pair("room01")
	carol := s.newSession("carol")
	dave := s.newSession("dave")
	s.Require().NoError(carol.Coordinator.JoinRoom(s.ctx, "room02"))
	s.Require().NoError(dave.Coordinator.JoinRoom(s.ctx, "room02"))
	s.requireSubscribers("room02", 2)

	s.Require().NoError(carol.Coordinator.SubmitMove(s.ctx, model.MoveScissors))
	s.Require().NoError(alice.Coordinator.SubmitMove(s.ctx, model.MoveRock))
	s.Require().NoError(dave.Coordinator.SubmitMove(s.ctx, model.MovePaper))
	s.Require().NoError(bob.Coordinator.SubmitMove(s.ctx, model.MoveRock))
	s.waitResolved(alice, bob, carol, dave)

	s.Equal(model.OutcomeTie, alice.Coordinator.Snapshot().Match.Result)
	s.Equal(model.OutcomeTie, bob.Coordinator.Snapshot().Match.Result)
	s.Equal(model.OutcomeWin, carol.Coordinator.Snapshot().Match.Result)
	s.Equal(model.OutcomeLose, dave.Coordinator.Snapshot().Match.Result)
}

func (s *scenarioSuite) TestPlayAgainAfterReset() {
	alice, bob := s.pair("ab12cd")
	s.Require().NoError(alice.Coordinator.SubmitMove(s.ctx, model.MoveRock))
	s.Require().NoError(bob.Coordinator.SubmitMove(s.ctx, model.MoveScissors))
	s.waitResolved(alice, bob)

	alice.Coordinator.Reset()
	bob.Coordinator.Reset()

	alice.MockRandom.QueueString("ef34gh")
	_, err := alice.Coordinator.CreateRoom(s.ctx)
	s.Require().NoError(err)
	s.Require().NoError(bob.Coordinator.JoinRoom(s.ctx, "ef34gh"))
	s.requireSubscribers("ef34gh", 2)

	s.Require().NoError(alice.Coordinator.SubmitMove(s.ctx, model.MoveScissors))
	s.Require().NoError(bob.Coordinator.SubmitMove(s.ctx, model.MoveRock))
	s.waitResolved(alice, bob)

	s.Equal(model.OutcomeLose, alice.Coordinator.Snapshot().Match.Result)
	s.Equal(model.OutcomeWin, bob.Coordinator.Snapshot().Match.Result)
}

// MemoryIntegrationSuite runs the scenarios over the in-process broker
type MemoryIntegrationSuite struct {
	scenarioSuite
	broker *memory.Broker
}

func TestMemoryIntegrationSuite(t *testing.T) {
	suite.Run(t, new(MemoryIntegrationSuite))
}

func (s *MemoryIntegrationSuite) SetupTest() {
	s.ctx = context.Background()
	s.broker = memory.NewBroker(testutil.NopLogger())
	s.newTransport = func() transport.Transport {
		return s.broker.NewTransport(testutil.NopLogger())
	}
	// Memory subscriptions are in place once Subscribe returns
	s.requireSubscribers = func(string, int) {}
}

func (s *MemoryIntegrationSuite) TearDownTest() {
	s.broker.Close()
}

// RedisIntegrationSuite runs the scenarios over redis pub/sub
type RedisIntegrationSuite struct {
	scenarioSuite
	mini *miniredis.Miniredis
}

func TestRedisIntegrationSuite(t *testing.T) {
	suite.Run(t, new(RedisIntegrationSuite))
}

func (s *RedisIntegrationSuite) SetupTest() {
	s.ctx = context.Background()
	s.mini = miniredis.RunT(s.T())

	cfg := redistransport.DefaultConfig()
	cfg.PublishKey = "pub-test"
	cfg.SubscribeKey = "sub-test"

	s.newTransport = func() transport.Transport {
		client := goredis.NewClient(&goredis.Options{Addr: s.mini.Addr()})
		return redistransport.NewWithClient(client, cfg, testutil.NopLogger())
	}
	// Subscribe returns only after the server confirmed, so no polling
	s.requireSubscribers = func(channel string, n int) {
		key := "rps:" + cfg.SubscribeKey + ":" + channel
		s.Require().GreaterOrEqual(s.mini.PubSubNumSub(key)[key], n)
	}
}

// FactorySuite covers wiring from configuration
type FactorySuite struct {
	suite.Suite
	ctx context.Context
}

func TestFactorySuite(t *testing.T) {
	suite.Run(t, new(FactorySuite))
}

func (s *FactorySuite) SetupTest() {
	s.ctx = context.Background()
}

func (s *FactorySuite) TestDefaultsToMemoryTransport() {
	app, err := New(s.ctx, Config{})
	s.Require().NoError(err)
	defer func() { _ = app.Close() }()

	s.IsType(&memory.Transport{}, app.Transport)
	s.NotEmpty(app.Identity)
	s.Require().NoError(app.Start(s.ctx))
	s.Require().NoError(app.Start(s.ctx))
	s.Equal(model.PhaseIdle, app.Coordinator.Snapshot().Phase)
}

func (s *FactorySuite) TestSharedBrokerConnectsApps() {
	broker := memory.NewBroker(testutil.NopLogger())
	defer broker.Close()

	alice, err := New(s.ctx, Config{Broker: broker})
	s.Require().NoError(err)
	defer func() { _ = alice.Close() }()
	bob, err := New(s.ctx, Config{Broker: broker})
	s.Require().NoError(err)
	defer func() { _ = bob.Close() }()

	s.NotEqual(alice.Identity, bob.Identity)
	s.Require().NoError(alice.Start(s.ctx))
	s.Require().NoError(bob.Start(s.ctx))

	roomID, err := alice.Coordinator.CreateRoom(s.ctx)
	s.Require().NoError(err)
	s.Len(string(roomID), room.RoomIDLength)
	s.Require().NoError(bob.Coordinator.JoinRoom(s.ctx, string(roomID)))

	s.Require().NoError(alice.Coordinator.SubmitMove(s.ctx, model.MovePaper))
	s.Require().NoError(bob.Coordinator.SubmitMove(s.ctx, model.MoveScissors))

	s.Eventually(func() bool {
		return alice.Coordinator.Snapshot().Match.Result == model.OutcomeLose &&
			bob.Coordinator.Snapshot().Match.Result == model.OutcomeWin
	}, waitFor, tick)
}

func (s *FactorySuite) TestIdentityPersistsAcrossApps() {
	store := identity.NewFileStore(s.T().TempDir() + "/identity")

	first, err := New(s.ctx, Config{IdentityStore: store})
	s.Require().NoError(err)
	_ = first.Close()

	second, err := New(s.ctx, Config{IdentityStore: store})
	s.Require().NoError(err)
	_ = second.Close()

	s.Equal(first.Identity, second.Identity)
}

func (s *FactorySuite) TestRedisTransport() {
	mini := miniredis.RunT(s.T())
	cfg := redistransport.DefaultConfig()
	cfg.URL = "redis://" + mini.Addr()
	cfg.PublishKey = "pub-test"

	app, err := New(s.ctx, Config{TransportType: TransportTypeRedis, RedisConfig: &cfg})
	s.Require().NoError(err)
	defer func() { _ = app.Close() }()

	s.IsType(&redistransport.Transport{}, app.Transport)
	s.Require().NoError(app.Start(s.ctx))
}

func (s *FactorySuite) TestRedisTransportRequiresConfig() {
	_, err := New(s.ctx, Config{TransportType: TransportTypeRedis})
	s.Error(err)
}

func (s *FactorySuite) TestRedisUnreachable() {
	cfg := redistransport.DefaultConfig()
	cfg.URL = "redis://127.0.0.1:1"
	cfg.DialTimeout = 200 * time.Millisecond

	_, err := New(s.ctx, Config{TransportType: TransportTypeRedis, RedisConfig: &cfg})
	s.ErrorIs(err, transport.ErrTransport)
}

func (s *FactorySuite) TestInvalidTransportType() {
	_, err := New(s.ctx, Config{TransportType: "pubnub"})
	s.Error(err)
}
