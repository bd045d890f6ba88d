package factory

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/rpsroom/internal/api/sse"
	"github.com/mcoot/rpsroom/internal/config"
	"github.com/mcoot/rpsroom/internal/dependencies/clock"
	"github.com/mcoot/rpsroom/internal/dependencies/random"
	"github.com/mcoot/rpsroom/internal/identity"
	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/services/room"
	"github.com/mcoot/rpsroom/internal/transport"
	"github.com/mcoot/rpsroom/internal/transport/memory"
	redistransport "github.com/mcoot/rpsroom/internal/transport/redis"
)

// Transport type constants
const (
	TransportTypeMemory = config.TransportMemory
	TransportTypeRedis  = config.TransportRedis
)

// App contains all wired application components for one client session
type App struct {
	// External dependencies
	Clock  clock.Clock
	Random random.Random

	Identity    model.Identity
	Transport   transport.Transport
	Coordinator *room.Coordinator
	Hub         *sse.Hub

	ownedBroker *memory.Broker
	hubOnce     sync.Once
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// TransportType selects the pub/sub backend ("memory" or "redis")
	// If empty, defaults to "memory"
	TransportType string
	// RedisConfig holds Redis connection settings (required if TransportType is "redis")
	RedisConfig *redistransport.Config
	// Broker is the in-process broker shared by memory transports (optional)
	// If nil with the memory transport, the app creates and owns one
	Broker *memory.Broker
	// IdentityStore persists the client identity (optional)
	// If nil, the identity lives only as long as the process
	IdentityStore identity.Store
	// ResolveDelay overrides the coordinator's resolution delay (optional)
	ResolveDelay time.Duration
}

// ConfigFromEnv maps process configuration onto a factory Config
func ConfigFromEnv(cfg config.Config, logger *slog.Logger) Config {
	redisCfg := redistransport.DefaultConfig()
	redisCfg.URL = cfg.RedisURL
	redisCfg.PublishKey = cfg.PublishKey
	redisCfg.SubscribeKey = cfg.SubscribeKey

	path := cfg.IdentityFile
	if path == "" {
		path = identity.DefaultPath()
	}

	return Config{
		Logger:        logger,
		TransportType: cfg.Transport,
		RedisConfig:   &redisCfg,
		IdentityStore: identity.NewFileStore(path),
		ResolveDelay:  cfg.ResolveDelay,
	}
}

// New creates a new application with all dependencies wired.
// The session is not connected until Start is called.
func New(ctx context.Context, cfg Config) (*App, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	clk := clock.New()
	rnd := random.New()

	store := cfg.IdentityStore
	if store == nil {
		store = identity.NewMemoryStore()
	}
	id := identity.NewProvider(store, rnd, logger).GetOrCreate(ctx)

	var tr transport.Transport
	var owned *memory.Broker
	transportType := cfg.TransportType
	if transportType == "" {
		transportType = TransportTypeMemory
	}

	switch transportType {
	case TransportTypeMemory:
		broker := cfg.Broker
		if broker == nil {
			broker = memory.NewBroker(logger)
			owned = broker
		}
		tr = broker.NewTransport(logger)
	case TransportTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when TransportType is redis")
		}
		redisTransport, err := redistransport.New(*cfg.RedisConfig, logger)
		if err != nil {
			return nil, err
		}
		tr = redisTransport
	default:
		return nil, fmt.Errorf("invalid TransportType %q: must be 'memory' or 'redis'", transportType)
	}

	app := newWithDependencies(id, tr, clk, rnd, cfg.ResolveDelay, logger)
	app.ownedBroker = owned
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	id model.Identity,
	tr transport.Transport,
	clk clock.Clock,
	rnd random.Random,
	resolveDelay time.Duration,
	logger *slog.Logger,
) *App {
	hub := sse.NewHub(logger)
	coordinator := room.NewCoordinator(tr, id, clk, rnd, hub, room.Config{ResolveDelay: resolveDelay}, logger)

	return &App{
		Clock:       clk,
		Random:      rnd,
		Identity:    id,
		Transport:   tr,
		Coordinator: coordinator,
		Hub:         hub,
	}
}

// Start runs the event hub and connects the session to the lobby
func (a *App) Start(ctx context.Context) error {
	a.hubOnce.Do(func() { go a.Hub.Run() })
	return a.Coordinator.Start(ctx)
}

// Close stops timers, event streams and the transport
func (a *App) Close() error {
	a.Coordinator.Close()
	a.Hub.Close()
	err := a.Transport.Close()
	if a.ownedBroker != nil {
		a.ownedBroker.Close()
	}
	return err
}
