package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/transport"
)

// Transport is a Redis PUBLISH/SUBSCRIBE implementation of the transport interface
type Transport struct {
	client *redis.Client
	cfg    Config
	logger *slog.Logger

	mu       sync.Mutex
	identity model.Identity
	pubsub   *redis.PubSub
	channels map[string]bool
	recvDone chan struct{}
	closed   bool

	// pending holds one channel per key awaiting its SUBSCRIBE confirmation
	pendingMu sync.Mutex
	pending   map[string]chan struct{}
}

// New creates a new Redis transport and verifies the server is reachable
func New(cfg Config, logger *slog.Logger) (*Transport, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, err
	}

	opts.PoolSize = cfg.PoolSize
	opts.MinIdleConns = cfg.MinIdleConns

	client := redis.NewClient(opts)

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, transport.Wrap("connect", "", err)
	}

	return NewWithClient(client, cfg, logger), nil
}

// NewWithClient creates a Redis transport with an existing client (for testing)
func NewWithClient(client *redis.Client, cfg Config, logger *slog.Logger) *Transport {
	return &Transport{
		client:   client,
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "redis_transport")),
		channels: make(map[string]bool),
		pending:  make(map[string]chan struct{}),
	}
}

// Ensure Transport implements the interface
var _ transport.Transport = (*Transport)(nil)

func (t *Transport) Connect(ctx context.Context, identity model.Identity, handler transport.Handler) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return transport.Wrap("connect", "", transport.ErrClosed)
	}
	if t.identity != "" {
		if t.identity == identity {
			return nil
		}
		return transport.Wrap("connect", "", transport.ErrIdentityMismatch)
	}

	// No channels yet: the receive loop is running before the first SUBSCRIBE is sent
	t.pubsub = t.client.Subscribe(ctx)
	t.identity = identity
	t.recvDone = make(chan struct{})

	go t.receive(t.pubsub.ChannelWithSubscriptions(), handler, t.recvDone)

	t.logger.Info("connected", slog.String("identity", string(identity)))
	return nil
}

func (t *Transport) Subscribe(ctx context.Context, channels ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.identity == "" {
		return transport.Wrap("subscribe", "", transport.ErrNotConnected)
	}
	if t.closed {
		return transport.Wrap("subscribe", "", transport.ErrClosed)
	}

	var fresh, keys []string
	for _, ch := range channels {
		if t.channels[ch] || slices.Contains(fresh, ch) {
			continue
		}
		fresh = append(fresh, ch)
		keys = append(keys, channelKey(t.cfg.SubscribeKey, ch))
	}
	if len(keys) == 0 {
		return nil
	}

	if t.cfg.SubscribeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.cfg.SubscribeTimeout)
		defer cancel()
	}

	confirmed := t.expect(keys)
	defer t.forget(keys)

	if err := t.pubsub.Subscribe(ctx, keys...); err != nil {
		return transport.Wrap("subscribe", fresh[0], err)
	}

	// A publish made after Subscribe returns is delivered to this subscriber
	for i, key := range keys {
		select {
		case <-confirmed[i]:
		case <-t.recvDone:
			return transport.Wrap("subscribe", fresh[i], transport.ErrClosed)
		case <-ctx.Done():
			return transport.Wrap("subscribe", fresh[i], fmt.Errorf("awaiting confirmation of %s: %w", key, ctx.Err()))
		}
		t.channels[fresh[i]] = true
	}

	t.logger.Debug("subscribed", slog.Any("channels", fresh))
	return nil
}

// expect registers a confirmation channel for each key
func (t *Transport) expect(keys []string) []chan struct{} {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()

	confirmed := make([]chan struct{}, len(keys))
	for i, key := range keys {
		confirmed[i] = make(chan struct{})
		t.pending[key] = confirmed[i]
	}
	return confirmed
}

func (t *Transport) forget(keys []string) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	for _, key := range keys {
		delete(t.pending, key)
	}
}

func (t *Transport) confirm(key string) {
	t.pendingMu.Lock()
	defer t.pendingMu.Unlock()
	if ch, ok := t.pending[key]; ok {
		close(ch)
		delete(t.pending, key)
	}
}

func (t *Transport) Publish(ctx context.Context, channel string, env model.Envelope) error {
	t.mu.Lock()
	connected, closed := t.identity != "", t.closed
	t.mu.Unlock()

	if !connected {
		return transport.Wrap("publish", channel, transport.ErrNotConnected)
	}
	if closed {
		return transport.Wrap("publish", channel, transport.ErrClosed)
	}
	if t.cfg.PublishKey == "" {
		return transport.Wrap("publish", channel, transport.ErrPublishNotAllowed)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return transport.Wrap("publish", channel, err)
	}

	if err := t.client.Publish(ctx, channelKey(t.cfg.SubscribeKey, channel), data).Err(); err != nil {
		return transport.Wrap("publish", channel, err)
	}
	return nil
}

// Close closes the subscription and the Redis connection
func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	pubsub, done := t.pubsub, t.recvDone
	t.mu.Unlock()

	if pubsub != nil {
		_ = pubsub.Close()
		<-done
	}
	return t.client.Close()
}

// receive decodes inbound messages and hands them to the handler in delivery order.
// Subscription confirmations release the Subscribe call waiting on them.
func (t *Transport) receive(ch <-chan any, handler transport.Handler, done chan<- struct{}) {
	defer close(done)

	for item := range ch {
		var msg *redis.Message
		switch v := item.(type) {
		case *redis.Subscription:
			if v.Kind == "subscribe" {
				t.confirm(v.Channel)
			}
			continue
		case *redis.Message:
			msg = v
		default:
			continue
		}

		channel, ok := channelFromKey(t.cfg.SubscribeKey, msg.Channel)
		if !ok {
			continue
		}

		var env model.Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			t.logger.Warn("dropping undecodable envelope",
				slog.String("channel", channel),
				slog.String("error", err.Error()))
			continue
		}
		if err := env.Validate(); err != nil {
			t.logger.Warn("dropping invalid envelope",
				slog.String("channel", channel),
				slog.String("error", err.Error()))
			continue
		}

		handler(transport.Message{Channel: channel, Envelope: env})
	}
}
