package memory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/rpsroom/internal/model"
	"github.com/mcoot/rpsroom/internal/transport"
)

// Transport is one client's connection to a Broker
type Transport struct {
	broker *Broker
	logger *slog.Logger

	mu       sync.Mutex
	identity model.Identity
	handler  transport.Handler
	channels map[string]bool
	send     chan transport.Message
	pumpDone chan struct{}
	closed   bool
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

	send := make(chan transport.Message, sendBufferSize)
	t.send = send
	t.identity = identity
	t.handler = handler
	t.pumpDone = make(chan struct{})

	if err := t.broker.addSubscription(t, nil); err != nil {
		t.identity = ""
		t.handler = nil
		t.send = nil
		t.pumpDone = nil
		return transport.Wrap("connect", "", err)
	}

	go t.pump(send, handler, t.pumpDone)
	t.logger.Debug("connected", slog.String("identity", string(identity)))
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

	var fresh []string
	for _, ch := range channels {
		if !t.channels[ch] {
			fresh = append(fresh, ch)
		}
	}
	if len(fresh) == 0 {
		return nil
	}

	if err := t.broker.addSubscription(t, fresh); err != nil {
		return transport.Wrap("subscribe", fresh[0], err)
	}
	for _, ch := range fresh {
		t.channels[ch] = true
	}
	return nil
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

	delivered, err := t.broker.send(transport.Message{Channel: channel, Envelope: env})
	if err != nil {
		return transport.Wrap("publish", channel, err)
	}
	t.logger.Debug("published",
		slog.String("channel", channel),
		slog.String("action", string(env.Action)),
		slog.Int("delivered", delivered))
	return nil
}

func (t *Transport) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	done := t.pumpDone
	t.mu.Unlock()

	if done == nil {
		return nil
	}
	t.broker.removeConnection(t)
	<-done
	return nil
}

// Subscriptions returns the channels this transport has subscribed to
func (t *Transport) Subscriptions() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	channels := make([]string, 0, len(t.channels))
	for ch := range t.channels {
		channels = append(channels, ch)
	}
	return channels
}

// pump delivers queued messages to the handler one at a time
func (t *Transport) pump(send <-chan transport.Message, handler transport.Handler, done chan<- struct{}) {
	defer close(done)
	for msg := range send {
		handler(msg)
	}
}
