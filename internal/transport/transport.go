// Package transport defines the publish/subscribe contract the room protocol runs on.
//
// A Transport is connected exactly once with the client's identity and the single
// handler that receives every inbound envelope. Registering the handler as part of
// Connect means no envelope can arrive before there is someone to dispatch it to.
package transport

import (
	"context"

	"github.com/mcoot/rpsroom/internal/model"
)

// Message is an envelope together with the channel it was delivered on
type Message struct {
	Channel  string
	Envelope model.Envelope
}

// Handler receives every envelope delivered on any subscribed channel.
// Implementations call it from a single goroutine per connection, in delivery order.
type Handler func(msg Message)

// Transport wraps an external pub/sub service
type Transport interface {
	// Connect binds the connection to identity and registers handler.
	// Calling it again with the same identity is a no-op.
	Connect(ctx context.Context, identity model.Identity, handler Handler) error

	// Subscribe adds channels to the live subscription set.
	// Channels that are already subscribed are ignored.
	Subscribe(ctx context.Context, channels ...string) error

	// Publish sends env on channel without waiting for delivery
	Publish(ctx context.Context, channel string, env model.Envelope) error

	// Close releases the connection; the handler is not called afterwards
	Close() error
}
