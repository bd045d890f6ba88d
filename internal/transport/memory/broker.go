package memory

import (
	"log/slog"
	"sync"

	"github.com/mcoot/rpsroom/internal/transport"
)

// Buffer size for each connection's inbound queue
const sendBufferSize = 256

type subscription struct {
	conn     *Transport
	channels []string
	done     chan struct{}
}

type publication struct {
	msg  transport.Message
	done chan int
}

// Broker is an in-process pub/sub service.
// All subscription state is owned by the run loop. A publisher subscribed to the
// channel it publishes on receives its own envelope back, as hosted services do.
type Broker struct {
	conns       map[*Transport]bool
	subscribers map[string]map[*Transport]bool
	logger      *slog.Logger

	subscribe   chan subscription
	unsubscribe chan *Transport
	publish     chan publication
	done        chan struct{}
	closeOnce   sync.Once
}

// NewBroker creates a broker and starts its event loop
func NewBroker(logger *slog.Logger) *Broker {
	b := &Broker{
		conns:       make(map[*Transport]bool),
		subscribers: make(map[string]map[*Transport]bool),
		logger:      logger.With(slog.String("component", "memory_broker")),
		subscribe:   make(chan subscription),
		unsubscribe: make(chan *Transport),
		publish:     make(chan publication),
		done:        make(chan struct{}),
	}
	go b.run()
	return b
}

func (b *Broker) run() {
	for {
		select {
		case sub := <-b.subscribe:
			b.conns[sub.conn] = true
			for _, ch := range sub.channels {
				conns, ok := b.subscribers[ch]
				if !ok {
					conns = make(map[*Transport]bool)
					b.subscribers[ch] = conns
				}
				conns[sub.conn] = true
			}
			close(sub.done)

		case conn := <-b.unsubscribe:
			if !b.conns[conn] {
				continue
			}
			delete(b.conns, conn)
			for ch, conns := range b.subscribers {
				delete(conns, conn)
				if len(conns) == 0 {
					delete(b.subscribers, ch)
				}
			}
			close(conn.send)

		case pub := <-b.publish:
			delivered := 0
			for conn := range b.subscribers[pub.msg.Channel] {
				select {
				case conn.send <- pub.msg:
					delivered++
				default:
					b.logger.Warn("message dropped - connection buffer full",
						slog.String("channel", pub.msg.Channel),
						slog.String("identity", string(conn.identity)))
				}
			}
			pub.done <- delivered

		case <-b.done:
			for conn := range b.conns {
				close(conn.send)
			}
			b.logger.Info("memory broker stopped", slog.Int("disconnected", len(b.conns)))
			b.conns = make(map[*Transport]bool)
			b.subscribers = make(map[string]map[*Transport]bool)
			return
		}
	}
}

// NewTransport creates an unconnected transport attached to this broker
func (b *Broker) NewTransport(logger *slog.Logger) *Transport {
	return &Transport{
		broker:   b,
		logger:   logger.With(slog.String("component", "memory_transport")),
		channels: make(map[string]bool),
	}
}

// Close stops the broker; transports attached to it start failing with ErrClosed
func (b *Broker) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
	})
}

func (b *Broker) closed() bool {
	select {
	case <-b.done:
		return true
	default:
		return false
	}
}

func (b *Broker) addSubscription(conn *Transport, channels []string) error {
	if b.closed() {
		return transport.ErrClosed
	}
	sub := subscription{conn: conn, channels: channels, done: make(chan struct{})}
	select {
	case b.subscribe <- sub:
	case <-b.done:
		return transport.ErrClosed
	}
	<-sub.done
	return nil
}

func (b *Broker) removeConnection(conn *Transport) {
	select {
	case b.unsubscribe <- conn:
	case <-b.done:
	}
}

func (b *Broker) send(msg transport.Message) (int, error) {
	if b.closed() {
		return 0, transport.ErrClosed
	}
	pub := publication{msg: msg, done: make(chan int, 1)}
	select {
	case b.publish <- pub:
	case <-b.done:
		return 0, transport.ErrClosed
	}
	return <-pub.done, nil
}
