package transport

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches every error returned by a transport operation
	ErrTransport = errors.New("transport error")

	ErrNotConnected      = errors.New("transport not connected")
	ErrIdentityMismatch  = errors.New("transport already connected with a different identity")
	ErrPublishNotAllowed = errors.New("publishing requires a publish key")
	ErrClosed            = errors.New("transport closed")
)

// Error describes a failed transport operation
type Error struct {
	Op      string // connect, subscribe or publish
	Channel string
	Err     error
}

// Wrap returns err as an *Error, or nil if err is nil
func Wrap(op, channel string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Channel: channel, Err: err}
}

func (e *Error) Error() string {
	if e.Channel == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Channel, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is makes every *Error match ErrTransport
func (e *Error) Is(target error) bool {
	return target == ErrTransport
}
