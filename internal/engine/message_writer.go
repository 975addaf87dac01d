package engine

import (
	"context"
)

// MessageWriter delivers encoded messages the engine originates itself, such
// as roots/list requests.
type MessageWriter interface {
	WriteMessage(ctx context.Context, msg []byte) error
}

type MessageWriterFunc func(ctx context.Context, msg []byte) error

func (f MessageWriterFunc) WriteMessage(ctx context.Context, msg []byte) error {
	return f(ctx, msg)
}

// Connection is the transport collaborator the engine serves. ReadNextMessage
// blocks until a message arrives and returns io.EOF once the peer has closed.
type Connection interface {
	ReadNextMessage(ctx context.Context) ([]byte, error)
	SendMessage(ctx context.Context, msg []byte) error
}
