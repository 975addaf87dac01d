package mcpservice

import (
	"context"

	"github.com/ggoodman/mcp-engine-go/mcp"
)

// Session is the read-only view of a client connection that handlers and
// hooks can reach through their context.
type Session interface {
	ID() string
	ProtocolVersion() string
	ClientInfo() mcp.ImplementationInfo
	ClientCapabilities() mcp.ClientCapabilities
	Roots() []mcp.Root
}

type sessionKey struct{}

// WithSession attaches s to ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// SessionFromContext returns the session attached to ctx, if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	return s, ok
}
