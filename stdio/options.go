package stdio

import (
	"io"
	"log/slog"

	"github.com/ggoodman/mcp-engine-go/internal/engine"
)

// Option customizes a Handler.
type Option func(*Handler)

// WithIO sets the reader and writer for the handler.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
		if w != nil {
			h.w = w
		}
	}
}

// WithReader overrides the input stream.
func WithReader(r io.Reader) Option {
	return func(h *Handler) {
		if r != nil {
			h.r = r
		}
	}
}

// WithWriter overrides the output stream.
func WithWriter(w io.Writer) Option {
	return func(h *Handler) {
		if w != nil {
			h.w = w
		}
	}
}

// WithLogger overrides the logger used by the handler and its engine.
func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.l = l
		}
	}
}

// WithUserProvider overrides how the peer is named in logs.
func WithUserProvider(up UserProvider) Option {
	return func(h *Handler) {
		if up != nil {
			h.userProvider = up
		}
	}
}

// WithProtocolVersions replaces the protocol versions accepted during
// initialize.
func WithProtocolVersions(versions ...string) Option {
	return func(h *Handler) {
		if len(versions) > 0 {
			h.engineOpts = append(h.engineOpts, engine.WithSupportedProtocolVersions(versions...))
		}
	}
}
