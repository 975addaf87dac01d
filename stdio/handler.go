package stdio

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/ggoodman/mcp-engine-go/internal/engine"
	"github.com/ggoodman/mcp-engine-go/mcpservice"
)

// ErrAlreadyServing is returned when Serve is called a second time.
var ErrAlreadyServing = errors.New("stdio: handler already served")

type readResult struct {
	line []byte
	err  error
}

// Handler is a single-connection stdio transport that reads newline-delimited
// JSON-RPC messages from an io.Reader and writes replies to an io.Writer. By
// default, it uses os.Stdin and os.Stdout.
//
// The handler is transport-only; it delegates all MCP semantics to an engine
// serving the provided mcpservice.App.
type Handler struct {
	app          *mcpservice.App
	r            io.Reader
	w            io.Writer
	l            *slog.Logger
	userProvider UserProvider
	engineOpts   []engine.EngineOption

	wmu sync.Mutex

	startRead sync.Once
	lines     chan readResult
	done      chan struct{}
	served    sync.Once
}

var _ engine.Connection = (*Handler)(nil)

// NewHandler constructs a stdio Handler with defaults and applies options.
func NewHandler(app *mcpservice.App, opts ...Option) *Handler {
	h := &Handler{
		app:          app,
		r:            os.Stdin,
		w:            os.Stdout,
		l:            slog.Default(),
		userProvider: OSUserProvider{},
		lines:        make(chan readResult),
		done:         make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve runs the stdio event loop until EOF on the reader or the context is
// canceled. EOF is a clean shutdown and yields a nil error. Serve may be
// called at most once per Handler.
func (h *Handler) Serve(ctx context.Context) error {
	first := false
	h.served.Do(func() { first = true })
	if !first {
		return ErrAlreadyServing
	}
	defer close(h.done)

	log := h.l
	if uid, err := h.userProvider.CurrentUserID(); err == nil {
		log = log.With(slog.String("user_id", uid))
	} else {
		log.WarnContext(ctx, "stdio.user.fail", slog.String("err", err.Error()))
	}

	opts := append([]engine.EngineOption{engine.WithLogger(log)}, h.engineOpts...)
	eng := engine.New(h.app, opts...)

	log.InfoContext(ctx, "stdio.serve.start", slog.String("session_id", eng.Session().ID()))
	err := eng.Serve(ctx, h)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.ErrorContext(ctx, "stdio.serve.fail", slog.String("err", err.Error()))
	} else {
		log.InfoContext(ctx, "stdio.serve.done")
	}
	return err
}

// ReadNextMessage returns the next non-empty line, without its terminator.
// It returns io.EOF once the reader is exhausted.
func (h *Handler) ReadNextMessage(ctx context.Context) ([]byte, error) {
	h.startRead.Do(func() { go h.readLoop() })
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res, ok := <-h.lines:
		if !ok {
			return nil, io.EOF
		}
		return res.line, res.err
	}
}

// SendMessage writes msg followed by a newline. Concurrent writes never
// interleave.
func (h *Handler) SendMessage(ctx context.Context, msg []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.wmu.Lock()
	defer h.wmu.Unlock()
	buf := make([]byte, 0, len(msg)+1)
	buf = append(buf, msg...)
	buf = append(buf, '\n')
	if _, err := h.w.Write(buf); err != nil {
		return fmt.Errorf("stdio: write: %w", err)
	}
	return nil
}

// readLoop feeds lines to ReadNextMessage. It exits at the first read error
// or once Serve has returned.
func (h *Handler) readLoop() {
	defer close(h.lines)
	br := bufio.NewReader(h.r)
	for {
		b, err := br.ReadBytes('\n')
		if line := bytes.TrimSpace(b); len(line) > 0 {
			select {
			case h.lines <- readResult{line: line}:
			case <-h.done:
				return
			}
		}
		if err == nil {
			continue
		}
		if !errors.Is(err, io.EOF) {
			h.l.Error("stdio.read.fail", slog.String("err", err.Error()))
			select {
			case h.lines <- readResult{err: fmt.Errorf("stdio: read: %w", err)}:
			case <-h.done:
			}
		}
		return
	}
}
