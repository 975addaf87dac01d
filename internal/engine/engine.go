// Package engine runs the MCP protocol for a single client connection: it
// decodes and validates messages, enforces the session lifecycle, dispatches
// requests to an mcpservice.App and correlates responses to the requests it
// originates itself.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/ggoodman/mcp-engine-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-engine-go/internal/logctx"
	"github.com/ggoodman/mcp-engine-go/internal/outbound"
	"github.com/ggoodman/mcp-engine-go/internal/validation"
	"github.com/ggoodman/mcp-engine-go/mcp"
	"github.com/ggoodman/mcp-engine-go/mcpservice"
)

var defaultValidator = sync.OnceValue(validation.MustNew)

// Engine serves one connection. HandleMessage must not be called
// concurrently; messages are handled strictly one after another.
type Engine struct {
	app       *mcpservice.App
	log       *slog.Logger
	validator *validation.Validator
	tracker   *outbound.Tracker
	sess      *Session
	out       MessageWriter

	supportedVersions []string
	trackerCapacity   int
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the logger. Wrap its handler with logctx.New to get the
// session and message groups on every record.
func WithLogger(log *slog.Logger) EngineOption {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithSupportedProtocolVersions replaces the protocol versions accepted by
// initialize.
func WithSupportedProtocolVersions(versions ...string) EngineOption {
	return func(e *Engine) {
		if len(versions) > 0 {
			e.supportedVersions = slices.Clone(versions)
		}
	}
}

// WithTrackerCapacity bounds the number of server-initiated requests awaiting
// a response.
func WithTrackerCapacity(n int) EngineOption {
	return func(e *Engine) { e.trackerCapacity = n }
}

// WithMessageWriter sets where server-initiated requests are written. Serve
// uses its connection when none is set.
func WithMessageWriter(w MessageWriter) EngineOption {
	return func(e *Engine) { e.out = w }
}

// New creates an engine, and with it a fresh session, for one connection.
func New(app *mcpservice.App, opts ...EngineOption) *Engine {
	e := &Engine{
		app:               app,
		log:               slog.Default(),
		supportedVersions: slices.Clone(mcp.SupportedProtocolVersions),
		trackerCapacity:   outbound.DefaultCapacity,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.validator == nil {
		e.validator = defaultValidator()
	}
	e.tracker = outbound.NewTracker(e.trackerCapacity)
	e.sess = newSession(e.supportedVersions)
	return e
}

// Session returns the connection's session.
func (e *Engine) Session() *Session { return e.sess }

// Pending reports how many server-initiated requests await a response.
func (e *Engine) Pending() int { return e.tracker.Len() }

// Serve reads messages from conn until it reports io.EOF or ctx is done.
// Replies are written back to conn in order.
func (e *Engine) Serve(ctx context.Context, conn Connection) error {
	if e.out == nil {
		e.out = MessageWriterFunc(conn.SendMessage)
	}
	ctx = e.withSession(ctx)
	e.log.InfoContext(ctx, "engine.serve.start")
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := conn.ReadNextMessage(ctx)
		if errors.Is(err, io.EOF) {
			e.log.InfoContext(ctx, "engine.serve.eof")
			return nil
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("read message: %w", err)
		}
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}

		reply, err := e.HandleMessage(ctx, line)
		if err != nil {
			e.log.ErrorContext(ctx, "engine.serve.encode.fail", slog.String("err", err.Error()))
			continue
		}
		if reply == nil {
			continue
		}
		if err := conn.SendMessage(ctx, reply); err != nil {
			return fmt.Errorf("send message: %w", err)
		}
	}
}

// HandleMessage processes one encoded message and returns the encoded reply,
// or nil when the message does not warrant one (notifications and
// responses).
func (e *Engine) HandleMessage(ctx context.Context, data []byte) ([]byte, error) {
	ctx = e.withSession(ctx)
	res := e.handle(ctx, data)
	if res == nil {
		return nil, nil
	}
	b, err := json.Marshal(res)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	return b, nil
}

func (e *Engine) withSession(ctx context.Context) context.Context {
	ctx = mcpservice.WithSession(ctx, e.sess)
	return logctx.WithSessionData(ctx, &logctx.SessionData{
		SessionID:       e.sess.ID(),
		ProtocolVersion: e.sess.ProtocolVersion(),
		State:           e.sess.State().String(),
	})
}

func (e *Engine) handle(ctx context.Context, data []byte) *jsonrpc.Response {
	msg, err := jsonrpc.Decode(data)
	if err != nil {
		var perr *jsonrpc.ParseError
		if errors.As(err, &perr) {
			e.log.InfoContext(ctx, "engine.decode.parse_error", slog.String("err", perr.Err.Error()))
			return jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeParseError, "Invalid JSON: "+perr.Err.Error(), nil)
		}
		var inv *jsonrpc.InvalidMessageError
		if errors.As(err, &inv) && inv.Response {
			e.log.InfoContext(ctx, "engine.response.invalid", slog.Any("errors", inv.Errors))
			return nil
		}
		if inv != nil {
			e.log.InfoContext(ctx, "engine.decode.invalid", slog.Any("errors", inv.Errors))
			return jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInvalidRequest, "Invalid request", map[string]any{"errors": inv.Errors})
		}
		return jsonrpc.NewErrorResponse(nil, jsonrpc.ErrorCodeInternalError, err.Error(), nil)
	}

	ctx = logctx.WithRPCMessage(ctx, &logctx.RPCMessage{
		Method: msg.Method,
		ID:     msg.ID.String(),
		Type:   msg.Type(),
	})

	switch msg.Type() {
	case jsonrpc.TypeResponse:
		e.handleResponse(ctx, msg.AsResponse())
		return nil
	case jsonrpc.TypeNotification:
		e.handleNotification(ctx, data, msg.AsRequest())
		return nil
	default:
		return e.handleRequest(ctx, data, msg.AsRequest())
	}
}

func (e *Engine) handleRequest(ctx context.Context, data []byte, req *jsonrpc.Request) *jsonrpc.Response {
	start := time.Now()
	log := e.log.With(slog.String("method", req.Method))

	if err := e.validator.Validate(data, true); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return validationErrorResponse(req.ID, req.Method, err)
	}
	if err := e.sess.Admit(req.Method); err != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeNotInitialized, "Server not initialized", nil)
	}

	res, err := e.dispatch(ctx, req)
	if err != nil {
		log.ErrorContext(ctx, "engine.handle_request.fail", slog.String("err", err.Error()), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInternalError, err.Error(), nil)
	}
	if res.Error != nil {
		log.InfoContext(ctx, "engine.handle_request.invalid", slog.Int("code", int(res.Error.Code)), slog.String("err", res.Error.Message), slog.Int64("dur_ms", time.Since(start).Milliseconds()))
		return res
	}
	log.InfoContext(ctx, "engine.handle_request.ok", slog.Int64("dur_ms", time.Since(start).Milliseconds()))
	return res
}

// dispatch routes a validated request to its handler. A handler panic is
// converted into an error so the connection survives it.
func (e *Engine) dispatch(ctx context.Context, req *jsonrpc.Request) (res *jsonrpc.Response, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%v", r)
		}
	}()

	switch req.Method {
	case string(mcp.InitializeMethod):
		return e.handleInitialize(ctx, req)
	case string(mcp.PingMethod):
		return jsonrpc.NewResultResponse(req.ID, mcp.EmptyResult{})
	case string(mcp.ToolsListMethod):
		return e.handleToolsList(ctx, req)
	case string(mcp.ToolsCallMethod):
		return e.handleToolCall(ctx, req)
	case string(mcp.ResourcesListMethod):
		return e.handleResourcesList(ctx, req)
	case string(mcp.ResourcesReadMethod):
		return e.handleResourcesRead(ctx, req)
	case string(mcp.ResourcesTemplatesListMethod):
		return e.handleResourcesTemplatesList(ctx, req)
	}

	return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeMethodNotFound, "Unknown method: "+req.Method, nil), nil
}

func validationErrorResponse(id *jsonrpc.RequestID, method string, err error) *jsonrpc.Response {
	var perr *validation.ParamsError
	switch {
	case errors.Is(err, validation.ErrUnknownMethod):
		return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeMethodNotFound, "Unknown method: "+method, nil)
	case errors.As(err, &perr):
		return invalidParams(id, perr.Errors...)
	default:
		return invalidParams(id, err.Error())
	}
}

func invalidParams(id *jsonrpc.RequestID, errs ...string) *jsonrpc.Response {
	return jsonrpc.NewErrorResponse(id, jsonrpc.ErrorCodeInvalidParams, "Invalid params", map[string]any{"errors": errs})
}

// decodeParams unmarshals params into v. Absent params leave v untouched.
// Numbers landing in untyped values stay json.Number so large integers
// reach handlers intact.
func decodeParams(params json.RawMessage, v any) error {
	if len(params) == 0 || bytes.Equal(bytes.TrimSpace(params), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(params))
	dec.UseNumber()
	return dec.Decode(v)
}

func (e *Engine) handleInitialize(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.InitializeRequest
	if err := decodeParams(req.Params, &params); err != nil {
		return invalidParams(req.ID, err.Error()), nil
	}

	if err := e.sess.Negotiate(&params); err != nil {
		var verr *UnsupportedVersionError
		switch {
		case errors.Is(err, ErrAlreadyInitialized):
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeAlreadyInitialized, "Server already initialized", nil), nil
		case errors.As(err, &verr):
			return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeInvalidParams, "Unsupported protocol version", map[string]any{
				"supported": verr.Supported,
				"requested": verr.Requested,
			}), nil
		default:
			return nil, err
		}
	}

	if err := e.app.Initialize(ctx, &params); err != nil {
		e.sess.abandonNegotiation()
		return nil, err
	}

	e.log.InfoContext(ctx, "engine.session.negotiated",
		slog.String("protocol_version", params.ProtocolVersion),
		slog.String("client_name", params.ClientInfo.Name),
		slog.String("client_version", params.ClientInfo.Version),
	)

	return jsonrpc.NewResultResponse(req.ID, &mcp.InitializeResult{
		ProtocolVersion: params.ProtocolVersion,
		Capabilities:    e.app.Capabilities(),
		ServerInfo:      e.app.ServerInfo(),
		Instructions:    e.app.Instructions(),
	})
}

func (e *Engine) handleToolsList(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.ListToolsRequest
	if err := decodeParams(req.Params, &params); err != nil {
		return invalidParams(req.ID, err.Error()), nil
	}
	res, err := e.app.ListTools(params.Cursor)
	if errors.Is(err, mcpservice.ErrInvalidCursor) {
		return invalidParams(req.ID, err.Error()), nil
	}
	if err != nil {
		return nil, err
	}
	return jsonrpc.NewResultResponse(req.ID, res)
}

func (e *Engine) handleToolCall(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.CallToolRequestReceived
	if err := decodeParams(req.Params, &params); err != nil {
		return invalidParams(req.ID, err.Error()), nil
	}

	ctx = logctx.WithToolCallData(ctx, &logctx.ToolCallData{ToolName: params.Name})

	var args any
	if err := decodeParams(params.Arguments, &args); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}

	res, err := e.app.CallTool(ctx, params.Name, args)
	if errors.Is(err, mcpservice.ErrToolNotFound) {
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeToolNotFound, "Tool not found: "+params.Name, map[string]any{"name": params.Name}), nil
	}
	if err != nil {
		return nil, err
	}
	if res.IsError {
		e.log.InfoContext(ctx, "engine.tool_call.error_result")
	}
	return jsonrpc.NewResultResponse(req.ID, res)
}

func (e *Engine) handleResourcesList(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.ListResourcesRequest
	if err := decodeParams(req.Params, &params); err != nil {
		return invalidParams(req.ID, err.Error()), nil
	}
	res, err := e.app.ListResources(params.Cursor)
	if errors.Is(err, mcpservice.ErrInvalidCursor) {
		return invalidParams(req.ID, err.Error()), nil
	}
	if err != nil {
		return nil, err
	}
	return jsonrpc.NewResultResponse(req.ID, res)
}

func (e *Engine) handleResourcesTemplatesList(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.ListResourceTemplatesRequest
	if err := decodeParams(req.Params, &params); err != nil {
		return invalidParams(req.ID, err.Error()), nil
	}
	res, err := e.app.ListResourceTemplates(params.Cursor)
	if errors.Is(err, mcpservice.ErrInvalidCursor) {
		return invalidParams(req.ID, err.Error()), nil
	}
	if err != nil {
		return nil, err
	}
	return jsonrpc.NewResultResponse(req.ID, res)
}

func (e *Engine) handleResourcesRead(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var params mcp.ReadResourceRequest
	if err := decodeParams(req.Params, &params); err != nil {
		return invalidParams(req.ID, err.Error()), nil
	}

	res, err := e.app.ReadResource(ctx, params.URI)
	var rerr *mcpservice.ResourceReadError
	switch {
	case err == nil:
		return jsonrpc.NewResultResponse(req.ID, res)
	case errors.Is(err, mcpservice.ErrResourceNotFound):
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeResourceNotFound, "Resource not found", map[string]any{"uri": params.URI}), nil
	case errors.As(err, &rerr):
		return jsonrpc.NewErrorResponse(req.ID, jsonrpc.ErrorCodeResourceReadError, rerr.Error(), map[string]any{"uri": rerr.URI}), nil
	default:
		return nil, err
	}
}

func (e *Engine) handleNotification(ctx context.Context, data []byte, note *jsonrpc.Request) {
	log := e.log.With(slog.String("method", note.Method))

	if err := e.validator.Validate(data, false); err != nil {
		log.InfoContext(ctx, "engine.handle_notification.invalid", slog.String("err", err.Error()))
		return
	}
	if err := e.sess.Admit(note.Method); err != nil {
		log.InfoContext(ctx, "engine.handle_notification.invalid", slog.String("err", err.Error()))
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "engine.handle_notification.fail", slog.String("err", fmt.Sprint(r)))
		}
	}()

	switch note.Method {
	case string(mcp.InitializedMethod), string(mcp.InitializedNotificationMethod):
		if err := e.sess.MarkInitialized(); err != nil {
			log.InfoContext(ctx, "engine.handle_notification.invalid", slog.String("err", err.Error()))
			return
		}
		log.InfoContext(ctx, "engine.session.initialized")
		// Hook failures are logged by the App and do not undo initialization.
		_ = e.app.Initialized(ctx)
		if e.app.HandlesRoots() && e.sess.wantsRoots() {
			e.requestRoots(ctx)
		}
	case string(mcp.RootsListChangedNotificationMethod):
		if e.app.HandlesRoots() && e.sess.wantsRootsChanges() {
			e.requestRoots(ctx)
		}
	case string(mcp.CancelledNotificationMethod):
		// Requests run to completion before the next message is read, so
		// there is never anything left to cancel.
		var params mcp.CancelledNotification
		if err := decodeParams(note.Params, &params); err != nil {
			log.InfoContext(ctx, "engine.handle_notification.invalid", slog.String("err", err.Error()))
			return
		}
		log.InfoContext(ctx, "engine.cancelled.ignored",
			slog.String("request_id", fmt.Sprint(params.RequestID)),
			slog.String("reason", params.Reason),
		)
	default:
		log.InfoContext(ctx, "engine.handle_notification.unhandled")
	}
}
