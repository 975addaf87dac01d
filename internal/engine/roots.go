package engine

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/ggoodman/mcp-engine-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-engine-go/mcp"
)

// requestRoots asks the client for its roots. The reply is matched up in
// handleResponse whenever it arrives.
func (e *Engine) requestRoots(ctx context.Context) {
	log := e.log.With(slog.String("method", string(mcp.RootsListMethod)))
	if e.out == nil {
		log.WarnContext(ctx, "engine.roots.request.skip", slog.String("err", "no message writer"))
		return
	}

	req, evicted, err := e.tracker.NewRequest(string(mcp.RootsListMethod), nil)
	if evicted != "" {
		log.WarnContext(ctx, "engine.tracker.evict", slog.String("entry", evicted))
	}
	if err != nil {
		log.ErrorContext(ctx, "engine.roots.request.fail", slog.String("err", err.Error()))
		return
	}
	b, err := json.Marshal(req)
	if err != nil {
		_, _ = e.tracker.Resolve(req.ID)
		log.ErrorContext(ctx, "engine.roots.request.marshal.fail", slog.String("err", err.Error()))
		return
	}
	if err := e.out.WriteMessage(ctx, b); err != nil {
		_, _ = e.tracker.Resolve(req.ID)
		log.ErrorContext(ctx, "engine.roots.request.write.fail", slog.String("err", err.Error()))
		return
	}
	log.InfoContext(ctx, "engine.roots.request.ok", slog.String("id", req.ID.String()))
}

// handleResponse consumes a reply to a request the engine sent. Replies are
// never answered.
func (e *Engine) handleResponse(ctx context.Context, res *jsonrpc.Response) {
	purpose, err := e.tracker.Resolve(res.ID)
	if err != nil {
		e.log.InfoContext(ctx, "engine.response.unmatched", slog.String("id", res.ID.String()))
		return
	}

	switch purpose {
	case string(mcp.RootsListMethod):
		e.handleRootsResult(ctx, res)
	default:
		e.log.InfoContext(ctx, "engine.response.unhandled", slog.String("id", res.ID.String()), slog.String("purpose", purpose))
	}
}

func (e *Engine) handleRootsResult(ctx context.Context, res *jsonrpc.Response) {
	log := e.log.With(slog.String("method", string(mcp.RootsListMethod)))
	if res.Error != nil {
		log.InfoContext(ctx, "engine.roots.list.fail", slog.Int("code", int(res.Error.Code)), slog.String("err", res.Error.Message))
		return
	}

	var result mcp.ListRootsResult
	if err := json.Unmarshal(res.Result, &result); err != nil {
		log.InfoContext(ctx, "engine.roots.list.invalid", slog.String("err", err.Error()))
		return
	}
	if result.Roots == nil {
		result.Roots = []mcp.Root{}
	}
	e.sess.setRoots(result.Roots)

	defer func() {
		if r := recover(); r != nil {
			log.ErrorContext(ctx, "engine.roots.handler.fail", slog.Any("err", r))
		}
	}()
	if err := e.app.HandleRoots(ctx, result.Roots); err != nil {
		log.ErrorContext(ctx, "engine.roots.handler.fail", slog.String("err", err.Error()))
		return
	}
	log.InfoContext(ctx, "engine.roots.list.ok", slog.Int("count", len(result.Roots)))
}
