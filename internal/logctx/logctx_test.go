package logctx

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerAddsGroups(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(New(slog.NewJSONHandler(&buf, nil))).With(slog.String("component", "test"))

	ctx := WithSessionData(context.Background(), &SessionData{SessionID: "abc", State: "initialized"})
	ctx = WithRPCMessage(ctx, &RPCMessage{Method: "tools/call", ID: "1", Type: "request"})
	ctx = WithToolCallData(ctx, &ToolCallData{ToolName: "echo"})
	log.InfoContext(ctx, "engine.tool.ok")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "engine.tool.ok", rec["msg"])
	assert.Equal(t, "test", rec["component"])
	assert.Equal(t, "abc", rec["sess"].(map[string]any)["id"])
	assert.Equal(t, "tools/call", rec["rpc"].(map[string]any)["method"])
	assert.Equal(t, "echo", rec["tool"].(map[string]any)["name"])
}

func TestNewIsIdempotent(t *testing.T) {
	h := New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Equal(t, h, New(h))
}
