package mcpservice

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ggoodman/mcp-engine-go/argschema"
	"github.com/ggoodman/mcp-engine-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(t *testing.T) Tool {
	t.Helper()
	tool, err := DeclareTool("echo", []argschema.Arg{
		{Name: "message", Type: argschema.TypeString, Required: true},
		{Name: "times", Type: argschema.TypeInteger},
	}, func(ctx context.Context, args Arguments) (string, error) {
		msg := args.String("message")
		n := args.Int("times")
		out := msg
		for i := 1; i < n; i++ {
			out += " " + msg
		}
		return out, nil
	}, WithToolDescription("Echo a message"))
	require.NoError(t, err)
	return tool
}

func decodeArgs(t *testing.T, raw string) any {
	t.Helper()
	var v any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestToolRegistryRegisterRejects(t *testing.T) {
	r := NewToolRegistry()
	assert.ErrorIs(t, r.Register(Tool{Handler: func(context.Context, Arguments) (string, error) { return "", nil }}), ErrInvalidTool)
	assert.ErrorIs(t, r.Register(Tool{Name: "x"}), ErrInvalidTool)
	assert.Equal(t, 0, r.Len())
}

func TestToolRegistryCall(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(echoTool(t)))
	ctx := context.Background()

	res, err := r.Call(ctx, "echo", decodeArgs(t, `{"message":"hi","times":2}`))
	require.NoError(t, err)
	assert.Equal(t, &mcp.CallToolResult{Content: []mcp.ContentBlock{{Type: "text", Text: "hi hi"}}}, res)

	res, err = r.Call(ctx, "echo", decodeArgs(t, `{"times":"x"}`))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: Missing required param :message\nExpected integer for times, got String", res.Content[0].Text)

	res, err = r.Call(ctx, "echo", nil)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: Missing required param :message", res.Content[0].Text)

	_, err = r.Call(ctx, "missing", nil)
	assert.ErrorIs(t, err, ErrToolNotFound)
}

func TestToolRegistryHandlerFailures(t *testing.T) {
	r := NewToolRegistry()
	require.NoError(t, r.Register(Tool{Name: "fail", Handler: func(context.Context, Arguments) (string, error) {
		return "", errors.New("disk full")
	}}))
	require.NoError(t, r.Register(Tool{Name: "boom", Handler: func(context.Context, Arguments) (string, error) {
		panic("kaboom")
	}}))

	res, err := r.Call(context.Background(), "fail", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, Errorf("Error: disk full"), res)

	res, err = r.Call(context.Background(), "boom", map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, Errorf("Error: kaboom"), res)
}

func TestToolRegistryReplaceKeepsPosition(t *testing.T) {
	r := NewToolRegistry()
	h := func(context.Context, Arguments) (string, error) { return "", nil }
	require.NoError(t, r.Register(Tool{Name: "a", Description: "first", Handler: h}))
	require.NoError(t, r.Register(Tool{Name: "b", Handler: h}))
	require.NoError(t, r.Register(Tool{Name: "a", Description: "second", Handler: h}))

	page, err := r.List("", 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "a", page.Items[0].Name)
	assert.Equal(t, "second", page.Items[0].Description)
	assert.Equal(t, "b", page.Items[1].Name)
}

func TestToolDescriptorAlwaysHasSchema(t *testing.T) {
	d := Tool{Name: "bare"}.Descriptor()
	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"bare","inputSchema":{"type":"object","properties":{},"required":[]}}`, string(b))
}

type createNoteArgs struct {
	Title string   `json:"title"`
	Body  string   `json:"body,omitempty"`
	Tags  []string `json:"tags,omitempty"`
}

func TestNewToolTyped(t *testing.T) {
	tool, err := NewTool("create_note", func(ctx context.Context, a createNoteArgs) (string, error) {
		return a.Title + ":" + a.Body + ":" + a.Tags[0], nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"title"}, tool.InputSchema.Required)

	r := NewToolRegistry()
	require.NoError(t, r.Register(tool))

	res, err := r.Call(context.Background(), "create_note", decodeArgs(t, `{"title":"t","body":"b","tags":["x"]}`))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "t:b:x", res.Content[0].Text)

	res, err = r.Call(context.Background(), "create_note", decodeArgs(t, `{"body":"b"}`))
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "Error: Missing required param :title", res.Content[0].Text)
}
