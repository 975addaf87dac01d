package stdio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ggoodman/mcp-engine-go/internal/jsonrpc"
	"github.com/ggoodman/mcp-engine-go/mcp"
	"github.com/ggoodman/mcp-engine-go/mcpservice"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedUser string

func (u fixedUser) CurrentUserID() (string, error) { return string(u), nil }

// testHarness encapsulates pipes and collected output for stdio handler tests.
type testHarness struct {
	t      *testing.T
	stdinW *io.PipeWriter
	outMu  sync.Mutex
	lines  []string
	done   chan error
}

func newHarness(t *testing.T, app *mcpservice.App, ctx context.Context) *testHarness {
	t.Helper()

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	h := NewHandler(app,
		WithIO(inR, outW),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithUserProvider(fixedUser("tester")),
	)

	th := &testHarness{t: t, stdinW: inW, done: make(chan error, 1)}

	go func() {
		th.done <- h.Serve(ctx)
		_ = outW.Close()
	}()

	go func() {
		sc := bufio.NewScanner(outR)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			th.outMu.Lock()
			th.lines = append(th.lines, line)
			th.outMu.Unlock()
		}
	}()

	t.Cleanup(func() {
		_ = inW.Close()
		_ = outR.Close()
	})
	return th
}

func (th *testHarness) write(s string) {
	th.t.Helper()
	_, err := th.stdinW.Write([]byte(s + "\n"))
	require.NoError(th.t, err)
}

func (th *testHarness) nextLine(timeout time.Duration) (string, error) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		th.outMu.Lock()
		if len(th.lines) > 0 {
			s := th.lines[0]
			th.lines = th.lines[1:]
			th.outMu.Unlock()
			return s, nil
		}
		th.outMu.Unlock()
		time.Sleep(2 * time.Millisecond)
	}
	return "", fmt.Errorf("timeout waiting for output line")
}

func (th *testHarness) expectMessage() *jsonrpc.AnyMessage {
	th.t.Helper()
	line, err := th.nextLine(2 * time.Second)
	require.NoError(th.t, err)
	msg, err := jsonrpc.Decode([]byte(line))
	require.NoError(th.t, err, "line: %s", line)
	return msg
}

type echoArgs struct {
	Text string `json:"text"`
}

func echoApp(t *testing.T, opts ...mcpservice.AppOption) *mcpservice.App {
	t.Helper()
	echo, err := mcpservice.NewTool("echo", func(ctx context.Context, args echoArgs) (string, error) {
		return args.Text, nil
	})
	require.NoError(t, err)
	app, err := mcpservice.NewApp(append([]mcpservice.AppOption{
		mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "stdio-test", Version: "0.0.1"}),
		mcpservice.WithTools(echo),
	}, opts...)...)
	require.NoError(t, err)
	return app
}

const initLine = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":%s,"clientInfo":{"name":"client","version":"0.0.1"}}}`

func TestServeRoundTrip(t *testing.T) {
	th := newHarness(t, echoApp(t), context.Background())

	th.write(fmt.Sprintf(initLine, `{}`))
	msg := th.expectMessage()
	require.Equal(t, jsonrpc.TypeResponse, msg.Type())
	require.Nil(t, msg.Error)
	var init mcp.InitializeResult
	require.NoError(t, json.Unmarshal(msg.Result, &init))
	assert.Equal(t, "stdio-test", init.ServerInfo.Name)

	th.write(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)
	th.write(``)
	th.write(`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi there"}}}`)
	msg = th.expectMessage()
	assert.Equal(t, "2", msg.ID.String())
	assert.JSONEq(t, `{"content":[{"type":"text","text":"hi there"}],"isError":false}`, string(msg.Result))

	th.write(`{"jsonrpc":"2.0","id":3,`)
	msg = th.expectMessage()
	require.NotNil(t, msg.Error)
	assert.Equal(t, jsonrpc.ErrorCodeParseError, msg.Error.Code)

	require.NoError(t, th.stdinW.Close())
	select {
	case err := <-th.done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after EOF")
	}
}

func TestServeSendsRootsRequest(t *testing.T) {
	rootsCh := make(chan []mcp.Root, 1)
	app := echoApp(t, mcpservice.WithRootsHandler(func(ctx context.Context, roots []mcp.Root) error {
		rootsCh <- roots
		return nil
	}))
	th := newHarness(t, app, context.Background())

	th.write(fmt.Sprintf(initLine, `{"roots":{"listChanged":true}}`))
	th.expectMessage()
	th.write(`{"jsonrpc":"2.0","method":"notifications/initialized"}`)

	msg := th.expectMessage()
	require.Equal(t, jsonrpc.TypeRequest, msg.Type())
	assert.Equal(t, "roots/list", msg.Method)
	assert.Equal(t, "s1", msg.ID.String())

	th.write(`{"jsonrpc":"2.0","id":"s1","result":{"roots":[{"uri":"file:///home/tester/project","name":"project"}]}}`)
	select {
	case roots := <-rootsCh:
		assert.Equal(t, []mcp.Root{{URI: "file:///home/tester/project", Name: "project"}}, roots)
	case <-time.After(2 * time.Second):
		t.Fatal("roots handler was not called")
	}

	// The correlated response produced no output; the next line answers the ping.
	th.write(`{"jsonrpc":"2.0","id":"after","method":"ping"}`)
	msg = th.expectMessage()
	assert.Equal(t, "after", msg.ID.String())
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	th := newHarness(t, echoApp(t), ctx)
	cancel()

	select {
	case err := <-th.done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestServeOnlyOnce(t *testing.T) {
	h := NewHandler(echoApp(t), WithIO(strings.NewReader(""), io.Discard), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, h.Serve(context.Background()))
	assert.ErrorIs(t, h.Serve(context.Background()), ErrAlreadyServing)
}

func TestSendMessageAppendsNewline(t *testing.T) {
	var sb strings.Builder
	h := NewHandler(echoApp(t), WithWriter(&sb))
	require.NoError(t, h.SendMessage(context.Background(), []byte(`{"a":1}`)))
	require.NoError(t, h.SendMessage(context.Background(), []byte(`{"b":2}`)))
	assert.Equal(t, "{\"a\":1}\n{\"b\":2}\n", sb.String())
}

func TestReadNextMessageSkipsBlankLines(t *testing.T) {
	h := NewHandler(echoApp(t), WithReader(strings.NewReader("\n  \n{\"x\":1}\r\n{\"y\":2}")))
	ctx := context.Background()

	line, err := h.ReadNextMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"x":1}`, string(line))

	line, err = h.ReadNextMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, `{"y":2}`, string(line))

	_, err = h.ReadNextMessage(ctx)
	assert.ErrorIs(t, err, io.EOF)
}
