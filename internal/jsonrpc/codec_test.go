package jsonrpc

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClassifies(t *testing.T) {
	tests := []struct {
		name string
		in   string
		typ  string
		id   string
	}{
		{"request string id", `{"jsonrpc":"2.0","id":"a","method":"ping"}`, TypeRequest, "a"},
		{"request number id", `{"jsonrpc":"2.0","id":7,"method":"ping"}`, TypeRequest, "7"},
		{"notification", `{"jsonrpc":"2.0","method":"notifications/initialized"}`, TypeNotification, ""},
		{"result response", `{"jsonrpc":"2.0","id":"s1","result":{"roots":[]}}`, TypeResponse, "s1"},
		{"error response", `{"jsonrpc":"2.0","id":"s2","error":{"code":-32601,"message":"nope"}}`, TypeResponse, "s2"},
		{"error response with null id", `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Invalid JSON"}}`, TypeResponse, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.typ, msg.Type())
			assert.Equal(t, tt.id, msg.ID.String())
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode([]byte(`{"jsonrpc":"2.0",`))
	assert.ErrorIs(t, err, ErrParse)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Err.Error(), "unexpected end of JSON input")

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"array", `[1,2]`, []string{"message must be a JSON object"}},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, []string{"method must be a non-empty string"}},
		{"wrong version", `{"jsonrpc":"1.0","method":"ping"}`, []string{`jsonrpc must be "2.0"`}},
		{"nothing", `{}`, []string{`jsonrpc must be "2.0"`, "method must be a non-empty string"}},
		{"null id", `{"jsonrpc":"2.0","id":null,"method":"ping"}`, []string{"id must be a string or number"}},
		{"both result and error", `{"jsonrpc":"2.0","id":1,"result":{},"error":{"code":1,"message":"x"}}`, []string{"response cannot carry both result and error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.in))
			require.ErrorIs(t, err, ErrInvalidMessage)
			var inv *InvalidMessageError
			require.ErrorAs(t, err, &inv)
			assert.Equal(t, tt.want, inv.Errors)
		})
	}
}

func TestDecodeMalformedResponse(t *testing.T) {
	for _, in := range []string{
		`{"jsonrpc":"2.0","id":"s9","error":"boom"}`,
		`{"jsonrpc":"2.0","id":"s9","result":{},"error":{"code":1,"message":"x"}}`,
	} {
		_, err := Decode([]byte(in))
		var inv *InvalidMessageError
		require.ErrorAs(t, err, &inv, in)
		assert.True(t, inv.Response, in)
	}

	_, err := Decode([]byte(`{"jsonrpc":"2.0","id":1}`))
	var inv *InvalidMessageError
	require.ErrorAs(t, err, &inv)
	assert.False(t, inv.Response)
}

func TestRequestIDKeepsLargeIntegers(t *testing.T) {
	msg, err := Decode([]byte(`{"jsonrpc":"2.0","id":9007199254740993,"method":"ping"}`))
	require.NoError(t, err)
	assert.Equal(t, int64(9007199254740993), msg.ID.Value())
	assert.Equal(t, "9007199254740993", msg.ID.String())

	b, err := json.Marshal(NewErrorResponse(msg.ID, ErrorCodeInternalError, "x", nil))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"id":9007199254740993`)

	tests := []struct {
		in   string
		want any
	}{
		{`18446744073709551615`, uint64(18446744073709551615)},
		{`1.5`, 1.5},
		{`1e3`, int64(1000)},
		{`"123"`, "123"},
	}
	for _, tt := range tests {
		var id RequestID
		require.NoError(t, id.UnmarshalJSON([]byte(tt.in)), tt.in)
		assert.Equal(t, tt.want, id.Value(), tt.in)
	}

	var id RequestID
	assert.Error(t, id.UnmarshalJSON([]byte(`true`)))
}

func TestErrorResponseWritesNullID(t *testing.T) {
	b, err := json.Marshal(NewErrorResponse(nil, ErrorCodeParseError, "Invalid JSON: boom", nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":null,"error":{"code":-32700,"message":"Invalid JSON: boom"}}`, string(b))
}

func TestResultResponse(t *testing.T) {
	res, err := NewResultResponse(NewRequestID("1"), map[string]any{})
	require.NoError(t, err)
	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"1","result":{}}`, string(b))
}

func TestNewRequest(t *testing.T) {
	req, err := NewRequest(NewRequestID("s1"), "roots/list", nil)
	require.NoError(t, err)
	b, err := json.Marshal(req)
	require.NoError(t, err)
	assert.JSONEq(t, `{"jsonrpc":"2.0","id":"s1","method":"roots/list"}`, string(b))
}

func TestErrorImplementsError(t *testing.T) {
	var err error = NewError(ErrorCodeToolNotFound, "Tool not found: x", nil)
	assert.Equal(t, "jsonrpc error -32010: Tool not found: x", err.Error())
}
