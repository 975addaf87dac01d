package jsonrpc

import "fmt"

// ErrorCode is a JSON-RPC 2.0 error code.
type ErrorCode int

const (
	// ErrorCodeParseError indicates invalid JSON was received by the server.
	ErrorCodeParseError ErrorCode = -32700
	// ErrorCodeInvalidRequest indicates the JSON sent is not a valid Request object.
	ErrorCodeInvalidRequest ErrorCode = -32600
	// ErrorCodeMethodNotFound indicates the method does not exist / is not available.
	ErrorCodeMethodNotFound ErrorCode = -32601
	// ErrorCodeInvalidParams indicates invalid method parameters.
	ErrorCodeInvalidParams ErrorCode = -32602
	// ErrorCodeInternalError indicates an internal JSON-RPC error.
	ErrorCodeInternalError ErrorCode = -32603

	// MCP server error codes.
	ErrorCodeNotInitialized     ErrorCode = -32002
	ErrorCodeAlreadyInitialized ErrorCode = -32003
	ErrorCodeToolNotFound       ErrorCode = -32010
	ErrorCodeToolCallError      ErrorCode = -32011
	ErrorCodeResourceNotFound   ErrorCode = -32020
	ErrorCodeResourceReadError  ErrorCode = -32021
)

// Error is a JSON-RPC error object. It also satisfies the error interface so
// handlers can return a protocol error directly.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Data    any       `json:"data,omitempty"`
}

// NewError builds an error object.
func NewError(code ErrorCode, message string, data any) *Error {
	return &Error{Code: code, Message: message, Data: data}
}

func (e *Error) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}
