package jsonrpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrParse is wrapped by Decode when the input is not JSON.
	ErrParse = errors.New("parse error")
	// ErrInvalidMessage is wrapped by Decode when the input is JSON but not
	// a JSON-RPC message.
	ErrInvalidMessage = errors.New("invalid message")
)

// InvalidMessageError lists every structural problem found in a message.
// Response is set when the message carried an id and a result or error
// member; such messages are never answered.
type InvalidMessageError struct {
	Errors   []string
	Response bool
}

func (e *InvalidMessageError) Error() string {
	return fmt.Sprintf("invalid message: %v", e.Errors)
}

func (e *InvalidMessageError) Unwrap() error { return ErrInvalidMessage }

// ParseError wraps the decoder failure for input that is not JSON at all.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "parse error: " + e.Err.Error() }

func (e *ParseError) Unwrap() []error { return []error{ErrParse, e.Err} }

// Decode classifies a single encoded message. Anything carrying an id and a
// result or error member is a response. Everything else must at least be a
// notification: jsonrpc "2.0" and a string method. An id on top of that makes
// it a request.
func Decode(data []byte) (*AnyMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		var v any
		if perr := json.Unmarshal(data, &v); perr == nil {
			return nil, &InvalidMessageError{Errors: []string{"message must be a JSON object"}}
		}
		return nil, &ParseError{Err: err}
	}

	_, hasID := fields["id"]
	_, hasResult := fields["result"]
	_, hasError := fields["error"]

	isResponse := hasID && (hasResult || hasError)

	var problems []string
	if isResponse {
		if hasResult && hasError {
			problems = append(problems, "response cannot carry both result and error")
		}
	} else {
		if v, ok := fields["jsonrpc"]; !ok || !bytes.Equal(bytes.TrimSpace(v), []byte(`"2.0"`)) {
			problems = append(problems, `jsonrpc must be "2.0"`)
		}
		var method string
		if v, ok := fields["method"]; !ok || json.Unmarshal(v, &method) != nil || method == "" {
			problems = append(problems, "method must be a non-empty string")
		}
	}
	// Error responses may carry a null id when the request could not be read.
	nullID := hasID && bytes.Equal(bytes.TrimSpace(fields["id"]), []byte("null"))
	if hasID && !(isResponse && nullID) {
		var id RequestID
		if err := id.UnmarshalJSON(fields["id"]); err != nil {
			problems = append(problems, "id must be a string or number")
		}
	}
	if len(problems) > 0 {
		return nil, &InvalidMessageError{Errors: problems, Response: isResponse}
	}

	var msg AnyMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, &InvalidMessageError{Errors: []string{err.Error()}, Response: isResponse}
	}
	if isResponse {
		// A response never carries a method, whatever the peer sent.
		msg.Method = ""
		msg.Params = nil
	}
	return &msg, nil
}
