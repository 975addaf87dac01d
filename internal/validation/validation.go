// Package validation checks the shape of client messages against the
// embedded protocol schema before they reach a handler.
package validation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed protocol.json
var protocolSchema []byte

var (
	// ErrUnknownMethod means no message schema accepts the method name.
	ErrUnknownMethod = errors.New("unknown method")
	// ErrInvalidParams is wrapped by ParamsError.
	ErrInvalidParams = errors.New("invalid params")
)

// ParamsError carries the violations reported by the schema that matched
// the message's method.
type ParamsError struct {
	Method string
	Errors []string
}

func (e *ParamsError) Error() string {
	return fmt.Sprintf("invalid params for %s: %v", e.Method, e.Errors)
}

func (e *ParamsError) Unwrap() error { return ErrInvalidParams }

type candidate struct {
	method string
	schema *gojsonschema.Schema
}

// Validator holds the compiled per-method schemas. It is safe for concurrent
// use.
type Validator struct {
	requests      []candidate
	notifications []candidate
}

// New compiles the embedded protocol schema.
func New() (*Validator, error) {
	var doc struct {
		Requests      map[string]json.RawMessage `json:"requests"`
		Notifications map[string]json.RawMessage `json:"notifications"`
	}
	if err := json.Unmarshal(protocolSchema, &doc); err != nil {
		return nil, fmt.Errorf("decode protocol schema: %w", err)
	}
	requests, err := compile(doc.Requests)
	if err != nil {
		return nil, err
	}
	notifications, err := compile(doc.Notifications)
	if err != nil {
		return nil, err
	}
	return &Validator{requests: requests, notifications: notifications}, nil
}

// MustNew is like New but panics on error. The embedded schema is fixed, so
// a failure here is a programming error.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

func compile(defs map[string]json.RawMessage) ([]candidate, error) {
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]candidate, 0, len(names))
	for _, name := range names {
		s, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(defs[name]))
		if err != nil {
			return nil, fmt.Errorf("compile schema for %s: %w", name, err)
		}
		out = append(out, candidate{method: name, schema: s})
	}
	return out, nil
}

// Validate checks an encoded message. isRequest selects between the request
// and notification schemas. Every candidate is tried: if all of them reject
// the method field the result wraps ErrUnknownMethod, otherwise the
// violations of the candidate that matched the method are returned as a
// *ParamsError.
func (v *Validator) Validate(data []byte, isRequest bool) error {
	set := v.notifications
	if isRequest {
		set = v.requests
	}
	doc := gojsonschema.NewBytesLoader(data)

	var matched *ParamsError
	for _, c := range set {
		res, err := c.schema.Validate(doc)
		if err != nil {
			return fmt.Errorf("validate against %s: %w", c.method, err)
		}
		if res.Valid() {
			return nil
		}
		if rejectsMethod(res.Errors()) {
			continue
		}
		if matched == nil {
			matched = &ParamsError{Method: c.method}
			for _, e := range res.Errors() {
				matched.Errors = append(matched.Errors, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
			}
		}
	}
	if matched == nil {
		return ErrUnknownMethod
	}
	return matched
}

func rejectsMethod(errs []gojsonschema.ResultError) bool {
	for _, e := range errs {
		if e.Field() == "method" {
			return true
		}
		if e.Type() == "required" && e.Details()["property"] == "method" {
			return true
		}
	}
	return false
}
