package mcpservice

import (
	"context"
	"fmt"
	"reflect"

	"github.com/ggoodman/mcp-engine-go/argschema"
)

// ToolOption configures NewTool and DeclareTool.
type ToolOption func(*toolConfig)

type toolConfig struct {
	description string
}

// WithToolDescription sets the tool description used in listings.
func WithToolDescription(desc string) ToolOption {
	return func(c *toolConfig) { c.description = desc }
}

// NewTool constructs a Tool from a typed args struct A. It:
//   - Reflects a JSON Schema from A using invopop/jsonschema and converts it
//     to an argument schema (fields without omitempty are required)
//   - Decodes validated arguments into A before invoking fn
func NewTool[A any](name string, fn func(ctx context.Context, args A) (string, error), opts ...ToolOption) (Tool, error) {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	schema, err := argschema.Reflect(reflect.TypeOf((*A)(nil)).Elem())
	if err != nil {
		return Tool{}, fmt.Errorf("%w: %s: %v", ErrInvalidTool, name, err)
	}
	handler := func(ctx context.Context, args Arguments) (string, error) {
		var a A
		if err := args.Decode(&a); err != nil {
			return "", err
		}
		return fn(ctx, a)
	}
	return Tool{Name: name, Description: cfg.description, InputSchema: schema, Handler: handler}, nil
}

// MustNewTool is like NewTool but panics on error.
func MustNewTool[A any](name string, fn func(ctx context.Context, args A) (string, error), opts ...ToolOption) Tool {
	t, err := NewTool(name, fn, opts...)
	if err != nil {
		panic(err)
	}
	return t
}

// DeclareTool builds a Tool from a declarative argument list.
func DeclareTool(name string, args []argschema.Arg, fn ToolHandler, opts ...ToolOption) (Tool, error) {
	cfg := toolConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	schema, err := argschema.Build(args)
	if err != nil {
		return Tool{}, fmt.Errorf("%w: %s: %w", ErrInvalidTool, name, err)
	}
	return Tool{Name: name, Description: cfg.description, InputSchema: schema, Handler: fn}, nil
}
