package mcpservice

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ggoodman/mcp-engine-go/argschema"
	"github.com/ggoodman/mcp-engine-go/mcp"
)

// ToolHandler executes a tool with arguments that already passed schema
// validation. The returned text becomes the single content block of the
// result; a returned error becomes an error result.
type ToolHandler func(ctx context.Context, args Arguments) (string, error)

// Tool pairs a tool descriptor with its handler.
type Tool struct {
	Name        string
	Description string
	InputSchema *argschema.Object
	Handler     ToolHandler
}

// Descriptor returns the wire representation of the tool.
func (t Tool) Descriptor() mcp.Tool {
	schema := t.InputSchema
	if schema == nil {
		schema = &argschema.Object{Required: []string{}}
	}
	return mcp.Tool{Name: t.Name, Description: t.Description, InputSchema: schema}
}

// ToolRegistry is an insertion-ordered, threadsafe set of tools keyed by name.
type ToolRegistry struct {
	mu    sync.RWMutex
	tools []Tool
	index map[string]int
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{index: make(map[string]int)}
}

// Register adds t. Registering a name that already exists replaces the
// earlier tool in place, keeping its listing position.
func (r *ToolRegistry) Register(t Tool) error {
	if t.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidTool)
	}
	if t.Handler == nil {
		return fmt.Errorf("%w: tool %q has no handler", ErrInvalidTool, t.Name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[t.Name]; ok {
		r.tools[i] = t
		return nil
	}
	r.index[t.Name] = len(r.tools)
	r.tools = append(r.tools, t)
	return nil
}

// Get returns the named tool.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[name]
	if !ok {
		return Tool{}, false
	}
	return r.tools[i], true
}

// Len reports the number of registered tools.
func (r *ToolRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Reset removes every tool.
func (r *ToolRegistry) Reset() {
	r.mu.Lock()
	r.tools = nil
	r.index = make(map[string]int)
	r.mu.Unlock()
}

// List returns one page of tool descriptors starting at cursor.
func (r *ToolRegistry) List(cursor string, pageSize int) (Page[mcp.Tool], error) {
	r.mu.RLock()
	all := make([]mcp.Tool, len(r.tools))
	for i, t := range r.tools {
		all[i] = t.Descriptor()
	}
	r.mu.RUnlock()
	return paginate(all, cursor, pageSize)
}

// Call validates args against the tool's input schema and runs its handler.
// Only an unknown tool is reported as an error; validation failures, handler
// errors and handler panics all produce a result with IsError set.
func (r *ToolRegistry) Call(ctx context.Context, name string, args any) (*mcp.CallToolResult, error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if args == nil {
		args = map[string]any{}
	}
	if t.InputSchema != nil {
		if errs := argschema.Validate(t.InputSchema, args, ""); len(errs) > 0 {
			return Errorf("Error: %s", strings.Join(errs, "\n")), nil
		}
	}
	m, ok := args.(map[string]any)
	if !ok {
		return Errorf("Error: Arguments must be an object"), nil
	}

	text, err := guard(func() (string, error) { return t.Handler(ctx, Arguments(m)) })
	if err != nil {
		return Errorf("Error: %v", err), nil
	}
	return TextResult(text), nil
}

// TextResult is a small helper to build a text CallToolResult.
func TextResult(s string) *mcp.CallToolResult {
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{mcp.TextContent(s)}}
}

// Errorf returns an error CallToolResult with a single text block and IsError=true.
func Errorf(format string, a ...any) *mcp.CallToolResult {
	msg := fmt.Sprintf(format, a...)
	return &mcp.CallToolResult{Content: []mcp.ContentBlock{mcp.TextContent(msg)}, IsError: true}
}
