package mcpservice

import (
	"context"
	"fmt"
	"sync"

	"github.com/ggoodman/mcp-engine-go/internal/urimatch"
	"github.com/ggoodman/mcp-engine-go/mcp"
)

// ResourceHandler produces the text of a fixed resource.
type ResourceHandler func(ctx context.Context) (string, error)

// TemplateHandler produces the text of a templated resource from the
// variables extracted out of the requested URI.
type TemplateHandler func(ctx context.Context, vars map[string]string) (string, error)

// Resource pairs a resource descriptor with its handler.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
	Handler     ResourceHandler
}

// Descriptor returns the wire representation of the resource.
func (r Resource) Descriptor() mcp.Resource {
	return mcp.Resource{URI: r.URI, Name: r.Name, Description: r.Description, MimeType: mimeOrDefault(r.MimeType)}
}

// ResourceTemplate pairs a URI template descriptor with its handler.
type ResourceTemplate struct {
	URITemplate string
	Name        string
	Description string
	MimeType    string
	Handler     TemplateHandler
}

// Descriptor returns the wire representation of the template.
func (t ResourceTemplate) Descriptor() mcp.ResourceTemplate {
	return mcp.ResourceTemplate{URITemplate: t.URITemplate, Name: t.Name, Description: t.Description, MimeType: mimeOrDefault(t.MimeType)}
}

func mimeOrDefault(m string) string {
	if m == "" {
		return mcp.DefaultMimeType
	}
	return m
}

// ResourceRegistry is an insertion-ordered, threadsafe set of resources keyed
// by URI.
type ResourceRegistry struct {
	mu        sync.RWMutex
	resources []Resource
	index     map[string]int
}

// NewResourceRegistry returns an empty registry.
func NewResourceRegistry() *ResourceRegistry {
	return &ResourceRegistry{index: make(map[string]int)}
}

// Register adds res, replacing in place any resource with the same URI.
func (r *ResourceRegistry) Register(res Resource) error {
	switch {
	case res.URI == "":
		return fmt.Errorf("%w: uri cannot be empty", ErrInvalidResource)
	case res.Name == "":
		return fmt.Errorf("%w: resource %q has no name", ErrInvalidResource, res.URI)
	case res.Handler == nil:
		return fmt.Errorf("%w: resource %q has no handler", ErrInvalidResource, res.URI)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[res.URI]; ok {
		r.resources[i] = res
		return nil
	}
	r.index[res.URI] = len(r.resources)
	r.resources = append(r.resources, res)
	return nil
}

// Get returns the resource registered under uri.
func (r *ResourceRegistry) Get(uri string) (Resource, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[uri]
	if !ok {
		return Resource{}, false
	}
	return r.resources[i], true
}

// Len reports the number of registered resources.
func (r *ResourceRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.resources)
}

// Reset removes every resource.
func (r *ResourceRegistry) Reset() {
	r.mu.Lock()
	r.resources = nil
	r.index = make(map[string]int)
	r.mu.Unlock()
}

// List returns one page of resource descriptors starting at cursor.
func (r *ResourceRegistry) List(cursor string, pageSize int) (Page[mcp.Resource], error) {
	r.mu.RLock()
	all := make([]mcp.Resource, len(r.resources))
	for i, res := range r.resources {
		all[i] = res.Descriptor()
	}
	r.mu.RUnlock()
	return paginate(all, cursor, pageSize)
}

// Read runs the handler of the resource registered under uri.
func (r *ResourceRegistry) Read(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	res, ok := r.Get(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	}
	text, err := guard(func() (string, error) { return res.Handler(ctx) })
	if err != nil {
		return nil, &ResourceReadError{URI: uri, Err: err}
	}
	return contents(uri, res.MimeType, text), nil
}

// ResourceTemplateRegistry is an insertion-ordered, threadsafe set of
// resource templates. Reads go to the first registered template whose
// pattern matches the URI.
type ResourceTemplateRegistry struct {
	mu        sync.RWMutex
	templates []ResourceTemplate
	index     map[string]int
	matcher   urimatch.Matcher[int]
}

// NewResourceTemplateRegistry returns an empty registry.
func NewResourceTemplateRegistry() *ResourceTemplateRegistry {
	return &ResourceTemplateRegistry{index: make(map[string]int)}
}

// Register adds t, replacing in place any template with the same pattern.
func (r *ResourceTemplateRegistry) Register(t ResourceTemplate) error {
	switch {
	case t.URITemplate == "":
		return fmt.Errorf("%w: uri template cannot be empty", ErrInvalidResourceTemplate)
	case t.Name == "":
		return fmt.Errorf("%w: template %q has no name", ErrInvalidResourceTemplate, t.URITemplate)
	case t.Handler == nil:
		return fmt.Errorf("%w: template %q has no handler", ErrInvalidResourceTemplate, t.URITemplate)
	}
	if _, err := urimatch.Compile(t.URITemplate); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResourceTemplate, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.index[t.URITemplate]; ok {
		r.templates[i] = t
		return nil
	}
	i := len(r.templates)
	if err := r.matcher.Add(t.URITemplate, i); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidResourceTemplate, err)
	}
	r.index[t.URITemplate] = i
	r.templates = append(r.templates, t)
	return nil
}

// Len reports the number of registered templates.
func (r *ResourceTemplateRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.templates)
}

// Reset removes every template.
func (r *ResourceTemplateRegistry) Reset() {
	r.mu.Lock()
	r.templates = nil
	r.index = make(map[string]int)
	r.matcher.Reset()
	r.mu.Unlock()
}

// List returns one page of template descriptors starting at cursor.
func (r *ResourceTemplateRegistry) List(cursor string, pageSize int) (Page[mcp.ResourceTemplate], error) {
	r.mu.RLock()
	all := make([]mcp.ResourceTemplate, len(r.templates))
	for i, t := range r.templates {
		all[i] = t.Descriptor()
	}
	r.mu.RUnlock()
	return paginate(all, cursor, pageSize)
}

// Match returns the first template matching uri along with the extracted
// variables.
func (r *ResourceTemplateRegistry) Match(uri string) (ResourceTemplate, map[string]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, vars, ok := r.matcher.Match(uri)
	if !ok {
		return ResourceTemplate{}, nil, false
	}
	return r.templates[i], vars, true
}

// Read resolves uri against the templates and runs the matching handler.
func (r *ResourceTemplateRegistry) Read(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	t, vars, ok := r.Match(uri)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, uri)
	}
	text, err := guard(func() (string, error) { return t.Handler(ctx, vars) })
	if err != nil {
		return nil, &ResourceReadError{URI: uri, Err: err}
	}
	return contents(uri, t.MimeType, text), nil
}

func contents(uri, mimeType, text string) *mcp.ReadResourceResult {
	return &mcp.ReadResourceResult{Contents: []mcp.ResourceContents{{
		URI:      uri,
		MimeType: mimeOrDefault(mimeType),
		Text:     text,
	}}}
}

func guard(fn func() (string, error)) (text string, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%v", p)
		}
	}()
	return fn()
}
