package mcpservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/ggoodman/mcp-engine-go/mcp"
)

// BootHook runs once before the App starts serving.
type BootHook func(ctx context.Context) error

// InitializeHook runs when a client sends initialize, after the protocol
// version has been accepted. A returned error fails the request.
type InitializeHook func(ctx context.Context, req *mcp.InitializeRequest) error

// InitializedHook runs once the client confirms initialization.
type InitializedHook func(ctx context.Context) error

// RootsHandler receives the client's roots every time they are listed.
type RootsHandler func(ctx context.Context, roots []mcp.Root) error

// AppOption configures an App.
type AppOption func(*App) error

// App bundles everything a server exposes to its clients: identity,
// registries, lifecycle hooks and the roots handler. One App may back any
// number of sessions.
type App struct {
	info         mcp.ImplementationInfo
	instructions string
	pageSize     int
	log          *slog.Logger

	tools     *ToolRegistry
	resources *ResourceRegistry
	templates *ResourceTemplateRegistry

	mu               sync.RWMutex
	bootHooks        []BootHook
	initializeHooks  []InitializeHook
	initializedHooks []InitializedHook
	rootsHandler     RootsHandler
	bootOnce         sync.Once
	bootErr          error
}

// NewApp builds an App using functional options.
func NewApp(opts ...AppOption) (*App, error) {
	a := &App{
		info:      mcp.ImplementationInfo{Name: "mcp-server", Version: "0.0.0"},
		log:       slog.Default(),
		tools:     NewToolRegistry(),
		resources: NewResourceRegistry(),
		templates: NewResourceTemplateRegistry(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// WithServerInfo sets the name and version reported during initialize.
func WithServerInfo(info mcp.ImplementationInfo) AppOption {
	return func(a *App) error {
		if info.Name == "" {
			return errors.New("server name cannot be empty")
		}
		a.info = info
		return nil
	}
}

// WithInstructions sets human-readable instructions returned during initialize.
func WithInstructions(instr string) AppOption {
	return func(a *App) error { a.instructions = instr; return nil }
}

// WithPageSize bounds every list response. Zero or less lists everything.
func WithPageSize(n int) AppOption {
	return func(a *App) error { a.pageSize = n; return nil }
}

// WithLogger sets the logger used for hook and roots failures.
func WithLogger(l *slog.Logger) AppOption {
	return func(a *App) error {
		if l != nil {
			a.log = l
		}
		return nil
	}
}

// WithTools registers tools.
func WithTools(tools ...Tool) AppOption {
	return func(a *App) error {
		for _, t := range tools {
			if err := a.AddTool(t); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithResources registers resources.
func WithResources(resources ...Resource) AppOption {
	return func(a *App) error {
		for _, r := range resources {
			if err := a.AddResource(r); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithResourceTemplates registers resource templates.
func WithResourceTemplates(templates ...ResourceTemplate) AppOption {
	return func(a *App) error {
		for _, t := range templates {
			if err := a.AddResourceTemplate(t); err != nil {
				return err
			}
		}
		return nil
	}
}

// WithRootsHandler sets the handler that receives the client's roots.
func WithRootsHandler(fn RootsHandler) AppOption {
	return func(a *App) error { a.SetRootsHandler(fn); return nil }
}

// WithBootHook adds a boot hook.
func WithBootHook(fn BootHook) AppOption {
	return func(a *App) error { a.OnBoot(fn); return nil }
}

// WithInitializeHook adds an initialize hook.
func WithInitializeHook(fn InitializeHook) AppOption {
	return func(a *App) error { a.OnInitialize(fn); return nil }
}

// WithInitializedHook adds an initialized hook.
func WithInitializedHook(fn InitializedHook) AppOption {
	return func(a *App) error { a.OnInitialized(fn); return nil }
}

func (a *App) AddTool(t Tool) error { return a.tools.Register(t) }

func (a *App) AddResource(r Resource) error { return a.resources.Register(r) }

func (a *App) AddResourceTemplate(t ResourceTemplate) error { return a.templates.Register(t) }

// OnBoot appends a boot hook.
func (a *App) OnBoot(fn BootHook) {
	a.mu.Lock()
	a.bootHooks = append(a.bootHooks, fn)
	a.mu.Unlock()
}

// OnInitialize appends an initialize hook.
func (a *App) OnInitialize(fn InitializeHook) {
	a.mu.Lock()
	a.initializeHooks = append(a.initializeHooks, fn)
	a.mu.Unlock()
}

// OnInitialized appends an initialized hook.
func (a *App) OnInitialized(fn InitializedHook) {
	a.mu.Lock()
	a.initializedHooks = append(a.initializedHooks, fn)
	a.mu.Unlock()
}

// SetRootsHandler replaces the roots handler. A nil handler disables roots
// requests.
func (a *App) SetRootsHandler(fn RootsHandler) {
	a.mu.Lock()
	a.rootsHandler = fn
	a.mu.Unlock()
}

// Reset clears the tool, resource and template registries.
func (a *App) Reset() {
	a.tools.Reset()
	a.resources.Reset()
	a.templates.Reset()
}

func (a *App) ServerInfo() mcp.ImplementationInfo { return a.info }

func (a *App) Instructions() string { return a.instructions }

func (a *App) PageSize() int { return a.pageSize }

func (a *App) Tools() *ToolRegistry { return a.tools }

func (a *App) Resources() *ResourceRegistry { return a.resources }

func (a *App) ResourceTemplates() *ResourceTemplateRegistry { return a.templates }

// Capabilities reports what the server advertises during initialize. The
// registries do not announce changes, so listChanged is always false.
func (a *App) Capabilities() mcp.ServerCapabilities {
	return mcp.ServerCapabilities{
		Tools:     &mcp.ToolsCapability{ListChanged: false},
		Resources: &mcp.ResourcesCapability{Subscribe: false, ListChanged: false},
	}
}

// Boot runs the boot hooks once. Later calls return the first result.
func (a *App) Boot(ctx context.Context) error {
	a.bootOnce.Do(func() {
		a.mu.RLock()
		hooks := append([]BootHook(nil), a.bootHooks...)
		a.mu.RUnlock()
		for _, h := range hooks {
			if err := h(ctx); err != nil {
				a.bootErr = fmt.Errorf("boot: %w", err)
				return
			}
		}
		a.log.InfoContext(ctx, "app.boot.ok", slog.String("name", a.info.Name), slog.Int("tools", a.tools.Len()))
	})
	return a.bootErr
}

// Initialize runs the initialize hooks in registration order, stopping at the
// first error.
func (a *App) Initialize(ctx context.Context, req *mcp.InitializeRequest) error {
	a.mu.RLock()
	hooks := append([]InitializeHook(nil), a.initializeHooks...)
	a.mu.RUnlock()
	for _, h := range hooks {
		if err := h(ctx, req); err != nil {
			return fmt.Errorf("initialize hook: %w", err)
		}
	}
	return nil
}

// Initialized runs every initialized hook. Failures are logged and joined.
func (a *App) Initialized(ctx context.Context) error {
	a.mu.RLock()
	hooks := append([]InitializedHook(nil), a.initializedHooks...)
	a.mu.RUnlock()
	var errs []error
	for _, h := range hooks {
		if err := h(ctx); err != nil {
			a.log.ErrorContext(ctx, "app.initialized.fail", slog.String("err", err.Error()))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// HandlesRoots reports whether a roots handler is set.
func (a *App) HandlesRoots() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.rootsHandler != nil
}

// HandleRoots passes roots to the roots handler, if any.
func (a *App) HandleRoots(ctx context.Context, roots []mcp.Root) error {
	a.mu.RLock()
	h := a.rootsHandler
	a.mu.RUnlock()
	if h == nil {
		return nil
	}
	if roots == nil {
		roots = []mcp.Root{}
	}
	return h(ctx, roots)
}

// ListTools lists tools using the configured page size.
func (a *App) ListTools(cursor string) (*mcp.ListToolsResult, error) {
	page, err := a.tools.List(cursor, a.pageSize)
	if err != nil {
		return nil, err
	}
	return &mcp.ListToolsResult{Tools: page.Items, PaginatedResult: mcp.PaginatedResult{NextCursor: page.Next()}}, nil
}

// CallTool calls the named tool.
func (a *App) CallTool(ctx context.Context, name string, args any) (*mcp.CallToolResult, error) {
	return a.tools.Call(ctx, name, args)
}

// ListResources lists resources using the configured page size.
func (a *App) ListResources(cursor string) (*mcp.ListResourcesResult, error) {
	page, err := a.resources.List(cursor, a.pageSize)
	if err != nil {
		return nil, err
	}
	return &mcp.ListResourcesResult{Resources: page.Items, PaginatedResult: mcp.PaginatedResult{NextCursor: page.Next()}}, nil
}

// ListResourceTemplates lists templates using the configured page size.
func (a *App) ListResourceTemplates(cursor string) (*mcp.ListResourceTemplatesResult, error) {
	page, err := a.templates.List(cursor, a.pageSize)
	if err != nil {
		return nil, err
	}
	return &mcp.ListResourceTemplatesResult{ResourceTemplates: page.Items, PaginatedResult: mcp.PaginatedResult{NextCursor: page.Next()}}, nil
}

// ReadResource reads uri from the fixed resources first and falls back to the
// first matching template.
func (a *App) ReadResource(ctx context.Context, uri string) (*mcp.ReadResourceResult, error) {
	if _, ok := a.resources.Get(uri); ok {
		return a.resources.Read(ctx, uri)
	}
	return a.templates.Read(ctx, uri)
}
