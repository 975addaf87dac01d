package engine

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/ggoodman/mcp-engine-go/mcp"
	"github.com/ggoodman/mcp-engine-go/mcpservice"
	"github.com/google/uuid"
)

var (
	ErrNotInitialized             = errors.New("server not initialized")
	ErrAlreadyInitialized         = errors.New("server already initialized")
	ErrUnsupportedProtocolVersion = errors.New("unsupported protocol version")
)

// UnsupportedVersionError carries the negotiation failure details returned to
// the client.
type UnsupportedVersionError struct {
	Supported []string
	Requested string
}

func (e *UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported protocol version %q", e.Requested)
}

func (e *UnsupportedVersionError) Unwrap() error { return ErrUnsupportedProtocolVersion }

// State is the lifecycle position of a session.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// preInitMethods may be served before the session is initialized.
var preInitMethods = map[string]struct{}{
	string(mcp.InitializeMethod):              {},
	string(mcp.InitializedMethod):             {},
	string(mcp.InitializedNotificationMethod): {},
	string(mcp.PingMethod):                    {},
}

// Session is the per-connection protocol state. It is created by the engine
// and lives as long as the connection.
type Session struct {
	id        string
	supported []string

	mu              sync.RWMutex
	state           State
	negotiated      bool
	protocolVersion string
	clientInfo      mcp.ImplementationInfo
	clientCaps      mcp.ClientCapabilities
	roots           []mcp.Root
}

var _ mcpservice.Session = (*Session)(nil)

func newSession(supported []string) *Session {
	return &Session{
		id:        uuid.NewString(),
		supported: supported,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) ProtocolVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.protocolVersion
}

func (s *Session) ClientInfo() mcp.ImplementationInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientInfo
}

func (s *Session) ClientCapabilities() mcp.ClientCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCaps
}

// Roots returns the roots most recently listed by the client.
func (s *Session) Roots() []mcp.Root {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.roots)
}

// Admit reports whether method may be served in the current state.
func (s *Session) Admit(method string) error {
	if s.State() == StateInitialized {
		return nil
	}
	if _, ok := preInitMethods[method]; ok {
		return nil
	}
	return ErrNotInitialized
}

// Negotiate records the outcome of an initialize request. It fails once the
// session is initialized or an earlier initialize was accepted, and when the
// requested protocol version is not supported.
func (s *Session) Negotiate(req *mcp.InitializeRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateInitialized || s.negotiated {
		return ErrAlreadyInitialized
	}
	if !slices.Contains(s.supported, req.ProtocolVersion) {
		return &UnsupportedVersionError{
			Supported: slices.Clone(s.supported),
			Requested: req.ProtocolVersion,
		}
	}
	s.negotiated = true
	s.protocolVersion = req.ProtocolVersion
	s.clientInfo = req.ClientInfo
	s.clientCaps = req.Capabilities
	return nil
}

// abandonNegotiation forgets an accepted initialize whose hooks then failed,
// so the client may try again.
func (s *Session) abandonNegotiation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateUninitialized {
		return
	}
	s.negotiated = false
	s.protocolVersion = ""
	s.clientInfo = mcp.ImplementationInfo{}
	s.clientCaps = mcp.ClientCapabilities{}
}

// MarkInitialized moves the session to StateInitialized.
func (s *Session) MarkInitialized() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateInitialized {
		return ErrAlreadyInitialized
	}
	s.state = StateInitialized
	return nil
}

func (s *Session) setRoots(roots []mcp.Root) {
	s.mu.Lock()
	s.roots = slices.Clone(roots)
	s.mu.Unlock()
}

func (s *Session) wantsRoots() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCaps.Roots != nil
}

func (s *Session) wantsRootsChanges() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clientCaps.Roots != nil && s.clientCaps.Roots.ListChanged
}
