package mcpservice

import "errors"

var (
	// ErrToolNotFound is returned when a call names an unregistered tool.
	ErrToolNotFound = errors.New("tool not found")
	// ErrResourceNotFound is returned when no resource or template matches a URI.
	ErrResourceNotFound = errors.New("resource not found")
	// ErrInvalidTool is returned when registering a malformed tool.
	ErrInvalidTool = errors.New("invalid tool")
	// ErrInvalidResource is returned when registering a malformed resource.
	ErrInvalidResource = errors.New("invalid resource")
	// ErrInvalidResourceTemplate is returned when registering a malformed template.
	ErrInvalidResourceTemplate = errors.New("invalid resource template")
)

// ResourceReadError reports a failing resource handler.
type ResourceReadError struct {
	URI string
	Err error
}

func (e *ResourceReadError) Error() string { return e.Err.Error() }

func (e *ResourceReadError) Unwrap() error { return e.Err }
