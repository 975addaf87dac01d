package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/ggoodman/mcp-engine-go/argschema"
)

// LatestProtocolVersion is the protocol revision this module implements.
const LatestProtocolVersion = "2024-11-05"

// SupportedProtocolVersions lists the revisions accepted during initialize
// unless a server is configured otherwise.
var SupportedProtocolVersions = []string{LatestProtocolVersion}

// ContentTypeText is the only content block type produced by the server.
const ContentTypeText = "text"

// DefaultMimeType is used for resources and templates that do not declare one.
const DefaultMimeType = "text/plain"

// ClientCapabilities advertises client features.
type ClientCapabilities struct {
	Roots *struct {
		ListChanged bool `json:"listChanged"`
	} `json:"roots,omitempty"`
	Sampling     *struct{}      `json:"sampling,omitempty"`
	Experimental map[string]any `json:"experimental,omitempty"`
}

// ToolsCapability advertises tool support.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged"`
}

// ResourcesCapability advertises resource support.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe"`
	ListChanged bool `json:"listChanged"`
}

// ServerCapabilities advertises server features.
type ServerCapabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
}

// ImplementationInfo describes the implementation name and version.
type ImplementationInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ContentBlock is a typed content part of a message.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TextContent builds a text content block.
func TextContent(text string) ContentBlock {
	return ContentBlock{Type: ContentTypeText, Text: text}
}

// Tool describes a callable tool and its input schema.
type Tool struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	InputSchema *argschema.Object `json:"inputSchema"`
}

// UnmarshalJSON decodes a tool descriptor, parsing its input schema.
func (t *Tool) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name        string          `json:"name"`
		Description string          `json:"description"`
		InputSchema json.RawMessage `json:"inputSchema"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Name = raw.Name
	t.Description = raw.Description
	t.InputSchema = nil
	if len(raw.InputSchema) == 0 {
		return nil
	}
	s, err := argschema.Parse(raw.InputSchema)
	if err != nil {
		return fmt.Errorf("tool %q: %w", raw.Name, err)
	}
	obj, ok := s.(*argschema.Object)
	if !ok {
		return fmt.Errorf("tool %q: input schema must be an object, got %s", raw.Name, s.TypeName())
	}
	t.InputSchema = obj
	return nil
}

// Resource represents an addressable resource.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	MimeType    string `json:"mimeType,omitzero"`
}

// ResourceTemplate describes a template for resource URIs.
type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description,omitzero"`
	MimeType    string `json:"mimeType,omitzero"`
}

// ResourceContents is the value of a resource read.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitzero"`
	Text     string `json:"text"`
}

// Root identifies a client workspace root.
type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitzero"`
}
