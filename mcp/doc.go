// Package mcp contains protocol data types and constants for the Model
// Context Protocol surface served by this module: lifecycle, tools,
// resources, resource templates and client roots.
//
// The package is free of transport logic. The engine decodes requests into
// these types and serializes results from them; transports only move bytes.
//
// # Method Names
//
// JSON-RPC method and notification names are enumerated as Method constants
// (e.g. ToolsListMethod).
//
// # Pagination
//
// List operations use opaque cursor strings. PaginatedRequest and
// PaginatedResult are embedded in request and result envelopes.
//
// Example (tool result construction):
//
//	res := &mcp.CallToolResult{
//	    Content: []mcp.ContentBlock{{Type: mcp.ContentTypeText, Text: "hello"}},
//	}
package mcp
