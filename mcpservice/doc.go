// Package mcpservice provides the application side of an MCP server: the
// tool, resource and resource template registries, their pagination, and the
// App that bundles them with server identity and lifecycle hooks.
//
// Quick start:
//
//	type EchoArgs struct {
//	    Message string `json:"message" jsonschema:"description=Text to echo"`
//	}
//	echo := mcpservice.MustNewTool("echo", func(ctx context.Context, a EchoArgs) (string, error) {
//	    return "you said: " + a.Message, nil
//	}, mcpservice.WithToolDescription("Echo a message back to the caller"))
//
//	app, err := mcpservice.NewApp(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "example", Version: "1.0.0"}),
//	    mcpservice.WithTools(echo),
//	    mcpservice.WithResources(mcpservice.Resource{
//	        URI:  "res://hello.txt",
//	        Name: "hello",
//	        Handler: func(ctx context.Context) (string, error) { return "hello", nil },
//	    }),
//	)
//
// Tools declared with DeclareTool or NewTool carry an argument schema; calls
// are validated against it before the handler runs, and every violation is
// reported back to the client as an error result rather than a protocol
// error.
//
// Listings preserve registration order. Cursors are decimal offsets into that
// order, and the App's page size bounds each page.
package mcpservice
