// Package stdio implements a single-connection MCP transport over
// stdin/stdout. It is intended for embedding servers as subprocesses, local
// development, and environments where spawning a child process and piping JSON
// is simpler than running a network server.
//
// Characteristics
//
//	Connection model : 1 process <-> 1 client
//	Identity         : OS user (logged, not enforced)
//	Sessions         : One per process, memory only
//	Framing          : Newline-delimited JSON-RPC
//
// Options allow supplying alternate io.Reader / io.Writer or a custom logger.
//
// Example:
//
//	app, err := mcpservice.NewApp(
//	    mcpservice.WithServerInfo(mcp.ImplementationInfo{Name: "my-stdio-server", Version: "0.1.0"}),
//	    mcpservice.WithTools(tools...),
//	)
//	if err != nil { log.Fatal(err) }
//	h := stdio.NewHandler(app)
//	if err := h.Serve(context.Background()); err != nil { log.Fatal(err) }
package stdio
