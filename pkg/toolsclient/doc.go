// Package toolsclient is the external Tools collaborator boundary: it
// connects to MCP servers (filesystem, git, cloud tools), discovers
// what they offer, and executes tool calls on their behalf so results
// can be spliced into the History Store as ToolCall records.
//
// It wraps the official MCP Go SDK (github.com/modelcontextprotocol/go-sdk).
// Configuration is provided via ServerConfig structs naming the server,
// its transport (SSE or streamable-http), its URL, and optional
// authentication.
package toolsclient
