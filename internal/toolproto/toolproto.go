// Package toolproto holds the shared shapes of the tool-invocation
// protocol: tool descriptors, call results, and the downstream connection
// contract the proxy forwards calls through.
//
// DESIGN: Downstream connections are borrowed, not owned. The proxy holds
// a handle for the lifetime of a binding; the external connection manager
// guarantees validity and handles transport concerns (stdio/HTTP/SSE).
package toolproto

import "context"

// Tool is a tool descriptor as advertised to clients.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"inputSchema"`
}

// ContentBlock is one element of a tool result's content array.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallToolResult is a tool invocation outcome in protocol shape.
type CallToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// TextResult wraps text in a single-block result.
func TextResult(text string) *CallToolResult {
	return &CallToolResult{Content: []ContentBlock{{Type: "text", Text: text}}}
}

// Connection is a borrowed handle to one downstream tool server. Errors
// are opaque to the proxy and propagated to the client untouched.
type Connection interface {
	CallTool(ctx context.Context, name string, arguments map[string]any) (*CallToolResult, error)
}
