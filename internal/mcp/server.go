// Package mcp exposes the bridge channel as a stdio MCP server so a host
// process can read or clear the shared queue.
package mcp

import (
	"context"
	"encoding/json"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/contentvault/internal/bridge"
	"github.com/go-ports/contentvault/internal/buildinfo"
)

const (
	getDescription    = `Return every pending shared item in the order it was saved. Each item has path, type (threads, twitter, youtube, or web), thumbnail, and duration. The list is empty when nothing is pending or the app group storage is unavailable.` //nolint:lll
	clearDescription  = `Remove all pending shared items. Returns true, or false only when the app group storage could not be opened.`                                                                 //nolint:lll
	invokeDescription = `Invoke an arbitrary method on the ` + bridge.ChannelName + ` channel. Unknown methods answer {"notImplemented": true}.`                                                      //nolint:lll
)

// NewServer creates an MCP server with the bridge tools registered on ch.
// It is separate from Serve so tests can attach an in-process client.
func NewServer(ch *bridge.Channel) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("contentvault", buildinfo.Version)
	registerTools(s, ch)
	return s
}

// Serve runs the stdio MCP server until ctx is done or stdin closes.
func Serve(ctx context.Context, ch *bridge.Channel) error {
	return mcpserver.NewStdioServer(NewServer(ch)).Listen(ctx, os.Stdin, os.Stdout)
}

func registerTools(s *mcpserver.MCPServer, ch *bridge.Channel) {
	s.AddTool(mcp.NewTool(bridge.MethodGetSharedData,
		mcp.WithDescription(getDescription),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(ch.Handle(ctx, bridge.Call{Method: bridge.MethodGetSharedData}).Value)
	})

	s.AddTool(mcp.NewTool(bridge.MethodClearSharedData,
		mcp.WithDescription(clearDescription),
	), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(ch.Handle(ctx, bridge.Call{Method: bridge.MethodClearSharedData}).Value)
	})

	s.AddTool(mcp.NewTool("invokeMethod",
		mcp.WithDescription(invokeDescription),
		mcp.WithString("method",
			mcp.Description("Method name, e.g. getSharedData."),
			mcp.Required(),
		),
		mcp.WithObject("arguments",
			mcp.Description("Method arguments. Ignored by the supported methods."),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleInvoke(ctx, ch, req)
	})
}

func handleInvoke(ctx context.Context, ch *bridge.Channel, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	call := bridge.Call{Method: req.GetString("method", "")}
	if args, ok := req.GetArguments()["arguments"].(map[string]any); ok {
		call.Args = args
	}

	res := ch.Handle(ctx, call)
	if res.NotImplemented {
		return jsonResult(map[string]any{"notImplemented": true})
	}
	return jsonResult(map[string]any{"value": res.Value})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
