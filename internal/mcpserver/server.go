package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates a configured MCP server with all RISC tools registered.
func NewMCPServer(svc Service, version string) *server.MCPServer {
	s := server.NewMCPServer("risc", version)
	h := NewHandlers(svc)

	s.AddTool(ToolVerifyAPIKey, h.HandleVerifyAPIKey)
	s.AddTool(ToolCreateUser, h.HandleCreateUser)
	s.AddTool(ToolGetUser, h.HandleGetUser)
	s.AddTool(ToolModifyUser, h.HandleModifyUser)
	s.AddTool(ToolDeleteUser, h.HandleDeleteUser)
	s.AddTool(ToolCreateSession, h.HandleCreateSession)
	s.AddTool(ToolGetSession, h.HandleGetSession)
	s.AddTool(ToolDecryptSnapshot, h.HandleDecryptSnapshot)
	s.AddTool(ToolValidateSnapshot, h.HandleValidateSnapshot)

	return s
}
