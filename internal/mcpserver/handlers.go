package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/mbd888/risc/pkg/risc"
)

// Service is the subset of *risc.Client the tools call.
type Service interface {
	VerifyAPIKey(ctx context.Context) (risc.Result, error)
	CreateUser(ctx context.Context, userID, email, phone string, opts *risc.UserOptions) (risc.Result, error)
	GetUser(ctx context.Context, userID string) (risc.Result, error)
	ModifyUser(ctx context.Context, userID string, opts *risc.UserOptions) (risc.Result, error)
	DeleteUser(ctx context.Context, userID string) (risc.Result, error)
	CreateSession(ctx context.Context, userID string) (risc.Result, error)
	GetSession(ctx context.Context, sessionID string) (risc.Result, error)
	DecryptSnapshot(blob string) *risc.Snapshot
	ValidateSnapshot(ctx context.Context, snap *risc.Snapshot) (*risc.Snapshot, error)
}

// Handlers holds the handler functions for each MCP tool.
type Handlers struct {
	svc Service
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(svc Service) *Handlers {
	return &Handlers{svc: svc}
}

// HandleVerifyAPIKey checks the configured credentials.
func (h *Handlers) HandleVerifyAPIKey(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.svc.VerifyAPIKey(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("API key rejected: %v", err)), nil
	}
	return mcp.NewToolResultText("API key is valid.\n\n" + formatJSON(res)), nil
}

// HandleCreateUser registers a user.
func (h *Handlers) HandleCreateUser(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := &risc.UserOptions{Name: req.GetString("name", "")}
	res, err := h.svc.CreateUser(ctx,
		req.GetString("user_id", ""),
		req.GetString("email", ""),
		req.GetString("phone", ""),
		opts)
	return result("Failed to create user", res, err)
}

// HandleGetUser fetches a user.
func (h *Handlers) HandleGetUser(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.svc.GetUser(ctx, req.GetString("user_id", ""))
	return result("Failed to get user", res, err)
}

// HandleModifyUser updates a user's contact details.
func (h *Handlers) HandleModifyUser(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts := &risc.UserOptions{
		Email: req.GetString("email", ""),
		Phone: req.GetString("phone", ""),
		Name:  req.GetString("name", ""),
	}
	if *opts == (risc.UserOptions{}) {
		return mcp.NewToolResultError("at least one of email, phone or name is required"), nil
	}
	res, err := h.svc.ModifyUser(ctx, req.GetString("user_id", ""), opts)
	return result("Failed to modify user", res, err)
}

// HandleDeleteUser removes a user.
func (h *Handlers) HandleDeleteUser(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.svc.DeleteUser(ctx, req.GetString("user_id", ""))
	return result("Failed to delete user", res, err)
}

// HandleCreateSession opens a session.
func (h *Handlers) HandleCreateSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.svc.CreateSession(ctx, req.GetString("user_id", ""))
	return result("Failed to create session", res, err)
}

// HandleGetSession fetches a session.
func (h *Handlers) HandleGetSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	res, err := h.svc.GetSession(ctx, req.GetString("session_id", ""))
	return result("Failed to get session", res, err)
}

// HandleDecryptSnapshot decrypts a snapshot locally.
func (h *Handlers) HandleDecryptSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, errResult := h.decrypt(req)
	if errResult != nil {
		return errResult, nil
	}
	return mcp.NewToolResultText(formatSnapshot(snap, false)), nil
}

// HandleValidateSnapshot decrypts a snapshot and confirms it with the server.
func (h *Handlers) HandleValidateSnapshot(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, errResult := h.decrypt(req)
	if errResult != nil {
		return errResult, nil
	}
	confirmed, err := h.svc.ValidateSnapshot(ctx, snap)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Snapshot was not confirmed by the server: %v", err)), nil
	}
	return mcp.NewToolResultText(formatSnapshot(confirmed, true)), nil
}

func (h *Handlers) decrypt(req mcp.CallToolRequest) (*risc.Snapshot, *mcp.CallToolResult) {
	blob := strings.TrimSpace(req.GetString("snapshot", ""))
	if blob == "" {
		return nil, mcp.NewToolResultError("snapshot is required")
	}
	snap := h.svc.DecryptSnapshot(blob)
	if snap == nil {
		return nil, mcp.NewToolResultError("Snapshot could not be decrypted or is more than ten minutes old")
	}
	return snap, nil
}

// --- Formatting helpers ---

func result(failure string, res risc.Result, err error) (*mcp.CallToolResult, error) {
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("%s: %v", failure, err)), nil
	}
	return mcp.NewToolResultText(formatJSON(res)), nil
}

func formatSnapshot(s *risc.Snapshot, confirmed bool) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Verdict: %s\n", strings.ToUpper(string(s.Status)))
	fmt.Fprintf(&sb, "Score: %g\n", s.Score)
	fmt.Fprintf(&sb, "Snapshot: %s\n", s.SnapshotID)
	fmt.Fprintf(&sb, "Browser: %s\n", s.BrowserID)
	fmt.Fprintf(&sb, "Issued: %s\n", s.IssuedAt().UTC().Format("2006-01-02 15:04:05 UTC"))
	if confirmed {
		sb.WriteString("Server confirmation: OK\n")
	}
	return sb.String()
}

func formatJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(data)
}
