package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// Tool definitions for the RISC MCP server.
// Descriptions are what the LLM reads to decide which tool to use.

var ToolVerifyAPIKey = mcp.NewTool("verify_api_key",
	mcp.WithDescription(
		"Check that the configured RISC API token and secret are accepted by the server."),
)

var ToolCreateUser = mcp.NewTool("create_user",
	mcp.WithDescription(
		"Register a user with the RISC identity-risk service so that sessions and "+
			"risk snapshots can be tracked for them."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Your application's identifier for the user")),
	mcp.WithString("email",
		mcp.Required(),
		mcp.Description("The user's email address")),
	mcp.WithString("phone",
		mcp.Required(),
		mcp.Description("The user's phone number, e.g. '+15555550100'")),
	mcp.WithString("name",
		mcp.Description("Optional display name")),
)

var ToolGetUser = mcp.NewTool("get_user",
	mcp.WithDescription("Look up a registered RISC user."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Identifier of the user")),
)

var ToolModifyUser = mcp.NewTool("modify_user",
	mcp.WithDescription(
		"Update a registered user's contact details. Only the fields you pass are changed."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Identifier of the user")),
	mcp.WithString("email",
		mcp.Description("New email address")),
	mcp.WithString("phone",
		mcp.Description("New phone number")),
	mcp.WithString("name",
		mcp.Description("New display name")),
)

var ToolDeleteUser = mcp.NewTool("delete_user",
	mcp.WithDescription("Remove a user from the RISC service."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Identifier of the user")),
)

var ToolCreateSession = mcp.NewTool("create_session",
	mcp.WithDescription("Open a RISC session for a registered user."),
	mcp.WithString("user_id",
		mcp.Required(),
		mcp.Description("Identifier of the user")),
)

var ToolGetSession = mcp.NewTool("get_session",
	mcp.WithDescription("Look up a RISC session."),
	mcp.WithString("session_id",
		mcp.Required(),
		mcp.Description("Identifier of the session")),
)

var ToolDecryptSnapshot = mcp.NewTool("decrypt_snapshot",
	mcp.WithDescription(
		"Decrypt an encrypted risk snapshot produced by the RISC browser script and show "+
			"its verdict (risky, passed or failed) and score. Snapshots older than ten "+
			"minutes are rejected."),
	mcp.WithString("snapshot",
		mcp.Required(),
		mcp.Description("The encrypted snapshot JSON, e.g. {\"ix\":3,\"iv\":\"...\",\"data\":\"...\"}")),
)

var ToolValidateSnapshot = mcp.NewTool("validate_snapshot",
	mcp.WithDescription(
		"Decrypt an encrypted risk snapshot and confirm it with the RISC server. "+
			"Use this before trusting a snapshot verdict for an authentication decision."),
	mcp.WithString("snapshot",
		mcp.Required(),
		mcp.Description("The encrypted snapshot JSON")),
)
