package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nexio-dev/nexbot/internal/platform"
)

// UserInfoTool handles the userinfo MCP tool.
type UserInfoTool struct {
	profiles ProfileReader
}

// NewUserInfoTool creates a UserInfoTool.
func NewUserInfoTool(profiles ProfileReader) *UserInfoTool {
	return &UserInfoTool{profiles: profiles}
}

// Definition returns the MCP tool definition for userinfo.
func (t *UserInfoTool) Definition() mcp.Tool {
	return mcp.NewTool("userinfo",
		mcp.WithDescription("Show the profile of a Discord user."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Discord user id (snowflake)"),
		),
	)
}

// Handle processes the userinfo tool call.
func (t *UserInfoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil || strings.TrimSpace(userID) == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}

	p, err := t.profiles.Get(ctx, platform.Member{ID: userID, Mention: mention(userID)})
	if err != nil {
		return errorResult(err), nil
	}

	location := "Not provided"
	if p.Location != nil && *p.Location != "" {
		location = *p.Location
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s\n\n", p.DisplayName)
	fmt.Fprintf(&sb, "- **User**: %s (%s)\n", mention(p.ID), p.Tag)
	fmt.Fprintf(&sb, "- **Bio**: %s\n", p.Bio)
	fmt.Fprintf(&sb, "- **GitHub**: %s\n", p.RepositoryLink)
	fmt.Fprintf(&sb, "- **Location**: %s\n", location)
	fmt.Fprintf(&sb, "- **Verified**: %t\n", p.Verified)
	fmt.Fprintf(&sb, "- **Member since**: %s\n", p.JoinedAt.Format("02 Jan 2006"))
	return mcp.NewToolResultText(sb.String()), nil
}
