package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nexio-dev/nexbot/internal/records"
)

// ProjectInfoTool handles the project_info MCP tool.
type ProjectInfoTool struct {
	projects ProjectReader
}

// NewProjectInfoTool creates a ProjectInfoTool.
func NewProjectInfoTool(projects ProjectReader) *ProjectInfoTool {
	return &ProjectInfoTool{projects: projects}
}

// Definition returns the MCP tool definition for project_info.
func (t *ProjectInfoTool) Definition() mcp.Tool {
	return mcp.NewTool("project_info",
		mcp.WithDescription("Show a project by id or by its Discord channel id. Give exactly one."),
		mcp.WithString("project_id",
			mcp.Description("8-character project id, e.g. 'K3Q9ZP2A'"),
		),
		mcp.WithString("channel_id",
			mcp.Description("Discord channel id of the project channel"),
		),
	)
}

// Handle processes the project_info tool call.
func (t *ProjectInfoTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("project_id", ""))
	channelID := strings.TrimSpace(req.GetString("channel_id", ""))

	var (
		p   *records.Project
		err error
	)
	switch {
	case id != "" && channelID != "":
		return mcp.NewToolResultError("give either project_id or channel_id, not both"), nil
	case id != "":
		p, err = t.projects.Get(ctx, strings.ToUpper(id))
	case channelID != "":
		p, err = t.projects.ByChannel(ctx, channelID)
	default:
		return mcp.NewToolResultError("project_id or channel_id is required"), nil
	}
	if err != nil {
		return errorResult(err), nil
	}

	leader := p.Leader()
	if leader == "" {
		leader = "Not specified"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s (%s)\n\n", p.Name, p.ID)
	fmt.Fprintf(&sb, "%s\n\n", p.Description)
	fmt.Fprintf(&sb, "- **GitHub**: %s\n", p.RepositoryLink)
	if p.PrototypeLink != nil && *p.PrototypeLink != "" {
		fmt.Fprintf(&sb, "- **Prototype**: %s\n", *p.PrototypeLink)
	}
	fmt.Fprintf(&sb, "- **Leader**: %s\n", leader)
	fmt.Fprintf(&sb, "- **Channel**: <#%s>\n", p.ChannelID)
	fmt.Fprintf(&sb, "- **Role**: <@&%s>\n", p.GroupID)
	fmt.Fprintf(&sb, "- **Created**: %s\n", p.CreatedAt.Format(records.DeadlineLayout))
	return mcp.NewToolResultText(sb.String()), nil
}
