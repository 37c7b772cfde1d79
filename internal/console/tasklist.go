package console

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/nexio-dev/nexbot/internal/records"
)

// TaskListTool handles the tasklist MCP tool.
type TaskListTool struct {
	tasks TaskReader
}

// NewTaskListTool creates a TaskListTool.
func NewTaskListTool(tasks TaskReader) *TaskListTool {
	return &TaskListTool{tasks: tasks}
}

// Definition returns the MCP tool definition for tasklist.
func (t *TaskListTool) Definition() mcp.Tool {
	return mcp.NewTool("tasklist",
		mcp.WithDescription("List the tasks assigned to a Discord user, oldest first."),
		mcp.WithString("user_id",
			mcp.Required(),
			mcp.Description("Discord user id (snowflake) of the assignee"),
		),
	)
}

// Handle processes the tasklist tool call.
func (t *TaskListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	userID, err := req.RequireString("user_id")
	if err != nil || strings.TrimSpace(userID) == "" {
		return mcp.NewToolResultError("user_id is required"), nil
	}

	tasks, err := t.tasks.ForUser(ctx, userID)
	if err != nil {
		return errorResult(err), nil
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("%s has no tasks assigned.", mention(userID))), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Tasks for %s (%d)\n\n", mention(userID), len(tasks))
	for i, task := range tasks {
		fmt.Fprintf(&sb, "%d. **%s** [%s] - %s\n", i+1, task.Name, task.ID, task.Status.Label())
		fmt.Fprintf(&sb, "   - Project: %s\n", task.ProjectID)
		fmt.Fprintf(&sb, "   - Deadline: %s\n", task.Deadline.Format(records.DeadlineLayout))
		fmt.Fprintf(&sb, "   - Assigned by: %s\n", task.AssignedBy)
		if task.Description != "" {
			fmt.Fprintf(&sb, "   - %s\n", task.Description)
		}
	}
	return mcp.NewToolResultText(sb.String()), nil
}
