// Package console exposes read-only MCP tools over the nexbot record store,
// so operators can inspect projects, tasks and profiles from an MCP client
// without going through Discord.
//
// Each tool follows the same pattern as internal/commands:
//   - A struct with its workflow dependency injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a markdown result
package console

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/records"
	"github.com/nexio-dev/nexbot/internal/workflow"
)

// ProjectReader looks projects up by id or channel.
type ProjectReader interface {
	Get(ctx context.Context, id string) (*records.Project, error)
	ByChannel(ctx context.Context, channelID string) (*records.Project, error)
}

// TaskReader lists a user's tasks.
type TaskReader interface {
	ForUser(ctx context.Context, userID string) ([]records.Task, error)
}

// ProfileReader loads a user's profile.
type ProfileReader interface {
	Get(ctx context.Context, user platform.Member) (*records.UserProfile, error)
}

// New creates the MCP server with every console tool registered.
func New(projects ProjectReader, tasks TaskReader, profiles ProfileReader, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"nexbot-console",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)

	taskList := NewTaskListTool(tasks)
	s.AddTool(taskList.Definition(), taskList.Handle)

	userInfo := NewUserInfoTool(profiles)
	s.AddTool(userInfo.Definition(), userInfo.Handle)

	projectInfo := NewProjectInfoTool(projects)
	s.AddTool(projectInfo.Definition(), projectInfo.Handle)

	return s
}

// Serve runs s over stdio-style streams until ctx is cancelled or in closes.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s).Listen(ctx, in, out)
}

const instructions = `nexbot console: read-only access to the Nexio community records.

- tasklist: tasks assigned to a Discord user id, in assignment order.
- userinfo: the profile of a Discord user id (the app password is never shown).
- project_info: a project by its 8-character id or by its channel id.`

// errorResult turns a workflow error into a tool error with its user-facing
// message. Other errors are reported as-is.
func errorResult(err error) *mcp.CallToolResult {
	var werr *workflow.Error
	if errors.As(err, &werr) && werr.Message != "" {
		return mcp.NewToolResultError(werr.Message)
	}
	return mcp.NewToolResultError(fmt.Sprintf("lookup failed: %v", err))
}

// mention renders a user id the way Discord does.
func mention(userID string) string {
	return "<@" + userID + ">"
}
