package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/nexio-dev/nexbot/internal/platform"
)

// ProjectTaskListCommand handles /project_tasklist.
type ProjectTaskListCommand struct {
	tasks TaskWorkflow
}

// NewProjectTaskListCommand creates a project_tasklist command.
func NewProjectTaskListCommand(tasks TaskWorkflow) *ProjectTaskListCommand {
	return &ProjectTaskListCommand{tasks: tasks}
}

// Definition returns the command schema. The role is optional in the schema
// so a missing role gets a readable answer instead of a client-side error.
func (c *ProjectTaskListCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "project_tasklist",
		Description: "List the tasks of every member of a project",
		Options: []*discordgo.ApplicationCommandOption{
			roleOption("role", "The project's role", false),
		},
	}
}

// Handle lists tasks grouped by member.
func (c *ProjectTaskListCommand) Handle(ctx context.Context, inv *Invocation) (Reply, error) {
	group, _ := inv.Group("role")

	pt, err := c.tasks.ForProject(ctx, inv.Caller, group.ID)
	if err != nil {
		return Reply{}, err
	}
	return Public(platform.Message{Embed: projectTasksEmbed(pt)}), nil
}
