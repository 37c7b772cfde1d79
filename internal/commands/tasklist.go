package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/nexio-dev/nexbot/internal/platform"
)

// TaskListCommand handles /tasklist. Without a target it lists the
// caller's own tasks.
type TaskListCommand struct {
	tasks TaskWorkflow
}

// NewTaskListCommand creates a tasklist command.
func NewTaskListCommand(tasks TaskWorkflow) *TaskListCommand {
	return &TaskListCommand{tasks: tasks}
}

// Definition returns the command schema.
func (c *TaskListCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "tasklist",
		Description: "List the tasks assigned to a member",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("target", "Member whose tasks to show (defaults to you)", false),
		},
	}
}

// Handle lists tasks in assignment order.
func (c *TaskListCommand) Handle(ctx context.Context, inv *Invocation) (Reply, error) {
	target, ok := inv.Member("target")
	if !ok {
		target = inv.Caller
	}

	tasks, err := c.tasks.ForUser(ctx, target.ID)
	if err != nil {
		return Reply{}, err
	}
	if len(tasks) == 0 {
		return Public(platform.Message{
			Content: fmt.Sprintf("%s has no tasks assigned.", target.Mention),
		}), nil
	}
	return Public(platform.Message{Embed: taskListEmbed(target, tasks)}), nil
}
