package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/workflow"
)

// GiveTaskCommand handles /give_task.
type GiveTaskCommand struct {
	tasks TaskWorkflow
}

// NewGiveTaskCommand creates a give_task command.
func NewGiveTaskCommand(tasks TaskWorkflow) *GiveTaskCommand {
	return &GiveTaskCommand{tasks: tasks}
}

// Definition returns the command schema.
func (c *GiveTaskCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "give_task",
		Description: "Assign a task to a project member",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("task_name", "Short name of the task", true),
			stringOption("task_description", "What needs to be done", true),
			intOption("deadline_days", "Days until the deadline", true),
			userOption("assigned_user", "Member who gets the task", true),
		},
	}
}

// Handle assigns the task and posts it publicly, mentioning the assignee.
func (c *GiveTaskCommand) Handle(ctx context.Context, inv *Invocation) (Reply, error) {
	assignee, ok := inv.Member("assigned_user")
	if !ok {
		return Reply{}, missingOption("assigned_user")
	}
	days, ok := inv.Int("deadline_days")
	if !ok {
		return Reply{}, missingOption("deadline_days")
	}

	a, err := c.tasks.Give(ctx, inv.Caller, inv.ChannelID, workflow.GiveTaskParams{
		Name:         inv.String("task_name"),
		Description:  inv.String("task_description"),
		DeadlineDays: int(days),
		Assignee:     assignee,
	})
	if err != nil {
		return Reply{}, err
	}

	return Public(platform.Message{
		Content: assignee.Mention,
		Embed:   taskEmbed(a, inv.Caller, assignee),
	}), nil
}
