package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/nexio-dev/nexbot/internal/workflow"
)

// CreateProjectCommand handles /createproject.
type CreateProjectCommand struct {
	projects ProjectWorkflow
}

// NewCreateProjectCommand creates a createproject command.
func NewCreateProjectCommand(projects ProjectWorkflow) *CreateProjectCommand {
	return &CreateProjectCommand{projects: projects}
}

// Definition returns the command schema.
func (c *CreateProjectCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "createproject",
		Description: "Create a new project with its own channel and role",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("project_name", "Name of the project", true),
			stringOption("project_description", "What the project is about", true),
			stringOption("project_github_link", "GitHub repository of the project", true),
			stringOption("project_prototype_link", "Link to a prototype or demo", false),
			attachmentOption("project_image", "Cover image for the announcement", false),
			userOption("project_leader", "Member who leads the project", false),
		},
	}
}

// Private reports that the confirmation is shown only to the caller.
func (c *CreateProjectCommand) Private() bool { return true }

// Handle creates the project.
func (c *CreateProjectCommand) Handle(ctx context.Context, inv *Invocation) (Reply, error) {
	params := workflow.CreateProjectParams{
		Name:           inv.String("project_name"),
		Description:    inv.String("project_description"),
		RepositoryLink: inv.String("project_github_link"),
		PrototypeLink:  inv.OptionalString("project_prototype_link"),
	}
	if img, ok := inv.Attachment("project_image"); ok {
		params.Image = &img
	}
	if leader, ok := inv.Member("project_leader"); ok {
		params.Leader = &leader
	}

	p, err := c.projects.Create(ctx, inv.Caller, params)
	if err != nil {
		return Reply{}, err
	}
	return Private(fmt.Sprintf("Project %s created successfully!", p.Name)), nil
}
