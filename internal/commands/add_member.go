package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// AddMemberCommand handles /add_member. It only works inside a project
// channel and only for that project's leader.
type AddMemberCommand struct {
	projects ProjectWorkflow
}

// NewAddMemberCommand creates an add_member command.
func NewAddMemberCommand(projects ProjectWorkflow) *AddMemberCommand {
	return &AddMemberCommand{projects: projects}
}

// Definition returns the command schema.
func (c *AddMemberCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "add_member",
		Description: "Add a member to this project",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("member", "Member to add", true),
		},
	}
}

// Private reports that the confirmation is shown only to the caller.
func (c *AddMemberCommand) Private() bool { return true }

// Handle grants the member the project's role.
func (c *AddMemberCommand) Handle(ctx context.Context, inv *Invocation) (Reply, error) {
	member, ok := inv.Member("member")
	if !ok {
		return Reply{}, missingOption("member")
	}

	p, err := c.projects.AddMember(ctx, inv.Caller, inv.ChannelID, member)
	if err != nil {
		return Reply{}, err
	}
	return Private(fmt.Sprintf("%s has been added to the project %s.", member.Mention, p.Name)), nil
}
