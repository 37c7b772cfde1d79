package commands

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/nexio-dev/nexbot/internal/platform"
)

// UserInfoCommand handles /userinfo.
type UserInfoCommand struct {
	profiles ProfileWorkflow
}

// NewUserInfoCommand creates a userinfo command.
func NewUserInfoCommand(profiles ProfileWorkflow) *UserInfoCommand {
	return &UserInfoCommand{profiles: profiles}
}

// Definition returns the command schema.
func (c *UserInfoCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "userinfo",
		Description: "Show a member's profile",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", "Member whose profile to show", true),
		},
	}
}

// Handle renders the profile card.
func (c *UserInfoCommand) Handle(ctx context.Context, inv *Invocation) (Reply, error) {
	user, ok := inv.Member("user")
	if !ok {
		return Reply{}, missingOption("user")
	}

	p, err := c.profiles.Get(ctx, user)
	if err != nil {
		return Reply{}, err
	}
	return Public(platform.Message{Embed: profileEmbed(user, p)}), nil
}
