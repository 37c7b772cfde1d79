package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/workflow"
)

// MakeProfileCommand handles /makeprofile.
type MakeProfileCommand struct {
	profiles ProfileWorkflow
}

// NewMakeProfileCommand creates a makeprofile command.
func NewMakeProfileCommand(profiles ProfileWorkflow) *MakeProfileCommand {
	return &MakeProfileCommand{profiles: profiles}
}

// Definition returns the command schema.
func (c *MakeProfileCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "makeprofile",
		Description: "Create your member profile",
		Options: []*discordgo.ApplicationCommandOption{
			stringOption("display_name", "Name shown on your profile (15 characters max)", true),
			stringOption("github", "Your GitHub profile URL", true),
			stringOption("password", "Password for the community app", true),
			stringOption("bio", "A short bio (25 words max)", false),
			stringOption("location", "Where you are based", false),
		},
	}
}

// Handle stores the profile. The confirmation is public; the password never
// appears in it.
func (c *MakeProfileCommand) Handle(ctx context.Context, inv *Invocation) (Reply, error) {
	_, err := c.profiles.Create(ctx, inv.Caller, workflow.MakeProfileParams{
		DisplayName:    inv.String("display_name"),
		RepositoryLink: inv.String("github"),
		Secret:         inv.String("password"),
		Bio:            inv.OptionalString("bio"),
		Location:       inv.OptionalString("location"),
	})
	if err != nil {
		return Reply{}, err
	}
	return Public(platform.Message{
		Content: fmt.Sprintf("Profile created successfully for %s!", inv.Caller.Mention),
	}), nil
}
