package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
)

// VerifyCommand handles /verify. Staff only.
type VerifyCommand struct {
	profiles ProfileWorkflow
}

// NewVerifyCommand creates a verify command.
func NewVerifyCommand(profiles ProfileWorkflow) *VerifyCommand {
	return &VerifyCommand{profiles: profiles}
}

// Definition returns the command schema.
func (c *VerifyCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "verify",
		Description: "Mark a member's profile as verified",
		Options: []*discordgo.ApplicationCommandOption{
			userOption("user", "Member to verify", true),
		},
	}
}

// Private reports that the confirmation is shown only to the caller.
func (c *VerifyCommand) Private() bool { return true }

// Handle verifies the target's profile.
func (c *VerifyCommand) Handle(ctx context.Context, inv *Invocation) (Reply, error) {
	user, ok := inv.Member("user")
	if !ok {
		return Reply{}, missingOption("user")
	}
	if _, err := c.profiles.Verify(ctx, inv.Caller, user); err != nil {
		return Reply{}, err
	}
	return Private(fmt.Sprintf("%s has been verified!", user.Mention)), nil
}
