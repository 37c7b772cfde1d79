package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/records"
)

// updateFunc is one of the ProfileWorkflow update methods as a method
// expression, e.g. ProfileWorkflow.UpdateBio.
type updateFunc func(w ProfileWorkflow, ctx context.Context, caller platform.Member, value string) (*records.UserProfile, error)

// UpdateProfileCommand handles the update_* commands. Each instance edits
// one field of the caller's own profile.
type UpdateProfileCommand struct {
	profiles    ProfileWorkflow
	name        string
	description string
	option      *discordgo.ApplicationCommandOption
	update      updateFunc
	// confirm formats the private confirmation from the submitted value.
	confirm func(value string) string
}

// Definition returns the command schema.
func (c *UpdateProfileCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        c.name,
		Description: c.description,
		Options:     []*discordgo.ApplicationCommandOption{c.option},
	}
}

// Private reports that the confirmation is shown only to the caller.
func (c *UpdateProfileCommand) Private() bool { return true }

// Handle applies the update.
func (c *UpdateProfileCommand) Handle(ctx context.Context, inv *Invocation) (Reply, error) {
	value := inv.String(c.option.Name)
	if _, err := c.update(c.profiles, ctx, inv.Caller, value); err != nil {
		return Reply{}, err
	}
	return Private(c.confirm(value)), nil
}

// NewUpdateBioCommand creates update_bio.
func NewUpdateBioCommand(profiles ProfileWorkflow) *UpdateProfileCommand {
	return &UpdateProfileCommand{
		profiles:    profiles,
		name:        "update_bio",
		description: "Update your profile bio",
		option:      stringOption("bio", "New bio (25 words max)", true),
		update:      ProfileWorkflow.UpdateBio,
		confirm:     func(v string) string { return fmt.Sprintf("Your bio has been updated to: %s", v) },
	}
}

// NewUpdateNameCommand creates update_name.
func NewUpdateNameCommand(profiles ProfileWorkflow) *UpdateProfileCommand {
	return &UpdateProfileCommand{
		profiles:    profiles,
		name:        "update_name",
		description: "Update your profile display name",
		option:      stringOption("display_name", "New display name (15 characters max)", true),
		update:      ProfileWorkflow.UpdateName,
		confirm:     func(v string) string { return fmt.Sprintf("Your display name has been updated to: %s", v) },
	}
}

// NewUpdateGitHubCommand creates update_github.
func NewUpdateGitHubCommand(profiles ProfileWorkflow) *UpdateProfileCommand {
	return &UpdateProfileCommand{
		profiles:    profiles,
		name:        "update_github",
		description: "Update your GitHub link",
		option:      stringOption("github", "New GitHub profile URL", true),
		update:      ProfileWorkflow.UpdateGitHub,
		confirm:     func(v string) string { return fmt.Sprintf("Your GitHub link has been updated to: %s", v) },
	}
}

// NewUpdateLocationCommand creates update_location.
func NewUpdateLocationCommand(profiles ProfileWorkflow) *UpdateProfileCommand {
	return &UpdateProfileCommand{
		profiles:    profiles,
		name:        "update_location",
		description: "Update your location",
		option:      stringOption("location", "Where you are based", true),
		update:      ProfileWorkflow.UpdateLocation,
		confirm:     func(v string) string { return fmt.Sprintf("Your location has been updated to: %s", v) },
	}
}

// NewUpdateAppPasswordCommand creates update_app_password. The new password
// is never echoed back.
func NewUpdateAppPasswordCommand(profiles ProfileWorkflow) *UpdateProfileCommand {
	return &UpdateProfileCommand{
		profiles:    profiles,
		name:        "update_app_password",
		description: "Change your community app password",
		option:      stringOption("newpass", "New password", true),
		update:      ProfileWorkflow.UpdateSecret,
		confirm:     func(string) string { return "Your Password updated" },
	}
}
