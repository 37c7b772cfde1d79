// Package commands implements the slash commands nexbot exposes.
//
// Each command follows the same pattern:
//   - A struct with its workflow dependencies injected via constructor
//   - Definition() returns the application command schema
//   - Handle() reads the invocation, runs one workflow, and formats a Reply
//
// Commands never decide how errors look. They return workflow errors as-is
// and the Registry maps the error kind to a private reply.
package commands

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/workflow"
)

// Command is one slash command.
type Command interface {
	Definition() *discordgo.ApplicationCommand
	Handle(ctx context.Context, inv *Invocation) (Reply, error)
}

// PrivateByDefault is implemented by commands whose successful reply is
// visible only to the caller. The gateway uses it to pick the visibility of
// the initial deferred response.
type PrivateByDefault interface {
	Private() bool
}

// Reply is what a command sends back to the invoking context.
type Reply struct {
	// Private replies are visible only to the caller.
	Private bool
	Message platform.Message
}

// Public returns a reply visible to the whole channel.
func Public(msg platform.Message) Reply {
	return Reply{Message: msg}
}

// Private returns a reply visible only to the caller.
func Private(content string) Reply {
	return Reply{Private: true, Message: platform.Message{Content: content}}
}

// Invocation is one resolved command call. Option values are already
// converted to platform types by the gateway.
type Invocation struct {
	Command   string
	Caller    platform.Member
	ChannelID string
	GuildID   string
	// Args holds option values by name: string, int64, platform.Member,
	// platform.Group or platform.Attachment.
	Args map[string]any
}

// String returns a string option, or "" when absent.
func (inv *Invocation) String(name string) string {
	s, _ := inv.Args[name].(string)
	return s
}

// OptionalString returns a string option, or nil when absent or empty.
func (inv *Invocation) OptionalString(name string) *string {
	s, ok := inv.Args[name].(string)
	if !ok || s == "" {
		return nil
	}
	return &s
}

// Int returns an integer option and whether it was given.
func (inv *Invocation) Int(name string) (int64, bool) {
	switch v := inv.Args[name].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), true
	default:
		return 0, false
	}
}

// Member returns a user option and whether it was given.
func (inv *Invocation) Member(name string) (platform.Member, bool) {
	m, ok := inv.Args[name].(platform.Member)
	return m, ok
}

// Group returns a role option and whether it was given.
func (inv *Invocation) Group(name string) (platform.Group, bool) {
	g, ok := inv.Args[name].(platform.Group)
	return g, ok
}

// Attachment returns an attachment option and whether it was given.
func (inv *Invocation) Attachment(name string) (platform.Attachment, bool) {
	a, ok := inv.Args[name].(platform.Attachment)
	return a, ok
}

// --- Option builders ---

func stringOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func intOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionInteger,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func userOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionUser,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func roleOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionRole,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

func attachmentOption(name, description string, required bool) *discordgo.ApplicationCommandOption {
	return &discordgo.ApplicationCommandOption{
		Type:        discordgo.ApplicationCommandOptionAttachment,
		Name:        name,
		Description: description,
		Required:    required,
	}
}

// missingOption is returned when the gateway delivers an invocation without
// a required option.
func missingOption(name string) error {
	return &workflow.Error{
		Kind:    workflow.KindValidation,
		Message: fmt.Sprintf("The %s option is required.", name),
	}
}
