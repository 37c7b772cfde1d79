package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/nexio-dev/nexbot/internal/platform"
)

// PingCommand handles /ping.
type PingCommand struct {
	latency func() time.Duration
}

// NewPingCommand creates a ping command. latency reports the current
// gateway heartbeat latency.
func NewPingCommand(latency func() time.Duration) *PingCommand {
	return &PingCommand{latency: latency}
}

// Definition returns the command schema.
func (c *PingCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "ping",
		Description: "Check that the bot is responsive",
	}
}

// Handle replies with the heartbeat latency in whole milliseconds.
func (c *PingCommand) Handle(_ context.Context, _ *Invocation) (Reply, error) {
	var ms int64
	if c.latency != nil {
		ms = c.latency().Milliseconds()
	}
	return Public(platform.Message{Content: fmt.Sprintf("Pong! 🏓 Latency: %dms", ms)}), nil
}
