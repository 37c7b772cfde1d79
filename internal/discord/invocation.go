package discord

import (
	"github.com/bwmarrin/discordgo"

	"github.com/nexio-dev/nexbot/internal/commands"
	"github.com/nexio-dev/nexbot/internal/platform"
)

// Invocation converts a slash command interaction. User, role and
// attachment options are looked up in the interaction's resolved data.
func (g *Guild) Invocation(in *discordgo.Interaction) *commands.Invocation {
	data := in.ApplicationCommandData()
	inv := &commands.Invocation{
		Command:   data.Name,
		ChannelID: in.ChannelID,
		GuildID:   in.GuildID,
		Args:      make(map[string]any, len(data.Options)),
	}

	switch {
	case in.Member != nil && in.Member.User != nil:
		inv.Caller = g.member(in.Member.User, in.Member)
	case in.User != nil:
		inv.Caller = g.member(in.User, nil)
	}

	resolved := data.Resolved
	if resolved == nil {
		resolved = &discordgo.ApplicationCommandInteractionDataResolved{}
	}
	for _, opt := range data.Options {
		if v, ok := g.optionValue(opt, resolved); ok {
			inv.Args[opt.Name] = v
		}
	}
	return inv
}

func (g *Guild) optionValue(opt *discordgo.ApplicationCommandInteractionDataOption, res *discordgo.ApplicationCommandInteractionDataResolved) (any, bool) {
	switch opt.Type {
	case discordgo.ApplicationCommandOptionString:
		return opt.StringValue(), true
	case discordgo.ApplicationCommandOptionInteger:
		return opt.IntValue(), true
	case discordgo.ApplicationCommandOptionBoolean:
		return opt.BoolValue(), true
	}

	id, _ := opt.Value.(string)
	if id == "" {
		return nil, false
	}
	switch opt.Type {
	case discordgo.ApplicationCommandOptionUser:
		u, ok := res.Users[id]
		if !ok {
			return nil, false
		}
		return g.member(u, res.Members[id]), true
	case discordgo.ApplicationCommandOptionRole:
		r, ok := res.Roles[id]
		if !ok {
			return platform.Group{ID: id}, true
		}
		return platform.Group{ID: r.ID, Name: r.Name}, true
	case discordgo.ApplicationCommandOptionAttachment:
		a, ok := res.Attachments[id]
		if !ok {
			return nil, false
		}
		return platform.Attachment{URL: a.URL, Filename: a.Filename}, true
	default:
		return opt.Value, true
	}
}
