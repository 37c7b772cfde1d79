// Package discord connects nexbot to a Discord guild: it implements
// platform.Platform on top of discordgo and turns slash command interactions
// into commands.Invocations.
package discord

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"

	"github.com/nexio-dev/nexbot/internal/platform"
)

// Discord rejects embeds above these sizes.
const (
	maxTitle       = 256
	maxDescription = 4096
	maxFieldName   = 256
	maxFieldValue  = 1024
	maxFooter      = 2048
)

// memberPageSize is the largest page GuildMembers accepts.
const memberPageSize = 1000

// restAPI is the subset of *discordgo.Session the guild adapter calls.
type restAPI interface {
	GuildChannelCreateComplex(guildID string, data discordgo.GuildChannelCreateData, options ...discordgo.RequestOption) (*discordgo.Channel, error)
	GuildRoleCreate(guildID string, data *discordgo.RoleParams, options ...discordgo.RequestOption) (*discordgo.Role, error)
	GuildMemberRoleAdd(guildID, userID, roleID string, options ...discordgo.RequestOption) error
	ChannelPermissionSet(channelID, targetID string, targetType discordgo.PermissionOverwriteType, allow, deny int64, options ...discordgo.RequestOption) error
	GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error)
	GuildMembers(guildID string, after string, limit int, options ...discordgo.RequestOption) ([]*discordgo.Member, error)
	ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// roleCache resolves role ids to roles from the gateway state.
type roleCache interface {
	Role(guildID, roleID string) (*discordgo.Role, error)
}

// Guild is a platform.Platform bound to one guild.
type Guild struct {
	api     restAPI
	roles   roleCache
	guildID string
}

var _ platform.Platform = (*Guild)(nil)

// NewGuild binds a session to guildID.
func NewGuild(s *discordgo.Session, guildID string) *Guild {
	return &Guild{api: s, roles: s.State, guildID: guildID}
}

// ID returns the guild id.
func (g *Guild) ID() string { return g.guildID }

func (g *Guild) CreateChannel(ctx context.Context, parentID, name string) (string, error) {
	ch, err := g.api.GuildChannelCreateComplex(g.guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildText,
		ParentID: parentID,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return "", fmt.Errorf("creating channel %q: %w", name, err)
	}
	return ch.ID, nil
}

func (g *Guild) CreateGroup(ctx context.Context, name string) (platform.Group, error) {
	r, err := g.api.GuildRoleCreate(g.guildID, &discordgo.RoleParams{Name: name}, discordgo.WithContext(ctx))
	if err != nil {
		return platform.Group{}, fmt.Errorf("creating role %q: %w", name, err)
	}
	return platform.Group{ID: r.ID, Name: r.Name}, nil
}

func (g *Guild) AddToGroup(ctx context.Context, userID, groupID string) error {
	if err := g.api.GuildMemberRoleAdd(g.guildID, userID, groupID, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("adding role %s to %s: %w", groupID, userID, err)
	}
	return nil
}

// RestrictChannel hides channelID from @everyone and opens it to groupID.
// The @everyone role shares the guild's id.
func (g *Guild) RestrictChannel(ctx context.Context, channelID, groupID string) error {
	err := g.api.ChannelPermissionSet(channelID, g.guildID, discordgo.PermissionOverwriteTypeRole,
		0, discordgo.PermissionViewChannel, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("hiding channel %s: %w", channelID, err)
	}
	err = g.api.ChannelPermissionSet(channelID, groupID, discordgo.PermissionOverwriteTypeRole,
		discordgo.PermissionViewChannel|discordgo.PermissionSendMessages, 0, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("opening channel %s to %s: %w", channelID, groupID, err)
	}
	return nil
}

func (g *Guild) GroupExists(ctx context.Context, groupID string) (bool, error) {
	roles, err := g.api.GuildRoles(g.guildID, discordgo.WithContext(ctx))
	if err != nil {
		return false, fmt.Errorf("listing roles: %w", err)
	}
	for _, r := range roles {
		if r.ID == groupID {
			return true, nil
		}
	}
	return false, nil
}

// GroupMembers pages through the whole member list and keeps the holders of
// groupID. Needs the guild members intent.
func (g *Guild) GroupMembers(ctx context.Context, groupID string) ([]platform.Member, error) {
	var (
		out   []platform.Member
		after string
	)
	for {
		page, err := g.api.GuildMembers(g.guildID, after, memberPageSize, discordgo.WithContext(ctx))
		if err != nil {
			return nil, fmt.Errorf("listing members: %w", err)
		}
		for _, m := range page {
			if m.User == nil {
				continue
			}
			pm := g.member(m.User, m)
			if pm.HasRole(groupID) {
				out = append(out, pm)
			}
		}
		if len(page) < memberPageSize || page[len(page)-1].User == nil {
			return out, nil
		}
		after = page[len(page)-1].User.ID
	}
}

func (g *Guild) Send(ctx context.Context, channelID string, msg platform.Message) error {
	data := &discordgo.MessageSend{Content: msg.Content}
	if msg.Embed != nil {
		data.Embeds = []*discordgo.MessageEmbed{toEmbed(msg.Embed)}
	}
	if _, err := g.api.ChannelMessageSendComplex(channelID, data, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("sending to %s: %w", channelID, err)
	}
	return nil
}

// --- Conversion ---

// member converts a user and its optional guild membership. Role names come
// from the gateway state; unknown roles keep only their id.
func (g *Guild) member(u *discordgo.User, m *discordgo.Member) platform.Member {
	out := platform.Member{
		ID:        u.ID,
		Name:      u.Username,
		Mention:   u.Mention(),
		AvatarURL: u.AvatarURL(""),
	}
	if m == nil {
		return out
	}
	out.JoinedAt = m.JoinedAt
	out.RoleIDs = append([]string(nil), m.Roles...)
	for _, id := range m.Roles {
		if g.roles == nil {
			break
		}
		if r, err := g.roles.Role(g.guildID, id); err == nil && r != nil {
			out.RoleNames = append(out.RoleNames, r.Name)
		}
	}
	return out
}

func toEmbed(e *platform.Embed) *discordgo.MessageEmbed {
	out := &discordgo.MessageEmbed{
		Title:       truncate(e.Title, maxTitle),
		Description: truncate(e.Description, maxDescription),
		Color:       e.Color,
	}
	for _, f := range e.Fields {
		out.Fields = append(out.Fields, &discordgo.MessageEmbedField{
			Name:   truncate(f.Name, maxFieldName),
			Value:  truncate(f.Value, maxFieldValue),
			Inline: f.Inline,
		})
	}
	if e.ImageURL != "" {
		out.Image = &discordgo.MessageEmbedImage{URL: e.ImageURL}
	}
	if e.ThumbnailURL != "" {
		out.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: e.ThumbnailURL}
	}
	if e.Footer != "" {
		out.Footer = &discordgo.MessageEmbedFooter{Text: truncate(e.Footer, maxFooter)}
	}
	return out
}

// truncate cuts s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}
