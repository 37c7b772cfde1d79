package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexio-dev/nexbot/internal/platform"
)

func TestInvocation_ResolvesOptions(t *testing.T) {
	g := newTestGuild(&fakeAPI{})
	in := slash("createproject",
		&discordgo.ApplicationCommandInteractionDataOption{Name: "project_name", Type: discordgo.ApplicationCommandOptionString, Value: "Nexio Web"},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "deadline_days", Type: discordgo.ApplicationCommandOptionInteger, Value: float64(3)},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "project_leader", Type: discordgo.ApplicationCommandOptionUser, Value: "7"},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "role", Type: discordgo.ApplicationCommandOptionRole, Value: "r1"},
		&discordgo.ApplicationCommandInteractionDataOption{Name: "project_image", Type: discordgo.ApplicationCommandOptionAttachment, Value: "a1"},
	)
	data := in.Data.(discordgo.ApplicationCommandInteractionData)
	data.Resolved = &discordgo.ApplicationCommandInteractionDataResolved{
		Users:       map[string]*discordgo.User{"7": {ID: "7", Username: "ann"}},
		Members:     map[string]*discordgo.Member{"7": {Roles: []string{"r1"}}},
		Roles:       map[string]*discordgo.Role{"r1": {ID: "r1", Name: "Nexio Web"}},
		Attachments: map[string]*discordgo.MessageAttachment{"a1": {URL: "https://cdn/a.png", Filename: "a.png"}},
	}
	in.Data = data

	inv := g.Invocation(in)

	assert.Equal(t, "createproject", inv.Command)
	assert.Equal(t, "c1", inv.ChannelID)
	assert.Equal(t, testGuild, inv.GuildID)
	assert.Equal(t, "42", inv.Caller.ID)
	assert.Equal(t, []string{"Core Team"}, inv.Caller.RoleNames)

	assert.Equal(t, "Nexio Web", inv.String("project_name"))
	n, ok := inv.Int("deadline_days")
	require.True(t, ok)
	assert.EqualValues(t, 3, n)

	leader, ok := inv.Member("project_leader")
	require.True(t, ok)
	assert.Equal(t, "<@7>", leader.Mention)
	assert.True(t, leader.HasRole("r1"))

	role, _ := inv.Group("role")
	assert.Equal(t, platform.Group{ID: "r1", Name: "Nexio Web"}, role)
	img, _ := inv.Attachment("project_image")
	assert.Equal(t, "https://cdn/a.png", img.URL)
}

func TestInvocation_UnresolvedUserIsDropped(t *testing.T) {
	g := newTestGuild(&fakeAPI{})
	in := slash("userinfo",
		&discordgo.ApplicationCommandInteractionDataOption{Name: "user", Type: discordgo.ApplicationCommandOptionUser, Value: "7"},
	)

	inv := g.Invocation(in)

	_, ok := inv.Member("user")
	assert.False(t, ok)
}

func TestInvocation_DirectMessageCaller(t *testing.T) {
	g := newTestGuild(&fakeAPI{})
	in := slash("ping")
	in.Member = nil
	in.User = &discordgo.User{ID: "9", Username: "dm"}

	inv := g.Invocation(in)

	assert.Equal(t, "9", inv.Caller.ID)
	assert.Empty(t, inv.Caller.RoleIDs)
	assert.True(t, inv.Caller.JoinedAt.IsZero())
}
