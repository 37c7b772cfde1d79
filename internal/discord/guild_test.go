package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexio-dev/nexbot/internal/platform"
)

const testGuild = "g1"

type permissionCall struct {
	channelID, targetID string
	allow, deny         int64
}

// fakeAPI records REST calls.
type fakeAPI struct {
	channels    []discordgo.GuildChannelCreateData
	roleParams  []*discordgo.RoleParams
	roleAdds    [][2]string
	permissions []permissionCall
	sent        map[string][]*discordgo.MessageSend
	roles       []*discordgo.Role
	members     []*discordgo.Member
	pages       int
	err         error
}

func (f *fakeAPI) GuildChannelCreateComplex(_ string, data discordgo.GuildChannelCreateData, _ ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.channels = append(f.channels, data)
	return &discordgo.Channel{ID: fmt.Sprintf("c%d", len(f.channels)), Name: data.Name}, nil
}

func (f *fakeAPI) GuildRoleCreate(_ string, data *discordgo.RoleParams, _ ...discordgo.RequestOption) (*discordgo.Role, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.roleParams = append(f.roleParams, data)
	return &discordgo.Role{ID: "r1", Name: data.Name}, nil
}

func (f *fakeAPI) GuildMemberRoleAdd(_, userID, roleID string, _ ...discordgo.RequestOption) error {
	f.roleAdds = append(f.roleAdds, [2]string{userID, roleID})
	return f.err
}

func (f *fakeAPI) ChannelPermissionSet(channelID, targetID string, _ discordgo.PermissionOverwriteType, allow, deny int64, _ ...discordgo.RequestOption) error {
	f.permissions = append(f.permissions, permissionCall{channelID, targetID, allow, deny})
	return f.err
}

func (f *fakeAPI) GuildRoles(string, ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return f.roles, f.err
}

// GuildMembers serves f.members in pages of limit, honouring after.
func (f *fakeAPI) GuildMembers(_ string, after string, limit int, _ ...discordgo.RequestOption) ([]*discordgo.Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.pages++
	start := 0
	if after != "" {
		for i, m := range f.members {
			if m.User.ID == after {
				start = i + 1
			}
		}
	}
	end := min(start+limit, len(f.members))
	return f.members[start:end], nil
}

func (f *fakeAPI) ChannelMessageSendComplex(channelID string, data *discordgo.MessageSend, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.sent == nil {
		f.sent = map[string][]*discordgo.MessageSend{}
	}
	f.sent[channelID] = append(f.sent[channelID], data)
	return &discordgo.Message{ID: "m1"}, nil
}

// fakeRoles is a gateway role cache.
type fakeRoles map[string]string

func (r fakeRoles) Role(_, roleID string) (*discordgo.Role, error) {
	name, ok := r[roleID]
	if !ok {
		return nil, discordgo.ErrStateNotFound
	}
	return &discordgo.Role{ID: roleID, Name: name}, nil
}

func newTestGuild(api *fakeAPI) *Guild {
	return &Guild{api: api, roles: fakeRoles{"staff": "Core Team", "r1": "Nexio Web"}, guildID: testGuild}
}

func TestGuild_Provisioning(t *testing.T) {
	api := &fakeAPI{}
	g := newTestGuild(api)
	ctx := context.Background()

	chID, err := g.CreateChannel(ctx, "cat", "nexio-web")
	require.NoError(t, err)
	assert.Equal(t, "c1", chID)
	assert.Equal(t, "cat", api.channels[0].ParentID)
	assert.Equal(t, discordgo.ChannelTypeGuildText, api.channels[0].Type)

	grp, err := g.CreateGroup(ctx, "Nexio Web")
	require.NoError(t, err)
	assert.Equal(t, platform.Group{ID: "r1", Name: "Nexio Web"}, grp)

	require.NoError(t, g.AddToGroup(ctx, "u1", "r1"))
	assert.Equal(t, [][2]string{{"u1", "r1"}}, api.roleAdds)
}

func TestGuild_RestrictChannel(t *testing.T) {
	api := &fakeAPI{}
	g := newTestGuild(api)

	require.NoError(t, g.RestrictChannel(context.Background(), "c1", "r1"))

	require.Len(t, api.permissions, 2)
	everyone := api.permissions[0]
	assert.Equal(t, testGuild, everyone.targetID)
	assert.Equal(t, int64(discordgo.PermissionViewChannel), everyone.deny)
	group := api.permissions[1]
	assert.Equal(t, "r1", group.targetID)
	assert.NotZero(t, group.allow&discordgo.PermissionViewChannel)
	assert.NotZero(t, group.allow&discordgo.PermissionSendMessages)
}

func TestGuild_Errors(t *testing.T) {
	api := &fakeAPI{err: errors.New("HTTP 403 Forbidden")}
	g := newTestGuild(api)
	ctx := context.Background()

	_, err := g.CreateChannel(ctx, "cat", "x")
	assert.ErrorContains(t, err, "403")
	_, err = g.CreateGroup(ctx, "x")
	assert.Error(t, err)
	assert.Error(t, g.RestrictChannel(ctx, "c", "r"))
	_, err = g.GroupExists(ctx, "r")
	assert.Error(t, err)
	assert.Error(t, g.Send(ctx, "c", platform.Message{Content: "hi"}))
}

func TestGuild_GroupExists(t *testing.T) {
	api := &fakeAPI{roles: []*discordgo.Role{{ID: "r1"}, {ID: "r2"}}}
	g := newTestGuild(api)

	ok, err := g.GroupExists(context.Background(), "r2")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = g.GroupExists(context.Background(), "r9")
	assert.False(t, ok)
}

func TestGuild_GroupMembersPages(t *testing.T) {
	api := &fakeAPI{}
	for i := range memberPageSize + 5 {
		roles := []string{}
		if i%2 == 0 {
			roles = append(roles, "r1")
		}
		api.members = append(api.members, &discordgo.Member{
			User:  &discordgo.User{ID: fmt.Sprintf("%05d", i), Username: fmt.Sprintf("u%d", i)},
			Roles: roles,
		})
	}
	g := newTestGuild(api)

	members, err := g.GroupMembers(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 2, api.pages)
	assert.Len(t, members, (memberPageSize+5+1)/2)
	assert.Equal(t, []string{"Nexio Web"}, members[0].RoleNames)
}

func TestGuild_Send(t *testing.T) {
	api := &fakeAPI{}
	g := newTestGuild(api)

	err := g.Send(context.Background(), "ann", platform.Message{
		Content: "<@1>",
		Embed:   &platform.Embed{Title: "T", Color: 0x2ecc71, ImageURL: "https://cdn/i.png"},
	})
	require.NoError(t, err)

	msgs := api.sent["ann"]
	require.Len(t, msgs, 1)
	assert.Equal(t, "<@1>", msgs[0].Content)
	require.Len(t, msgs[0].Embeds, 1)
	assert.Equal(t, 0x2ecc71, msgs[0].Embeds[0].Color)
	assert.Equal(t, "https://cdn/i.png", msgs[0].Embeds[0].Image.URL)
}

func TestMember_Conversion(t *testing.T) {
	g := newTestGuild(&fakeAPI{})
	joined := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)

	m := g.member(
		&discordgo.User{ID: "42", Username: "lea"},
		&discordgo.Member{Roles: []string{"staff", "gone"}, JoinedAt: joined},
	)

	assert.Equal(t, "42", m.ID)
	assert.Equal(t, "lea", m.Name)
	assert.Equal(t, "<@42>", m.Mention)
	assert.Equal(t, joined, m.JoinedAt)
	assert.Equal(t, []string{"staff", "gone"}, m.RoleIDs)
	assert.Equal(t, []string{"Core Team"}, m.RoleNames)
	assert.True(t, m.HasRoleNamed("core team"))
	assert.NotEmpty(t, m.AvatarURL)
}

func TestToEmbed_Truncates(t *testing.T) {
	e := toEmbed(&platform.Embed{
		Title:       "t",
		Description: strings.Repeat("é", maxDescription+10),
		Fields:      []platform.EmbedField{{Name: "n", Value: strings.Repeat("x", 2000), Inline: true}},
		Footer:      "f",
	})

	assert.Equal(t, maxDescription, len([]rune(e.Description)))
	assert.True(t, strings.HasSuffix(e.Description, "…"))
	assert.Equal(t, maxFieldValue, len([]rune(e.Fields[0].Value)))
	assert.True(t, e.Fields[0].Inline)
	assert.Equal(t, "f", e.Footer.Text)
	assert.Nil(t, e.Image)
	assert.Nil(t, e.Thumbnail)
}

func TestTruncate_ShortUnchanged(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 5))
	assert.Equal(t, "hel…", truncate("hello!", 4))
}
