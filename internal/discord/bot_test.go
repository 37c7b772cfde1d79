package discord

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexio-dev/nexbot/internal/commands"
	"github.com/nexio-dev/nexbot/internal/platform"
)

// fakeResponder records how an interaction was answered.
type fakeResponder struct {
	acks      []*discordgo.InteractionResponse
	edits     []*discordgo.WebhookEdit
	deletes   int
	followups []*discordgo.WebhookParams
}

func (f *fakeResponder) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	f.acks = append(f.acks, resp)
	return nil
}

func (f *fakeResponder) InteractionResponseEdit(_ *discordgo.Interaction, edit *discordgo.WebhookEdit, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.edits = append(f.edits, edit)
	return &discordgo.Message{}, nil
}

func (f *fakeResponder) InteractionResponseDelete(*discordgo.Interaction, ...discordgo.RequestOption) error {
	f.deletes++
	return nil
}

func (f *fakeResponder) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.followups = append(f.followups, data)
	return &discordgo.Message{}, nil
}

func TestDeliver_SameVisibilityEdits(t *testing.T) {
	r := &fakeResponder{}
	reply := commands.Public(platform.Message{Content: "hi", Embed: &platform.Embed{Title: "T"}})

	require.NoError(t, deliver(context.Background(), r, &discordgo.Interaction{}, false, reply))

	require.Len(t, r.edits, 1)
	assert.Equal(t, "hi", *r.edits[0].Content)
	require.Len(t, *r.edits[0].Embeds, 1)
	assert.Equal(t, "T", (*r.edits[0].Embeds)[0].Title)
	assert.Zero(t, r.deletes)
	assert.Empty(t, r.followups)
}

func TestDeliver_PrivateErrorOnPublicCommand(t *testing.T) {
	r := &fakeResponder{}

	require.NoError(t, deliver(context.Background(), r, &discordgo.Interaction{}, false, commands.Private("Nope.")))

	assert.Empty(t, r.edits)
	assert.Equal(t, 1, r.deletes)
	require.Len(t, r.followups, 1)
	assert.Equal(t, "Nope.", r.followups[0].Content)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, r.followups[0].Flags)
}

func TestDeliver_PublicReplyOnPrivateDefer(t *testing.T) {
	r := &fakeResponder{}

	require.NoError(t, deliver(context.Background(), r, &discordgo.Interaction{}, true, commands.Public(platform.Message{Content: "all"})))

	require.Len(t, r.followups, 1)
	assert.Zero(t, r.followups[0].Flags)
}

func TestHandle_DefersWithCommandVisibility(t *testing.T) {
	reg := commands.NewRegistry(nil, nil)
	reg.Register(commands.NewPingCommand(nil), commands.NewVerifyCommand(nil))
	b := &Bot{guild: newTestGuild(&fakeAPI{}), registry: reg, logger: zap.NewNop()}

	r := &fakeResponder{}
	b.handle(context.Background(), r, slash("ping"))

	require.Len(t, r.acks, 1)
	assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, r.acks[0].Type)
	assert.Nil(t, r.acks[0].Data)
	require.Len(t, r.edits, 1)
	assert.Equal(t, "Pong! 🏓 Latency: 0ms", *r.edits[0].Content)

	r = &fakeResponder{}
	in := slash("verify")
	b.handle(context.Background(), r, in)
	require.Len(t, r.acks, 1)
	require.NotNil(t, r.acks[0].Data)
	assert.Equal(t, discordgo.MessageFlagsEphemeral, r.acks[0].Data.Flags)
	require.Len(t, r.edits, 1)
	assert.Equal(t, "The user option is required.", *r.edits[0].Content)
}

func slash(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	return &discordgo.Interaction{
		ID:        "i1",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   testGuild,
		ChannelID: "c1",
		Member: &discordgo.Member{
			User:  &discordgo.User{ID: "42", Username: "lea"},
			Roles: []string{"staff"},
		},
		Data: discordgo.ApplicationCommandInteractionData{Name: name, Options: opts},
	}
}
