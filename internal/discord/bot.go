package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/nexio-dev/nexbot/internal/commands"
)

// responder is the subset of *discordgo.Session used to answer interactions.
type responder interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	InteractionResponseEdit(interaction *discordgo.Interaction, newresp *discordgo.WebhookEdit, options ...discordgo.RequestOption) (*discordgo.Message, error)
	InteractionResponseDelete(interaction *discordgo.Interaction, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// NewSession creates a bot session with the intents nexbot needs: guild
// state for role names and the member list for project task lists.
func NewSession(token string) (*discordgo.Session, error) {
	if token == "" {
		return nil, errors.New("discord token is empty")
	}
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating discord session: %w", err)
	}
	s.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers
	return s, nil
}

// Bot routes slash command interactions to a command registry.
type Bot struct {
	session  *discordgo.Session
	guild    *Guild
	registry *commands.Registry
	presence string
	logger   *zap.Logger

	ready     chan string // receives the application id once
	readyOnce sync.Once

	// ctx is the lifetime of Start; interactions run under it.
	ctx    context.Context
	cancel context.CancelFunc
}

// NewBot wires a bot. presence is shown as "Listening to {presence}".
func NewBot(session *discordgo.Session, guild *Guild, registry *commands.Registry, presence string, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Bot{
		session:  session,
		guild:    guild,
		registry: registry,
		presence: presence,
		logger:   logger.Named("discord"),
		ready:    make(chan string, 1),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start opens the gateway, waits for READY and replaces the guild's command
// definitions with the registry's.
func (b *Bot) Start(ctx context.Context) error {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteraction)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("opening discord gateway: %w", err)
	}

	var appID string
	select {
	case appID = <-b.ready:
	case <-ctx.Done():
		return ctx.Err()
	}

	defs := b.registry.Definitions()
	if _, err := b.session.ApplicationCommandBulkOverwrite(appID, b.guild.ID(), defs, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("registering commands: %w", err)
	}
	b.logger.Info("commands registered", zap.Int("count", len(defs)), zap.String("guild", b.guild.ID()))
	return nil
}

// Stop cancels in-flight interactions and closes the gateway.
func (b *Bot) Stop() error {
	b.cancel()
	return b.session.Close()
}

// Latency is the last gateway heartbeat round trip.
func (b *Bot) Latency() time.Duration {
	return b.session.HeartbeatLatency()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("logged in", zap.String("user", r.User.Username), zap.Int("guilds", len(r.Guilds)))
	if err := s.UpdateListeningStatus(b.presence); err != nil {
		b.logger.Warn("setting presence failed", zap.Error(err))
	}
	b.readyOnce.Do(func() { b.ready <- r.User.ID })
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	b.handle(b.ctx, s, i.Interaction)
}

// handle acknowledges the interaction, runs the command and delivers the
// reply. The acknowledgement's visibility follows the command's default.
func (b *Bot) handle(ctx context.Context, r responder, in *discordgo.Interaction) {
	inv := b.guild.Invocation(in)
	log := b.logger.With(zap.String("command", inv.Command), zap.String("interaction", in.ID))

	deferred := b.registry.DefersPrivately(inv.Command)
	ack := &discordgo.InteractionResponse{Type: discordgo.InteractionResponseDeferredChannelMessageWithSource}
	if deferred {
		ack.Data = &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral}
	}
	if err := r.InteractionRespond(in, ack, discordgo.WithContext(ctx)); err != nil {
		log.Error("acknowledging interaction failed", zap.Error(err))
		return
	}

	reply := b.registry.Dispatch(ctx, inv)
	if err := deliver(ctx, r, in, deferred, reply); err != nil {
		log.Error("delivering reply failed", zap.Error(err))
	}
}

// deliver edits the deferred response when the visibility matches.
// Otherwise the placeholder is removed and the reply goes out as a
// follow-up with its own visibility.
func deliver(ctx context.Context, r responder, in *discordgo.Interaction, deferredPrivate bool, reply commands.Reply) error {
	content := reply.Message.Content
	embeds := []*discordgo.MessageEmbed{}
	if reply.Message.Embed != nil {
		embeds = append(embeds, toEmbed(reply.Message.Embed))
	}

	if reply.Private == deferredPrivate {
		_, err := r.InteractionResponseEdit(in, &discordgo.WebhookEdit{Content: &content, Embeds: &embeds}, discordgo.WithContext(ctx))
		return err
	}

	if err := r.InteractionResponseDelete(in, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("removing deferred response: %w", err)
	}
	params := &discordgo.WebhookParams{Content: content, Embeds: embeds}
	if reply.Private {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	_, err := r.FollowupMessageCreate(in, true, params, discordgo.WithContext(ctx))
	return err
}
