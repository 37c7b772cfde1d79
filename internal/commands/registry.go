package commands

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/nexio-dev/nexbot/internal/workflow"
)

// genericFailure is shown when a command fails in a way it did not describe.
const genericFailure = "Something went wrong while running this command."

// Reporter receives failures that point at a broken dependency or a bug.
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// Registry maps command names to commands and turns their errors into
// replies.
type Registry struct {
	commands map[string]Command
	reporter Reporter
	logger   *zap.Logger
}

// NewRegistry creates an empty registry. reporter may be nil.
func NewRegistry(logger *zap.Logger, reporter Reporter) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		commands: map[string]Command{},
		reporter: reporter,
		logger:   logger.Named("commands"),
	}
}

// Register adds commands. A later command with the same name replaces an
// earlier one.
func (r *Registry) Register(cmds ...Command) {
	for _, c := range cmds {
		r.commands[c.Definition().Name] = c
	}
}

// Definitions returns every command schema sorted by name.
func (r *Registry) Definitions() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(r.commands))
	for _, c := range r.commands {
		defs = append(defs, c.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Lookup returns the command registered under name.
func (r *Registry) Lookup(name string) (Command, bool) {
	c, ok := r.commands[name]
	return c, ok
}

// DefersPrivately reports whether the initial response for name should be
// private.
func (r *Registry) DefersPrivately(name string) bool {
	c, ok := r.commands[name]
	if !ok {
		return true
	}
	if p, ok := c.(PrivateByDefault); ok {
		return p.Private()
	}
	return false
}

// Dispatch runs the named command and always returns a reply. Errors and
// panics never escape.
func (r *Registry) Dispatch(ctx context.Context, inv *Invocation) (reply Reply) {
	log := r.logger.With(
		zap.String("command", inv.Command),
		zap.String("caller", inv.Caller.ID),
		zap.String("channel", inv.ChannelID),
	)

	c, ok := r.commands[inv.Command]
	if !ok {
		log.Warn("unknown command")
		return Private("Unknown command.")
	}

	defer func() {
		if rec := recover(); rec != nil {
			err := fmt.Errorf("panic in /%s: %v", inv.Command, rec)
			log.Error("command panicked", zap.Any("panic", rec))
			r.report(ctx, err, inv, workflow.KindUnknown)
			reply = Private(genericFailure)
		}
	}()

	reply, err := c.Handle(ctx, inv)
	if err == nil {
		log.Debug("command handled", zap.Bool("private", reply.Private))
		return reply
	}
	return r.failure(ctx, log, inv, err)
}

// failure maps a workflow error kind to a private reply. Caller mistakes
// are logged quietly; broken dependencies are logged as errors and reported.
func (r *Registry) failure(ctx context.Context, log *zap.Logger, inv *Invocation, err error) Reply {
	kind := workflow.KindOf(err)
	log = log.With(zap.Stringer("kind", kind), zap.Error(err))

	var werr *workflow.Error
	message := genericFailure
	if kind != workflow.KindUnknown && errors.As(err, &werr) && werr.Message != "" {
		message = werr.Message
	}

	switch kind {
	case workflow.KindValidation, workflow.KindAuthorization, workflow.KindNotFound:
		log.Info("command rejected")
	default:
		log.Error("command failed")
		r.report(ctx, err, inv, kind)
	}
	return Private(message)
}

func (r *Registry) report(ctx context.Context, err error, inv *Invocation, kind workflow.Kind) {
	if r.reporter == nil {
		return
	}
	r.reporter.Report(ctx, err, map[string]string{
		"command": inv.Command,
		"kind":    kind.String(),
		"guild":   inv.GuildID,
	})
}

// All returns every command nexbot serves, wired to the given workflows.
func All(projects ProjectWorkflow, tasks TaskWorkflow, profiles ProfileWorkflow, latency func() time.Duration) []Command {
	return []Command{
		NewCreateProjectCommand(projects),
		NewAddMemberCommand(projects),
		NewGiveTaskCommand(tasks),
		NewTaskListCommand(tasks),
		NewProjectTaskListCommand(tasks),
		NewMakeProfileCommand(profiles),
		NewUserInfoCommand(profiles),
		NewVerifyCommand(profiles),
		NewUpdateBioCommand(profiles),
		NewUpdateNameCommand(profiles),
		NewUpdateGitHubCommand(profiles),
		NewUpdateLocationCommand(profiles),
		NewUpdateAppPasswordCommand(profiles),
		NewPingCommand(latency),
	}
}
