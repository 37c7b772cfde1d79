// Package workflow implements the project, task and profile operations
// behind every command. Each operation gates on the caller, validates its
// input, then talks to the record store and the chat platform in sequence.
//
// Multi-step operations are not transactional: when a later step fails,
// earlier side effects (a created channel or role) stay in place and the
// error says what was left behind.
package workflow

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nexio-dev/nexbot/internal/access"
	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/records"
	"github.com/nexio-dev/nexbot/internal/store"
)

// Announcement embed color.
const colorGreen = 0x2ecc71

// maxIDAttempts bounds how many fresh ids CreateProject tries when the store
// reports a collision.
const maxIDAttempts = 3

// newProjectID is a package-level var so tests can force collisions.
var newProjectID = records.NewProjectID

// ProjectsConfig locates the guild resources projects are created under.
type ProjectsConfig struct {
	CategoryID            string
	AnnouncementChannelID string
}

// Projects runs the project workflows.
type Projects struct {
	store    store.Store
	platform platform.Platform
	access   *access.Resolver
	cfg      ProjectsConfig
	logger   *zap.Logger
}

// NewProjects wires the project workflows.
func NewProjects(s store.Store, p platform.Platform, r *access.Resolver, cfg ProjectsConfig, logger *zap.Logger) *Projects {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projects{store: s, platform: p, access: r, cfg: cfg, logger: logger.Named("projects")}
}

// CreateProjectParams is the input of createproject.
type CreateProjectParams struct {
	Name           string               `validate:"required,max=100" label:"Project name"`
	Description    string               `validate:"required,max=4096" label:"Project description"`
	RepositoryLink string               `validate:"required" label:"GitHub link"`
	PrototypeLink  *string              `validate:"-"`
	Image          *platform.Attachment `validate:"-"`
	Leader         *platform.Member     `validate:"-"`
}

// Create provisions a channel and access group, stores the project,
// announces it, grants the leader the group and locks the channel down.
func (w *Projects) Create(ctx context.Context, caller platform.Member, params CreateProjectParams) (*records.Project, error) {
	if err := w.access.Authorize(caller, access.ElevatedStaff, nil); err != nil {
		return nil, denied("You do not have permission to use this command.", err)
	}
	if err := check(params); err != nil {
		return nil, err
	}

	log := w.logger.With(zap.String("project", params.Name), zap.String("caller", caller.ID))

	channelID, err := w.platform.CreateChannel(ctx, w.cfg.CategoryID, params.Name)
	if err != nil {
		return nil, externalFailure("Failed to create the project channel", err)
	}
	group, err := w.platform.CreateGroup(ctx, params.Name)
	if err != nil {
		log.Warn("project channel left without a role", zap.String("channel_id", channelID))
		return nil, externalFailure("Failed to create the project role", err)
	}

	p := &records.Project{
		Name:           params.Name,
		Description:    params.Description,
		RepositoryLink: params.RepositoryLink,
		PrototypeLink:  params.PrototypeLink,
		ChannelID:      channelID,
		GroupID:        group.ID,
		CreatedAt:      timeNow().UTC(),
	}
	if params.Image != nil {
		p.ImageURL = records.Ptr(params.Image.URL)
	}
	if params.Leader != nil {
		p.LeaderRef = records.Ptr(params.Leader.Mention)
	}

	if err := w.persist(ctx, p); err != nil {
		log.Warn("project channel and role left without a record",
			zap.String("channel_id", channelID), zap.String("role_id", group.ID), zap.Error(err))
		return nil, storeFailure("Failed to add project to database", err)
	}
	log = log.With(zap.String("project_id", p.ID))

	if err := w.platform.Send(ctx, w.cfg.AnnouncementChannelID, platform.Message{Embed: announcement(p)}); err != nil {
		return p, externalFailure(fmt.Sprintf("Project %s was created, but the announcement failed", p.Name), err)
	}
	if params.Leader != nil {
		if err := w.platform.AddToGroup(ctx, params.Leader.ID, group.ID); err != nil {
			return p, externalFailure(fmt.Sprintf("Project %s was created, but the leader could not be given the role", p.Name), err)
		}
	}
	if err := w.platform.RestrictChannel(ctx, channelID, group.ID); err != nil {
		return p, externalFailure(fmt.Sprintf("Project %s was created, but the channel permissions could not be set", p.Name), err)
	}

	log.Info("project created")
	return p, nil
}

// persist stores p under a fresh id, retrying on collision.
func (w *Projects) persist(ctx context.Context, p *records.Project) error {
	var err error
	for range maxIDAttempts {
		p.ID = newProjectID()
		err = w.store.CreateProject(ctx, p)
		if !errors.Is(err, store.ErrDuplicate) {
			return err
		}
		w.logger.Debug("project id collision", zap.String("project_id", p.ID))
	}
	return err
}

func announcement(p *records.Project) *platform.Embed {
	e := &platform.Embed{
		Title:       p.Name,
		Description: p.Description,
		Color:       colorGreen,
		Fields: []platform.EmbedField{
			{Name: "Project ID", Value: p.ID},
			{Name: "GitHub Link", Value: p.RepositoryLink},
		},
	}
	if p.PrototypeLink != nil && *p.PrototypeLink != "" {
		e.Fields = append(e.Fields, platform.EmbedField{Name: "Prototype Link", Value: *p.PrototypeLink})
	}
	leader := p.Leader()
	if leader == "" {
		leader = "Not specified"
	}
	e.Fields = append(e.Fields, platform.EmbedField{Name: "Leader", Value: leader})
	if p.ImageURL != nil {
		e.ImageURL = *p.ImageURL
	}
	return e
}

// AddMember grants member the access group of the project bound to
// channelID. Only the project's leader may do this.
func (w *Projects) AddMember(ctx context.Context, caller platform.Member, channelID string, member platform.Member) (*records.Project, error) {
	p, err := w.store.ProjectByChannel(ctx, channelID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("Project not found in the database.", err)
	}
	if err != nil {
		return nil, storeFailure("Failed to load the project", err)
	}

	if err := w.access.Authorize(caller, access.ProjectLeader, p); err != nil {
		return nil, denied("Only the project leader can use this command.", err)
	}

	exists, err := w.platform.GroupExists(ctx, p.GroupID)
	if err != nil {
		return nil, externalFailure("Failed to look up the project role", err)
	}
	if !exists {
		return nil, notFound("Project role not found.", nil)
	}

	if err := w.platform.AddToGroup(ctx, member.ID, p.GroupID); err != nil {
		return nil, externalFailure("Failed to add member to the project role", err)
	}

	w.logger.Info("member added",
		zap.String("project_id", p.ID), zap.String("member", member.ID), zap.String("caller", caller.ID))
	return p, nil
}

// Get loads a project by id.
func (w *Projects) Get(ctx context.Context, id string) (*records.Project, error) {
	p, err := w.store.Project(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("No project found.", err)
	}
	if err != nil {
		return nil, storeFailure("Failed to load the project", err)
	}
	return p, nil
}

// ByChannel loads the project bound to a channel.
func (w *Projects) ByChannel(ctx context.Context, channelID string) (*records.Project, error) {
	p, err := w.store.ProjectByChannel(ctx, channelID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("No project found.", err)
	}
	if err != nil {
		return nil, storeFailure("Failed to load the project", err)
	}
	return p, nil
}
