package commands

import (
	"context"

	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/records"
	"github.com/nexio-dev/nexbot/internal/workflow"
)

// ProjectWorkflow is what the project commands need from workflow.Projects.
type ProjectWorkflow interface {
	Create(ctx context.Context, caller platform.Member, params workflow.CreateProjectParams) (*records.Project, error)
	AddMember(ctx context.Context, caller platform.Member, channelID string, member platform.Member) (*records.Project, error)
}

// TaskWorkflow is what the task commands need from workflow.Tasks.
type TaskWorkflow interface {
	Give(ctx context.Context, caller platform.Member, channelID string, params workflow.GiveTaskParams) (*workflow.Assignment, error)
	ForUser(ctx context.Context, userID string) ([]records.Task, error)
	ForProject(ctx context.Context, caller platform.Member, groupID string) (*workflow.ProjectTasks, error)
}

// ProfileWorkflow is what the profile commands need from workflow.Profiles.
type ProfileWorkflow interface {
	Create(ctx context.Context, caller platform.Member, params workflow.MakeProfileParams) (*records.UserProfile, error)
	Get(ctx context.Context, user platform.Member) (*records.UserProfile, error)
	Verify(ctx context.Context, caller, target platform.Member) (*records.UserProfile, error)
	UpdateBio(ctx context.Context, caller platform.Member, bio string) (*records.UserProfile, error)
	UpdateName(ctx context.Context, caller platform.Member, name string) (*records.UserProfile, error)
	UpdateGitHub(ctx context.Context, caller platform.Member, link string) (*records.UserProfile, error)
	UpdateLocation(ctx context.Context, caller platform.Member, location string) (*records.UserProfile, error)
	UpdateSecret(ctx context.Context, caller platform.Member, secret string) (*records.UserProfile, error)
}

var (
	_ ProjectWorkflow = (*workflow.Projects)(nil)
	_ TaskWorkflow    = (*workflow.Tasks)(nil)
	_ ProfileWorkflow = (*workflow.Profiles)(nil)
)
