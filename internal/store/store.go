// Package store defines the record store that backs every nexbot command.
//
// Two implementations live in subpackages: store/mongo for the shared
// document database and store/sqlite for single-node and local use. Both
// validate records before every write, so input the workflows rejected can
// never be persisted by another path either.
package store

import (
	"context"
	"errors"

	"github.com/nexio-dev/nexbot/internal/records"
)

// Sentinel errors. Implementations wrap them; match with errors.Is.
var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")
)

// Store is the persistence contract for projects, tasks and profiles.
// Abstracted so workflows can run against either backend.
type Store interface {
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close(ctx context.Context) error

	// CreateProject inserts a new project. It fails with ErrDuplicate when
	// the id is already taken and never overwrites.
	CreateProject(ctx context.Context, p *records.Project) error
	Project(ctx context.Context, id string) (*records.Project, error)
	ProjectByChannel(ctx context.Context, channelID string) (*records.Project, error)
	ProjectByGroup(ctx context.Context, groupID string) (*records.Project, error)

	// NextTaskSequence atomically increments and returns the task counter
	// of a project. The first call for a project returns 1.
	NextTaskSequence(ctx context.Context, projectID string) (int, error)
	// CreateTask inserts a task under its assignee, keyed by task id. It
	// fails with ErrDuplicate when the assignee already holds that id and
	// never overwrites.
	CreateTask(ctx context.Context, t *records.Task) error
	// TasksForUser returns a user's tasks in insertion order.
	TasksForUser(ctx context.Context, userID string) ([]records.Task, error)
	TasksForUserInProject(ctx context.Context, userID, projectID string) ([]records.Task, error)

	// PutProfile creates or overwrites a profile. Verified is never reset:
	// a stored true survives a write carrying false.
	PutProfile(ctx context.Context, p *records.UserProfile) error
	Profile(ctx context.Context, userID string) (*records.UserProfile, error)
	// UpdateProfile applies a partial update and returns the stored result.
	// It fails with ErrNotFound when the profile does not exist.
	UpdateProfile(ctx context.Context, userID string, u records.ProfileUpdate) (*records.UserProfile, error)
}
