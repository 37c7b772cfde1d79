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

// maxTaskIDAttempts bounds how many sequence numbers Give draws when the
// assignee already holds the id.
const maxTaskIDAttempts = 50

// Tasks runs the task workflows.
type Tasks struct {
	store    store.Store
	platform platform.Platform
	access   *access.Resolver
	logger   *zap.Logger
}

// NewTasks wires the task workflows.
func NewTasks(s store.Store, p platform.Platform, r *access.Resolver, logger *zap.Logger) *Tasks {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tasks{store: s, platform: p, access: r, logger: logger.Named("tasks")}
}

// GiveTaskParams is the input of give_task.
type GiveTaskParams struct {
	Name         string          `validate:"required,max=256" label:"Task name"`
	Description  string          `validate:"max=4096" label:"Task description"`
	DeadlineDays int             `validate:"min=0,max=3650" label:"Deadline days"`
	Assignee     platform.Member `validate:"-"`
}

// Assignment is a stored task together with its project.
type Assignment struct {
	Task    *records.Task
	Project *records.Project
}

// Give assigns a task in the project bound to channelID.
func (w *Tasks) Give(ctx context.Context, caller platform.Member, channelID string, params GiveTaskParams) (*Assignment, error) {
	p, err := w.store.ProjectByChannel(ctx, channelID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("This command can only be used in a project channel.", err)
	}
	if err != nil {
		return nil, storeFailure("An error occurred while fetching project data", err)
	}

	if err := w.access.Authorize(caller, access.ProjectLeaderOrStaff, p); err != nil {
		return nil, denied("You do not have permission to give tasks.", err)
	}
	if err := check(params); err != nil {
		return nil, err
	}

	exists, err := w.platform.GroupExists(ctx, p.GroupID)
	if err != nil {
		return nil, externalFailure("Failed to look up the project role", err)
	}
	if exists && !params.Assignee.HasRole(p.GroupID) {
		return nil, &Error{
			Kind:    KindValidation,
			Message: fmt.Sprintf("%s is not a member of the project role.", params.Assignee.Mention),
		}
	}

	now := timeNow().UTC()
	t := &records.Task{
		UserID:      params.Assignee.ID,
		ProjectID:   p.ID,
		Name:        params.Name,
		Description: params.Description,
		Deadline:    records.Deadline(now, params.DeadlineDays),
		Status:      records.StatusOngoing,
		AssignedBy:  caller.Name,
		AssignedTo:  params.Assignee.Name,
		CreatedAt:   now,
	}
	if err := w.insert(ctx, t, params.Assignee.Name); err != nil {
		return nil, storeFailure("Failed to assign the task", err)
	}

	w.logger.Info("task assigned",
		zap.String("project_id", p.ID),
		zap.String("task_id", t.ID),
		zap.String("assignee", t.UserID),
		zap.String("caller", caller.ID),
	)
	return &Assignment{Task: t, Project: p}, nil
}

// insert stores t under the next free id of its project's sequence. Task
// ids are unique per assignee while the sequence is per project, so an
// assignee working in several projects can already hold the drawn id.
func (w *Tasks) insert(ctx context.Context, t *records.Task, assignee string) error {
	var err error
	for range maxTaskIDAttempts {
		var n int
		if n, err = w.store.NextTaskSequence(ctx, t.ProjectID); err != nil {
			return err
		}
		t.ID = records.TaskID(assignee, n)
		err = w.store.CreateTask(ctx, t)
		if !errors.Is(err, store.ErrDuplicate) {
			return err
		}
		w.logger.Debug("task id taken", zap.String("task_id", t.ID), zap.String("assignee", t.UserID))
	}
	return err
}

// ForUser returns a user's tasks in insertion order. No tasks is an empty
// slice, not an error.
func (w *Tasks) ForUser(ctx context.Context, userID string) ([]records.Task, error) {
	tasks, err := w.store.TasksForUser(ctx, userID)
	if err != nil {
		return nil, storeFailure("Failed to fetch tasks", err)
	}
	return tasks, nil
}

// MemberTasks is one member's tasks within a project.
type MemberTasks struct {
	Member platform.Member
	Tasks  []records.Task
}

// ProjectTasks is every task held by the current members of a project's
// access group.
type ProjectTasks struct {
	Project *records.Project
	Members []MemberTasks
}

// ForProject lists the tasks of every member holding groupID, restricted to
// the project that group belongs to. Members without tasks are omitted.
func (w *Tasks) ForProject(ctx context.Context, caller platform.Member, groupID string) (*ProjectTasks, error) {
	if groupID == "" {
		return nil, &Error{Kind: KindValidation, Message: "Please provide a project role for input."}
	}

	p, err := w.store.ProjectByGroup(ctx, groupID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, notFound("No project found.", err)
	}
	if err != nil {
		return nil, storeFailure("An error occurred while fetching project data", err)
	}

	if err := w.access.Authorize(caller, access.ProjectLeaderOrStaff, p); err != nil {
		return nil, denied("You are not authorized to use this command.", err)
	}

	members, err := w.platform.GroupMembers(ctx, groupID)
	if err != nil {
		return nil, externalFailure("Failed to list the project role members", err)
	}
	if len(members) == 0 {
		return nil, notFound("No members found with this role.", nil)
	}

	out := &ProjectTasks{Project: p}
	for _, m := range members {
		tasks, err := w.store.TasksForUserInProject(ctx, m.ID, p.ID)
		if err != nil {
			return nil, storeFailure("Failed to fetch tasks", err)
		}
		if len(tasks) > 0 {
			out.Members = append(out.Members, MemberTasks{Member: m, Tasks: tasks})
		}
	}
	if len(out.Members) == 0 {
		return nil, notFound("No tasks found for members in this role within the specified project.", nil)
	}
	return out, nil
}
