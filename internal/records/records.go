// Package records defines the documents nexbot keeps in the record store:
// projects, tasks and user profiles.
//
// Field names on the wire (bson/json) follow the collections the community
// already has, so the same documents can be read by other tools. Optional
// fields are pointers; a nil pointer is an absent field.
package records

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// --- Project ---

// Project is a community project with its own channel and access group.
type Project struct {
	ID             string    `bson:"_id" json:"id" validate:"required,len=8,alphanum" label:"Project ID"`
	Name           string    `bson:"name" json:"name" validate:"required,max=100" label:"Project name"`
	Description    string    `bson:"description" json:"description" validate:"required" label:"Project description"`
	RepositoryLink string    `bson:"github_link" json:"github_link" validate:"required" label:"GitHub link"`
	PrototypeLink  *string   `bson:"prototype_link,omitempty" json:"prototype_link,omitempty"`
	ImageURL       *string   `bson:"image_url,omitempty" json:"image_url,omitempty"`
	LeaderRef      *string   `bson:"leader,omitempty" json:"leader,omitempty"`
	ChannelID      string    `bson:"channel_id" json:"channel_id" validate:"required" label:"Channel ID"`
	GroupID        string    `bson:"role_id" json:"role_id" validate:"required" label:"Role ID"`
	CreatedAt      time.Time `bson:"created_at" json:"created_at"`
}

// Leader returns the stored leader mention, or "" when the project has none.
func (p *Project) Leader() string {
	if p == nil || p.LeaderRef == nil {
		return ""
	}
	return *p.LeaderRef
}

// projectIDAlphabet matches the ids already in the projects collection.
const projectIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ProjectIDLength is the number of characters in a project id.
const ProjectIDLength = 8

// randIntN is a package-level var so tests can make ids deterministic.
var randIntN = rand.IntN

// NewProjectID returns a random 8-character id drawn from A-Z and 0-9.
// Uniqueness is enforced by the store, not here.
func NewProjectID() string {
	var b strings.Builder
	b.Grow(ProjectIDLength)
	for range ProjectIDLength {
		b.WriteByte(projectIDAlphabet[randIntN(len(projectIDAlphabet))])
	}
	return b.String()
}

// --- Task ---

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

// StatusOngoing is the only status set by nexbot; there are no transitions.
const StatusOngoing TaskStatus = "ongoing"

// Label is the human form shown in task lists.
func (s TaskStatus) Label() string {
	switch s {
	case StatusOngoing:
		return "On going"
	default:
		return string(s)
	}
}

// DeadlineLayout is how deadlines are rendered in replies.
const DeadlineLayout = "2006-01-02 15:04:05"

// Task is a unit of work assigned to one member within a project. It is
// owned by the assignee (UserID) and points back to its project.
type Task struct {
	ID          string     `bson:"task_id" json:"task_id" validate:"required" label:"Task ID"`
	UserID      string     `bson:"user_id" json:"user_id" validate:"required" label:"Assignee"`
	ProjectID   string     `bson:"project_id" json:"project_id" validate:"required" label:"Project ID"`
	Name        string     `bson:"task_name" json:"task_name" validate:"required,max=256" label:"Task name"`
	Description string     `bson:"task_description" json:"task_description"`
	Deadline    time.Time  `bson:"deadline" json:"deadline"`
	Status      TaskStatus `bson:"task_status" json:"task_status" validate:"required" label:"Task status"`
	AssignedBy  string     `bson:"assigned_by" json:"assigned_by"`
	AssignedTo  string     `bson:"assigned_to" json:"assigned_to"`
	CreatedAt   time.Time  `bson:"created_at" json:"created_at"`
}

// TaskID builds the per-project task id "{assignee}_{n}".
func TaskID(assignee string, n int) string {
	return fmt.Sprintf("%s_%d", assignee, n)
}

// Deadline adds whole days to now, in UTC.
func Deadline(now time.Time, days int) time.Time {
	return now.UTC().AddDate(0, 0, days)
}

// --- User profile ---

// DefaultBio is used when makeprofile is called without a bio.
const DefaultBio = "Cool Awesome member of Nexio Developer Group"

// UserProfile is a member's self-maintained profile, keyed by platform id.
type UserProfile struct {
	ID             string    `bson:"_id" json:"id" validate:"required" label:"User ID"`
	Tag            string    `bson:"discord_tag" json:"discord_tag"`
	DisplayName    string    `bson:"display_name" json:"display_name" validate:"required,max=15" label:"Display name"`
	Bio            string    `bson:"bio" json:"bio" validate:"maxwords=25" label:"Bio"`
	RepositoryLink string    `bson:"github" json:"github" validate:"github" label:"GitHub link"`
	Secret         string    `bson:"password" json:"-" validate:"required" label:"Password"`
	AvatarURL      string    `bson:"profile_img_url" json:"profile_img_url"`
	JoinedAt       time.Time `bson:"joined_at" json:"joined_at"`
	Location       *string   `bson:"location,omitempty" json:"location,omitempty" validate:"omitnil,max=100" label:"Location"`
	Verified       bool      `bson:"verified" json:"verified"`
}

// ProfileUpdate is a partial update of a profile. Nil fields are left alone.
// Verified can only be set to true; nothing resets it.
type ProfileUpdate struct {
	DisplayName    *string `validate:"omitnil,max=15" label:"Display name"`
	Bio            *string `validate:"omitnil,maxwords=25" label:"Bio"`
	RepositoryLink *string `validate:"omitnil,github" label:"GitHub link"`
	Location       *string `validate:"omitnil,max=100" label:"Location"`
	Secret         *string `validate:"omitnil,min=1" label:"Password"`
	Verified       bool
}

// Empty reports whether the update changes nothing.
func (u ProfileUpdate) Empty() bool {
	return u.DisplayName == nil && u.Bio == nil && u.RepositoryLink == nil &&
		u.Location == nil && u.Secret == nil && !u.Verified
}

// Apply copies the set fields of u onto p.
func (u ProfileUpdate) Apply(p *UserProfile) {
	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.RepositoryLink != nil {
		p.RepositoryLink = *u.RepositoryLink
	}
	if u.Location != nil {
		loc := *u.Location
		p.Location = &loc
	}
	if u.Secret != nil {
		p.Secret = *u.Secret
	}
	if u.Verified {
		p.Verified = true
	}
}

// Ptr returns a pointer to v. Handy for optional record fields.
func Ptr[T any](v T) *T {
	return &v
}
