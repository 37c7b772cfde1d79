// Package access decides whether a caller may perform a gated operation.
//
// Decisions are pure: they read the caller's roles and the project's
// stored leader and never touch the store or the platform.
package access

import (
	"errors"
	"fmt"

	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/records"
)

// Relation names the kind of authority an operation requires.
type Relation int

const (
	// ElevatedStaff requires a staff role.
	ElevatedStaff Relation = iota
	// ProjectLeaderOrStaff accepts staff, managers, or the project's leader.
	ProjectLeaderOrStaff
	// ProjectLeader accepts only the project's leader.
	ProjectLeader
)

func (r Relation) String() string {
	switch r {
	case ElevatedStaff:
		return "elevated staff"
	case ProjectLeaderOrStaff:
		return "project leader or staff"
	case ProjectLeader:
		return "project leader"
	default:
		return fmt.Sprintf("relation(%d)", int(r))
	}
}

// ErrDenied is matched by every denial.
var ErrDenied = errors.New("access denied")

// DeniedError says which relation the caller lacked.
type DeniedError struct {
	Relation Relation
	CallerID string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("%s: caller %s is not %s", ErrDenied, e.CallerID, e.Relation)
}

func (e *DeniedError) Unwrap() error { return ErrDenied }

// Resolver holds the role names that carry authority. Names match without
// regard to case.
type Resolver struct {
	StaffRoles   []string
	ManagerRoles []string
}

// NewResolver returns a Resolver with the given role names.
func NewResolver(staffRoles, managerRoles []string) *Resolver {
	return &Resolver{StaffRoles: staffRoles, ManagerRoles: managerRoles}
}

// IsStaff reports whether the caller holds a staff role.
func (r *Resolver) IsStaff(caller platform.Member) bool {
	return caller.HasRoleNamed(r.StaffRoles...)
}

// IsManager reports whether the caller holds a staff or manager role.
func (r *Resolver) IsManager(caller platform.Member) bool {
	return r.IsStaff(caller) || caller.HasRoleNamed(r.ManagerRoles...)
}

// IsLeader reports whether the caller is the project's recorded leader.
// A project without a leader has none.
func IsLeader(caller platform.Member, project *records.Project) bool {
	leader := project.Leader()
	return leader != "" && caller.Mention == leader
}

// Authorize returns nil when the caller holds relation, or a *DeniedError.
// project may be nil for ElevatedStaff.
func (r *Resolver) Authorize(caller platform.Member, relation Relation, project *records.Project) error {
	var ok bool
	switch relation {
	case ElevatedStaff:
		ok = r.IsStaff(caller)
	case ProjectLeaderOrStaff:
		ok = r.IsManager(caller) || IsLeader(caller, project)
	case ProjectLeader:
		ok = IsLeader(caller, project)
	}
	if !ok {
		return &DeniedError{Relation: relation, CallerID: caller.ID}
	}
	return nil
}
