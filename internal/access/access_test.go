package access

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/records"
)

func TestResolver_Authorize(t *testing.T) {
	r := NewResolver([]string{"Core Team"}, []string{"Management"})

	staff := platform.Member{ID: "1", Mention: "<@1>", RoleNames: []string{"core team"}}
	manager := platform.Member{ID: "2", Mention: "<@2>", RoleNames: []string{"Management"}}
	leader := platform.Member{ID: "3", Mention: "<@3>"}
	nobody := platform.Member{ID: "4", Mention: "<@4>", RoleNames: []string{"atlas"}}

	led := &records.Project{LeaderRef: records.Ptr("<@3>")}
	unled := &records.Project{}

	tests := []struct {
		name     string
		caller   platform.Member
		relation Relation
		project  *records.Project
		allowed  bool
	}{
		{"staff is elevated", staff, ElevatedStaff, nil, true},
		{"manager is not elevated", manager, ElevatedStaff, nil, false},
		{"leader is not elevated", leader, ElevatedStaff, led, false},

		{"staff may manage", staff, ProjectLeaderOrStaff, unled, true},
		{"manager may manage", manager, ProjectLeaderOrStaff, unled, true},
		{"leader may manage own project", leader, ProjectLeaderOrStaff, led, true},
		{"leader of nothing may not manage", leader, ProjectLeaderOrStaff, unled, false},
		{"member may not manage", nobody, ProjectLeaderOrStaff, led, false},

		{"leader passes leader gate", leader, ProjectLeader, led, true},
		{"staff fails leader gate", staff, ProjectLeader, led, false},
		{"empty leader admits nobody", platform.Member{ID: "5"}, ProjectLeader, unled, false},
		{"nil project admits nobody", leader, ProjectLeader, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.Authorize(tt.caller, tt.relation, tt.project)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrDenied))

			var denied *DeniedError
			require.ErrorAs(t, err, &denied)
			assert.Equal(t, tt.relation, denied.Relation)
			assert.Equal(t, tt.caller.ID, denied.CallerID)
		})
	}
}

func TestRelation_String(t *testing.T) {
	assert.Equal(t, "elevated staff", ElevatedStaff.String())
	assert.Equal(t, "project leader", ProjectLeader.String())
	assert.Equal(t, "relation(9)", Relation(9).String())
}
