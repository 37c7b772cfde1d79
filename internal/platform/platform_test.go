package platform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMember_HasRoleNamed(t *testing.T) {
	m := Member{RoleNames: []string{"Core Team", " atlas "}}

	assert.True(t, m.HasRoleNamed("core team"))
	assert.True(t, m.HasRoleNamed("Management", "CORE TEAM"))
	assert.True(t, m.HasRoleNamed("Atlas"))
	assert.False(t, m.HasRoleNamed("Management"))
	assert.False(t, m.HasRoleNamed())
	assert.False(t, Member{}.HasRoleNamed("Core Team"))
}

func TestMember_HasRole(t *testing.T) {
	m := Member{RoleIDs: []string{"1", "2"}}
	assert.True(t, m.HasRole("2"))
	assert.False(t, m.HasRole("3"))
}

func TestUnavailable(t *testing.T) {
	ctx := context.Background()
	var p Platform = Unavailable{}

	_, err := p.CreateChannel(ctx, "cat", "name")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = p.CreateGroup(ctx, "name")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, p.AddToGroup(ctx, "u", "g"), ErrUnavailable)
	assert.ErrorIs(t, p.RestrictChannel(ctx, "c", "g"), ErrUnavailable)
	_, err = p.GroupExists(ctx, "g")
	assert.ErrorIs(t, err, ErrUnavailable)
	_, err = p.GroupMembers(ctx, "g")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, p.Send(ctx, "c", Message{Content: "hi"}), ErrUnavailable)
}
