// Package platformtest provides an in-memory platform.Platform for tests.
package platformtest

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nexio-dev/nexbot/internal/platform"
)

// Sent is a message recorded by Fake.Send.
type Sent struct {
	ChannelID string
	Message   platform.Message
}

// Channel is a channel created through the fake.
type Channel struct {
	ID         string
	ParentID   string
	Name       string
	Restricted string // group id given to RestrictChannel
}

// Fake records every call. Set the *Err fields to make the matching call
// fail.
type Fake struct {
	mu sync.Mutex

	Channels map[string]*Channel
	Groups   map[string]platform.Group
	Members  map[string]platform.Member // by user id
	Sent     []Sent

	CreateChannelErr   error
	CreateGroupErr     error
	AddToGroupErr      error
	RestrictChannelErr error
	GroupMembersErr    error
	SendErr            error

	nextID int
}

var _ platform.Platform = (*Fake)(nil)

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		Channels: map[string]*Channel{},
		Groups:   map[string]platform.Group{},
		Members:  map[string]platform.Member{},
	}
}

func (f *Fake) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

// AddGroup registers an existing group and returns it.
func (f *Fake) AddGroup(name string) platform.Group {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := platform.Group{ID: f.id("role"), Name: name}
	f.Groups[g.ID] = g
	return g
}

// AddMember registers a guild member.
func (f *Fake) AddMember(m platform.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Members[m.ID] = m
}

// Member returns the current state of a registered member.
func (f *Fake) Member(id string) platform.Member {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Members[id]
}

// Messages returns a copy of everything sent so far.
func (f *Fake) Messages() []Sent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Sent(nil), f.Sent...)
}

func (f *Fake) CreateChannel(_ context.Context, parentID, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateChannelErr != nil {
		return "", f.CreateChannelErr
	}
	c := &Channel{ID: f.id("chan"), ParentID: parentID, Name: name}
	f.Channels[c.ID] = c
	return c.ID, nil
}

func (f *Fake) CreateGroup(_ context.Context, name string) (platform.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.CreateGroupErr != nil {
		return platform.Group{}, f.CreateGroupErr
	}
	g := platform.Group{ID: f.id("role"), Name: name}
	f.Groups[g.ID] = g
	return g, nil
}

func (f *Fake) AddToGroup(_ context.Context, userID, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AddToGroupErr != nil {
		return f.AddToGroupErr
	}
	g, ok := f.Groups[groupID]
	if !ok {
		return fmt.Errorf("unknown group %q", groupID)
	}
	m, ok := f.Members[userID]
	if !ok {
		m = platform.Member{ID: userID, Name: userID, Mention: "<@" + userID + ">"}
	}
	if !m.HasRole(groupID) {
		m.RoleIDs = append(m.RoleIDs, g.ID)
		m.RoleNames = append(m.RoleNames, g.Name)
	}
	f.Members[userID] = m
	return nil
}

func (f *Fake) RestrictChannel(_ context.Context, channelID, groupID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.RestrictChannelErr != nil {
		return f.RestrictChannelErr
	}
	c, ok := f.Channels[channelID]
	if !ok {
		return fmt.Errorf("unknown channel %q", channelID)
	}
	c.Restricted = groupID
	return nil
}

func (f *Fake) GroupExists(_ context.Context, groupID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.Groups[groupID]
	return ok, nil
}

func (f *Fake) GroupMembers(_ context.Context, groupID string) ([]platform.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GroupMembersErr != nil {
		return nil, f.GroupMembersErr
	}
	var out []platform.Member
	for _, m := range f.Members {
		if m.HasRole(groupID) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *Fake) Send(_ context.Context, channelID string, msg platform.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.SendErr != nil {
		return f.SendErr
	}
	f.Sent = append(f.Sent, Sent{ChannelID: channelID, Message: msg})
	return nil
}
