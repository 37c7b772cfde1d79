// Package platform is the contract between the workflows and the chat
// platform: the resources a project provisions (a channel and an access
// group) and the messages the bot posts outside of command replies.
package platform

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrUnavailable is returned when no chat platform is connected.
var ErrUnavailable = errors.New("chat platform unavailable")

// Member is a resolved guild member.
type Member struct {
	ID        string
	Name      string
	Mention   string
	AvatarURL string
	RoleIDs   []string
	RoleNames []string
	// JoinedAt is zero when the platform could not resolve the join date.
	JoinedAt time.Time
}

// HasRoleNamed reports whether m holds a role whose name matches any of
// names, ignoring case.
func (m Member) HasRoleNamed(names ...string) bool {
	for _, have := range m.RoleNames {
		for _, want := range names {
			if strings.EqualFold(strings.TrimSpace(have), strings.TrimSpace(want)) {
				return true
			}
		}
	}
	return false
}

// HasRole reports whether m holds the role with the given id.
func (m Member) HasRole(id string) bool {
	for _, have := range m.RoleIDs {
		if have == id {
			return true
		}
	}
	return false
}

// Group is an access role.
type Group struct {
	ID   string
	Name string
}

// Attachment is an uploaded file referenced by a command.
type Attachment struct {
	URL      string
	Filename string
}

// EmbedField is one name/value row of an Embed.
type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is a rich message card.
type Embed struct {
	Title        string
	Description  string
	Color        int
	Fields       []EmbedField
	ImageURL     string
	ThumbnailURL string
	Footer       string
}

// Message is plain content, an embed, or both.
type Message struct {
	Content string
	Embed   *Embed
}

// Platform provisions project resources and posts messages.
type Platform interface {
	// CreateChannel creates a text channel under parentID and returns its id.
	CreateChannel(ctx context.Context, parentID, name string) (string, error)
	// CreateGroup creates an access role and returns it.
	CreateGroup(ctx context.Context, name string) (Group, error)
	AddToGroup(ctx context.Context, userID, groupID string) error
	// RestrictChannel gives the group full member permissions on the channel
	// and removes view access from everyone else.
	RestrictChannel(ctx context.Context, channelID, groupID string) error
	GroupExists(ctx context.Context, groupID string) (bool, error)
	GroupMembers(ctx context.Context, groupID string) ([]Member, error)
	Send(ctx context.Context, channelID string, msg Message) error
}

// Unavailable is a Platform for processes with no chat connection. Every
// call fails with ErrUnavailable.
type Unavailable struct{}

var _ Platform = Unavailable{}

func (Unavailable) CreateChannel(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

func (Unavailable) CreateGroup(context.Context, string) (Group, error) {
	return Group{}, ErrUnavailable
}

func (Unavailable) AddToGroup(context.Context, string, string) error { return ErrUnavailable }

func (Unavailable) RestrictChannel(context.Context, string, string) error { return ErrUnavailable }

func (Unavailable) GroupExists(context.Context, string) (bool, error) { return false, ErrUnavailable }

func (Unavailable) GroupMembers(context.Context, string) ([]Member, error) {
	return nil, ErrUnavailable
}

func (Unavailable) Send(context.Context, string, Message) error { return ErrUnavailable }
