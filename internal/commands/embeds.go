package commands

import (
	"fmt"
	"strings"

	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/records"
	"github.com/nexio-dev/nexbot/internal/workflow"
)

// Embed colors.
const colorOrange = 0xe67e22

const (
	profileDateLayout = "02 Jan 2006"
	fallbackBio       = "Member of Nexio Developer Group."
	notProvided       = "Not provided"
)

func taskEmbed(a *workflow.Assignment, assignedBy platform.Member, assignee platform.Member) *platform.Embed {
	t := a.Task
	return &platform.Embed{
		Title:       t.Name,
		Description: t.Description,
		Color:       colorOrange,
		Fields: []platform.EmbedField{
			{Name: "Deadline", Value: t.Deadline.Format(records.DeadlineLayout)},
			{Name: "Assigned To", Value: assignee.Mention},
			{Name: "Assigned By", Value: assignedBy.Mention},
			{Name: "Task ID", Value: t.ID},
		},
		Footer: "Project: " + a.Project.Name,
	}
}

func taskListEmbed(target platform.Member, tasks []records.Task) *platform.Embed {
	lines := make([]string, 0, len(tasks))
	for i, t := range tasks {
		lines = append(lines, fmt.Sprintf("**%d. %s** - %s\nDeadline: %s",
			i+1, t.Name, t.Status.Label(), t.Deadline.Format(records.DeadlineLayout)))
	}
	return &platform.Embed{
		Title:       "Tasks Assigned to " + target.Name,
		Description: strings.Join(lines, "\n\n"),
		Color:       colorOrange,
	}
}

func projectTasksEmbed(pt *workflow.ProjectTasks) *platform.Embed {
	var lines []string
	for _, mt := range pt.Members {
		for _, t := range mt.Tasks {
			lines = append(lines, fmt.Sprintf("%s: **%s** - %s\nDeadline: %s",
				mt.Member.Mention, t.Name, t.Status.Label(), t.Deadline.Format(records.DeadlineLayout)))
		}
	}
	return &platform.Embed{
		Title:       pt.Project.Name + " Tasks",
		Description: strings.Join(lines, "\n\n"),
		Color:       colorOrange,
	}
}

func profileEmbed(user platform.Member, p *records.UserProfile) *platform.Embed {
	title := p.DisplayName
	if title == "" {
		title = user.Name
	}
	bio := p.Bio
	if bio == "" {
		bio = fallbackBio
	}
	github := p.RepositoryLink
	if github == "" {
		github = notProvided
	}
	location := notProvided
	if p.Location != nil && *p.Location != "" {
		location = *p.Location
	}
	verified := "Not Verified By Core Team"
	if p.Verified {
		verified = "✅"
	}

	thumb := user.AvatarURL
	if thumb == "" {
		thumb = p.AvatarURL
	}
	return &platform.Embed{
		Title:        title + "'s Profile",
		Description:  bio,
		Color:        colorOrange,
		ThumbnailURL: thumb,
		Fields: []platform.EmbedField{
			{Name: "GitHub", Value: github},
			{Name: "Location", Value: location, Inline: true},
			{Name: "Verified", Value: verified, Inline: true},
		},
		Footer: "Member since: " + p.JoinedAt.Format(profileDateLayout),
	}
}
