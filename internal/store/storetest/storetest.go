// Package storetest holds the behaviour every store.Store implementation
// must share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexio-dev/nexbot/internal/records"
	"github.com/nexio-dev/nexbot/internal/store"
)

// Factory returns an empty store that is closed by the test's cleanup.
type Factory func(t *testing.T) store.Store

// Base is a fixed instant with millisecond precision, which every backend
// can round-trip.
var Base = time.Date(2025, 3, 14, 9, 26, 53, 589_000_000, time.UTC)

// Project returns a valid project fixture.
func Project(id string) *records.Project {
	return &records.Project{
		ID:             id,
		Name:           "atlas-" + id,
		Description:    "mapping toolkit",
		RepositoryLink: "https://github.com/nexio/atlas",
		ChannelID:      "chan-" + id,
		GroupID:        "role-" + id,
		CreatedAt:      Base,
	}
}

// Task returns a valid task fixture.
func Task(userID, projectID string, n int) *records.Task {
	return &records.Task{
		ID:          records.TaskID("user"+userID, n),
		UserID:      userID,
		ProjectID:   projectID,
		Name:        fmt.Sprintf("task %d", n),
		Description: "do the thing",
		Deadline:    records.Deadline(Base, n),
		Status:      records.StatusOngoing,
		AssignedBy:  "<@1>",
		AssignedTo:  "<@" + userID + ">",
		CreatedAt:   Base,
	}
}

// Profile returns a valid profile fixture.
func Profile(userID string) *records.UserProfile {
	return &records.UserProfile{
		ID:             userID,
		Tag:            "user" + userID,
		DisplayName:    "user" + userID,
		Bio:            records.DefaultBio,
		RepositoryLink: "https://github.com/user" + userID,
		Secret:         "$2a$10$abcdefghijklmnopqrstuv",
		AvatarURL:      "https://cdn.example/avatar.png",
		JoinedAt:       Base,
	}
}

// Run exercises the full store contract against fresh stores from newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("Projects", func(t *testing.T) { testProjects(t, newStore) })
	t.Run("TaskSequence", func(t *testing.T) { testTaskSequence(t, newStore) })
	t.Run("Tasks", func(t *testing.T) { testTasks(t, newStore) })
	t.Run("Profiles", func(t *testing.T) { testProfiles(t, newStore) })
}

// --- Projects ---

func testProjects(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("round trip and lookups", func(t *testing.T) {
		s := newStore(t)
		p := Project("AAAA1111")
		p.PrototypeLink = records.Ptr("https://proto.example")
		p.LeaderRef = records.Ptr("<@7>")
		require.NoError(t, s.CreateProject(ctx, p))

		for name, lookup := range map[string]func() (*records.Project, error){
			"id":      func() (*records.Project, error) { return s.Project(ctx, p.ID) },
			"channel": func() (*records.Project, error) { return s.ProjectByChannel(ctx, p.ChannelID) },
			"group":   func() (*records.Project, error) { return s.ProjectByGroup(ctx, p.GroupID) },
		} {
			got, err := lookup()
			require.NoError(t, err, name)
			assert.Equal(t, p.ID, got.ID, name)
			assert.Equal(t, p.Name, got.Name, name)
			assert.Equal(t, p.RepositoryLink, got.RepositoryLink, name)
			assert.Equal(t, p.PrototypeLink, got.PrototypeLink, name)
			assert.Nil(t, got.ImageURL, name)
			assert.Equal(t, "<@7>", got.Leader(), name)
			assert.WithinDuration(t, p.CreatedAt, got.CreatedAt, 0, name)
		}
	})

	t.Run("duplicate id is rejected", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateProject(ctx, Project("BBBB2222")))

		dup := Project("BBBB2222")
		dup.Name = "other"
		err := s.CreateProject(ctx, dup)
		require.ErrorIs(t, err, store.ErrDuplicate)

		got, err := s.Project(ctx, "BBBB2222")
		require.NoError(t, err)
		assert.Equal(t, "atlas-BBBB2222", got.Name)
	})

	t.Run("missing project", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Project(ctx, "NOPE0000")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.ProjectByChannel(ctx, "nowhere")
		assert.ErrorIs(t, err, store.ErrNotFound)
		_, err = s.ProjectByGroup(ctx, "nobody")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("invalid project never written", func(t *testing.T) {
		s := newStore(t)
		p := Project("CCCC3333")
		p.Name = ""

		var verr *records.ValidationError
		require.ErrorAs(t, s.CreateProject(ctx, p), &verr)

		_, err := s.Project(ctx, p.ID)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

// --- Task sequence ---

func testTaskSequence(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("per project counter", func(t *testing.T) {
		s := newStore(t)
		for want := 1; want <= 3; want++ {
			n, err := s.NextTaskSequence(ctx, "P1")
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}
		n, err := s.NextTaskSequence(ctx, "P2")
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("concurrent callers get distinct numbers", func(t *testing.T) {
		s := newStore(t)
		const callers = 8

		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			seen = map[int]bool{}
			errs []error
		)
		for range callers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				n, err := s.NextTaskSequence(ctx, "P1")
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return
				}
				seen[n] = true
			}()
		}
		wg.Wait()

		require.Empty(t, errs)
		assert.Len(t, seen, callers)
		for n := 1; n <= callers; n++ {
			assert.True(t, seen[n], "missing sequence %d", n)
		}
	})
}

// --- Tasks ---

func testTasks(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("insertion order and project filter", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateTask(ctx, Task("10", "P1", 1)))
		require.NoError(t, s.CreateTask(ctx, Task("10", "P2", 4)))
		require.NoError(t, s.CreateTask(ctx, Task("10", "P1", 2)))
		require.NoError(t, s.CreateTask(ctx, Task("11", "P1", 3)))

		all, err := s.TasksForUser(ctx, "10")
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, "P1", all[0].ProjectID)
		assert.Equal(t, "P2", all[1].ProjectID)
		assert.Equal(t, "task 2", all[2].Name)
		assert.Equal(t, records.StatusOngoing, all[0].Status)
		assert.WithinDuration(t, records.Deadline(Base, 1), all[0].Deadline, 0)

		inP1, err := s.TasksForUserInProject(ctx, "10", "P1")
		require.NoError(t, err)
		require.Len(t, inP1, 2)
		assert.Equal(t, "task 1", inP1[0].Name)
		assert.Equal(t, "task 2", inP1[1].Name)
	})

	t.Run("same id for the same user is rejected", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.CreateTask(ctx, Task("10", "P1", 1)))

		// Same sequence number drawn from another project's counter.
		again := Task("10", "P2", 1)
		again.Description = "other project"
		err := s.CreateTask(ctx, again)
		require.ErrorIs(t, err, store.ErrDuplicate)

		tasks, err := s.TasksForUser(ctx, "10")
		require.NoError(t, err)
		require.Len(t, tasks, 1)
		assert.Equal(t, "P1", tasks[0].ProjectID)
		assert.Equal(t, "do the thing", tasks[0].Description)
	})

	t.Run("same id for another user is allowed", func(t *testing.T) {
		s := newStore(t)
		shared := Task("10", "P1", 1)
		require.NoError(t, s.CreateTask(ctx, shared))

		other := Task("11", "P1", 1)
		other.ID = shared.ID
		require.NoError(t, s.CreateTask(ctx, other))

		tasks, err := s.TasksForUser(ctx, "11")
		require.NoError(t, err)
		assert.Len(t, tasks, 1)
	})

	t.Run("no tasks is not an error", func(t *testing.T) {
		s := newStore(t)
		tasks, err := s.TasksForUser(ctx, "404")
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("invalid task never written", func(t *testing.T) {
		s := newStore(t)
		bad := Task("10", "P1", 1)
		bad.Name = ""

		var verr *records.ValidationError
		require.ErrorAs(t, s.CreateTask(ctx, bad), &verr)

		tasks, err := s.TasksForUser(ctx, "10")
		require.NoError(t, err)
		assert.Empty(t, tasks)
	})
}

// --- Profiles ---

func testProfiles(t *testing.T, newStore Factory) {
	ctx := context.Background()

	t.Run("put overwrites", func(t *testing.T) {
		s := newStore(t)
		p := Profile("20")
		require.NoError(t, s.PutProfile(ctx, p))

		p.DisplayName = "renamed"
		p.Location = records.Ptr("Accra")
		require.NoError(t, s.PutProfile(ctx, p))

		got, err := s.Profile(ctx, "20")
		require.NoError(t, err)
		assert.Equal(t, "renamed", got.DisplayName)
		require.NotNil(t, got.Location)
		assert.Equal(t, "Accra", *got.Location)
		assert.Equal(t, p.Secret, got.Secret)
		assert.False(t, got.Verified)
		assert.WithinDuration(t, Base, got.JoinedAt, 0)
	})

	t.Run("put keeps verified", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.PutProfile(ctx, Profile("23")))
		_, err := s.UpdateProfile(ctx, "23", records.ProfileUpdate{Verified: true})
		require.NoError(t, err)

		again := Profile("23")
		again.DisplayName = "remade"
		require.False(t, again.Verified)
		require.NoError(t, s.PutProfile(ctx, again))

		got, err := s.Profile(ctx, "23")
		require.NoError(t, err)
		assert.Equal(t, "remade", got.DisplayName)
		assert.True(t, got.Verified)
	})

	t.Run("put clears an omitted location", func(t *testing.T) {
		s := newStore(t)
		p := Profile("24")
		p.Location = records.Ptr("Accra")
		require.NoError(t, s.PutProfile(ctx, p))

		require.NoError(t, s.PutProfile(ctx, Profile("24")))

		got, err := s.Profile(ctx, "24")
		require.NoError(t, err)
		assert.Nil(t, got.Location)
	})

	t.Run("missing profile", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Profile(ctx, "404")
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.UpdateProfile(ctx, "404", records.ProfileUpdate{Bio: records.Ptr("hi")})
		assert.ErrorIs(t, err, store.ErrNotFound)

		_, err = s.Profile(ctx, "404")
		assert.ErrorIs(t, err, store.ErrNotFound, "update must not create a profile")
	})

	t.Run("partial update", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.PutProfile(ctx, Profile("21")))

		got, err := s.UpdateProfile(ctx, "21", records.ProfileUpdate{
			Bio:      records.Ptr("ships things"),
			Verified: true,
		})
		require.NoError(t, err)
		assert.Equal(t, "ships things", got.Bio)
		assert.True(t, got.Verified)

		stored, err := s.Profile(ctx, "21")
		require.NoError(t, err)
		assert.Equal(t, "ships things", stored.Bio)
		assert.Equal(t, "user21", stored.DisplayName)
		assert.True(t, stored.Verified)
		assert.Nil(t, stored.Location)
	})

	t.Run("invalid update leaves profile unchanged", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.PutProfile(ctx, Profile("22")))

		_, err := s.UpdateProfile(ctx, "22", records.ProfileUpdate{
			DisplayName: records.Ptr("sixteen-chars-xx"),
		})
		var verr *records.ValidationError
		require.ErrorAs(t, err, &verr)

		stored, err := s.Profile(ctx, "22")
		require.NoError(t, err)
		assert.Equal(t, "user22", stored.DisplayName)
	})
}
