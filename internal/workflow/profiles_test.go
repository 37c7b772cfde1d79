package workflow

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nexio-dev/nexbot/internal/platform"
	"github.com/nexio-dev/nexbot/internal/records"
)

func adaParams() MakeProfileParams {
	return MakeProfileParams{
		DisplayName:    "ada",
		RepositoryLink: "https://github.com/ada",
		Secret:         "hunter2",
	}
}

func makeProfile(t *testing.T, e *env, m platform.Member) *records.UserProfile {
	t.Helper()
	p, err := e.profiles.Create(context.Background(), m, adaParams())
	require.NoError(t, err)
	return p
}

// --- Create ---

func TestProfiles_Create(t *testing.T) {
	e := newEnv(t)
	joined := time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC)
	ada := platform.Member{ID: "500", Name: "ada", Mention: "<@500>", AvatarURL: "https://cdn.example/a.png", JoinedAt: joined}

	p, err := e.profiles.Create(context.Background(), ada, adaParams())
	require.NoError(t, err)

	assert.Equal(t, records.DefaultBio, p.Bio)
	assert.Equal(t, joined, p.JoinedAt)
	assert.False(t, p.Verified)
	assert.NotEqual(t, "hunter2", p.Secret)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(p.Secret), []byte("hunter2")))

	stored, err := e.store.Profile(context.Background(), "500")
	require.NoError(t, err)
	assert.Equal(t, "ada", stored.DisplayName)
	assert.Equal(t, "ada", stored.Tag)
	assert.Equal(t, "https://cdn.example/a.png", stored.AvatarURL)
	assert.Nil(t, stored.Location)
}

func TestProfiles_Create_DisplayNameBoundary(t *testing.T) {
	e := newEnv(t)

	params := adaParams()
	params.DisplayName = strings.Repeat("x", 15)
	_, err := e.profiles.Create(context.Background(), plainMember("501", "x"), params)
	require.NoError(t, err)

	params.DisplayName = strings.Repeat("x", 16)
	_, err = e.profiles.Create(context.Background(), plainMember("502", "y"), params)
	werr := requireKind(t, err, KindValidation)
	assert.Equal(t, "Display name must be 15 characters or fewer.", werr.Message)

	_, err = e.store.Profile(context.Background(), "502")
	assert.Error(t, err, "rejected profile never stored")
}

func TestProfiles_Create_Rejections(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name    string
		mutate  func(*MakeProfileParams)
		message string
	}{
		{"gitlab link", func(p *MakeProfileParams) { p.RepositoryLink = "https://gitlab.com/ada" }, "GitHub link must be a valid GitHub profile URL."},
		{"long bio", func(p *MakeProfileParams) { p.Bio = records.Ptr(strings.Repeat("w ", 26)) }, "Bio must be 25 words or fewer."},
		{"empty password", func(p *MakeProfileParams) { p.Secret = "" }, "Password is required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := adaParams()
			tt.mutate(&params)
			_, err := e.profiles.Create(context.Background(), plainMember("503", "z"), params)
			werr := requireKind(t, err, KindValidation)
			assert.Equal(t, tt.message, werr.Message)
		})
	}
}

func TestProfiles_Create_NeedsJoinDate(t *testing.T) {
	e := newEnv(t)
	m := plainMember("504", "nojoin")
	m.JoinedAt = time.Time{}

	_, err := e.profiles.Create(context.Background(), m, adaParams())

	werr := requireKind(t, err, KindNotFound)
	assert.Equal(t, "Unable to retrieve the member's join date.", werr.Message)
}

// --- Get ---

func TestProfiles_Get(t *testing.T) {
	e := newEnv(t)
	ada := plainMember("500", "ada")

	_, err := e.profiles.Get(context.Background(), ada)
	werr := requireKind(t, err, KindNotFound)
	assert.Equal(t, "No profile found for <@500>.", werr.Message)

	makeProfile(t, e, ada)
	p, err := e.profiles.Get(context.Background(), ada)
	require.NoError(t, err)
	assert.Equal(t, "ada", p.DisplayName)
}

// --- Verify ---

func TestProfiles_Verify(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada := plainMember("500", "ada")
	makeProfile(t, e, ada)

	for _, caller := range []platform.Member{managerMember(), plainMember("400", "eve"), ada} {
		_, err := e.profiles.Verify(ctx, caller, ada)
		werr := requireKind(t, err, KindAuthorization)
		assert.Equal(t, "You do not have permission to verify users.", werr.Message)
	}
	p, err := e.profiles.Get(ctx, ada)
	require.NoError(t, err)
	assert.False(t, p.Verified, "denied verify leaves the flag unchanged")

	p, err = e.profiles.Verify(ctx, staffMember(), ada)
	require.NoError(t, err)
	assert.True(t, p.Verified)

	// Later updates never reset it.
	_, err = e.profiles.UpdateBio(ctx, ada, "still verified")
	require.NoError(t, err)
	p, err = e.profiles.Get(ctx, ada)
	require.NoError(t, err)
	assert.True(t, p.Verified)
}

func TestProfiles_Create_AgainKeepsVerified(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	bob := plainMember("200", "bob")
	makeProfile(t, e, bob)

	_, err := e.profiles.Verify(ctx, staffMember(), bob)
	require.NoError(t, err)

	params := adaParams()
	params.DisplayName = "bobby"
	p, err := e.profiles.Create(ctx, bob, params)
	require.NoError(t, err)
	assert.True(t, p.Verified)

	stored, err := e.profiles.Get(ctx, bob)
	require.NoError(t, err)
	assert.Equal(t, "bobby", stored.DisplayName)
	assert.True(t, stored.Verified)
}

func TestProfiles_Verify_MissingProfile(t *testing.T) {
	e := newEnv(t)

	_, err := e.profiles.Verify(context.Background(), staffMember(), plainMember("404", "ghost"))

	werr := requireKind(t, err, KindNotFound)
	assert.Equal(t, "No profile found for <@404>.", werr.Message)
}

// --- Updates ---

func TestProfiles_UpdateBio_ThenGet(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada := plainMember("500", "ada")
	makeProfile(t, e, ada)

	bio := strings.TrimSpace(strings.Repeat("word ", 25))
	_, err := e.profiles.UpdateBio(ctx, ada, bio)
	require.NoError(t, err)

	p, err := e.profiles.Get(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, bio, p.Bio)

	_, err = e.profiles.UpdateBio(ctx, ada, bio+" extra")
	werr := requireKind(t, err, KindValidation)
	assert.Equal(t, "Bio must be 25 words or fewer.", werr.Message)

	p, err = e.profiles.Get(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, bio, p.Bio, "rejected bio never written")
}

func TestProfiles_UpdateName_Boundary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada := plainMember("500", "ada")
	makeProfile(t, e, ada)

	p, err := e.profiles.UpdateName(ctx, ada, strings.Repeat("n", 15))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("n", 15), p.DisplayName)

	_, err = e.profiles.UpdateName(ctx, ada, strings.Repeat("n", 16))
	requireKind(t, err, KindValidation)
}

func TestProfiles_UpdateGitHubAndLocation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada := plainMember("500", "ada")
	makeProfile(t, e, ada)

	_, err := e.profiles.UpdateGitHub(ctx, ada, "http://github.com/ada")
	requireKind(t, err, KindValidation)

	p, err := e.profiles.UpdateGitHub(ctx, ada, "https://github.com/ada-l")
	require.NoError(t, err)
	assert.Equal(t, "https://github.com/ada-l", p.RepositoryLink)

	p, err = e.profiles.UpdateLocation(ctx, ada, "London")
	require.NoError(t, err)
	require.NotNil(t, p.Location)
	assert.Equal(t, "London", *p.Location)

	_, err = e.profiles.UpdateLocation(ctx, ada, strings.Repeat("l", 101))
	werr := requireKind(t, err, KindValidation)
	assert.Contains(t, werr.Message, "Location")
	p, err = e.profiles.Get(ctx, ada)
	require.NoError(t, err)
	assert.Equal(t, "London", *p.Location)
}

func TestProfiles_UpdateSecret(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ada := plainMember("500", "ada")
	makeProfile(t, e, ada)

	p, err := e.profiles.UpdateSecret(ctx, ada, "correct horse")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(p.Secret), []byte("correct horse")))

	_, err = e.profiles.UpdateSecret(ctx, ada, strings.Repeat("p", 73))
	requireKind(t, err, KindValidation)
}

func TestProfiles_Update_NoProfile(t *testing.T) {
	e := newEnv(t)

	_, err := e.profiles.UpdateBio(context.Background(), plainMember("404", "ghost"), "hello")

	werr := requireKind(t, err, KindNotFound)
	assert.Equal(t, "No profile found for <@404>.", werr.Message)
}
