package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/nexio-dev/nexbot/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		DiscordToken:          "token",
		GuildID:               "42",
		ProjectCategoryID:     "1318943943391580161",
		AnnouncementChannelID: "1318945614804942878",
		StaffRoles:            []string{"Core Team"},
		ManagerRoles:          []string{"Management"},
		Presence:              "Nexions",
		StoreBackend:          config.BackendSQLite,
		SQLitePath:            filepath.Join(t.TempDir(), "data", "nexbot.db"),
		HealthAddr:            "127.0.0.1:0",
	}
}

func TestOpenStore_SQLite(t *testing.T) {
	st, cleanup, err := OpenStore(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	assert.NoError(t, st.Ping(context.Background()))
}

func TestOpenStore_UnknownBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.StoreBackend = "redis"

	_, cleanup, err := OpenStore(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.NotNil(t, cleanup)
	cleanup()
}

func TestNewApp_RegistersEveryCommand(t *testing.T) {
	app, cleanup, err := NewApp(context.Background(), testConfig(t), zap.NewNop())
	require.NoError(t, err)
	defer cleanup()

	var names []string
	for _, d := range app.registry.Definitions() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{
		"add_member", "createproject", "give_task", "makeprofile", "ping",
		"project_tasklist", "tasklist", "update_app_password", "update_bio",
		"update_github", "update_location", "update_name", "userinfo", "verify",
	}, names)
}

func TestNewApp_RequiresToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.DiscordToken = ""

	_, cleanup, err := NewApp(context.Background(), cfg, zap.NewNop())
	assert.ErrorContains(t, err, "DISCORD_TOKEN")
	cleanup()
}

func TestNewConsole_WithoutToken(t *testing.T) {
	cfg := testConfig(t)
	cfg.DiscordToken = ""

	s, cleanup, err := NewConsole(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer cleanup()
	assert.NotNil(t, s)
}
