package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nexio-dev/nexbot/internal/store"
	"github.com/nexio-dev/nexbot/internal/store/storetest"
)

// newTestStore opens a Store in a temp directory for isolation.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nexbot.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestStoreContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return newTestStore(t) })
}

// ─── Open ────────────────────────────────────────────────────────────────────

func TestOpen_CreatesDataDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "nexbot.db")
	s, err := Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close(context.Background()) }()

	_, err = os.Stat(path)
	assert.NoError(t, err)
	assert.NoError(t, s.Ping(context.Background()))
}

func TestOpen_WALMode(t *testing.T) {
	s := newTestStore(t)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestOpen_ReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nexbot.db")

	s, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, s.CreateProject(ctx, storetest.Project("KEEP0001")))
	n, err := s.NextTaskSequence(ctx, "KEEP0001")
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, s.Close(ctx))

	s, err = Open(path, nil)
	require.NoError(t, err)
	defer func() { _ = s.Close(ctx) }()

	_, err = s.Project(ctx, "KEEP0001")
	require.NoError(t, err)
	n, err = s.NextTaskSequence(ctx, "KEEP0001")
	require.NoError(t, err)
	assert.Equal(t, 2, n, "counter survives a restart")
}

func TestOpen_OpenError(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	openDB = func(string, string) (*sql.DB, error) {
		return nil, errors.New("disk on fire")
	}

	_, err := Open(filepath.Join(t.TempDir(), "nexbot.db"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sqlite: open database")
	assert.Contains(t, err.Error(), "disk on fire")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, isUniqueViolation(nil))
	assert.False(t, isUniqueViolation(errors.New("database is locked")))
	assert.True(t, isUniqueViolation(errors.New("constraint failed: UNIQUE constraint failed: projects.id (1555)")))
}
