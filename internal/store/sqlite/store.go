// Package sqlite implements store.Store on an embedded SQLite database.
//
// It keeps the same collections as the document backend (projects, users,
// tasks, counters) as tables, so a single node can run nexbot without an
// external database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/nexio-dev/nexbot/internal/records"
	"github.com/nexio-dev/nexbot/internal/store"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// timeLayout is how timestamps are stored. Fixed width and always UTC, so
// lexical order equals time order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ─── Store ───────────────────────────────────────────────────────────────────

// Store is the SQLite-backed record store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ store.Store = (*Store)(nil)

// Open creates the parent directory if needed, opens the database in WAL
// mode and runs migrations.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("sqlite: create data dir: %w", err)
		}
	}

	db, err := openDB("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open database: %w", err)
	}
	// One connection: SQLite has a single writer, and pragmas are per connection.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite: pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration: %w", err)
	}

	logger.Info("sqlite store ready", zap.String("path", path))
	return s, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database connection.
func (s *Store) Close(context.Context) error {
	return s.db.Close()
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS projects (
			id             TEXT PRIMARY KEY,
			name           TEXT NOT NULL,
			description    TEXT NOT NULL,
			github_link    TEXT NOT NULL,
			prototype_link TEXT,
			image_url      TEXT,
			leader         TEXT,
			channel_id     TEXT NOT NULL,
			role_id        TEXT NOT NULL,
			created_at     TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_projects_channel ON projects(channel_id);
		CREATE INDEX IF NOT EXISTS idx_projects_role    ON projects(role_id);

		CREATE TABLE IF NOT EXISTS users (
			id              TEXT PRIMARY KEY,
			discord_tag     TEXT NOT NULL DEFAULT '',
			display_name    TEXT NOT NULL,
			bio             TEXT NOT NULL DEFAULT '',
			github          TEXT NOT NULL DEFAULT '',
			password        TEXT NOT NULL,
			profile_img_url TEXT NOT NULL DEFAULT '',
			joined_at       TEXT NOT NULL,
			location        TEXT,
			verified        INTEGER NOT NULL DEFAULT 0
		);

		CREATE TABLE IF NOT EXISTS tasks (
			seq              INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id          TEXT NOT NULL,
			task_id          TEXT NOT NULL,
			project_id       TEXT NOT NULL,
			task_name        TEXT NOT NULL,
			task_description TEXT NOT NULL DEFAULT '',
			deadline         TEXT NOT NULL,
			task_status      TEXT NOT NULL,
			assigned_by      TEXT NOT NULL DEFAULT '',
			assigned_to      TEXT NOT NULL DEFAULT '',
			created_at       TEXT NOT NULL,
			UNIQUE (user_id, task_id)
		);
		CREATE INDEX IF NOT EXISTS idx_tasks_user_project ON tasks(user_id, project_id);

		CREATE TABLE IF NOT EXISTS counters (
			project_id TEXT PRIMARY KEY,
			seq        INTEGER NOT NULL
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// ─── Projects ────────────────────────────────────────────────────────────────

const projectColumns = `id, name, description, github_link, prototype_link, image_url,
	leader, channel_id, role_id, created_at`

// CreateProject inserts a project. An id collision returns store.ErrDuplicate.
func (s *Store) CreateProject(ctx context.Context, p *records.Project) error {
	if err := records.Validate(p); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (`+projectColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.RepositoryLink, p.PrototypeLink, p.ImageURL,
		p.LeaderRef, p.ChannelID, p.GroupID, formatTime(p.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("project %q: %w", p.ID, store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("inserting project %q: %w", p.ID, err)
	}
	return nil
}

// Project loads a project by id.
func (s *Store) Project(ctx context.Context, id string) (*records.Project, error) {
	return s.queryProject(ctx, `WHERE id = ?`, id)
}

// ProjectByChannel loads the project whose channel is channelID.
func (s *Store) ProjectByChannel(ctx context.Context, channelID string) (*records.Project, error) {
	return s.queryProject(ctx, `WHERE channel_id = ? ORDER BY created_at LIMIT 1`, channelID)
}

// ProjectByGroup loads the project whose access role is groupID.
func (s *Store) ProjectByGroup(ctx context.Context, groupID string) (*records.Project, error) {
	return s.queryProject(ctx, `WHERE role_id = ? ORDER BY created_at LIMIT 1`, groupID)
}

func (s *Store) queryProject(ctx context.Context, where string, arg string) (*records.Project, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects `+where, arg)

	var (
		p         records.Project
		createdAt string
	)
	err := row.Scan(
		&p.ID, &p.Name, &p.Description, &p.RepositoryLink, &p.PrototypeLink, &p.ImageURL,
		&p.LeaderRef, &p.ChannelID, &p.GroupID, &createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %q: %w", arg, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading project %q: %w", arg, err)
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// ─── Tasks ───────────────────────────────────────────────────────────────────

// NextTaskSequence bumps the per-project counter in a single statement.
func (s *Store) NextTaskSequence(ctx context.Context, projectID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO counters (project_id, seq) VALUES (?, 1)
		 ON CONFLICT(project_id) DO UPDATE SET seq = seq + 1
		 RETURNING seq`,
		projectID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("task sequence for %q: %w", projectID, err)
	}
	return n, nil
}

// CreateTask inserts a task under its assignee. The (user_id, task_id)
// unique key rejects reuse of an id.
func (s *Store) CreateTask(ctx context.Context, t *records.Task) error {
	if err := records.Validate(t); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (user_id, task_id, project_id, task_name, task_description,
		                    deadline, task_status, assigned_by, assigned_to, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.ID, t.ProjectID, t.Name, t.Description,
		formatTime(t.Deadline), string(t.Status), t.AssignedBy, t.AssignedTo, formatTime(t.CreatedAt),
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("task %q for %q: %w", t.ID, t.UserID, store.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("storing task %q for %q: %w", t.ID, t.UserID, err)
	}
	return nil
}

// TasksForUser returns every task of a user in insertion order.
func (s *Store) TasksForUser(ctx context.Context, userID string) ([]records.Task, error) {
	return s.queryTasks(ctx, `WHERE user_id = ? ORDER BY seq`, userID)
}

// TasksForUserInProject returns a user's tasks belonging to one project.
func (s *Store) TasksForUserInProject(ctx context.Context, userID, projectID string) ([]records.Task, error) {
	return s.queryTasks(ctx, `WHERE user_id = ? AND project_id = ? ORDER BY seq`, userID, projectID)
}

func (s *Store) queryTasks(ctx context.Context, where string, args ...any) ([]records.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT task_id, user_id, project_id, task_name, task_description,
		        deadline, task_status, assigned_by, assigned_to, created_at
		 FROM tasks `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []records.Task
	for rows.Next() {
		var (
			t                   records.Task
			status              string
			deadline, createdAt string
		)
		if err := rows.Scan(
			&t.ID, &t.UserID, &t.ProjectID, &t.Name, &t.Description,
			&deadline, &status, &t.AssignedBy, &t.AssignedTo, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		t.Status = records.TaskStatus(status)
		if t.Deadline, err = parseTime(deadline); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// ─── Profiles ────────────────────────────────────────────────────────────────

// PutProfile creates or overwrites a profile. A stored verified flag is kept.
func (s *Store) PutProfile(ctx context.Context, p *records.UserProfile) error {
	if err := records.Validate(p); err != nil {
		return err
	}
	if err := s.writeProfile(ctx, s.db, p); err != nil {
		return fmt.Errorf("storing profile %q: %w", p.ID, err)
	}
	return nil
}

// Profile loads a profile by user id.
func (s *Store) Profile(ctx context.Context, userID string) (*records.UserProfile, error) {
	return s.readProfile(ctx, s.db, userID)
}

// UpdateProfile reads, patches and writes back a profile in one transaction.
func (s *Store) UpdateProfile(ctx context.Context, userID string, u records.ProfileUpdate) (*records.UserProfile, error) {
	if err := records.Validate(u); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin profile update: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	p, err := s.readProfile(ctx, tx, userID)
	if err != nil {
		return nil, err
	}
	u.Apply(p)
	if err := s.writeProfile(ctx, tx, p); err != nil {
		return nil, fmt.Errorf("updating profile %q: %w", userID, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit profile update: %w", err)
	}
	return p, nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) readProfile(ctx context.Context, q querier, userID string) (*records.UserProfile, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, discord_tag, display_name, bio, github, password, profile_img_url,
		        joined_at, location, verified
		 FROM users WHERE id = ?`, userID)

	var (
		p        records.UserProfile
		joinedAt string
	)
	err := row.Scan(
		&p.ID, &p.Tag, &p.DisplayName, &p.Bio, &p.RepositoryLink, &p.Secret, &p.AvatarURL,
		&joinedAt, &p.Location, &p.Verified,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("profile %q: %w", userID, store.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading profile %q: %w", userID, err)
	}
	if p.JoinedAt, err = parseTime(joinedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) writeProfile(ctx context.Context, q querier, p *records.UserProfile) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO users (id, discord_tag, display_name, bio, github, password,
		                    profile_img_url, joined_at, location, verified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     discord_tag     = excluded.discord_tag,
		     display_name    = excluded.display_name,
		     bio             = excluded.bio,
		     github          = excluded.github,
		     password        = excluded.password,
		     profile_img_url = excluded.profile_img_url,
		     joined_at       = excluded.joined_at,
		     location        = excluded.location,
		     verified        = MAX(users.verified, excluded.verified)`,
		p.ID, p.Tag, p.DisplayName, p.Bio, p.RepositoryLink, p.Secret,
		p.AvatarURL, formatTime(p.JoinedAt), p.Location, p.Verified,
	)
	return err
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing stored time %q: %w", v, err)
	}
	return t, nil
}

// isUniqueViolation checks if an error is a SQLite UNIQUE or PRIMARY KEY
// constraint violation.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}
