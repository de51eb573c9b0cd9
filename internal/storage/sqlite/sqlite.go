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

	_ "modernc.org/sqlite"

	"github.com/taskpilot/taskpilot/internal/log"
	"github.com/taskpilot/taskpilot/internal/model"
	"github.com/taskpilot/taskpilot/internal/storage/sqlite/migrations"
)

// RepositoryConfig is the configuration for the SQLite session repository.
type RepositoryConfig struct {
	DBPath string
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.DBPath == "" {
		return fmt.Errorf("db path is required")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.SQLite"})
	return nil
}

// Repository is a SQLite implementation of storage.SessionRepository. It owns
// the database connection, task persistence shares it through DB().
type Repository struct {
	db     *sql.DB
	logger log.Logger
}

// NewRepository creates a new SQLite repository and runs pending migrations.
func NewRepository(ctx context.Context, cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	dir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("could not create db directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", cfg.DBPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	migrator, err := migrations.NewMigrator(db, cfg.Logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("could not create migrator: %w", err)
	}
	if err := migrator.Up(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not run migrations: %w", err)
	}

	cfg.Logger.Debugf("SQLite repository initialized at %s", cfg.DBPath)

	return &Repository{db: db, logger: cfg.Logger}, nil
}

// DB returns the underlying database connection.
func (r *Repository) DB() *sql.DB { return r.db }

// Close closes the database connection.
func (r *Repository) Close() error { return r.db.Close() }

// CreateSession creates a new session in the repository.
func (r *Repository) CreateSession(ctx context.Context, s model.Session) error {
	query := `
		INSERT INTO sessions (id, name, work_dir, temp_dir, isolated, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		s.ID,
		s.Name,
		s.WorkDir,
		s.TempDir,
		boolToInt(s.Isolated),
		boolToInt(s.Active),
		s.CreatedAt.Unix(),
		s.UpdatedAt.Unix(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: sessions.") {
			return fmt.Errorf("session already exists: %w", model.ErrAlreadyExists)
		}
		return fmt.Errorf("could not insert session: %w", err)
	}

	r.logger.Debugf("Created session in repository: %s", s.ID)
	return nil
}

// GetSession retrieves a session by ID.
func (r *Repository) GetSession(ctx context.Context, id string) (*model.Session, error) {
	query := `
		SELECT id, name, work_dir, temp_dir, isolated, active, created_at, updated_at
		FROM sessions
		WHERE id = ?
	`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("session %s: %w", id, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not query session: %w", err)
	}

	return s, nil
}

// ListSessions returns all sessions ordered by creation time.
func (r *Repository) ListSessions(ctx context.Context) ([]model.Session, error) {
	query := `
		SELECT id, name, work_dir, temp_dir, isolated, active, created_at, updated_at
		FROM sessions
		ORDER BY created_at ASC, id ASC
	`

	return r.querySessions(ctx, query)
}

// ListSessionsUpdatedBefore returns the sessions last updated before the cutoff.
func (r *Repository) ListSessionsUpdatedBefore(ctx context.Context, cutoff time.Time) ([]model.Session, error) {
	query := `
		SELECT id, name, work_dir, temp_dir, isolated, active, created_at, updated_at
		FROM sessions
		WHERE updated_at < ?
		ORDER BY created_at ASC, id ASC
	`

	return r.querySessions(ctx, query, cutoff.Unix())
}

// UpdateSession updates an existing session.
func (r *Repository) UpdateSession(ctx context.Context, s model.Session) error {
	query := `
		UPDATE sessions
		SET name = ?, work_dir = ?, temp_dir = ?, isolated = ?, active = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := r.db.ExecContext(
		ctx,
		query,
		s.Name,
		s.WorkDir,
		s.TempDir,
		boolToInt(s.Isolated),
		boolToInt(s.Active),
		s.UpdatedAt.Unix(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("could not update session: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session %s: %w", s.ID, model.ErrNotFound)
	}

	return nil
}

// DeleteSession removes a session, history rows cascade.
func (r *Repository) DeleteSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("could not delete session: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("could not get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}

	return nil
}

// AppendCommand appends a command history entry.
func (r *Repository) AppendCommand(ctx context.Context, rec model.CommandRecord) error {
	query := `
		INSERT INTO session_commands (id, session_id, command, error, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query, rec.ID, rec.SessionID, rec.Command, rec.Error, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("could not insert command record: %w", err)
	}

	return nil
}

// ListCommands returns a session's command history in append order.
func (r *Repository) ListCommands(ctx context.Context, sessionID string) ([]model.CommandRecord, error) {
	query := `
		SELECT id, session_id, command, error, created_at
		FROM session_commands
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("could not query command records: %w", err)
	}
	defer rows.Close()

	records := []model.CommandRecord{}
	for rows.Next() {
		var rec model.CommandRecord
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Command, &rec.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan command record: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}

// AppendOutput appends an output history entry.
func (r *Repository) AppendOutput(ctx context.Context, rec model.OutputRecord) error {
	query := `
		INSERT INTO session_outputs (id, session_id, process_id, stdout, stderr, exit_code, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.SessionID,
		rec.ProcessID,
		rec.Stdout,
		rec.Stderr,
		rec.ExitCode,
		rec.Duration.Milliseconds(),
		rec.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("could not insert output record: %w", err)
	}

	return nil
}

// ListOutputs returns a session's output history in append order.
func (r *Repository) ListOutputs(ctx context.Context, sessionID string) ([]model.OutputRecord, error) {
	query := `
		SELECT id, session_id, process_id, stdout, stderr, exit_code, duration_ms, created_at
		FROM session_outputs
		WHERE session_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("could not query output records: %w", err)
	}
	defer rows.Close()

	records := []model.OutputRecord{}
	for rows.Next() {
		var rec model.OutputRecord
		var durationMS, createdAt int64
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.ProcessID, &rec.Stdout, &rec.Stderr, &rec.ExitCode, &durationMS, &createdAt); err != nil {
			return nil, fmt.Errorf("could not scan output record: %w", err)
		}
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *Repository) querySessions(ctx context.Context, query string, args ...any) ([]model.Session, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("could not query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []model.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("could not scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}

	return sessions, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*model.Session, error) {
	var s model.Session
	var isolated, active int
	var createdAt, updatedAt int64

	err := row.Scan(&s.ID, &s.Name, &s.WorkDir, &s.TempDir, &isolated, &active, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	s.Isolated = isolated != 0
	s.Active = active != 0
	s.CreatedAt = time.Unix(createdAt, 0).UTC()
	s.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return &s, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
