package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/brief-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/brief-cli/internal/core/domain"
	"github.com/custodia-labs/brief-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.BriefingStore = (*Store)(nil)

// Store is a SQLite-backed briefing history. It uses modernc.org/sqlite,
// a pure Go driver, so cross-compilation needs no CGO.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.brief/data/history.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".brief", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate applies any not-yet-applied up migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// Save stores a briefing.
func (s *Store) Save(ctx context.Context, briefing domain.Briefing) error {
	sources, err := json.Marshal(briefing.Sources)
	if err != nil {
		return fmt.Errorf("encoding sources: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO briefings (id, name, model, prompt, output, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, briefing.ID, briefing.Name, briefing.Model, briefing.Prompt, briefing.Output,
		string(sources), briefing.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("saving briefing: %w", err)
	}
	return nil
}

// Get retrieves a briefing by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Briefing, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, model, prompt, output, sources, created_at
		FROM briefings WHERE id = ?
	`, id)

	briefing, err := scanBriefing(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("briefing %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting briefing: %w", err)
	}
	return briefing, nil
}

// List returns the most recent briefings, newest first, up to limit.
func (s *Store) List(ctx context.Context, limit int) ([]domain.Briefing, error) {
	query := `
		SELECT id, name, model, prompt, output, sources, created_at
		FROM briefings ORDER BY created_at DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing briefings: %w", err)
	}
	defer rows.Close()

	var briefings []domain.Briefing
	for rows.Next() {
		briefing, err := scanBriefing(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning briefing: %w", err)
		}
		briefings = append(briefings, *briefing)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating briefings: %w", err)
	}
	return briefings, nil
}

// Delete removes a briefing by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM briefings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting briefing: %w", err)
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanBriefing(row scanner) (*domain.Briefing, error) {
	var b domain.Briefing
	var sources string

	if err := row.Scan(&b.ID, &b.Name, &b.Model, &b.Prompt, &b.Output, &sources, &b.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(sources), &b.Sources); err != nil {
		return nil, fmt.Errorf("decoding sources: %w", err)
	}
	return &b, nil
}
