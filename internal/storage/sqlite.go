package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	// Pure-Go SQLite driver, registered as "sqlite".
	_ "modernc.org/sqlite"

	"github.com/good-yellow-bee/logpulse/internal/models"
)

// SQLitePreferenceStore persists preferences in a SQLite database so they
// survive restarts. Log records are never written here.
type SQLitePreferenceStore struct {
	path string
	db   *sql.DB
}

// NewSQLitePreferenceStore creates a store backed by the database file at path.
func NewSQLitePreferenceStore(path string) *SQLitePreferenceStore {
	return &SQLitePreferenceStore{path: path}
}

// Open initializes the database connection.
func (s *SQLitePreferenceStore) Open() error {
	ctx := context.Background()

	db, err := sql.Open("sqlite", "file:"+s.path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}

	s.db = db
	return nil
}

// Migrate runs database migrations.
func (s *SQLitePreferenceStore) Migrate() error {
	return runMigrations(s.db)
}

// Close closes the database connection.
func (s *SQLitePreferenceStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the connection health.
func (s *SQLitePreferenceStore) Ping(ctx context.Context) error {
	if s.db == nil {
		return errors.New("database not open")
	}
	return s.db.PingContext(ctx)
}

func (s *SQLitePreferenceStore) Get(ctx context.Context, userID string) (*models.Preferences, error) {
	var cols, widths string
	err := s.db.QueryRowContext(ctx,
		"SELECT visible_columns, column_widths FROM preferences WHERE user_id = ?", userID,
	).Scan(&cols, &widths)
	if errors.Is(err, sql.ErrNoRows) {
		return models.DefaultPreferences(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get preferences: %w", err)
	}

	p := &models.Preferences{}
	if err := json.Unmarshal([]byte(cols), &p.VisibleColumns); err != nil {
		return nil, fmt.Errorf("decode visible columns: %w", err)
	}
	if err := json.Unmarshal([]byte(widths), &p.ColumnWidths); err != nil {
		return nil, fmt.Errorf("decode column widths: %w", err)
	}
	p.Normalize()
	return p, nil
}

func (s *SQLitePreferenceStore) Set(ctx context.Context, userID string, prefs *models.Preferences) error {
	p := clonePreferences(prefs)

	cols, err := json.Marshal(p.VisibleColumns)
	if err != nil {
		return fmt.Errorf("encode visible columns: %w", err)
	}
	widths, err := json.Marshal(p.ColumnWidths)
	if err != nil {
		return fmt.Errorf("encode column widths: %w", err)
	}

	query := `
		INSERT INTO preferences (user_id, visible_columns, column_widths, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			visible_columns = excluded.visible_columns,
			column_widths = excluded.column_widths,
			updated_at = excluded.updated_at
	`
	_, err = s.db.ExecContext(ctx, query, userID, string(cols), string(widths), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("set preferences: %w", err)
	}
	return nil
}
