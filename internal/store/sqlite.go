package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/jorge-barreto/sitepatch/internal/patch"
)

const schema = `
CREATE TABLE IF NOT EXISTS files (
	path TEXT PRIMARY KEY,
	position INTEGER NOT NULL,
	content TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_files_position ON files(position);
`

// SQLiteStore keeps the FileSet in a single SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (*patch.FileSet, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, content FROM files ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("store: loading files: %w", err)
	}
	defer rows.Close()

	files := &patch.FileSet{}
	for rows.Next() {
		var f patch.File
		if err := rows.Scan(&f.Path, &f.Content); err != nil {
			return nil, fmt.Errorf("store: scanning file: %w", err)
		}
		files.Put(f.Path, f.Content)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: loading files: %w", err)
	}
	return files, nil
}

// Save replaces every stored file inside one transaction.
func (s *SQLiteStore) Save(ctx context.Context, files *patch.FileSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return fmt.Errorf("store: clearing files: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO files (path, position, content, updated_at) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: prepare: %w", err)
	}
	defer stmt.Close()

	now := time.Now().Unix()
	if files != nil {
		for i, f := range files.Files {
			if _, err := stmt.ExecContext(ctx, f.Path, i, f.Content, now); err != nil {
				return fmt.Errorf("store: saving %s: %w", f.Path, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
