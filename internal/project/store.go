package project

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const schema = `
CREATE TABLE IF NOT EXISTS recent_projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	template   TEXT NOT NULL DEFAULT '',
	path       TEXT NOT NULL DEFAULT '',
	updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS custom_templates (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	base       TEXT NOT NULL DEFAULT '',
	files      TEXT NOT NULL DEFAULT '[]',
	created_at TIMESTAMP NOT NULL
);
`

// maxRecentProjects bounds the recent-project history.
const maxRecentProjects = 10

// Store keeps recent projects and custom templates in SQLite.
type Store struct {
	db *sqlx.DB
}

// NewStore creates the store and its schema.
func NewStore(db *sqlx.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create project schema: %w", err)
	}
	return &Store{db: db}, nil
}

// AddRecent upserts a recent-project entry and trims the history to the
// newest entries.
func (s *Store) AddRecent(ctx context.Context, rp RecentProject) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO recent_projects (id, name, template, path, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			template = excluded.template,
			path = excluded.path,
			updated_at = excluded.updated_at`,
		rp.ID, rp.Name, rp.Template, rp.Path, rp.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert recent project: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM recent_projects WHERE id NOT IN (
			SELECT id FROM recent_projects ORDER BY updated_at DESC LIMIT ?
		)`, maxRecentProjects)
	if err != nil {
		return fmt.Errorf("failed to trim recent projects: %w", err)
	}

	return tx.Commit()
}

// Recents lists recent projects, newest first.
func (s *Store) Recents(ctx context.Context) ([]RecentProject, error) {
	var out []RecentProject
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, name, template, path, updated_at
		FROM recent_projects ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent projects: %w", err)
	}
	return out, nil
}

// RemoveRecent deletes one entry; absent ids are not an error.
func (s *Store) RemoveRecent(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM recent_projects WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to remove recent project: %w", err)
	}
	return nil
}

type templateRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Base      string    `db:"base"`
	Files     string    `db:"files"`
	CreatedAt time.Time `db:"created_at"`
}

// SaveTemplate inserts or replaces a custom template.
func (s *Store) SaveTemplate(ctx context.Context, tpl CustomTemplate) error {
	files, err := json.Marshal(tpl.Files)
	if err != nil {
		return fmt.Errorf("failed to encode template files: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO custom_templates (id, name, base, files, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			base = excluded.base,
			files = excluded.files`,
		tpl.ID, tpl.Name, tpl.Base, string(files), tpl.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save template: %w", err)
	}
	return nil
}

// Templates lists custom templates, newest first.
func (s *Store) Templates(ctx context.Context) ([]CustomTemplate, error) {
	var rows []templateRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, name, base, files, created_at
		FROM custom_templates ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	out := make([]CustomTemplate, 0, len(rows))
	for _, row := range rows {
		var files []File
		if err := json.Unmarshal([]byte(row.Files), &files); err != nil {
			return nil, fmt.Errorf("failed to decode template %s: %w", row.ID, err)
		}
		out = append(out, CustomTemplate{
			ID:        row.ID,
			Name:      row.Name,
			Base:      row.Base,
			Files:     files,
			CreatedAt: row.CreatedAt,
		})
	}
	return out, nil
}

// DeleteTemplate removes one template; absent ids are not an error.
func (s *Store) DeleteTemplate(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM custom_templates WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return nil
}

// GetTemplate fetches one template by id.
func (s *Store) GetTemplate(ctx context.Context, id string) (CustomTemplate, error) {
	var row templateRow
	err := s.db.GetContext(ctx, &row, `
		SELECT id, name, base, files, created_at FROM custom_templates WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return CustomTemplate{}, fmt.Errorf("%w: template %s", ErrNotFound, id)
	}
	if err != nil {
		return CustomTemplate{}, fmt.Errorf("failed to load template: %w", err)
	}

	var files []File
	if err := json.Unmarshal([]byte(row.Files), &files); err != nil {
		return CustomTemplate{}, fmt.Errorf("failed to decode template %s: %w", row.ID, err)
	}
	return CustomTemplate{
		ID:        row.ID,
		Name:      row.Name,
		Base:      row.Base,
		Files:     files,
		CreatedAt: row.CreatedAt,
	}, nil
}
