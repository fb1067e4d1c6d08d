package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goliatone/go-pagebuilder/pkg/model"
	"github.com/goliatone/go-pagebuilder/pkg/pages"
)

// PageStore implements pages.Store and pages.Lister.
type PageStore struct {
	db *DB
}

var (
	_ pages.Store  = (*PageStore)(nil)
	_ pages.Lister = (*PageStore)(nil)
)

// NewPageStore creates a page store over db.
func NewPageStore(db *DB) *PageStore {
	return &PageStore{db: db}
}

// Revision is one stored version of a page.
type Revision struct {
	Revision  int64     `json:"revision"`
	CreatedAt time.Time `json:"createdAt"`
}

// Fetch implements pages.Store.
func (s *PageStore) Fetch(ctx context.Context, path string) (model.PageConfig, error) {
	clean, err := pages.NormalizePath(path)
	if err != nil {
		return model.PageConfig{}, err
	}
	return fetch(ctx, s.db.DB, clean)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func fetch(ctx context.Context, q queryer, path string) (model.PageConfig, error) {
	var (
		page model.PageConfig
		raw  string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, resource_id, blocks, revision FROM pages WHERE path = ?`,
		path,
	).Scan(&page.ID, &page.ResourceID, &raw, &page.Revision)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PageConfig{}, fmt.Errorf("%w: %s", pages.ErrNotFound, path)
		}
		return model.PageConfig{}, fmt.Errorf("sqlite: fetch %s: %w", path, err)
	}
	if err := json.Unmarshal([]byte(raw), &page.Blocks); err != nil {
		return model.PageConfig{}, fmt.Errorf("sqlite: decode blocks of %s: %w", path, err)
	}
	if page.Blocks == nil {
		page.Blocks = []model.BlockConfig{}
	}
	return page, nil
}

// Patch implements pages.Store. The read, revision check and write share one
// immediate transaction, so concurrent patches against the same revision
// cannot both succeed.
func (s *PageStore) Patch(ctx context.Context, path string, patch model.PagePatch) (model.PageConfig, error) {
	clean, err := pages.NormalizePath(path)
	if err != nil {
		return model.PageConfig{}, err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.PageConfig{}, fmt.Errorf("sqlite: begin patch: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	current, err := fetch(ctx, tx, clean)
	exists := err == nil
	switch {
	case errors.Is(err, pages.ErrNotFound):
		if patch.Revision != 0 {
			return model.PageConfig{}, err
		}
		current = pages.NewPage(clean)
	case err != nil:
		return model.PageConfig{}, err
	}
	if err := pages.CheckRevision(current.Revision, patch); err != nil {
		return model.PageConfig{}, fmt.Errorf("%w: %s at %d, patch at %d", err, clean, current.Revision, patch.Revision)
	}

	next := patch.Apply(current)
	next.Revision = current.Revision + 1
	encoded, err := json.Marshal(next.Blocks)
	if err != nil {
		return model.PageConfig{}, fmt.Errorf("sqlite: encode blocks of %s: %w", clean, err)
	}

	if exists {
		_, err = tx.ExecContext(ctx,
			`UPDATE pages SET resource_id = ?, blocks = ?, revision = ?, updated_at = CURRENT_TIMESTAMP WHERE path = ?`,
			next.ResourceID, string(encoded), next.Revision, clean,
		)
	} else {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO pages (path, id, resource_id, blocks, revision) VALUES (?, ?, ?, ?, ?)`,
			clean, next.ID, next.ResourceID, string(encoded), next.Revision,
		)
	}
	if err != nil {
		return model.PageConfig{}, fmt.Errorf("sqlite: write %s: %w", clean, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO page_revisions (path, revision, resource_id, blocks) VALUES (?, ?, ?, ?)`,
		clean, next.Revision, next.ResourceID, string(encoded),
	)
	if err != nil {
		return model.PageConfig{}, fmt.Errorf("sqlite: record revision of %s: %w", clean, err)
	}
	if err := tx.Commit(); err != nil {
		return model.PageConfig{}, fmt.Errorf("sqlite: commit %s: %w", clean, err)
	}
	return next, nil
}

// List implements pages.Lister.
func (s *PageStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM pages ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: list pages: %w", err)
	}
	defer rows.Close()
	var paths []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("sqlite: scan path: %w", err)
		}
		paths = append(paths, path)
	}
	return paths, rows.Err()
}

// History lists the stored revisions of path, newest first.
func (s *PageStore) History(ctx context.Context, path string) ([]Revision, error) {
	clean, err := pages.NormalizePath(path)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT revision, created_at FROM page_revisions WHERE path = ? ORDER BY revision DESC`,
		clean,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: history %s: %w", clean, err)
	}
	defer rows.Close()
	var out []Revision
	for rows.Next() {
		var rev Revision
		if err := rows.Scan(&rev.Revision, &rev.CreatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan revision: %w", err)
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

// FetchRevision returns path as it was stored at revision.
func (s *PageStore) FetchRevision(ctx context.Context, path string, revision int64) (model.PageConfig, error) {
	clean, err := pages.NormalizePath(path)
	if err != nil {
		return model.PageConfig{}, err
	}
	page := model.PageConfig{ID: clean, Revision: revision}
	var raw string
	err = s.db.QueryRowContext(ctx,
		`SELECT resource_id, blocks FROM page_revisions WHERE path = ? AND revision = ?`,
		clean, revision,
	).Scan(&page.ResourceID, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.PageConfig{}, fmt.Errorf("%w: %s at revision %d", pages.ErrNotFound, clean, revision)
		}
		return model.PageConfig{}, fmt.Errorf("sqlite: fetch revision: %w", err)
	}
	if id, err := s.pageID(ctx, clean); err == nil {
		page.ID = id
	}
	if err := json.Unmarshal([]byte(raw), &page.Blocks); err != nil {
		return model.PageConfig{}, fmt.Errorf("sqlite: decode revision blocks: %w", err)
	}
	return page, nil
}

func (s *PageStore) pageID(ctx context.Context, path string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM pages WHERE path = ?`, path).Scan(&id)
	return id, err
}
