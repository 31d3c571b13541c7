// internal/store/doc_pages.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// DocPage is a generated documentation document attached to a project.
type DocPage struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// DocPageListItem is the trimmed shape list endpoints return.
type DocPageListItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// DocPageUpdate carries a partial update; nil fields are left unchanged.
type DocPageUpdate struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// CreateDocPage inserts a doc page. The referenced project must exist.
func (s *Store) CreateDocPage(ctx context.Context, d DocPage) (*DocPage, error) {
	d.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO doc_pages (id, project_id, title, content) VALUES (?, ?, ?, ?)`,
		d.ID, d.ProjectID, d.Title, d.Content)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return nil, fmt.Errorf("project %s: %w", d.ProjectID, ErrNotFound)
		}
		return nil, fmt.Errorf("creating doc page: %w", err)
	}
	return &d, nil
}

// GetDocPage loads one doc page by ID.
func (s *Store) GetDocPage(ctx context.Context, id string) (*DocPage, error) {
	var d DocPage
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, title, content FROM doc_pages WHERE id = ?`, id).
		Scan(&d.ID, &d.ProjectID, &d.Title, &d.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("doc page %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading doc page: %w", err)
	}
	return &d, nil
}

// ListDocPages returns trimmed items for a project.
func (s *Store) ListDocPages(ctx context.Context, projectID string) ([]DocPageListItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title FROM doc_pages WHERE project_id = ? ORDER BY title`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing doc pages: %w", err)
	}
	defer rows.Close()

	out := []DocPageListItem{}
	for rows.Next() {
		var it DocPageListItem
		if err := rows.Scan(&it.ID, &it.Title); err != nil {
			return nil, fmt.Errorf("scanning doc page: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateDocPage applies a partial update and returns the new state.
func (s *Store) UpdateDocPage(ctx context.Context, id string, upd DocPageUpdate) (*DocPage, error) {
	d, err := s.GetDocPage(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		d.Title = *upd.Title
	}
	if upd.Content != nil {
		d.Content = *upd.Content
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE doc_pages SET title = ?, content = ? WHERE id = ?`, d.Title, d.Content, id)
	if err != nil {
		return nil, fmt.Errorf("updating doc page: %w", err)
	}
	return d, nil
}

// DeleteDocPage removes a doc page by ID.
func (s *Store) DeleteDocPage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM doc_pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting doc page: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("doc page %s: %w", id, ErrNotFound)
	}
	return nil
}
