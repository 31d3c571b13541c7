// internal/store/pages.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrDuplicatePage means a page with the same (project, name) already exists.
var ErrDuplicatePage = errors.New("duplicate page name for project")

// Page is a named document attached to a project. Page names are unique
// within a project and pages are looked up by that composite key.
type Page struct {
	ID        string `json:"id"`
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// PageUpdate carries a partial update; nil fields are left unchanged.
type PageUpdate struct {
	Content *string `json:"content"`
}

// CreatePage inserts a page. The referenced project must exist.
func (s *Store) CreatePage(ctx context.Context, p Page) (*Page, error) {
	p.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (id, project_id, name, title, content) VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.ProjectID, p.Name, p.Title, p.Content)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, fmt.Errorf("page %q in project %s: %w", p.Name, p.ProjectID, ErrDuplicatePage)
		}
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return nil, fmt.Errorf("project %s: %w", p.ProjectID, ErrNotFound)
		}
		return nil, fmt.Errorf("creating page: %w", err)
	}
	return &p, nil
}

// GetPageByProjectAndName looks a page up by its composite key.
func (s *Store) GetPageByProjectAndName(ctx context.Context, projectID, name string) (*Page, error) {
	var p Page
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, title, content FROM pages WHERE project_id = ? AND name = ?`,
		projectID, name).
		Scan(&p.ID, &p.ProjectID, &p.Name, &p.Title, &p.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %q in project %s: %w", name, projectID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading page: %w", err)
	}
	return &p, nil
}

// UpdatePage applies a partial update by ID and returns the new state.
func (s *Store) UpdatePage(ctx context.Context, id string, upd PageUpdate) (*Page, error) {
	var p Page
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, title, content FROM pages WHERE id = ?`, id).
		Scan(&p.ID, &p.ProjectID, &p.Name, &p.Title, &p.Content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading page: %w", err)
	}
	if upd.Content != nil {
		p.Content = *upd.Content
	}
	if _, err := s.db.ExecContext(ctx,
		`UPDATE pages SET content = ? WHERE id = ?`, p.Content, id); err != nil {
		return nil, fmt.Errorf("updating page: %w", err)
	}
	return &p, nil
}

// DeletePage removes a page by ID.
func (s *Store) DeletePage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM pages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting page: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("page %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListPages returns all pages for a project.
func (s *Store) ListPages(ctx context.Context, projectID string) ([]Page, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, title, content FROM pages WHERE project_id = ? ORDER BY name`,
		projectID)
	if err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	defer rows.Close()

	out := []Page{}
	for rows.Next() {
		var p Page
		if err := rows.Scan(&p.ID, &p.ProjectID, &p.Name, &p.Title, &p.Content); err != nil {
			return nil, fmt.Errorf("scanning page: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
