// internal/store/code_samples.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// CodeSample is a snippet attached to a project.
type CodeSample struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	Language    string `json:"language"`
	Description string `json:"description"`
	CodeString  string `json:"code_string"`
}

// CodeSampleListItem is the trimmed shape list endpoints return.
type CodeSampleListItem struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CodeSampleUpdate carries a partial update; nil fields are left unchanged.
type CodeSampleUpdate struct {
	Title       *string `json:"title"`
	Language    *string `json:"language"`
	Description *string `json:"description"`
	CodeString  *string `json:"code_string"`
}

// CreateCodeSample inserts a sample. The referenced project must exist.
func (s *Store) CreateCodeSample(ctx context.Context, c CodeSample) (*CodeSample, error) {
	c.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO code_samples (id, project_id, title, language, description, code_string)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.ProjectID, c.Title, c.Language, c.Description, c.CodeString)
	if err != nil {
		if strings.Contains(err.Error(), "FOREIGN KEY") {
			return nil, fmt.Errorf("project %s: %w", c.ProjectID, ErrNotFound)
		}
		return nil, fmt.Errorf("creating code sample: %w", err)
	}
	return &c, nil
}

// GetCodeSample loads one sample by ID.
func (s *Store) GetCodeSample(ctx context.Context, id string) (*CodeSample, error) {
	var c CodeSample
	err := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, title, language, description, code_string
		 FROM code_samples WHERE id = ?`, id).
		Scan(&c.ID, &c.ProjectID, &c.Title, &c.Language, &c.Description, &c.CodeString)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("code sample %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading code sample: %w", err)
	}
	return &c, nil
}

// ListCodeSamples returns trimmed items for a project.
func (s *Store) ListCodeSamples(ctx context.Context, projectID string) ([]CodeSampleListItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title FROM code_samples WHERE project_id = ? ORDER BY title`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing code samples: %w", err)
	}
	defer rows.Close()

	out := []CodeSampleListItem{}
	for rows.Next() {
		var it CodeSampleListItem
		if err := rows.Scan(&it.ID, &it.Title); err != nil {
			return nil, fmt.Errorf("scanning code sample: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// UpdateCodeSample applies a partial update and returns the new state.
func (s *Store) UpdateCodeSample(ctx context.Context, id string, upd CodeSampleUpdate) (*CodeSample, error) {
	c, err := s.GetCodeSample(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Title != nil {
		c.Title = *upd.Title
	}
	if upd.Language != nil {
		c.Language = *upd.Language
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	if upd.CodeString != nil {
		c.CodeString = *upd.CodeString
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE code_samples SET title = ?, language = ?, description = ?, code_string = ? WHERE id = ?`,
		c.Title, c.Language, c.Description, c.CodeString, id)
	if err != nil {
		return nil, fmt.Errorf("updating code sample: %w", err)
	}
	return c, nil
}

// DeleteCodeSample removes a sample by ID.
func (s *Store) DeleteCodeSample(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM code_samples WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting code sample: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("code sample %s: %w", id, ErrNotFound)
	}
	return nil
}
