// internal/store/projects.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Project is a registered codebase that documentation is generated for.
type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	RepoPath    string `json:"repo_path,omitempty"`
}

// ProjectUpdate carries a partial update; nil fields are left unchanged.
type ProjectUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	RepoPath    *string `json:"repo_path"`
}

// CreateProject inserts a project and returns it with a fresh ID.
func (s *Store) CreateProject(ctx context.Context, p Project) (*Project, error) {
	p.ID = uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, repo_path) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.RepoPath)
	if err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}
	return &p, nil
}

// GetProject loads one project by ID.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	var p Project
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, repo_path FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.Name, &p.Description, &p.RepoPath)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}
	return &p, nil
}

// ListProjects returns all projects.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, repo_path FROM projects ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	out := []Project{}
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.RepoPath); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdateProject applies a partial update and returns the new state.
func (s *Store) UpdateProject(ctx context.Context, id string, upd ProjectUpdate) (*Project, error) {
	p, err := s.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Description != nil {
		p.Description = *upd.Description
	}
	if upd.RepoPath != nil {
		p.RepoPath = *upd.RepoPath
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, description = ?, repo_path = ? WHERE id = ?`,
		p.Name, p.Description, p.RepoPath, id)
	if err != nil {
		return nil, fmt.Errorf("updating project: %w", err)
	}
	return p, nil
}

// DeleteProject removes a project; its pages, code samples and doc pages go
// with it via foreign key cascade.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	return nil
}
