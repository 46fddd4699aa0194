package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrProjectNotFound is returned when no project has the requested id.
	ErrProjectNotFound = errors.New("store: project not found")

	// ErrInvalidProject is returned when a project has no title.
	ErrInvalidProject = errors.New("store: project title is required")
)

// Project groups the presentations of one talk across rehearsals.
// SessionCount and AverageScore are computed on read.
type Project struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"created_at"`
	SessionCount int       `json:"session_count"`
	AverageScore float64   `json:"average_score"`
}

const selectProjects = `
	SELECT p.id, p.title, p.description, p.createdAt,
		COUNT(pr.id), COALESCE(AVG(pr.overallScore), 0)
	FROM projects p
	LEFT JOIN presentations pr ON pr.projectId = p.id
`

// CreateProject inserts p, assigning its ID and creation time.
func (s *Store) CreateProject(ctx context.Context, p *Project) error {
	p.Title = strings.TrimSpace(p.Title)
	if p.Title == "" {
		return ErrInvalidProject
	}
	p.ID = uuid.NewString()
	p.CreatedAt = time.Now()
	p.SessionCount = 0
	p.AverageScore = 0

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, title, description, createdAt) VALUES (?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, unixFromTime(p.CreatedAt))
	if err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

// GetProject returns the project with id and its statistics.
func (s *Store) GetProject(ctx context.Context, id string) (*Project, error) {
	row := s.db.QueryRowContext(ctx, selectProjects+` WHERE p.id = ? GROUP BY p.id`, id)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return p, err
}

// ListProjects returns every project, newest first.
func (s *Store) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, selectProjects+` GROUP BY p.id ORDER BY p.createdAt DESC`)
	if err != nil {
		return nil, fmt.Errorf("query projects: %w", err)
	}
	defer rows.Close()

	projects := []Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateProject replaces the title and description of project id.
func (s *Store) UpdateProject(ctx context.Context, id, title, description string) (*Project, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrInvalidProject
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET title = ?, description = ? WHERE id = ?`, title, description, id)
	if err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	return s.GetProject(ctx, id)
}

// DeleteProject removes project id together with its presentations.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM presentations WHERE projectId = ?`, id); err != nil {
		return fmt.Errorf("delete project presentations: %w", err)
	}
	return tx.Commit()
}

func scanProject(row scanner) (*Project, error) {
	var p Project
	var createdAt float64
	if err := row.Scan(&p.ID, &p.Title, &p.Description, &createdAt,
		&p.SessionCount, &p.AverageScore); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan project: %w", err)
	}
	p.CreatedAt = timeFromUnix(createdAt)
	p.AverageScore = round1(p.AverageScore)
	return &p, nil
}
