package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mzalewski/devclock/internal/domain"
)

// ProjectStore persists project snapshots.
type ProjectStore struct {
	db *DB
}

func NewProjectStore(db *DB) *ProjectStore {
	return &ProjectStore{db: db}
}

const projectColumns = `id, name, description, dev_time_seconds, wait_time_seconds,
	current_state, last_state_change, assigned_user_username, assigned_to_all,
	created_at, updated_at`

// Create inserts a new project.
func (s *ProjectStore) Create(ctx context.Context, p *domain.Project) error {
	query := `
		INSERT INTO projects (` + projectColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		p.ID,
		p.Name,
		p.Description,
		p.DevTimeSeconds,
		p.WaitTimeSeconds,
		string(p.CurrentState),
		nullableTime(p.LastStateChange),
		nullableString(p.AssignedUserUsername),
		p.AssignedToAll,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// Get retrieves a project by ID.
func (s *ProjectStore) Get(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = ?`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id))
}

// List returns all projects ordered by creation time, newest first. This
// is the default ordering of the project list when no search is active.
func (s *ProjectStore) List(ctx context.Context) ([]domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects ORDER BY created_at DESC, id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []domain.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// Update writes a full project row.
func (s *ProjectStore) Update(ctx context.Context, p *domain.Project) error {
	query := `
		UPDATE projects
		SET name = ?, description = ?, dev_time_seconds = ?, wait_time_seconds = ?,
			current_state = ?, last_state_change = ?, assigned_user_username = ?,
			assigned_to_all = ?, updated_at = ?
		WHERE id = ?
	`

	res, err := s.db.ExecContext(ctx, query,
		p.Name,
		p.Description,
		p.DevTimeSeconds,
		p.WaitTimeSeconds,
		string(p.CurrentState),
		nullableTime(p.LastStateChange),
		nullableString(p.AssignedUserUsername),
		p.AssignedToAll,
		p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateName
		}
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a project; its timeline entries go with it.
func (s *ProjectStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// ExistsByName reports whether any project has the given name.
func (s *ProjectStore) ExistsByName(ctx context.Context, name string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM projects WHERE name = ?`, name).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check project name: %w", err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *ProjectStore) scanOne(row rowScanner) (*domain.Project, error) {
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return p, err
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var (
		p        domain.Project
		state    string
		last     sql.NullTime
		assigned sql.NullString
	)
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.DevTimeSeconds,
		&p.WaitTimeSeconds,
		&state,
		&last,
		&assigned,
		&p.AssignedToAll,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}

	p.CurrentState = domain.TimerState(state)
	if last.Valid {
		t := last.Time
		p.LastStateChange = &t
	}
	if assigned.Valid {
		p.AssignedUserUsername = assigned.String
	}
	return &p, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
