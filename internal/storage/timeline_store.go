package storage

import (
	"context"
	"fmt"

	"github.com/mzalewski/devclock/internal/domain"
)

// TimelineStore persists the append-only timeline. Entries are never
// updated or deleted individually; they only disappear when their project
// is deleted.
type TimelineStore struct {
	db *DB
}

func NewTimelineStore(db *DB) *TimelineStore {
	return &TimelineStore{db: db}
}

// Append writes a timeline entry.
func (s *TimelineStore) Append(ctx context.Context, e *domain.TimelineEntry) error {
	query := `
		INSERT INTO timeline_entries (id, project_id, event_type, timestamp, duration_seconds, username, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.ProjectID,
		string(e.EventType),
		e.Timestamp,
		e.DurationSeconds,
		e.Username,
		e.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to append timeline entry: %w", err)
	}
	return nil
}

// ListByProject returns a project's timeline ordered by timestamp
// ascending.
func (s *TimelineStore) ListByProject(ctx context.Context, projectID string) ([]domain.TimelineEntry, error) {
	query := `
		SELECT id, project_id, event_type, timestamp, duration_seconds, username, description
		FROM timeline_entries
		WHERE project_id = ?
		ORDER BY timestamp ASC, id
	`

	rows, err := s.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list timeline entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.TimelineEntry{}
	for rows.Next() {
		var (
			e         domain.TimelineEntry
			eventType string
		)
		err := rows.Scan(&e.ID, &e.ProjectID, &eventType, &e.Timestamp, &e.DurationSeconds, &e.Username, &e.Description)
		if err != nil {
			return nil, fmt.Errorf("failed to scan timeline entry: %w", err)
		}
		e.EventType = domain.TimelineEventType(eventType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
