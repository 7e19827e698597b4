package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mzalewski/devclock/internal/domain"
	"github.com/mzalewski/devclock/internal/storage"
	"github.com/mzalewski/devclock/internal/timer"
)

// ChangeNotifier is told after every successful mutation so the realtime
// layer can push a fresh project-list snapshot to subscribed clients.
type ChangeNotifier interface {
	BroadcastProjects(ctx context.Context)
}

// ProjectService is the authority over project snapshots: it applies the
// timer transition table, closes segments into the stored counters,
// appends timeline entries, and enforces assignment rules.
type ProjectService struct {
	projects *storage.ProjectStore
	timeline *storage.TimelineStore
	logger   *slog.Logger

	notifier ChangeNotifier
	now      func() time.Time

	// Serializes timer transitions so two concurrent toggles cannot both
	// close the same open segment.
	mu sync.Mutex
}

func NewProjectService(projects *storage.ProjectStore, timeline *storage.TimelineStore, logger *slog.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		timeline: timeline,
		logger:   logger,
		now:      time.Now,
	}
}

// SetNotifier attaches the realtime broadcaster. Must be called before
// the service handles requests.
func (s *ProjectService) SetNotifier(n ChangeNotifier) { s.notifier = n }

// SetClock overrides the time source, for tests.
func (s *ProjectService) SetClock(now func() time.Time) { s.now = now }

// List returns every project, newest first. This is also the push-channel
// payload.
func (s *ProjectService) List(ctx context.Context) ([]domain.Project, error) {
	return s.projects.List(ctx)
}

// ListForUser returns the projects visible to u, newest first.
func (s *ProjectService) ListForUser(ctx context.Context, u *domain.User) ([]domain.Project, error) {
	all, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	if u.IsAdmin() {
		return all, nil
	}
	visible := []domain.Project{}
	for _, p := range all {
		if p.VisibleTo(u) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// ProjectedListForUser returns visible projects with the open segment
// folded into the counters, for one-shot reads that will not tick
// locally.
func (s *ProjectService) ProjectedListForUser(ctx context.Context, u *domain.User) ([]domain.Project, error) {
	projects, err := s.ListForUser(ctx, u)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range projects {
		proj := timer.FromProject(projects[i], now)
		projects[i].DevTimeSeconds = proj.DevTime
		projects[i].WaitTimeSeconds = proj.WaitTime
	}
	return projects, nil
}

// Get returns a single project snapshot.
func (s *ProjectService) Get(ctx context.Context, id string) (*domain.Project, error) {
	p, err := s.projects.Get(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrProjectNotFound
	}
	return p, err
}

// Create adds a project with both timers at zero. Admin only.
func (s *ProjectService) Create(ctx context.Context, name, description string, actor *domain.User) (*domain.Project, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	if exists, err := s.projects.ExistsByName(ctx, name); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrDuplicateName
	}

	now := s.now()
	p := &domain.Project{
		ID:           uuid.NewString(),
		Name:         name,
		Description:  description,
		CurrentState: domain.TimerStopped,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.projects.Create(ctx, p); err != nil {
		if errors.Is(err, storage.ErrDuplicateName) {
			return nil, ErrDuplicateName
		}
		return nil, err
	}

	s.appendEntry(ctx, p.ID, domain.EventProjectCreated, now, 0, actor.Username, "Project created")
	s.logger.Info("project created", "project", p.ID, "name", p.Name, "actor", actor.Username)
	s.broadcast(ctx)
	return p, nil
}

// UpdateDetails renames a project and/or replaces its description. Admin
// only; timer fields are untouched.
func (s *ProjectService) UpdateDetails(ctx context.Context, id, name, description string, actor *domain.User) (*domain.Project, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	name = strings.TrimSpace(name)
	description = strings.TrimSpace(description)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Name = name
	p.Description = description
	p.UpdatedAt = s.now()
	if err := s.updateProject(ctx, p); err != nil {
		return nil, err
	}

	s.broadcast(ctx)
	return p, nil
}

// Delete removes a project and its timeline. Admin only.
func (s *ProjectService) Delete(ctx context.Context, id string, actor *domain.User) error {
	if !actor.IsAdmin() {
		return ErrNotAdmin
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrProjectNotFound
		}
		return err
	}
	s.logger.Info("project deleted", "project", id, "actor", actor.Username)
	s.broadcast(ctx)
	return nil
}

// ApplyTimer runs one action through the transition table: it closes the
// open segment (folding its elapsed seconds into the stored counter and
// appending the matching STOP_* entry), moves to the next state, and
// stamps lastStateChange. Applying stop to a stopped project is a no-op.
func (s *ProjectService) ApplyTimer(ctx context.Context, id string, action domain.TimerAction, actor *domain.User) (*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.VisibleTo(actor) {
		return nil, ErrForbidden
	}

	next, err := domain.Transition(p.CurrentState, action)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if action == domain.ActionStop && p.CurrentState == domain.TimerStopped {
		return p, nil
	}

	now := s.now()

	if p.CurrentState != domain.TimerStopped && p.LastStateChange != nil {
		elapsed := int64(now.Sub(*p.LastStateChange) / time.Second)
		if elapsed < 0 {
			elapsed = 0
		}
		switch p.CurrentState {
		case domain.TimerDevActive:
			p.DevTimeSeconds += elapsed
			s.appendEntry(ctx, p.ID, domain.EventStopDev, now, elapsed, actor.Username, "Development work ended")
		case domain.TimerWaitActive:
			p.WaitTimeSeconds += elapsed
			s.appendEntry(ctx, p.ID, domain.EventStopWait, now, elapsed, actor.Username, "Customer wait ended")
		}
	}

	p.CurrentState = next
	p.LastStateChange = &now
	p.UpdatedAt = now
	if err := s.updateProject(ctx, p); err != nil {
		return nil, err
	}

	switch next {
	case domain.TimerDevActive:
		s.appendEntry(ctx, p.ID, domain.EventStartDev, now, 0, actor.Username, "Development work started")
	case domain.TimerWaitActive:
		s.appendEntry(ctx, p.ID, domain.EventStartWait, now, 0, actor.Username, "Customer wait started")
	case domain.TimerStopped:
		s.appendEntry(ctx, p.ID, domain.EventTimerStopped, now, 0, actor.Username, "All timers stopped")
	}

	s.logger.Info("timer transition", "project", p.ID, "action", string(action), "state", string(next), "actor", actor.Username)
	s.broadcast(ctx)
	return p, nil
}

// Assign gives the project to a single user, clearing assigned-to-all.
// Admin only.
func (s *ProjectService) Assign(ctx context.Context, id, username string, actor *domain.User) (*domain.Project, error) {
	if strings.TrimSpace(username) == "" {
		return nil, fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	return s.setAssignment(ctx, id, username, false, actor)
}

// AssignAll makes the project visible to every user, clearing any single
// assignee. Admin only.
func (s *ProjectService) AssignAll(ctx context.Context, id string, actor *domain.User) (*domain.Project, error) {
	return s.setAssignment(ctx, id, "", true, actor)
}

// Unassign clears both assignment fields, returning the project to
// admin-only visibility.
func (s *ProjectService) Unassign(ctx context.Context, id string, actor *domain.User) (*domain.Project, error) {
	return s.setAssignment(ctx, id, "", false, actor)
}

func (s *ProjectService) setAssignment(ctx context.Context, id, username string, toAll bool, actor *domain.User) (*domain.Project, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	// At most one of {specific user, all users} may hold at a time.
	p.AssignedUserUsername = username
	p.AssignedToAll = toAll
	p.UpdatedAt = s.now()
	if err := s.updateProject(ctx, p); err != nil {
		return nil, err
	}

	s.broadcast(ctx)
	return p, nil
}

// Timeline returns a project's event history, oldest first. Admin only.
// Projects created before timeline recording existed get a synthesized
// creation entry on first read.
func (s *ProjectService) Timeline(ctx context.Context, id string, actor *domain.User) ([]domain.TimelineEntry, error) {
	if !actor.IsAdmin() {
		return nil, ErrNotAdmin
	}
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.timeline.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		s.appendEntry(ctx, p.ID, domain.EventProjectCreated, p.CreatedAt, 0, "system", "Project created")
		return s.timeline.ListByProject(ctx, id)
	}
	return entries, nil
}

func (s *ProjectService) updateProject(ctx context.Context, p *domain.Project) error {
	err := s.projects.Update(ctx, p)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrProjectNotFound
	case errors.Is(err, storage.ErrDuplicateName):
		return ErrDuplicateName
	}
	return err
}

func (s *ProjectService) appendEntry(ctx context.Context, projectID string, eventType domain.TimelineEventType, ts time.Time, duration int64, username, description string) {
	entry := &domain.TimelineEntry{
		ID:              uuid.NewString(),
		ProjectID:       projectID,
		EventType:       eventType,
		Timestamp:       ts,
		DurationSeconds: duration,
		Username:        username,
		Description:     description,
	}
	if err := s.timeline.Append(ctx, entry); err != nil {
		// The snapshot mutation already landed; a lost history row is
		// logged, not surfaced.
		s.logger.Error("failed to append timeline entry", "project", projectID, "event", string(eventType), "error", err)
	}
}

func (s *ProjectService) broadcast(ctx context.Context) {
	if s.notifier != nil {
		s.notifier.BroadcastProjects(ctx)
	}
}
