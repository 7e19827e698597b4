package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mzalewski/devclock/internal/domain"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testProject(id, name string, createdAt time.Time) *domain.Project {
	return &domain.Project{
		ID:           id,
		Name:         name,
		Description:  "description of " + name,
		CurrentState: domain.TimerStopped,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	}
}

func TestProjectStore_CreateAndGet(t *testing.T) {
	db := newTestDB(t)
	store := NewProjectStore(db)
	ctx := context.Background()

	now := time.Now().UTC()
	last := now.Add(-time.Minute)
	p := testProject("p1", "Billing", now)
	p.DevTimeSeconds = 120
	p.WaitTimeSeconds = 30
	p.CurrentState = domain.TimerDevActive
	p.LastStateChange = &last
	p.AssignedUserUsername = "alice"

	require.NoError(t, store.Create(ctx, p))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, p.Name, got.Name)
	require.Equal(t, p.Description, got.Description)
	require.Equal(t, int64(120), got.DevTimeSeconds)
	require.Equal(t, int64(30), got.WaitTimeSeconds)
	require.Equal(t, domain.TimerDevActive, got.CurrentState)
	require.NotNil(t, got.LastStateChange)
	require.WithinDuration(t, last, *got.LastStateChange, time.Second)
	require.Equal(t, "alice", got.AssignedUserUsername)
	require.False(t, got.AssignedToAll)
}

func TestProjectStore_GetNotFound(t *testing.T) {
	db := newTestDB(t)
	store := NewProjectStore(db)

	_, err := store.Get(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProjectStore_NullableFields(t *testing.T) {
	db := newTestDB(t)
	store := NewProjectStore(db)
	ctx := context.Background()

	p := testProject("p1", "Fresh", time.Now().UTC())
	require.NoError(t, store.Create(ctx, p))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.Nil(t, got.LastStateChange)
	require.Empty(t, got.AssignedUserUsername)
}

func TestProjectStore_ListOrderedByCreatedAtDesc(t *testing.T) {
	db := newTestDB(t)
	store := NewProjectStore(db)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, store.Create(ctx, testProject("old", "Old", base.Add(-2*time.Hour))))
	require.NoError(t, store.Create(ctx, testProject("new", "New", base)))
	require.NoError(t, store.Create(ctx, testProject("mid", "Mid", base.Add(-time.Hour))))

	projects, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, projects, 3)
	require.Equal(t, "new", projects[0].ID)
	require.Equal(t, "mid", projects[1].ID)
	require.Equal(t, "old", projects[2].ID)
}

func TestProjectStore_DuplicateName(t *testing.T) {
	db := newTestDB(t)
	store := NewProjectStore(db)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, testProject("p1", "Billing", time.Now().UTC())))
	err := store.Create(ctx, testProject("p2", "Billing", time.Now().UTC()))
	require.ErrorIs(t, err, ErrDuplicateName)

	exists, err := store.ExistsByName(ctx, "Billing")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = store.ExistsByName(ctx, "Other")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestProjectStore_Update(t *testing.T) {
	db := newTestDB(t)
	store := NewProjectStore(db)
	ctx := context.Background()

	p := testProject("p1", "Billing", time.Now().UTC())
	require.NoError(t, store.Create(ctx, p))

	now := time.Now().UTC()
	p.CurrentState = domain.TimerWaitActive
	p.LastStateChange = &now
	p.WaitTimeSeconds = 99
	p.AssignedToAll = true
	p.UpdatedAt = now
	require.NoError(t, store.Update(ctx, p))

	got, err := store.Get(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, domain.TimerWaitActive, got.CurrentState)
	require.Equal(t, int64(99), got.WaitTimeSeconds)
	require.True(t, got.AssignedToAll)

	missing := testProject("nope", "Nope", now)
	require.ErrorIs(t, store.Update(ctx, missing), ErrNotFound)
}

func TestProjectStore_DeleteCascadesTimeline(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectStore(db)
	timeline := NewTimelineStore(db)
	ctx := context.Background()

	p := testProject("p1", "Billing", time.Now().UTC())
	require.NoError(t, projects.Create(ctx, p))
	require.NoError(t, timeline.Append(ctx, &domain.TimelineEntry{
		ID:        "e1",
		ProjectID: "p1",
		EventType: domain.EventProjectCreated,
		Timestamp: time.Now().UTC(),
		Username:  "admin",
	}))

	require.NoError(t, projects.Delete(ctx, "p1"))
	require.ErrorIs(t, projects.Delete(ctx, "p1"), ErrNotFound)

	entries, err := timeline.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestTimelineStore_OrderedByTimestamp(t *testing.T) {
	db := newTestDB(t)
	projects := NewProjectStore(db)
	timeline := NewTimelineStore(db)
	ctx := context.Background()

	base := time.Now().UTC()
	require.NoError(t, projects.Create(ctx, testProject("p1", "Billing", base)))

	entries := []domain.TimelineEntry{
		{ID: "e2", ProjectID: "p1", EventType: domain.EventStartDev, Timestamp: base.Add(time.Minute), Username: "admin"},
		{ID: "e1", ProjectID: "p1", EventType: domain.EventProjectCreated, Timestamp: base, Username: "admin"},
		{ID: "e3", ProjectID: "p1", EventType: domain.EventStopDev, Timestamp: base.Add(2 * time.Minute), DurationSeconds: 60, Username: "admin"},
	}
	for i := range entries {
		require.NoError(t, timeline.Append(ctx, &entries[i]))
	}

	got, err := timeline.ListByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, "e1", got[0].ID)
	require.Equal(t, "e2", got[1].ID)
	require.Equal(t, "e3", got[2].ID)
	require.Equal(t, int64(60), got[2].DurationSeconds)
}
