package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/mzalewski/devclock/internal/domain"
	"github.com/mzalewski/devclock/internal/storage"
	"github.com/mzalewski/devclock/internal/timer"
)

var (
	adminUser = &domain.User{Username: "admin", Role: domain.RoleAdmin}
	aliceUser = &domain.User{Username: "alice", Role: domain.RoleUser}
	bobUser   = &domain.User{Username: "bob", Role: domain.RoleUser}
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
func (c *fakeClock) Set(t time.Time)         { c.t = t }

type countingNotifier struct {
	calls int
}

func (n *countingNotifier) BroadcastProjects(ctx context.Context) { n.calls++ }

func newTestService(t *testing.T) (*ProjectService, *fakeClock, *countingNotifier) {
	t.Helper()
	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := NewProjectService(storage.NewProjectStore(db), storage.NewTimelineStore(db), logger)

	clock := &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
	svc.SetClock(clock.Now)

	notifier := &countingNotifier{}
	svc.SetNotifier(notifier)
	return svc, clock, notifier
}

func TestCreate_RequiresAdmin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Billing", "Billing rework", aliceUser); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("err = %v, want ErrNotAdmin", err)
	}

	p, err := svc.Create(ctx, "Billing", "Billing rework", adminUser)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.CurrentState != domain.TimerStopped {
		t.Errorf("new project state = %s, want STOPPED", p.CurrentState)
	}
	if p.DevTimeSeconds != 0 || p.WaitTimeSeconds != 0 {
		t.Errorf("new project counters = %d/%d, want 0/0", p.DevTimeSeconds, p.WaitTimeSeconds)
	}
	if p.LastStateChange != nil {
		t.Error("new project should have no lastStateChange")
	}
}

func TestCreate_RejectsDuplicateName(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "Billing", "first", adminUser); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(ctx, "Billing", "second", adminUser); !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("err = %v, want ErrDuplicateName", err)
	}
}

func TestApplyTimer_EndToEndScenario(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()
	t0 := clock.Now()

	p, err := svc.Create(ctx, "Billing", "desc", adminUser)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// startDev at t0+5s.
	clock.Set(t0.Add(5 * time.Second))
	p, err = svc.ApplyTimer(ctx, p.ID, domain.ActionStartDev, adminUser)
	if err != nil {
		t.Fatalf("startDev: %v", err)
	}
	if p.CurrentState != domain.TimerDevActive {
		t.Fatalf("state = %s, want DEV_ACTIVE", p.CurrentState)
	}

	// Projection at t0+65s: 60s of dev, no wait.
	proj := timer.FromProject(*p, t0.Add(65*time.Second))
	if proj.DevTime != 60 || proj.WaitTime != 0 {
		t.Fatalf("projection = %d/%d, want 60/0", proj.DevTime, proj.WaitTime)
	}

	// startWait at t0+65s closes dev at 60s and opens wait.
	clock.Set(t0.Add(65 * time.Second))
	p, err = svc.ApplyTimer(ctx, p.ID, domain.ActionStartWait, adminUser)
	if err != nil {
		t.Fatalf("startWait: %v", err)
	}
	if p.CurrentState != domain.TimerWaitActive {
		t.Fatalf("state = %s, want WAIT_ACTIVE", p.CurrentState)
	}
	if p.DevTimeSeconds != 60 {
		t.Fatalf("devTimeSeconds = %d, want 60 (closed segment)", p.DevTimeSeconds)
	}
	if p.WaitTimeSeconds != 0 {
		t.Fatalf("waitTimeSeconds = %d, want 0 (segment still open)", p.WaitTimeSeconds)
	}

	// Projection at t0+125s: dev frozen at 60, wait at 60.
	proj = timer.FromProject(*p, t0.Add(125*time.Second))
	if proj.DevTime != 60 || proj.WaitTime != 60 {
		t.Fatalf("projection = %d/%d, want 60/60", proj.DevTime, proj.WaitTime)
	}
}

func TestApplyTimer_StopIsIdempotentOnStopped(t *testing.T) {
	svc, clock, notifier := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Billing", "desc", adminUser)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	broadcastsBefore := notifier.calls

	clock.Advance(time.Minute)
	got, err := svc.ApplyTimer(ctx, p.ID, domain.ActionStop, adminUser)
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got.CurrentState != domain.TimerStopped {
		t.Fatalf("state = %s, want STOPPED", got.CurrentState)
	}
	if got.LastStateChange != nil {
		t.Error("stop on stopped project must not stamp lastStateChange")
	}
	if got.DevTimeSeconds != 0 || got.WaitTimeSeconds != 0 {
		t.Error("stop on stopped project must not change counters")
	}
	if notifier.calls != broadcastsBefore {
		t.Error("no-op stop must not broadcast")
	}

	entries, err := svc.Timeline(ctx, p.ID, adminUser)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(entries) != 1 || entries[0].EventType != domain.EventProjectCreated {
		t.Fatalf("timeline after no-op stop = %v, want only PROJECT_CREATED", entries)
	}
}

func TestApplyTimer_RepeatedDevTogglesToStopped(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "Billing", "desc", adminUser)
	if _, err := svc.ApplyTimer(ctx, p.ID, domain.ActionStartDev, adminUser); err != nil {
		t.Fatalf("startDev: %v", err)
	}

	clock.Advance(30 * time.Second)
	got, err := svc.ApplyTimer(ctx, p.ID, domain.ActionStartDev, adminUser)
	if err != nil {
		t.Fatalf("second startDev: %v", err)
	}
	if got.CurrentState != domain.TimerStopped {
		t.Fatalf("state = %s, want STOPPED (dev press while dev active maps to stop)", got.CurrentState)
	}
	if got.DevTimeSeconds != 30 {
		t.Fatalf("devTimeSeconds = %d, want 30", got.DevTimeSeconds)
	}
}

func TestApplyTimer_TimelineRecordsSegments(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "Billing", "desc", adminUser)
	_, _ = svc.ApplyTimer(ctx, p.ID, domain.ActionStartDev, adminUser)
	clock.Advance(45 * time.Second)
	_, _ = svc.ApplyTimer(ctx, p.ID, domain.ActionStartWait, adminUser)
	clock.Advance(15 * time.Second)
	if _, err := svc.ApplyTimer(ctx, p.ID, domain.ActionStop, adminUser); err != nil {
		t.Fatalf("stop: %v", err)
	}

	entries, err := svc.Timeline(ctx, p.ID, adminUser)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}

	wantTypes := []domain.TimelineEventType{
		domain.EventProjectCreated,
		domain.EventStartDev,
		domain.EventStopDev,
		domain.EventStartWait,
		domain.EventStopWait,
		domain.EventTimerStopped,
	}
	if len(entries) != len(wantTypes) {
		t.Fatalf("timeline length = %d, want %d", len(entries), len(wantTypes))
	}
	for i, want := range wantTypes {
		if entries[i].EventType != want {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].EventType, want)
		}
	}

	// Closed durations sum to the stored counters.
	var closed int64
	for _, e := range entries {
		closed += e.DurationSeconds
	}
	got, _ := svc.Get(ctx, p.ID)
	if closed != got.DevTimeSeconds+got.WaitTimeSeconds {
		t.Errorf("closed durations = %d, counters = %d", closed, got.DevTimeSeconds+got.WaitTimeSeconds)
	}
	if got.DevTimeSeconds != 45 || got.WaitTimeSeconds != 15 {
		t.Errorf("counters = %d/%d, want 45/15", got.DevTimeSeconds, got.WaitTimeSeconds)
	}
}

func TestApplyTimer_VisibilityEnforced(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "Billing", "desc", adminUser)
	if _, err := svc.Assign(ctx, p.ID, "bob", adminUser); err != nil {
		t.Fatalf("assign: %v", err)
	}

	if _, err := svc.ApplyTimer(ctx, p.ID, domain.ActionStartDev, aliceUser); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if _, err := svc.ApplyTimer(ctx, p.ID, domain.ActionStartDev, bobUser); err != nil {
		t.Fatalf("assignee toggle: %v", err)
	}
}

func TestAssignmentExclusivity(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "Billing", "desc", adminUser)

	got, err := svc.Assign(ctx, p.ID, "alice", adminUser)
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got.AssignedUserUsername != "alice" || got.AssignedToAll {
		t.Fatalf("after assign: %q/%v, want alice/false", got.AssignedUserUsername, got.AssignedToAll)
	}

	got, err = svc.AssignAll(ctx, p.ID, adminUser)
	if err != nil {
		t.Fatalf("assign-all: %v", err)
	}
	if got.AssignedUserUsername != "" || !got.AssignedToAll {
		t.Fatalf("after assign-all: %q/%v, want empty/true", got.AssignedUserUsername, got.AssignedToAll)
	}

	got, err = svc.Unassign(ctx, p.ID, adminUser)
	if err != nil {
		t.Fatalf("unassign: %v", err)
	}
	if got.AssignedUserUsername != "" || got.AssignedToAll {
		t.Fatalf("after unassign: %q/%v, want empty/false", got.AssignedUserUsername, got.AssignedToAll)
	}

	if _, err := svc.Assign(ctx, p.ID, "alice", aliceUser); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("non-admin assign err = %v, want ErrNotAdmin", err)
	}
}

func TestListForUser_FiltersByAssignment(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	forBob, _ := svc.Create(ctx, "Bob's", "desc", adminUser)
	forAll, _ := svc.Create(ctx, "Everyone's", "desc", adminUser)
	_, _ = svc.Create(ctx, "Unassigned", "desc", adminUser)
	_, _ = svc.Assign(ctx, forBob.ID, "bob", adminUser)
	_, _ = svc.AssignAll(ctx, forAll.ID, adminUser)

	adminList, err := svc.ListForUser(ctx, adminUser)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(adminList) != 3 {
		t.Fatalf("admin sees %d projects, want 3", len(adminList))
	}

	aliceList, err := svc.ListForUser(ctx, aliceUser)
	if err != nil {
		t.Fatalf("alice list: %v", err)
	}
	if len(aliceList) != 1 || aliceList[0].ID != forAll.ID {
		t.Fatalf("alice sees %v, want only the assigned-to-all project", aliceList)
	}

	bobList, err := svc.ListForUser(ctx, bobUser)
	if err != nil {
		t.Fatalf("bob list: %v", err)
	}
	if len(bobList) != 2 {
		t.Fatalf("bob sees %d projects, want 2", len(bobList))
	}
}

func TestProjectedListForUser_FoldsOpenSegment(t *testing.T) {
	svc, clock, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "Billing", "desc", adminUser)
	_, _ = svc.ApplyTimer(ctx, p.ID, domain.ActionStartDev, adminUser)

	clock.Advance(90 * time.Second)
	projected, err := svc.ProjectedListForUser(ctx, adminUser)
	if err != nil {
		t.Fatalf("projected list: %v", err)
	}
	if len(projected) != 1 {
		t.Fatalf("projected length = %d", len(projected))
	}
	if projected[0].DevTimeSeconds != 90 {
		t.Errorf("projected devTimeSeconds = %d, want 90", projected[0].DevTimeSeconds)
	}

	// The stored snapshot is untouched.
	stored, _ := svc.Get(ctx, p.ID)
	if stored.DevTimeSeconds != 0 {
		t.Errorf("stored devTimeSeconds = %d, want 0", stored.DevTimeSeconds)
	}
}

func TestTimeline_AdminOnlyAndBackfill(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "Billing", "desc", adminUser)
	if _, err := svc.Timeline(ctx, p.ID, aliceUser); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("err = %v, want ErrNotAdmin", err)
	}

	entries, err := svc.Timeline(ctx, p.ID, adminUser)
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if len(entries) != 1 || entries[0].EventType != domain.EventProjectCreated {
		t.Fatalf("timeline = %v, want single PROJECT_CREATED entry", entries)
	}
}

func TestDelete_RequiresAdminAndBroadcasts(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	p, _ := svc.Create(ctx, "Billing", "desc", adminUser)
	if err := svc.Delete(ctx, p.ID, aliceUser); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("err = %v, want ErrNotAdmin", err)
	}

	before := notifier.calls
	if err := svc.Delete(ctx, p.ID, adminUser); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if notifier.calls != before+1 {
		t.Error("delete must broadcast the new project list")
	}
	if err := svc.Delete(ctx, p.ID, adminUser); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("err = %v, want ErrProjectNotFound", err)
	}
}
