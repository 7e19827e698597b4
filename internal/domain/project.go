package domain

import "time"

// Project is the server-owned snapshot of a tracked project.
// DevTimeSeconds and WaitTimeSeconds hold closed segments only, as of
// LastStateChange; the open segment (if any) is added by the projector at
// display time.
type Project struct {
	ID                   string
	Name                 string
	Description          string
	DevTimeSeconds       int64
	WaitTimeSeconds      int64
	CurrentState         TimerState
	LastStateChange      *time.Time
	AssignedUserUsername string
	AssignedToAll        bool
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// VisibleTo reports whether u may see and act on p. Admins see every
// project; others only projects assigned to all users or to them.
func (p *Project) VisibleTo(u *User) bool {
	if u.IsAdmin() {
		return true
	}
	return p.AssignedToAll || (p.AssignedUserUsername != "" && p.AssignedUserUsername == u.Username)
}

type TimelineEventType string

const (
	EventProjectCreated TimelineEventType = "PROJECT_CREATED"
	EventStartDev       TimelineEventType = "START_DEV"
	EventStopDev        TimelineEventType = "STOP_DEV"
	EventStartWait      TimelineEventType = "START_WAIT"
	EventStopWait       TimelineEventType = "STOP_WAIT"
	EventTimerStopped   TimelineEventType = "TIMER_STOPPED"
)

// TimelineEntry is an append-only record of a timer transition.
// DurationSeconds is the number of seconds closed out by the event, zero
// for creation and start events.
type TimelineEntry struct {
	ID              string
	ProjectID       string
	EventType       TimelineEventType
	Timestamp       time.Time
	DurationSeconds int64
	Username        string
	Description     string
}
