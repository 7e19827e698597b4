// Package timer computes live elapsed-time projections from project
// snapshots. The stored counters only ever reflect closed segments, so a
// running timer is displayed as counter + floor(now - lastStateChange).
package timer

import (
	"fmt"
	"time"

	"github.com/mzalewski/devclock/internal/domain"
	"github.com/mzalewski/devclock/pkg/api"
)

// Projection is the live dev/wait view of a snapshot at a given instant,
// in whole seconds.
type Projection struct {
	DevTime  int64
	WaitTime int64
}

// Project returns the projection of the given snapshot fields at now.
// It is pure and idempotent for a fixed now; callers re-evaluate it on a
// one-second cadence to drive a live display and must re-baseline from
// fresh snapshot values whenever the server pushes a new one.
func Project(state domain.TimerState, devSeconds, waitSeconds int64, lastStateChange *time.Time, now time.Time) Projection {
	proj := Projection{DevTime: devSeconds, WaitTime: waitSeconds}
	if state == domain.TimerStopped || lastStateChange == nil {
		return proj
	}

	elapsed := int64(now.Sub(*lastStateChange) / time.Second)
	if elapsed < 0 {
		// Clock skew between client and authority must never make a
		// counter run backwards.
		elapsed = 0
	}

	switch state {
	case domain.TimerDevActive:
		proj.DevTime += elapsed
	case domain.TimerWaitActive:
		proj.WaitTime += elapsed
	}
	return proj
}

// FromProject projects a domain snapshot.
func FromProject(p domain.Project, now time.Time) Projection {
	return Project(p.CurrentState, p.DevTimeSeconds, p.WaitTimeSeconds, p.LastStateChange, now)
}

// FromResponse projects a wire snapshot as held by a client.
func FromResponse(p api.ProjectResponse, now time.Time) Projection {
	return Project(domain.TimerState(p.CurrentState), p.DevTimeSeconds, p.WaitTimeSeconds, p.LastStateChange, now)
}

// FormatSeconds renders a second count as h:mm:ss, or m:ss under an hour.
func FormatSeconds(seconds int64) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	secs := seconds % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
