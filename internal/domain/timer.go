package domain

import (
	"errors"
	"fmt"
)

type TimerState string

const (
	TimerStopped    TimerState = "STOPPED"
	TimerDevActive  TimerState = "DEV_ACTIVE"
	TimerWaitActive TimerState = "WAIT_ACTIVE"
)

func (s TimerState) Valid() bool {
	switch s {
	case TimerStopped, TimerDevActive, TimerWaitActive:
		return true
	default:
		return false
	}
}

// TimerAction is one of the three logical inputs to the timer state
// machine. The dedicated dev/wait controls issue StartDev/StartWait; a
// repeated press while that state is already active lands on STOPPED via
// the transition table, never on a no-op re-start.
type TimerAction string

const (
	ActionStartDev  TimerAction = "startDev"
	ActionStartWait TimerAction = "startWait"
	ActionStop      TimerAction = "stop"
)

var ErrUnknownTimerAction = errors.New("unknown timer action")

var transitions = map[TimerState]map[TimerAction]TimerState{
	TimerStopped: {
		ActionStartDev:  TimerDevActive,
		ActionStartWait: TimerWaitActive,
		ActionStop:      TimerStopped,
	},
	TimerDevActive: {
		ActionStartDev:  TimerStopped,
		ActionStartWait: TimerWaitActive,
		ActionStop:      TimerStopped,
	},
	TimerWaitActive: {
		ActionStartDev:  TimerDevActive,
		ActionStartWait: TimerStopped,
		ActionStop:      TimerStopped,
	},
}

// Transition applies the timer transition table. It is the single source
// of truth shared by the server authority and the client's button
// semantics.
func Transition(current TimerState, action TimerAction) (TimerState, error) {
	row, ok := transitions[current]
	if !ok {
		return current, fmt.Errorf("invalid timer state: %q", current)
	}
	next, ok := row[action]
	if !ok {
		return current, fmt.Errorf("%w: %q", ErrUnknownTimerAction, action)
	}
	return next, nil
}

// ToggleAction returns the action a dev/wait control should issue given
// the current state, so the UI stays a thin read of server state.
func ToggleAction(current TimerState, want TimerAction) TimerAction {
	switch want {
	case ActionStartDev:
		if current == TimerDevActive {
			return ActionStop
		}
	case ActionStartWait:
		if current == TimerWaitActive {
			return ActionStop
		}
	}
	return want
}
