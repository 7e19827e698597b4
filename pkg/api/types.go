package api

import "time"

// ProjectResponse is the wire form of a project snapshot. The stored
// counters hold closed segments only; a currently running segment is not
// reflected until the next transition closes it.
type ProjectResponse struct {
	ID                   string     `json:"id"`
	Name                 string     `json:"name"`
	Description          string     `json:"description"`
	DevTimeSeconds       int64      `json:"devTimeSeconds"`
	WaitTimeSeconds      int64      `json:"waitTimeSeconds"`
	CurrentState         string     `json:"currentState"`
	LastStateChange      *time.Time `json:"lastStateChange"`
	AssignedUserUsername string     `json:"assignedUserUsername,omitempty"`
	AssignedToAll        bool       `json:"assignedToAll"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type UpdateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type AssignProjectRequest struct {
	Username string `json:"username"`
}

type TimelineEntryResponse struct {
	ID              string    `json:"id"`
	ProjectID       string    `json:"projectId"`
	EventType       string    `json:"eventType"`
	Timestamp       time.Time `json:"timestamp"`
	DurationSeconds int64     `json:"durationSeconds"`
	Username        string    `json:"username"`
	Description     string    `json:"description"`
}

type UserResponse struct {
	Username    string `json:"username"`
	Role        string `json:"role"`
	DisplayName string `json:"displayName,omitempty"`
	Description string `json:"description,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
