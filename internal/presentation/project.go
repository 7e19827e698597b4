// Package presentation converts domain values into their wire forms.
package presentation

import (
	"github.com/mzalewski/devclock/internal/domain"
	"github.com/mzalewski/devclock/pkg/api"
)

func ProjectResponse(p domain.Project) api.ProjectResponse {
	return api.ProjectResponse{
		ID:                   p.ID,
		Name:                 p.Name,
		Description:          p.Description,
		DevTimeSeconds:       p.DevTimeSeconds,
		WaitTimeSeconds:      p.WaitTimeSeconds,
		CurrentState:         string(p.CurrentState),
		LastStateChange:      p.LastStateChange,
		AssignedUserUsername: p.AssignedUserUsername,
		AssignedToAll:        p.AssignedToAll,
		CreatedAt:            p.CreatedAt,
		UpdatedAt:            p.UpdatedAt,
	}
}

func ProjectResponses(projects []domain.Project) []api.ProjectResponse {
	out := make([]api.ProjectResponse, len(projects))
	for i, p := range projects {
		out[i] = ProjectResponse(p)
	}
	return out
}

func TimelineEntryResponse(e domain.TimelineEntry) api.TimelineEntryResponse {
	return api.TimelineEntryResponse{
		ID:              e.ID,
		ProjectID:       e.ProjectID,
		EventType:       string(e.EventType),
		Timestamp:       e.Timestamp,
		DurationSeconds: e.DurationSeconds,
		Username:        e.Username,
		Description:     e.Description,
	}
}

func TimelineEntryResponses(entries []domain.TimelineEntry) []api.TimelineEntryResponse {
	out := make([]api.TimelineEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = TimelineEntryResponse(e)
	}
	return out
}

func UserResponse(u domain.User) api.UserResponse {
	return api.UserResponse{
		Username:    u.Username,
		Role:        string(u.Role),
		DisplayName: u.DisplayName,
		Description: u.Description,
	}
}

func UserResponses(users []domain.User) []api.UserResponse {
	out := make([]api.UserResponse, len(users))
	for i, u := range users {
		out[i] = UserResponse(u)
	}
	return out
}
