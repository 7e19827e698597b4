package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mzalewski/devclock/internal/domain"
	"github.com/mzalewski/devclock/internal/presentation"
	apiTypes "github.com/mzalewski/devclock/pkg/api"
)

func (h *Handler) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ListForUser(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presentation.ProjectResponses(projects))
}

// currentTimes returns the visible projects with the open segment already
// folded into the counters, for consumers that do a one-shot read instead
// of ticking a local projection.
func (h *Handler) currentTimes(w http.ResponseWriter, r *http.Request) {
	projects, err := h.projects.ProjectedListForUser(r.Context(), actorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presentation.ProjectResponses(projects))
}

func (h *Handler) getProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presentation.ProjectResponse(*p))
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req apiTypes.CreateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	p, err := h.projects.Create(r.Context(), req.Name, req.Description, actorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, presentation.ProjectResponse(*p))
}

func (h *Handler) updateProject(w http.ResponseWriter, r *http.Request) {
	var req apiTypes.UpdateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	p, err := h.projects.UpdateDetails(r.Context(), chi.URLParam(r, "id"), req.Name, req.Description, actorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presentation.ProjectResponse(*p))
}

func (h *Handler) deleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.projects.Delete(r.Context(), chi.URLParam(r, "id"), actorFrom(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted successfully"})
}

// applyTimer builds the handler for one of the three timer endpoints.
// The action goes through the shared transition table, so a toggle press
// while that state is active lands on STOPPED.
func (h *Handler) applyTimer(action domain.TimerAction) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, err := h.projects.ApplyTimer(r.Context(), chi.URLParam(r, "id"), action, actorFrom(r.Context()))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, presentation.ProjectResponse(*p))
	}
}

func (h *Handler) assignProject(w http.ResponseWriter, r *http.Request) {
	var req apiTypes.AssignProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	p, err := h.projects.Assign(r.Context(), chi.URLParam(r, "id"), req.Username, actorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presentation.ProjectResponse(*p))
}

func (h *Handler) assignProjectToAll(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.AssignAll(r.Context(), chi.URLParam(r, "id"), actorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presentation.ProjectResponse(*p))
}

func (h *Handler) unassignProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.projects.Unassign(r.Context(), chi.URLParam(r, "id"), actorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presentation.ProjectResponse(*p))
}

func (h *Handler) projectTimeline(w http.ResponseWriter, r *http.Request) {
	entries, err := h.projects.Timeline(r.Context(), chi.URLParam(r, "id"), actorFrom(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presentation.TimelineEntryResponses(entries))
}
