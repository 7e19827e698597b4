package api

import (
	"net/http"

	"github.com/mzalewski/devclock/internal/presentation"
)

// availableUsers backs the login picker, so it is reachable without an
// actor header.
func (h *Handler) availableUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.Available()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read user roster", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, presentation.UserResponses(users))
}

func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, presentation.UserResponse(*actorFrom(r.Context())))
}
