package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mzalewski/devclock/internal/domain"
	"github.com/mzalewski/devclock/internal/realtime"
	"github.com/mzalewski/devclock/internal/service"
	apiTypes "github.com/mzalewski/devclock/pkg/api"
)

// actorHeader names the client-asserted identity header. There is no
// cryptographic proof behind it; the roster file is the only gate.
const actorHeader = "X-Username"

// Handler routes REST and realtime requests to the project and user
// services.
type Handler struct {
	users       *service.UserService
	projects    *service.ProjectService
	realtimeHub *realtime.Hub
	snapshotter *realtime.SnapshotProvider
	logger      *slog.Logger
}

func NewHandler(users *service.UserService, projects *service.ProjectService, hub *realtime.Hub, snapshotter *realtime.SnapshotProvider, logger *slog.Logger) *Handler {
	return &Handler{
		users:       users,
		projects:    projects,
		realtimeHub: hub,
		snapshotter: snapshotter,
		logger:      logger,
	}
}

// Mount registers all API routes on the provided router.
func (h *Handler) Mount(r chi.Router) {
	r.Get("/api/realtime", h.realtimeWebSocket)
	r.Get("/api/users/available", h.availableUsers)
	r.Get("/api/users/current", h.requireActor(h.currentUser))
	r.Get("/api/projects", h.requireActor(h.listProjects))
	r.Get("/api/projects/current-times", h.requireActor(h.currentTimes))
	r.Post("/api/projects", h.requireActor(h.createProject))
	r.Get("/api/projects/{id}", h.requireActor(h.getProject))
	r.Put("/api/projects/{id}", h.requireActor(h.updateProject))
	r.Delete("/api/projects/{id}", h.requireActor(h.deleteProject))
	r.Post("/api/projects/{id}/toggle-dev", h.requireActor(h.applyTimer(domain.ActionStartDev)))
	r.Post("/api/projects/{id}/toggle-wait", h.requireActor(h.applyTimer(domain.ActionStartWait)))
	r.Post("/api/projects/{id}/stop", h.requireActor(h.applyTimer(domain.ActionStop)))
	r.Put("/api/projects/{id}/assign", h.requireActor(h.assignProject))
	r.Put("/api/projects/{id}/assign-all", h.requireActor(h.assignProjectToAll))
	r.Put("/api/projects/{id}/unassign", h.requireActor(h.unassignProject))
	r.Get("/api/projects/{id}/timeline", h.requireActor(h.projectTimeline))
}

type actorKey struct{}

// requireActor resolves the asserted username into a roster user and
// threads it through the request context, so handlers never read the
// header themselves.
func (h *Handler) requireActor(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := h.users.Authenticate(r.Header.Get(actorHeader))
		if err != nil {
			if errors.Is(err, service.ErrUserNotFound) {
				writeError(w, http.StatusUnauthorized, "unknown user", "")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to resolve user", err.Error())
			return
		}
		next(w, r.WithContext(context.WithValue(r.Context(), actorKey{}, user)))
	}
}

func actorFrom(ctx context.Context) *domain.User {
	u, _ := ctx.Value(actorKey{}).(*domain.User)
	return u
}

// writeServiceError maps service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, "project not found", "")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "unknown user", "")
	case errors.Is(err, service.ErrNotAdmin):
		writeError(w, http.StatusForbidden, "admin role required", "")
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "project not assigned to user", "")
	case errors.Is(err, service.ErrDuplicateName):
		writeError(w, http.StatusConflict, "project name already exists", "")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error(), "")
	default:
		writeError(w, http.StatusInternalServerError, err.Error(), "")
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, message, details string) {
	resp := apiTypes.ErrorResponse{Error: message}
	if details != "" {
		resp.Details = details
	}
	writeJSON(w, code, resp)
}

func generateID() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
