package realtime

import (
	"context"
	"fmt"

	"github.com/mzalewski/devclock/internal/presentation"
	"github.com/mzalewski/devclock/internal/service"
)

// SnapshotProvider builds the current payload for a topic, used both for
// the snapshot sent on subscribe and for post-mutation events.
type SnapshotProvider struct {
	projects *service.ProjectService
}

func NewSnapshotProvider(projects *service.ProjectService) *SnapshotProvider {
	return &SnapshotProvider{projects: projects}
}

func (p *SnapshotProvider) Snapshot(ctx context.Context, topic string) (any, error) {
	switch topic {
	case TopicProjectsState:
		return p.projectsSnapshot(ctx)
	default:
		return nil, fmt.Errorf("unsupported topic: %s", topic)
	}
}

func (p *SnapshotProvider) projectsSnapshot(ctx context.Context) (any, error) {
	projects, err := p.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	return presentation.ProjectResponses(projects), nil
}
