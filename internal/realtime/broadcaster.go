package realtime

import (
	"context"
	"log/slog"
)

// Broadcaster pushes a fresh projects snapshot to the topic after every
// mutation. It satisfies service.ChangeNotifier.
type Broadcaster struct {
	hub      *Hub
	provider *SnapshotProvider
	logger   *slog.Logger
}

func NewBroadcaster(hub *Hub, provider *SnapshotProvider, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{hub: hub, provider: provider, logger: logger}
}

func (b *Broadcaster) BroadcastProjects(ctx context.Context) {
	payload, err := b.provider.Snapshot(ctx, TopicProjectsState)
	if err != nil {
		b.logger.Error("failed to build projects snapshot", "error", err)
		return
	}
	b.hub.PublishEvent(TopicProjectsState, payload)
}
