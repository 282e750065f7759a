package application

import (
	"context"

	"github.com/sawpanic/zonerun/internal/domain/zone"
	"github.com/sawpanic/zonerun/internal/infrastructure/cache"
	zonehttp "github.com/sawpanic/zonerun/internal/interfaces/http"
	"github.com/sawpanic/zonerun/internal/persistence"
)

// HubSink broadcasts events to websocket subscribers.
type HubSink struct {
	Hub *zonehttp.EventHub
}

func (s HubSink) PublishEvents(_ context.Context, _ string, events []zone.Event) error {
	s.Hub.Broadcast(events)
	return nil
}

// CacheSink stores the latest snapshot in Redis.
type CacheSink struct {
	Cache *cache.SnapshotCache
}

func (s CacheSink) PublishSnapshot(ctx context.Context, symbol string, snap *zone.Snapshot) error {
	return s.Cache.Store(ctx, symbol, snap)
}

// JournalSink appends events to the Postgres journal.
type JournalSink struct {
	Journal *persistence.EventJournal
}

func (s JournalSink) PublishEvents(ctx context.Context, symbol string, events []zone.Event) error {
	return s.Journal.Append(ctx, symbol, events)
}
