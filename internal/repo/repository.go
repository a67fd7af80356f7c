package repo

import (
	"context"

	"github.com/hamed0406/prommonitor/internal/domain"
)

// Ports (interfaces); one adapter per storage backend.

// HeartbeatStore is all the recorder needs.
type HeartbeatStore interface {
	// UpsertLastSeen creates the record on first heartbeat.
	UpsertLastSeen(ctx context.Context, cluster string, epochSeconds int64) error
}

// ClusterRegistry is the shared per-environment table of clusters.
// Every write is an independent last-write-wins upsert keyed by cluster name.
type ClusterRegistry interface {
	HeartbeatStore
	// GetAll returns every record, following pagination internally.
	GetAll(ctx context.Context) ([]domain.ClusterRecord, error)
	UpsertAlertState(ctx context.Context, cluster string, active bool) error
	// Delete is for manual removal only; deleting a missing key is not an error.
	Delete(ctx context.Context, cluster string) error
}
