package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/hamed0406/prommonitor/internal/domain"
)

// Store keeps the registry in process. Handy for local dev and tests; the
// recorder and checker only share state when run in the same process.
type Store struct {
	mu       sync.RWMutex
	clusters map[string]domain.ClusterRecord
}

func New() *Store {
	return &Store{clusters: make(map[string]domain.ClusterRecord)}
}

func (m *Store) UpsertLastSeen(ctx context.Context, cluster string, epochSeconds int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.clusters[cluster]
	rec.ClusterName = cluster
	rec.LastSeen = epochSeconds
	m.clusters[cluster] = rec
	return nil
}

func (m *Store) UpsertAlertState(ctx context.Context, cluster string, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := m.clusters[cluster]
	rec.ClusterName = cluster
	rec.AlertActive = active
	m.clusters[cluster] = rec
	return nil
}

func (m *Store) GetAll(ctx context.Context) ([]domain.ClusterRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.ClusterRecord, 0, len(m.clusters))
	for _, r := range m.clusters {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ClusterName < out[j].ClusterName })
	return out, nil
}

func (m *Store) Delete(ctx context.Context, cluster string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.clusters, cluster)
	return nil
}
