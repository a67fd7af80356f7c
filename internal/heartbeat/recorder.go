package heartbeat

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/prommonitor/internal/domain"
	"github.com/hamed0406/prommonitor/internal/metrics"
	"github.com/hamed0406/prommonitor/internal/repo"
)

// Recorder stamps the current time as a cluster's last check-in.
type Recorder struct {
	log     *zap.Logger
	store   repo.HeartbeatStore
	token   string
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewRecorder(log *zap.Logger, store repo.HeartbeatStore, verifyToken string, m *metrics.Metrics) *Recorder {
	return &Recorder{
		log:     log,
		store:   store,
		token:   verifyToken,
		metrics: m,
		now:     time.Now,
	}
}

// WithClock swaps the time source; used by tests.
func (r *Recorder) WithClock(now func() time.Time) *Recorder {
	r.now = now
	return r
}

// Record verifies token and upserts last_seen = now for cluster, returning
// the stamped epoch seconds. A storage failure is returned as ErrInternal
// and is not retried here; the reporting side retries.
func (r *Recorder) Record(ctx context.Context, cluster, token string) (int64, error) {
	if !r.verify(token) {
		r.log.Warn("heartbeat_unauthorized", zap.String("cluster", cluster))
		r.metrics.Heartbeat(metrics.ResultUnauthorized)
		return 0, domain.ErrUnauthorized
	}
	if strings.TrimSpace(cluster) == "" {
		r.metrics.Heartbeat(metrics.ResultError)
		return 0, domain.ErrInvalidClusterName
	}

	now := r.now().Unix()
	if err := r.store.UpsertLastSeen(ctx, cluster, now); err != nil {
		r.log.Error("heartbeat_write_error",
			zap.String("cluster", cluster),
			zap.Int64("last_seen", now),
			zap.Error(err),
		)
		r.metrics.Heartbeat(metrics.ResultError)
		return 0, fmt.Errorf("%w: record heartbeat for %s: %v", domain.ErrInternal, cluster, err)
	}

	r.log.Info("heartbeat_recorded", zap.String("cluster", cluster), zap.Int64("last_seen", now))
	r.metrics.Heartbeat(metrics.ResultAccepted)
	return now, nil
}

func (r *Recorder) verify(token string) bool {
	if r.token == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(r.token)) == 1
}
