package maintenance

import (
	"fmt"
	"time"

	"github.com/hamed0406/prommonitor/internal/domain"
)

// Window is the recurring scale-down period shared by a group of clusters.
// Clusters in the group are expected to be offline between a scale-down
// occurrence and the next scale-up occurrence.
type Window struct {
	clusters  map[string]struct{}
	scaleDown string
	scaleUp   string
	oracle    Oracle
}

// NewWindow returns nil when no clusters are configured; a nil *Window
// excludes nothing.
func NewWindow(clusters []string, scaleDown, scaleUp string, oracle Oracle) *Window {
	if len(clusters) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(clusters))
	for _, c := range clusters {
		set[c] = struct{}{}
	}
	return &Window{clusters: set, scaleDown: scaleDown, scaleUp: scaleUp, oracle: oracle}
}

// Covers reports whether the cluster belongs to the window group.
func (w *Window) Covers(cluster string) bool {
	if w == nil {
		return false
	}
	_, ok := w.clusters[cluster]
	return ok
}

// ScaledDown reports whether cluster is inside its scaled-down period at now.
// It returns false with an ErrScheduleExpression error when either expression
// is unusable, so callers process the cluster as normal.
func (w *Window) ScaledDown(cluster string, now time.Time) (bool, error) {
	if !w.Covers(cluster) {
		return false, nil
	}
	if !w.oracle.IsValid(w.scaleDown) || !w.oracle.IsValid(w.scaleUp) {
		return false, fmt.Errorf("%w: scale_down=%q scale_up=%q", domain.ErrScheduleExpression, w.scaleDown, w.scaleUp)
	}
	down, err := w.oracle.MostRecent(w.scaleDown, now)
	if err != nil {
		return false, err
	}
	up, err := w.oracle.MostRecent(w.scaleUp, now)
	if err != nil {
		return false, err
	}
	return down.After(up), nil
}
