package domain

import "time"

// ClusterRecord is the persisted liveness row for one monitored cluster.
// LastSeen is only written by the heartbeat recorder, AlertActive only by
// the evaluator.
type ClusterRecord struct {
	ClusterName string `json:"cluster_name"`
	LastSeen    int64  `json:"last_seen"`    // epoch seconds
	AlertActive bool   `json:"alert_active"` // absent in storage means false
}

// Staleness is the number of seconds since the cluster last checked in.
func (c ClusterRecord) Staleness(now time.Time) int64 {
	return now.Unix() - c.LastSeen
}
