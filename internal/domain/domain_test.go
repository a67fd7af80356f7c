package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func TestClusterRecord_Staleness(t *testing.T) {
	now := time.Unix(1_700_000_400, 0)
	rec := ClusterRecord{ClusterName: "a", LastSeen: 1_700_000_000}
	if got := rec.Staleness(now); got != 400 {
		t.Fatalf("staleness: want 400, got %d", got)
	}

	// out-of-order heartbeat stamped in the future gives negative staleness
	rec.LastSeen = 1_700_000_500
	if got := rec.Staleness(now); got != -100 {
		t.Fatalf("staleness: want -100, got %d", got)
	}
}

func TestClusterRecord_MissingAlertFieldDefaultsFalse(t *testing.T) {
	var rec ClusterRecord
	if err := json.Unmarshal([]byte(`{"cluster_name":"a","last_seen":10}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rec.AlertActive {
		t.Fatalf("want alert_active=false when absent")
	}
	if rec.ClusterName != "a" || rec.LastSeen != 10 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}
