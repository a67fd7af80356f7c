package notify

import (
	"context"
	"fmt"
	"time"
)

// Notifier delivers one message to the single configured channel.
// isAlert selects failure framing; false means recovery.
type Notifier interface {
	Send(ctx context.Context, message string, isAlert bool) error
}

// Framing turns an evaluator message into a titled notification.
type Framing struct {
	Environment string
	MaxAllowed  time.Duration
}

const (
	AlertTitle    = "Prometheus Instance Not Responding"
	RecoveryTitle = "Prometheus Instance Recovered"
)

func (f Framing) Frame(message string, isAlert bool) (title, text string) {
	var lead string
	if isAlert {
		title = AlertTitle
		lead = fmt.Sprintf("A Prometheus instance has not checked in for over %d seconds", int64(f.MaxAllowed/time.Second))
	} else {
		title = RecoveryTitle
		lead = "A Prometheus instance has recovered"
	}
	if f.Environment != "" {
		lead += "\nEnvironment: " + f.Environment
	}
	return title, lead + "\n" + message
}
