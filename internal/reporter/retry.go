package reporter

import (
	"context"
	"fmt"
	"time"
)

// RetrySender resends on retryable failures, waiting Backoff between
// attempts. ctx cancellation stops the series early.
type RetrySender struct {
	Inner    Sender
	Attempts int
	Backoff  time.Duration
}

func (r *RetrySender) Send(ctx context.Context, cluster string) Result {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last Result
	for i := 0; i < attempts; i++ {
		last = r.Inner.Send(ctx, cluster)
		if last.Success || !last.Retryable() {
			return last
		}
		if i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			last.Message = fmt.Sprintf("%s (gave up: %v)", last.Message, ctx.Err())
			return last
		case <-time.After(r.Backoff):
		}
	}
	// annotate message so you can see it was a retry series
	last.Message = fmt.Sprintf("%s (after %d attempts)", last.Message, attempts)
	return last
}
