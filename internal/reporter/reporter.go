// Package reporter is the client side of the heartbeat protocol: what a
// cluster (or an operator) runs to check in with the API.
package reporter

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Result of a single heartbeat attempt.
//
// StatusCode is 0 for transport errors. RecordedAt is the epoch seconds the
// API stamped, set only on success.
type Result struct {
	Success    bool
	StatusCode int
	LatencyMS  float64
	Message    string
	RecordedAt int64
}

// Retryable reports whether sending again could help: transport errors and
// 5xx. A 400 (wrong token) never gets better by retrying.
func (r Result) Retryable() bool {
	return !r.Success && (r.StatusCode == 0 || r.StatusCode >= 500)
}

// Sender delivers one heartbeat for a cluster.
type Sender interface {
	Send(ctx context.Context, cluster string) Result
}

type HTTPSender struct {
	BaseURL string
	Token   string
	Client  *http.Client
}

func NewHTTPSender(baseURL, token string, timeout time.Duration) *HTTPSender {
	return &HTTPSender{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client:  &http.Client{Timeout: timeout},
	}
}

func (h *HTTPSender) Send(ctx context.Context, cluster string) Result {
	target := h.BaseURL + "/heartbeat/" + url.PathEscape(cluster) + "?verify_token=" + url.QueryEscape(h.Token)

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, nil)
	if err != nil {
		return Result{Message: err.Error()}
	}
	resp, err := h.Client.Do(req)
	latency := time.Since(start).Seconds() * 1000 // ms
	if err != nil {
		return Result{Message: err.Error(), LatencyMS: latency}
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	text := strings.TrimSpace(string(body))

	out := Result{StatusCode: resp.StatusCode, LatencyMS: latency, Message: resp.Status}
	if resp.StatusCode != http.StatusOK {
		if text != "" {
			out.Message = resp.Status + ": " + text
		}
		return out
	}
	ts, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		out.Message = "unexpected body " + strconv.Quote(text)
		return out
	}
	out.Success = true
	out.RecordedAt = ts
	return out
}
