package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var testFraming = Framing{Environment: "prod", MaxAllowed: 5 * time.Minute}

func TestSlack_OK(t *testing.T) {
	var got string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		got = payload["text"]
		w.WriteHeader(200)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL, testFraming)
	if s == nil {
		t.Fatal("expected slack client")
	}
	err := s.Send(context.Background(), "Time since a checked in is 400 seconds", true)
	if err != nil {
		t.Fatalf("send err: %v", err)
	}
	if !strings.HasPrefix(got, "*"+AlertTitle+"*\n") {
		t.Fatalf("payload not as expected: %q", got)
	}
	if !strings.HasSuffix(got, "Time since a checked in is 400 seconds") {
		t.Fatalf("message body missing: %q", got)
	}
}

func TestSlack_Non2xx(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(500)
	}))
	defer ts.Close()

	s := NewSlack(ts.URL, testFraming)
	err := s.Send(context.Background(), "X", true)
	if err == nil {
		t.Fatalf("expected error on non-2xx")
	}
}

func TestSlack_BadWebhookIsAnError(t *testing.T) {
	s := NewSlack("http://[::1", testFraming)
	if err := s.Send(context.Background(), "X", true); err == nil {
		t.Fatalf("expected error for an unparsable webhook")
	}
}

func TestSlack_Disabled(t *testing.T) {
	if s := NewSlack("", testFraming); s != nil {
		t.Fatalf("expected nil client without webhook")
	}
	var s *Slack
	if err := s.Send(context.Background(), "X", false); err == nil {
		t.Fatalf("expected error from nil client")
	}
}

func TestSlackBot_PostMessage(t *testing.T) {
	var (
		auth    string
		payload chatPayload
	)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&payload)
		_, _ = w.Write([]byte(`{"ok":true,"channel":"C1","ts":"1.2"}`))
	}))
	defer ts.Close()

	s := NewSlackBot("xoxb-test", "#alerts", testFraming)
	s.APIURL = ts.URL
	if err := s.Send(context.Background(), "Time since a checked in is 30 seconds", false); err != nil {
		t.Fatalf("send err: %v", err)
	}
	if auth != "Bearer xoxb-test" {
		t.Fatalf("auth header: %q", auth)
	}
	if payload.Channel != "#alerts" || payload.Username != "Prometheus Monitor" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
	if !strings.HasPrefix(payload.Text, "*"+RecoveryTitle+"*") {
		t.Fatalf("want recovery framing, got %q", payload.Text)
	}
}

func TestSlackBot_APIErrorInBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer ts.Close()

	s := NewSlackBot("xoxb-test", "#nope", testFraming)
	s.APIURL = ts.URL
	err := s.Send(context.Background(), "X", true)
	if err == nil || !strings.Contains(err.Error(), "channel_not_found") {
		t.Fatalf("want channel_not_found error, got %v", err)
	}
}
