package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// fakeBotAPI answers getMe and sendMessage the way the Bot API does.
type fakeBotAPI struct {
	mu      sync.Mutex
	texts   []string
	chatIDs []string
	fail    bool
	down    bool // every method answers 502
	getMes  int
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	f.mu.Lock()
	down := f.down
	f.mu.Unlock()
	if down {
		http.Error(w, "bad gateway", http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/getMe"):
		f.mu.Lock()
		f.getMes++
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"id":42,"is_bot":true,"first_name":"monitor","username":"monitor_bot"}}`))
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		if f.fail {
			_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
			return
		}
		f.mu.Lock()
		f.texts = append(f.texts, r.PostForm.Get("text"))
		f.chatIDs = append(f.chatIDs, r.PostForm.Get("chat_id"))
		f.mu.Unlock()
		_, _ = w.Write([]byte(`{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":-100,"type":"group"},"text":"x"}}`))
	default:
		http.NotFound(w, r)
	}
}

func newFakeTelegram(t *testing.T, api *fakeBotAPI) *Telegram {
	t.Helper()
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	tg, err := NewTelegramWithEndpoint("123:abc", ts.URL+"/bot%s/%s", -100, ts.Client(), testFraming)
	if err != nil {
		t.Fatalf("NewTelegramWithEndpoint: %v", err)
	}
	return tg
}

func TestTelegram_Send(t *testing.T) {
	api := &fakeBotAPI{}
	tg := newFakeTelegram(t, api)

	if err := tg.Send(context.Background(), "Time since dev_a checked in is 400 seconds", true); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(api.texts) != 1 {
		t.Fatalf("want 1 message, got %d", len(api.texts))
	}
	if !strings.HasPrefix(api.texts[0], AlertTitle+"\n") || !strings.Contains(api.texts[0], "dev_a") {
		t.Fatalf("unexpected text: %q", api.texts[0])
	}
	if api.chatIDs[0] != "-100" {
		t.Fatalf("unexpected chat id: %q", api.chatIDs[0])
	}
}

func TestTelegram_SendError(t *testing.T) {
	api := &fakeBotAPI{fail: true}
	tg := newFakeTelegram(t, api)

	if err := tg.Send(context.Background(), "X", false); err == nil {
		t.Fatalf("expected error from Bot API")
	}
}

func TestTelegram_CanceledContext(t *testing.T) {
	api := &fakeBotAPI{}
	tg := newFakeTelegram(t, api)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := tg.Send(ctx, "X", true); err == nil {
		t.Fatalf("expected context error")
	}
	if len(api.texts) != 0 {
		t.Fatalf("nothing should be sent after cancel")
	}
}

func TestTelegram_OutageAtStartupIsNotFatal(t *testing.T) {
	api := &fakeBotAPI{down: true}
	tg := newFakeTelegram(t, api)

	if err := tg.Send(context.Background(), "X", true); err == nil {
		t.Fatalf("expected error while the Bot API is down")
	}

	api.mu.Lock()
	api.down = false
	api.mu.Unlock()

	if err := tg.Send(context.Background(), "X", true); err != nil {
		t.Fatalf("send after recovery: %v", err)
	}
	if err := tg.Send(context.Background(), "Y", false); err != nil {
		t.Fatalf("second send: %v", err)
	}
	if api.getMes != 1 {
		t.Fatalf("getMe should run once after recovery, ran %d times", api.getMes)
	}
	if len(api.texts) != 2 {
		t.Fatalf("want 2 messages, got %d", len(api.texts))
	}
}

func TestTelegram_EmptyToken(t *testing.T) {
	if _, err := NewTelegram("", -100, testFraming); err == nil {
		t.Fatalf("expected error for empty token")
	}
}
