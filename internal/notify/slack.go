package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const slackPostMessageURL = "https://slack.com/api/chat.postMessage"

// Slack posts either through an incoming webhook or, when Token is set,
// through chat.postMessage as a bot user.
type Slack struct {
	Webhook string
	Token   string
	Channel string
	APIURL  string
	Client  *http.Client
	Framing Framing
}

func NewSlack(webhook string, f Framing) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook: webhook,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Framing: f,
	}
}

func NewSlackBot(token, channel string, f Framing) *Slack {
	if token == "" || channel == "" {
		return nil
	}
	return &Slack{
		Token:   token,
		Channel: channel,
		APIURL:  slackPostMessageURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
		Framing: f,
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

type chatPayload struct {
	Channel   string `json:"channel"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

type chatResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (s *Slack) Send(ctx context.Context, message string, isAlert bool) error {
	if s == nil || (s.Webhook == "" && s.Token == "") {
		return errors.New("slack disabled")
	}
	title, text := s.Framing.Frame(message, isAlert)
	text = "*" + title + "*\n" + text

	if s.Token != "" {
		return s.postMessage(ctx, text)
	}

	body, err := json.Marshal(slackPayload{Text: text})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack webhook: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.New("slack non-2xx")
	}
	return nil
}

func (s *Slack) postMessage(ctx context.Context, text string) error {
	body, _ := json.Marshal(chatPayload{
		Channel:   s.Channel,
		Text:      text,
		Username:  "Prometheus Monitor",
		IconEmoji: ":computer:",
	})
	url := s.APIURL
	if url == "" {
		url = slackPostMessageURL
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return fmt.Errorf("slack chat.postMessage: status %d", resp.StatusCode)
	}
	// the Web API reports failures in the body with a 200
	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("slack chat.postMessage: decode: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("slack chat.postMessage: %s", out.Error)
	}
	return nil
}
