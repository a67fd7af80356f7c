package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram sends plain-text messages to one chat. Cluster names often carry
// underscores, so no parse mode is set.
//
// The bot client is created on the first Send (it calls getMe), so a Bot API
// outage at startup only fails sends until the API is reachable again.
type Telegram struct {
	token    string
	endpoint string
	client   *http.Client
	chatID   int64
	Framing  Framing

	mu  sync.Mutex
	bot *tgbotapi.BotAPI
}

func NewTelegram(token string, chatID int64, f Framing) (*Telegram, error) {
	return NewTelegramWithEndpoint(token, tgbotapi.APIEndpoint, chatID, &http.Client{Timeout: 10 * time.Second}, f)
}

// NewTelegramWithEndpoint is NewTelegram against a custom Bot API endpoint,
// e.g. a local bot API server. endpoint uses the tgbotapi.APIEndpoint format.
func NewTelegramWithEndpoint(token, endpoint string, chatID int64, client *http.Client, f Framing) (*Telegram, error) {
	if token == "" {
		return nil, errors.New("telegram: empty bot token")
	}
	return &Telegram{token: token, endpoint: endpoint, client: client, chatID: chatID, Framing: f}, nil
}

func (t *Telegram) botAPI() (*tgbotapi.BotAPI, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bot != nil {
		return t.bot, nil
	}
	bot, err := tgbotapi.NewBotAPIWithClient(t.token, t.endpoint, t.client)
	if err != nil {
		return nil, fmt.Errorf("telegram getMe: %w", err)
	}
	t.bot = bot
	return bot, nil
}

func (t *Telegram) Send(ctx context.Context, message string, isAlert bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bot, err := t.botAPI()
	if err != nil {
		return err
	}
	title, text := t.Framing.Frame(message, isAlert)
	_, err = bot.Send(tgbotapi.NewMessage(t.chatID, title+"\n"+text))
	return err
}
