package bot

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	maxMessageLength   = 4096
	defaultPollTimeout = 30
)

// TelegramOption configures a Telegram adapter.
type TelegramOption func(*telegramConfig)

type telegramConfig struct {
	endpoint    string
	httpClient  *http.Client
	pollTimeout int
}

// WithAPIEndpoint overrides the Bot API endpoint format string
// (default tgbotapi.APIEndpoint).
func WithAPIEndpoint(endpoint string) TelegramOption {
	return func(c *telegramConfig) { c.endpoint = endpoint }
}

// WithHTTPClient sets the HTTP client used for Bot API calls.
func WithHTTPClient(hc *http.Client) TelegramOption {
	return func(c *telegramConfig) { c.httpClient = hc }
}

// WithPollTimeout sets the long-poll timeout in seconds.
func WithPollTimeout(secs int) TelegramOption {
	return func(c *telegramConfig) { c.pollTimeout = secs }
}

// Telegram is the Bot API transport. It implements Messenger.
type Telegram struct {
	api         *tgbotapi.BotAPI
	pollTimeout int
}

// NewTelegram authenticates token against the Bot API.
func NewTelegram(token string, opts ...TelegramOption) (*Telegram, error) {
	cfg := &telegramConfig{
		endpoint:    tgbotapi.APIEndpoint,
		httpClient:  &http.Client{},
		pollTimeout: defaultPollTimeout,
	}
	for _, o := range opts {
		o(cfg)
	}

	api, err := tgbotapi.NewBotAPIWithClient(token, cfg.endpoint, cfg.httpClient)
	if err != nil {
		return nil, eris.Wrap(err, "telegram: connect")
	}
	return &Telegram{api: api, pollTimeout: cfg.pollTimeout}, nil
}

// Username returns the bot's username.
func (t *Telegram) Username() string {
	return t.api.Self.UserName
}

// Send posts text as a new Markdown message.
func (t *Telegram) Send(ctx context.Context, chatID int64, text string) (MessageRef, error) {
	if err := ctx.Err(); err != nil {
		return MessageRef{}, eris.Wrap(err, "telegram: send")
	}
	msg := tgbotapi.NewMessage(chatID, clampText(text))
	msg.ParseMode = tgbotapi.ModeMarkdown

	sent, err := t.api.Send(msg)
	if err != nil {
		return MessageRef{}, eris.Wrapf(err, "telegram: send to chat %d", chatID)
	}
	ref := MessageRef{ChatID: chatID, MessageID: sent.MessageID}
	if sent.Chat != nil {
		ref.ChatID = sent.Chat.ID
	}
	return ref, nil
}

// Edit replaces the text of ref. An edit to identical text is not an error.
func (t *Telegram) Edit(ctx context.Context, ref MessageRef, text string) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "telegram: edit")
	}
	edit := tgbotapi.NewEditMessageText(ref.ChatID, ref.MessageID, clampText(text))
	edit.ParseMode = tgbotapi.ModeMarkdown

	if _, err := t.api.Request(edit); err != nil && !isNotModified(err) {
		return eris.Wrapf(err, "telegram: edit message %d in chat %d", ref.MessageID, ref.ChatID)
	}
	return nil
}

// Run long-polls for updates and hands each text message to h on its own
// goroutine. It returns after ctx is cancelled and in-flight messages finish.
func (t *Telegram) Run(ctx context.Context, h *Handler) error {
	uc := tgbotapi.NewUpdate(0)
	uc.Timeout = t.pollTimeout
	updates := t.api.GetUpdatesChan(uc)

	zap.L().Info("telegram: polling for updates", zap.String("bot", t.api.Self.UserName))

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			t.api.StopReceivingUpdates()
			// Drain so the polling goroutine can exit.
			for range updates {
			}
			zap.L().Info("telegram: stopped polling")
			return nil
		case update, ok := <-updates:
			if !ok {
				return eris.New("telegram: updates channel closed")
			}
			in, ok := inboundFrom(update)
			if !ok {
				continue
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				h.Handle(ctx, in)
			}()
		}
	}
}

func inboundFrom(update tgbotapi.Update) (Inbound, bool) {
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return Inbound{}, false
	}
	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return Inbound{}, false
	}
	in := Inbound{ChatID: msg.Chat.ID, Text: text}
	if msg.From != nil {
		in.From = msg.From.UserName
	}
	return in, true
}

func isNotModified(err error) bool {
	var apiErr tgbotapi.Error
	var apiErrPtr *tgbotapi.Error
	switch {
	case errors.As(err, &apiErr):
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		apiErr = *apiErrPtr
	default:
		return false
	}
	return apiErr.Code == http.StatusBadRequest && strings.Contains(apiErr.Message, "message is not modified")
}

// clampText makes text valid UTF-8 and cuts it to the Bot API message limit
// on a rune boundary.
func clampText(text string) string {
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "")
	}
	if len(text) <= maxMessageLength {
		return text
	}
	const suffix = "..."
	limit := maxMessageLength - len(suffix)
	for limit > 0 && !utf8.RuneStart(text[limit]) {
		limit--
	}
	return text[:limit] + suffix
}
