// Package bot turns inbound chat messages into lookup replies.
package bot

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/lookup-bot/internal/classify"
	"github.com/sells-group/lookup-bot/internal/model"
	"github.com/sells-group/lookup-bot/internal/report"
)

// Inbound is a text message received from a chat.
type Inbound struct {
	ChatID int64
	From   string
	Text   string
}

// MessageRef identifies a sent message so it can be edited later.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Messenger is the chat transport.
type Messenger interface {
	Send(ctx context.Context, chatID int64, text string) (MessageRef, error)
	Edit(ctx context.Context, ref MessageRef, text string) error
}

// Enricher resolves a classified identifier into a report.
type Enricher interface {
	Enrich(ctx context.Context, id model.Identifier) (*model.Report, error)
}

// Handler answers one inbound message at a time and is safe for concurrent
// use.
type Handler struct {
	messenger Messenger
	enricher  Enricher
	formatter report.Formatter
}

// NewHandler creates a Handler. messenger may be nil when only Answer is used.
func NewHandler(messenger Messenger, enricher Enricher, formatter report.Formatter) *Handler {
	return &Handler{
		messenger: messenger,
		enricher:  enricher,
		formatter: formatter,
	}
}

// Handle replies to in. Commands and unrecognized text get a static reply;
// anything else gets a placeholder that is edited into the lookup result.
// Handle never panics.
func (h *Handler) Handle(ctx context.Context, in Inbound) {
	log := zap.L().With(
		zap.String("request_id", uuid.NewString()),
		zap.Int64("chat_id", in.ChatID),
		zap.String("from", in.From),
	)

	var placeholder *MessageRef
	defer func() {
		if r := recover(); r != nil {
			log.Error("bot: recovered panic while handling message", zap.Any("panic", r), zap.Stack("stack"))
			h.finish(ctx, log, in.ChatID, placeholder, report.Generic)
		}
	}()

	id, reply, static := route(in.Text)
	log = log.With(zap.String("kind", string(id.Kind)))
	if static {
		log.Debug("bot: static reply")
		h.finish(ctx, log, in.ChatID, nil, reply)
		return
	}

	ref, err := h.messenger.Send(ctx, in.ChatID, report.Checking)
	if err != nil {
		log.Warn("bot: send placeholder failed", zap.Error(err))
	} else {
		placeholder = &ref
	}

	h.finish(ctx, log, in.ChatID, placeholder, h.lookup(ctx, log, id))
}

// Answer returns the reply for text without going through the messenger.
func (h *Handler) Answer(ctx context.Context, text string) (answer string) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("bot: recovered panic while answering", zap.Any("panic", r))
			answer = report.Generic
		}
	}()

	id, reply, static := route(text)
	if static {
		return reply
	}
	return h.lookup(ctx, zap.L(), id)
}

func (h *Handler) lookup(ctx context.Context, log *zap.Logger, id model.Identifier) string {
	r, err := h.enricher.Enrich(ctx, id)
	if err != nil {
		log.Info("bot: lookup failed", zap.Error(err))
		return report.FormatError(err)
	}
	log.Info("bot: lookup succeeded")
	return h.formatter.Format(r)
}

// finish edits the placeholder when there is one and falls back to a fresh
// message when there is not or the edit fails.
func (h *Handler) finish(ctx context.Context, log *zap.Logger, chatID int64, placeholder *MessageRef, text string) {
	if placeholder != nil {
		err := h.messenger.Edit(ctx, *placeholder, text)
		if err == nil {
			return
		}
		log.Warn("bot: edit placeholder failed, sending new message", zap.Error(err))
	}
	if _, err := h.messenger.Send(ctx, chatID, text); err != nil {
		log.Error("bot: send reply failed", zap.Error(err))
	}
}

// route classifies text. static is true when the reply is known without a
// lookup.
func route(text string) (id model.Identifier, reply string, static bool) {
	text = strings.TrimSpace(text)
	if isCommand(text, "start") || isCommand(text, "help") {
		return model.Unrecognized(text), report.Usage, true
	}
	id = classify.Text(text)
	if id.Kind == model.KindUnrecognized {
		return id, report.Hint, true
	}
	return id, "", false
}

// isCommand matches "/name" and "/name@botname", ignoring arguments.
func isCommand(text, name string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	cmd, _, _ := strings.Cut(fields[0], "@")
	return strings.EqualFold(cmd, "/"+name)
}
