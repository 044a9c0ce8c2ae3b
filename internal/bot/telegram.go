package bot

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"aotw/internal/logging"
)

const pollTimeoutSeconds = 60

// Runner long-polls Telegram and answers messages through a Handler.
type Runner struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	logger  *slog.Logger
}

// NewRunner authenticates with Telegram.
func NewRunner(token string, handler *Handler, logger *slog.Logger) (*Runner, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect telegram: %w", err)
	}
	return &Runner{api: api, handler: handler, logger: logging.NewComponentLogger(logger, "bot")}, nil
}

// Run handles updates until ctx is cancelled. Messages are processed one at
// a time in arrival order.
func (r *Runner) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := r.api.GetUpdatesChan(u)
	r.logger.Info("bot polling started",
		logging.String("bot", r.api.Self.UserName),
		logging.String(logging.FieldEventType, "bot_started"),
	)

	for {
		select {
		case <-ctx.Done():
			r.api.StopReceivingUpdates()
			r.logger.Info("bot polling stopped", logging.String(logging.FieldEventType, "bot_stopped"))
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			msg, ok := incomingFromUpdate(update)
			if !ok {
				continue
			}
			reply, send := r.handler.Handle(ctx, msg)
			if !send {
				continue
			}
			if _, err := r.api.Send(replyConfig(msg, reply)); err != nil {
				logging.WarnWithContext(r.logger, "failed to send reply", "reply_failed",
					logging.Int64("chat_id", msg.ChatID),
					logging.Error(err),
					logging.String(logging.FieldImpact, "submitter did not receive the outcome"),
				)
			}
		}
	}
}

// incomingFromUpdate extracts a text message; commands and non-text updates
// are skipped.
func incomingFromUpdate(update tgbotapi.Update) (Incoming, bool) {
	m := update.Message
	if m == nil || m.Chat == nil || m.Text == "" || m.IsCommand() {
		return Incoming{}, false
	}
	in := Incoming{ChatID: m.Chat.ID, MessageID: m.MessageID, Text: m.Text}
	if m.From != nil {
		in.Username = m.From.UserName
		in.FirstName = m.From.FirstName
	}
	return in, true
}

func replyConfig(msg Incoming, reply Reply) tgbotapi.MessageConfig {
	cfg := tgbotapi.NewMessage(msg.ChatID, reply.Text)
	cfg.ReplyToMessageID = msg.MessageID
	if reply.Markdown {
		cfg.ParseMode = tgbotapi.ModeMarkdown
	}
	return cfg
}
