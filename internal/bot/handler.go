package bot

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"aotw/internal/album"
	"aotw/internal/logging"
	"aotw/internal/picker"
	"aotw/internal/pipeline"
)

// Replies sent outside the pipeline.
const (
	ReplyInvalidLink = "Couldn't add this album (reason: not a valid Spotify album link). Please post a Spotify album URL."
	ReplyFailure     = "Something went wrong processing that album. Please try again later."
	ReplyBusy        = "Another album is being added right now. Please try again in a minute."
)

// Processor runs a submission through the pipeline.
type Processor interface {
	Process(ctx context.Context, req pipeline.Request) pipeline.Result
}

// LockFunc serializes submissions with other aotw processes. The returned
// release func is called once the submission finishes.
type LockFunc func(ctx context.Context) (release func(), err error)

// Incoming is the part of a chat message the handler reads.
type Incoming struct {
	ChatID    int64
	MessageID int
	Username  string
	FirstName string
	Text      string
}

// Sender names the author for logs.
func (m Incoming) Sender() string {
	if m.Username != "" {
		return m.Username
	}
	return m.FirstName
}

// Reply is a message to send back to the chat.
type Reply struct {
	Text     string
	Markdown bool
}

// Handler turns chat messages into pipeline submissions.
type Handler struct {
	processor   Processor
	directory   picker.Directory
	allowedChat int64
	trigger     *regexp.Regexp
	lock        LockFunc
	logger      *slog.Logger
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithLock serializes submissions through lock.
func WithLock(lock LockFunc) HandlerOption {
	return func(h *Handler) { h.lock = lock }
}

// NewHandler creates a Handler that accepts messages from allowedChat
// containing "<trigger> <album url>".
func NewHandler(processor Processor, directory picker.Directory, allowedChat int64, trigger string, logger *slog.Logger, opts ...HandlerOption) (*Handler, error) {
	trigger = strings.TrimSpace(trigger)
	if trigger == "" {
		return nil, fmt.Errorf("bot trigger required")
	}
	pattern, err := regexp.Compile(`(?i)` + regexp.QuoteMeta(trigger) + `\s+(https://open\.spotify\.com/album/[^\s]+)`)
	if err != nil {
		return nil, fmt.Errorf("compile trigger: %w", err)
	}
	h := &Handler{
		processor:   processor,
		directory:   directory,
		allowedChat: allowedChat,
		trigger:     pattern,
		logger:      logging.NewComponentLogger(logger, "bot"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// Match returns the album link following the trigger, if any.
func (h *Handler) Match(text string) (string, bool) {
	m := h.trigger.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Handle processes one message. ok is false when nothing should be sent.
func (h *Handler) Handle(ctx context.Context, msg Incoming) (reply Reply, ok bool) {
	logger := h.logger.With(logging.String("sender", msg.Sender()), logging.Int64("chat_id", msg.ChatID))

	if msg.ChatID != h.allowedChat {
		logging.WarnWithContext(logger, "ignored message from unauthorized chat", "chat_ignored",
			logging.String(logging.FieldErrorHint, "set telegram.allowed_chat_id to the group id"),
			logging.String(logging.FieldImpact, "message not processed"),
		)
		return Reply{}, false
	}

	url, matched := h.Match(msg.Text)
	if !matched {
		return Reply{}, false
	}
	logger.Info("submission received",
		logging.String("url", url),
		logging.String(logging.FieldEventType, "submission_received"),
	)

	if !album.IsValidURL(url) {
		return Reply{Text: ReplyInvalidLink}, true
	}

	defer func() {
		if r := recover(); r != nil {
			logging.ErrorWithContext(logger, "submission panicked", "submission_panic",
				logging.Any("panic", r),
				logging.String(logging.FieldErrorHint, "report this message and the log to the maintainer"),
			)
			reply, ok = Reply{Text: ReplyFailure}, true
		}
	}()

	if h.lock != nil {
		release, err := h.lock(ctx)
		if err != nil {
			logging.WarnWithContext(logger, "submission lock unavailable", "lock_busy",
				logging.Error(err),
				logging.String(logging.FieldImpact, "submitter asked to retry"),
			)
			return Reply{Text: ReplyBusy}, true
		}
		defer release()
	}

	code, _ := h.directory.Lookup(msg.Username)
	res := h.processor.Process(ctx, pipeline.Request{URL: url, Picker: code})
	if res.Success {
		logger.Info("submission added",
			logging.String("kind", string(res.Kind)),
			logging.String(logging.FieldCorrelationID, res.CorrelationID),
			logging.String(logging.FieldEventType, "submission_added"),
		)
	} else {
		logging.WarnWithContext(logger, "submission rejected", "submission_rejected",
			logging.String("kind", string(res.Kind)),
			logging.String(logging.FieldCorrelationID, res.CorrelationID),
			logging.String(logging.FieldImpact, "album not added"),
		)
	}
	return Reply{Text: res.Message, Markdown: true}, true
}
