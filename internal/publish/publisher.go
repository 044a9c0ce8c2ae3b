package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"

	"aotw/internal/album"
	"aotw/internal/ledger"
	"aotw/internal/logging"
	"aotw/internal/retry"
	"aotw/internal/snapshot"
)

// User-facing publish outcomes.
const (
	MessagePublished = "Website will update shortly"
	MessagePending   = "Website update pending (will sync on next run)"
)

// Source produces the snapshot to publish.
type Source interface {
	Export(ctx context.Context, ref ledger.Ref) ([]snapshot.Entry, error)
}

// Pusher writes content to a path in one attempt.
type Pusher interface {
	Push(ctx context.Context, path string, content []byte, message string) error
}

// Publisher exports the ledger and pushes the snapshot with retries.
type Publisher struct {
	source Source
	pusher Pusher
	path   string
	policy retry.Policy
	logger *slog.Logger
}

// NewPublisher wires a publisher. A nil pusher means publishing is not
// configured and every Publish reports a pending update. A nil
// policy.Retryable defaults to IsTransportError.
func NewPublisher(source Source, pusher Pusher, path string, policy retry.Policy, logger *slog.Logger) *Publisher {
	logger = logging.NewComponentLogger(logger, "publish")
	if policy.Retryable == nil {
		policy.Retryable = IsTransportError
	}
	if policy.Logger == nil {
		policy.Logger = logger
	}
	return &Publisher{source: source, pusher: pusher, path: path, policy: policy, logger: logger}
}

// IsTransportError reports failures of the HTTP exchange itself: network
// errors and unexpected status responses.
func IsTransportError(err error) bool {
	var statusErr *StatusError
	var urlErr *url.Error
	var netErr net.Error
	return errors.As(err, &statusErr) || errors.As(err, &urlErr) || errors.As(err, &netErr)
}

// CommitMessage describes the snapshot change for rec, or a generic update.
func CommitMessage(rec *album.Record) string {
	if rec == nil || rec.Artist == "" || rec.Title == "" {
		return "Update album data"
	}
	return fmt.Sprintf("Add %s - %s", rec.Artist, rec.Title)
}

// PushSnapshot pushes content under the retry policy.
func (p *Publisher) PushSnapshot(ctx context.Context, content []byte, message string) error {
	if p.pusher == nil {
		return errors.New("publish target not configured")
	}
	_, err := retry.Do(ctx, p.policy, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, p.pusher.Push(ctx, p.path, content, message)
	})
	return err
}

// Publish exports the ledger behind ref and pushes it. rec names the album
// that triggered the publish and may be nil. Failures are logged and reported
// as a pending update; they are never returned.
func (p *Publisher) Publish(ctx context.Context, ref ledger.Ref, rec *album.Record) (bool, string) {
	logger := logging.WithContext(ctx, p.logger)
	if p.pusher == nil {
		logging.WarnWithContext(logger, "publish skipped", "publish_skipped",
			logging.String(logging.FieldErrorHint, "set publish token, owner, and repo to enable website updates"),
			logging.String(logging.FieldImpact, "website not updated"),
		)
		return false, MessagePending
	}

	entries, err := p.source.Export(ctx, ref)
	if err != nil {
		p.logFailure(logger, "snapshot export failed", err)
		return false, MessagePending
	}
	content, err := snapshot.Marshal(entries)
	if err != nil {
		p.logFailure(logger, "snapshot encode failed", err)
		return false, MessagePending
	}
	if err := p.PushSnapshot(ctx, content, CommitMessage(rec)); err != nil {
		p.logFailure(logger, "snapshot push failed", err)
		return false, MessagePending
	}

	logger.Info("snapshot published",
		logging.Int("albums", len(entries)),
		logging.String("path", p.path),
		logging.String(logging.FieldEventType, "publish_complete"),
	)
	return true, MessagePublished
}

func (p *Publisher) logFailure(logger *slog.Logger, msg string, err error) {
	logging.WarnWithContext(logger, msg, "publish_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "run 'aotw sync' once the repository is reachable"),
		logging.String(logging.FieldImpact, "website shows stale data until the next publish"),
	)
}
