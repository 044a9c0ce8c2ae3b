package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"aotw/internal/album"
	"aotw/internal/config"
	"aotw/internal/history"
	"aotw/internal/ledger"
	"aotw/internal/logging"
	"aotw/internal/notifications"
	"aotw/internal/picker"
	"aotw/internal/publish"
	"aotw/internal/services"
)

// Stage names used in logs and error notifications.
const (
	StageValidate       = "validate"
	StageConnectLedger  = "connect_ledger"
	StageDuplicateCheck = "duplicate_check"
	StageCatalogLookup  = "catalog_lookup"
	StageMetadata       = "metadata_validation"
	StageEnrich         = "enrich"
	StageLedgerAppend   = "ledger_append"
	StagePublish        = "publish"
)

// Request is one album submission. Empty ledger fields fall back to the
// configured ledger.
type Request struct {
	URL             string
	SheetID         string
	SheetTab        string
	CredentialsPath string
	// Picker is the submitter's picker code; empty defers to the rotation
	// when assign_by_rotation is enabled.
	Picker string
}

// Catalog resolves an album link to metadata. It returns an error wrapping
// services.ErrNotFound when the link does not name an album.
type Catalog interface {
	LookupAlbum(ctx context.Context, url string) (album.Record, error)
}

// LinkResolver finds the album on the alternate platform. An empty URL with
// a nil error means no match.
type LinkResolver interface {
	AppleMusicURL(ctx context.Context, sourceURL string) (string, error)
}

// Publisher exports the ledger and pushes the snapshot. It reports failures
// through its return values only.
type Publisher interface {
	Publish(ctx context.Context, ref ledger.Ref, rec *album.Record) (bool, string)
}

// Journal records submissions for later inspection.
type Journal interface {
	RecordSubmission(ctx context.Context, sub history.Submission) (int64, error)
}

// Orchestrator runs submissions through the pipeline stages.
type Orchestrator struct {
	cfg       *config.Config
	opener    ledger.Opener
	catalog   Catalog
	publisher Publisher
	links     LinkResolver
	journal   Journal
	notifier  notifications.Service
	rotation  picker.Rotation
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLinkResolver enables alternate-platform links during enrichment.
func WithLinkResolver(links LinkResolver) Option {
	return func(o *Orchestrator) { o.links = links }
}

// WithJournal records every outcome.
func WithJournal(journal Journal) Option {
	return func(o *Orchestrator) { o.journal = journal }
}

// WithNotifier sends outcome notifications.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// WithClock overrides the time source used for the first pick date.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

// WithIDGenerator overrides correlation id generation.
func WithIDGenerator(newID func() string) Option {
	return func(o *Orchestrator) {
		if newID != nil {
			o.newID = newID
		}
	}
}

// New wires an orchestrator. A nil publisher leaves every success pending.
func New(cfg *config.Config, opener ledger.Opener, catalog Catalog, publisher Publisher, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:       cfg,
		opener:    opener,
		catalog:   catalog,
		publisher: publisher,
		notifier:  notifications.Noop(),
		rotation:  picker.NewRotation(cfg.Pickers),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Ref resolves the ledger a request targets.
func (o *Orchestrator) Ref(req Request) ledger.Ref {
	ref := ledger.Ref{
		SpreadsheetID: strings.TrimSpace(req.SheetID),
		Tab:           strings.TrimSpace(req.SheetTab),
		Credentials:   o.cfg.LedgerCredentials(req.CredentialsPath),
	}
	if ref.SpreadsheetID == "" {
		ref.SpreadsheetID = o.cfg.Ledger.SpreadsheetID
	}
	if ref.Tab == "" {
		ref.Tab = o.cfg.Ledger.Tab
	}
	return ref
}

// Process runs one submission to completion.
func (o *Orchestrator) Process(ctx context.Context, req Request) Result {
	req.URL = strings.TrimSpace(req.URL)
	req.Picker = strings.TrimSpace(req.Picker)
	id := o.newID()
	ctx = services.WithRequestID(ctx, id)
	if req.Picker != "" {
		ctx = services.WithPicker(ctx, req.Picker)
	}

	start := o.now()
	res := o.runGuarded(ctx, req)
	res.CorrelationID = id

	logger := logging.WithContext(ctx, o.logger)
	logger.Info("submission processed",
		logging.String("kind", string(res.Kind)),
		logging.Bool("success", res.Success),
		logging.Bool("partial_failure", res.PartialFailure),
		logging.Duration("elapsed", o.now().Sub(start)),
		logging.String(logging.FieldEventType, "pipeline_complete"),
	)
	o.record(ctx, req, res)
	o.notify(ctx, res)
	return res
}

func (o *Orchestrator) runGuarded(ctx context.Context, req Request) (res Result) {
	tr := &stageTracker{base: o.logger, now: o.now}
	defer func() {
		if r := recover(); r != nil {
			res = tr.recovered(ctx, r)
		}
	}()
	return o.run(ctx, req, tr)
}

func (o *Orchestrator) run(ctx context.Context, req Request, tr *stageTracker) Result {
	// Validate
	stageCtx, logger := tr.enter(ctx, StageValidate)
	if !album.IsValidURL(req.URL) {
		logger.Info("rejected submission url",
			logging.String("url", req.URL),
			logging.String(logging.FieldEventType, "invalid_url"),
		)
		return rejection(KindInvalidURL, MessageInvalidURL)
	}
	albumID, _ := album.ExtractID(req.URL)
	ctx = services.WithAlbumID(stageCtx, albumID)

	// Connect ledger
	ctx, logger = tr.enter(ctx, StageConnectLedger)
	ref := o.Ref(req)
	l, err := o.connect(ctx, ref)
	if err != nil {
		o.stageFailed(logger, "ledger unavailable", err, "check the spreadsheet id, tab, and service account access")
		return failure(KindLedgerUnavailable, MessageLedgerUnavailable, err)
	}

	// Duplicate check
	ctx, logger = tr.enter(ctx, StageDuplicateCheck)
	if prior, dup := l.CheckDuplicate(req.URL); dup {
		logger.Info("album already in ledger",
			logging.String("prior_pick", prior.Pick),
			logging.String("prior_date", prior.Date),
			logging.String(logging.FieldEventType, "duplicate_detected"),
		)
		res := rejection(KindDuplicateFound, "❌ "+prior.Message())
		res.Duplicate = &prior
		return res
	}

	// Catalog lookup
	ctx, logger = tr.enter(ctx, StageCatalogLookup)
	rec, err := o.catalog.LookupAlbum(ctx, req.URL)
	switch {
	case errors.Is(err, services.ErrNotFound):
		logger.Info("catalog has no album for url",
			logging.Error(err),
			logging.String(logging.FieldEventType, "no_album_data"),
		)
		return failure(KindNoAlbumData, MessageNoAlbumData, err)
	case err != nil:
		o.stageFailed(logger, "catalog lookup failed", err, "check Spotify credentials and API availability")
		return failure(KindCatalogLookupFailed, MessageCatalogFailed, err)
	case rec.CatalogID == "" && rec.Title == "":
		logger.Info("catalog returned empty album",
			logging.String(logging.FieldEventType, "no_album_data"),
		)
		return rejection(KindNoAlbumData, MessageNoAlbumData)
	}
	if rec.SourceURL == "" {
		rec.SourceURL = req.URL
	}

	// Metadata validation
	ctx, logger = tr.enter(ctx, StageMetadata)
	if reason, ok := album.Validate(rec); !ok {
		missing := album.MissingFields(rec)
		logger.Info("album metadata incomplete",
			logging.String("missing", strings.Join(missing, ",")),
			logging.String(logging.FieldEventType, "incomplete_metadata"),
		)
		res := rejection(KindIncompleteMetadata, "❌ "+reason)
		res.Missing = missing
		res.Album = &rec
		return res
	}

	// Enrich
	ctx, _ = tr.enter(ctx, StageEnrich)
	next, date := l.NextPickAndDate()
	if date.IsZero() {
		date = o.now()
	}
	rec.PickNumber = next
	rec.PickedAt = date
	o.enrich(ctx, &rec, req.Picker)

	// Ledger append
	ctx, logger = tr.enter(ctx, StageLedgerAppend)
	header := l.Header()
	row := ledger.BuildRow(header.Columns, next, date, rec, header.Row)
	if err := l.Append(ctx, row); err != nil {
		o.stageFailed(logger, "ledger append failed", err, "check sheet permissions and quota; the album was not added")
		res := failure(KindLedgerWriteFailed, MessageLedgerWriteFailed, err)
		res.Album = &rec
		return res
	}
	logger.Info("album appended",
		logging.Int(logging.FieldPick, next),
		logging.String("artist", rec.Artist),
		logging.String("album", rec.Title),
		logging.String(logging.FieldEventType, "ledger_appended"),
	)

	// Publish
	ctx, logger = tr.enter(ctx, StagePublish)
	pending := addedResult(&rec, publish.MessagePending)
	pending.Kind = KindPublishFailed
	pending.PartialFailure = true
	tr.pending = &pending

	published, publishMessage := false, publish.MessagePending
	if o.publisher != nil {
		published, publishMessage = o.publisher.Publish(ctx, ref, &rec)
	}

	res := addedResult(&rec, publishMessage)
	if published {
		tr.complete()
	} else {
		res.Kind = KindPublishFailed
		res.PartialFailure = true
		logging.WarnWithContext(logger, "album added but website not updated", "publish_pending",
			logging.String(logging.FieldErrorHint, "run 'aotw sync' to publish the snapshot"),
			logging.String(logging.FieldImpact, "website shows stale data until the next publish"),
		)
	}
	return res
}

func (o *Orchestrator) connect(ctx context.Context, ref ledger.Ref) (*ledger.Ledger, error) {
	sheet, err := o.opener.Open(ctx, ref)
	if err != nil {
		return nil, err
	}
	return ledger.Open(ctx, sheet)
}

func addedResult(rec *album.Record, publishMessage string) Result {
	return Result{
		Success:        true,
		Kind:           KindAdded,
		Album:          rec,
		PublishMessage: publishMessage,
		Message:        fmt.Sprintf("✅ Added *%s* by *%s* (Pick #%d)\n%s", rec.Title, rec.Artist, rec.PickNumber, publishMessage),
	}
}

func (o *Orchestrator) stageFailed(logger *slog.Logger, msg string, err error, hint string) {
	logging.ErrorWithContext(logger, msg, "stage_failed",
		logging.Error(err),
		logging.String("error_category", services.Category(err)),
		logging.String(logging.FieldErrorHint, hint),
	)
}

func (o *Orchestrator) record(ctx context.Context, req Request, res Result) {
	if o.journal == nil {
		return
	}
	sub := history.Submission{
		CorrelationID:  res.CorrelationID,
		SourceURL:      req.URL,
		Kind:           string(res.Kind),
		Success:        res.Success,
		PartialFailure: res.PartialFailure,
		Message:        res.Message,
		Picker:         req.Picker,
	}
	if sub.SourceURL == "" {
		sub.SourceURL = "(empty)"
	}
	if id, ok := album.ExtractID(req.URL); ok {
		sub.AlbumID = id
	}
	if res.Album != nil {
		sub.PickNumber = res.Album.PickNumber
		sub.Artist = res.Album.Artist
		sub.Album = res.Album.Title
		if res.Album.Picker != "" {
			sub.Picker = res.Album.Picker
		}
	}
	if _, err := o.journal.RecordSubmission(ctx, sub); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, o.logger), "failed to journal submission", "journal_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "submission missing from 'aotw history'"),
		)
	}
}

func (o *Orchestrator) notify(ctx context.Context, res Result) {
	type event struct {
		kind    notifications.Event
		payload notifications.Payload
	}
	var events []event
	switch res.Kind {
	case KindAdded, KindPublishFailed:
		rec := res.Album
		events = append(events, event{notifications.EventAlbumAdded, notifications.Payload{
			"album": rec.Title, "artist": rec.Artist, "pick": rec.PickNumber, "picker": rec.Picker,
		}})
		if res.PartialFailure {
			events = append(events, event{notifications.EventPublishPending, notifications.Payload{"album": rec.Title}})
		}
	case KindLedgerUnavailable, KindCatalogLookupFailed, KindLedgerWriteFailed:
		payload := notifications.Payload{"stage": strings.ReplaceAll(string(res.Kind), "_", " ")}
		if res.cause != nil {
			payload["error"] = res.cause.Error()
		}
		events = append(events, event{notifications.EventPipelineError, payload})
	}

	for _, ev := range events {
		if err := o.notifier.Publish(ctx, ev.kind, ev.payload); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, o.logger), "notification failed", "notification_failed",
				logging.String("event", string(ev.kind)),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the ntfy topic URL"),
				logging.String(logging.FieldImpact, "notification not delivered"),
			)
		}
	}
}
