package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"aotw/internal/logging"
	"aotw/internal/services"
)

// stageTracker follows one run through its stages. Entering a stage marks
// the previous one complete; a run that returns early leaves its last stage
// open so only stage_failed is logged for it.
type stageTracker struct {
	base    *slog.Logger
	now     func() time.Time
	name    string
	started time.Time
	logger  *slog.Logger
	open    bool
	// pending is the partial success owed to the submitter once the row is
	// appended; set before publishing starts.
	pending *Result
}

func (t *stageTracker) enter(ctx context.Context, name string) (context.Context, *slog.Logger) {
	t.complete()
	ctx = services.WithStage(ctx, name)
	t.name = name
	t.started = t.now()
	t.open = true
	t.logger = logging.WithContext(ctx, t.base)
	t.logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))
	return ctx, t.logger
}

func (t *stageTracker) complete() {
	if !t.open {
		return
	}
	t.open = false
	t.logger.Info("stage completed",
		logging.Duration("elapsed", t.now().Sub(t.started)),
		logging.String(logging.FieldEventType, "stage_complete"),
	)
}

// recovered converts a panic in the current stage into the failure that stage
// would have reported. A panic while publishing keeps the appended row's
// partial success.
func (t *stageTracker) recovered(ctx context.Context, r any) Result {
	err := fmt.Errorf("panic in %s stage: %v", t.name, r)
	logger := t.logger
	if logger == nil {
		logger = logging.WithContext(services.WithStage(ctx, t.name), t.base)
	}
	logging.ErrorWithContext(logger, "stage panicked", "stage_failed",
		logging.Error(err),
		logging.String("error_category", services.Category(err)),
		logging.String("stack", string(debug.Stack())),
		logging.String(logging.FieldErrorHint, "report this failure with the correlation id"),
	)
	t.open = false

	if t.pending != nil {
		return *t.pending
	}
	switch t.name {
	case StageConnectLedger, StageDuplicateCheck:
		return failure(KindLedgerUnavailable, MessageLedgerUnavailable, err)
	case StageEnrich, StageLedgerAppend:
		return failure(KindLedgerWriteFailed, MessageLedgerWriteFailed, err)
	default:
		return failure(KindCatalogLookupFailed, MessageCatalogFailed, err)
	}
}
