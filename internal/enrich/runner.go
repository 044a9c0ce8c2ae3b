package enrich

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"aotw/internal/ledger"
	"aotw/internal/logging"
	"aotw/internal/services"
)

const defaultConcurrency = 4

// Options controls a job run.
type Options struct {
	// DryRun computes updates without writing them.
	DryRun bool
	// Force rewrites cells that already hold a value.
	Force bool
}

// Report summarizes a job run.
type Report struct {
	Job     string
	Scanned int
	// Updated counts rows with at least one cell written (or planned, in a
	// dry run).
	Updated  int
	Skipped  int
	NotFound int
	Failed   int
	DryRun   bool
	Updates  []ledger.CellUpdate
}

// Runner executes enrichment jobs against ledgers reached through an opener.
type Runner struct {
	opener      ledger.Opener
	logger      *slog.Logger
	concurrency int
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency bounds concurrent remote lookups.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// NewRunner creates a Runner.
func NewRunner(opener ledger.Opener, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		opener:      opener,
		logger:      logging.NewComponentLogger(logger, "enrich"),
		concurrency: defaultConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) connect(ctx context.Context, ref ledger.Ref) (*ledger.Ledger, error) {
	sheet, err := r.opener.Open(ctx, ref)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "enrich", "connect ledger", "", err)
	}
	return ledger.Open(ctx, sheet)
}

func requireColumns(l *ledger.Ledger, names ...string) error {
	var missing []string
	for _, name := range names {
		if !l.Header().Columns.Has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return services.Wrap(services.ErrValidation, "enrich", "check columns",
		fmt.Sprintf("add the %v column header first", missing), ledger.ErrMissingColumns)
}

// rowUpdate is the outcome of one row's lookup.
type rowUpdate struct {
	cells    []ledger.CellUpdate
	notFound bool
	failed   bool
}

// lookupRows runs fn for every row with bounded concurrency. Results line up
// with rows. Only context cancellation stops the fan-out.
func (r *Runner) lookupRows(ctx context.Context, rows []ledger.Row, fn func(context.Context, ledger.Row) rowUpdate) ([]rowUpdate, error) {
	results := make([]rowUpdate, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.concurrency)
	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = fn(gctx, row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// finish tallies results and writes the batch unless the run is dry.
func (r *Runner) finish(ctx context.Context, l *ledger.Ledger, report *Report, results []rowUpdate, opts Options) error {
	for _, res := range results {
		switch {
		case res.failed:
			report.Failed++
		case res.notFound:
			report.NotFound++
		case len(res.cells) > 0:
			report.Updated++
			report.Updates = append(report.Updates, res.cells...)
		}
	}
	report.DryRun = opts.DryRun

	logger := r.logger.With(logging.String("job", report.Job))
	if len(report.Updates) == 0 {
		logger.Info("nothing to update",
			logging.Int("scanned", report.Scanned),
			logging.String(logging.FieldEventType, "enrich_noop"),
		)
		return nil
	}
	if opts.DryRun {
		logger.Info("dry run; no changes written",
			logging.Int("rows", report.Updated),
			logging.Int("cells", len(report.Updates)),
			logging.String(logging.FieldEventType, "enrich_dry_run"),
		)
		return nil
	}
	if err := l.UpdateCells(ctx, report.Updates); err != nil {
		return err
	}
	logger.Info("ledger updated",
		logging.Int("rows", report.Updated),
		logging.Int("cells", len(report.Updates)),
		logging.Int("not_found", report.NotFound),
		logging.Int("failed", report.Failed),
		logging.String(logging.FieldEventType, "enrich_complete"),
	)
	return nil
}
