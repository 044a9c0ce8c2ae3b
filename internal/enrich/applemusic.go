package enrich

import (
	"context"

	"aotw/internal/ledger"
	"aotw/internal/logging"
)

// LinkResolver finds an album on Apple Music.
type LinkResolver interface {
	AppleMusicURL(ctx context.Context, sourceURL string) (string, error)
}

// AppleMusicLinks fills empty apple_music_url cells. Albums the resolver does
// not know are left empty and counted as not found.
func (r *Runner) AppleMusicLinks(ctx context.Context, ref ledger.Ref, links LinkResolver, opts Options) (Report, error) {
	report := Report{Job: "apple-music"}
	l, err := r.connect(ctx, ref)
	if err != nil {
		return report, err
	}
	if err := requireColumns(l, ledger.ColumnAppleMusic, ledger.ColumnAlbumURL); err != nil {
		return report, err
	}

	var pending []ledger.Row
	for _, row := range l.Rows() {
		report.Scanned++
		if row.Value(ledger.ColumnAlbumURL) == "" || (row.Value(ledger.ColumnAppleMusic) != "" && !opts.Force) {
			report.Skipped++
			continue
		}
		pending = append(pending, row)
	}

	results, err := r.lookupRows(ctx, pending, func(ctx context.Context, row ledger.Row) rowUpdate {
		sourceURL := row.Value(ledger.ColumnAlbumURL)
		link, err := links.AppleMusicURL(ctx, sourceURL)
		if err != nil {
			logging.WarnWithContext(r.logger, "apple music lookup failed", "enrich_lookup_failed",
				logging.Int("row", row.Number),
				logging.String("spotify_album_url", sourceURL),
				logging.Error(err),
				logging.String(logging.FieldImpact, "row left without apple_music_url"),
			)
			return rowUpdate{failed: true}
		}
		if link == "" {
			return rowUpdate{notFound: true}
		}
		cell, _ := l.Cell(row, ledger.ColumnAppleMusic)
		cell.Value = link
		return rowUpdate{cells: []ledger.CellUpdate{cell}}
	})
	if err != nil {
		return report, err
	}
	return report, r.finish(ctx, l, &report, results, opts)
}
