package enrich

import (
	"context"
	"strconv"
	"strings"

	"aotw/internal/album"
	"aotw/internal/catalog/spotify"
	"aotw/internal/ledger"
	"aotw/internal/logging"
)

// AlbumSource fetches raw catalog objects.
type AlbumSource interface {
	GetAlbum(ctx context.Context, id string) (*spotify.Album, error)
	GetArtist(ctx context.Context, id string) (*spotify.Artist, error)
}

// SpotifyMetadata fills label, genres, and total_tracks for rows missing any
// of them. Albums without genres fall back to their first artist's genres.
func (r *Runner) SpotifyMetadata(ctx context.Context, ref ledger.Ref, source AlbumSource, opts Options) (Report, error) {
	report := Report{Job: "spotify"}
	l, err := r.connect(ctx, ref)
	if err != nil {
		return report, err
	}
	fields := []string{ledger.ColumnLabel, ledger.ColumnGenres, ledger.ColumnTotalTracks}
	if err := requireColumns(l, fields...); err != nil {
		return report, err
	}

	var pending []ledger.Row
	for _, row := range l.Rows() {
		report.Scanned++
		if rowAlbumID(row) == "" {
			report.Skipped++
			continue
		}
		complete := true
		for _, field := range fields {
			if row.Value(field) == "" {
				complete = false
			}
		}
		if complete && !opts.Force {
			report.Skipped++
			continue
		}
		pending = append(pending, row)
	}

	results, err := r.lookupRows(ctx, pending, func(ctx context.Context, row ledger.Row) rowUpdate {
		id := rowAlbumID(row)
		payload, err := source.GetAlbum(ctx, id)
		if err != nil {
			logging.WarnWithContext(r.logger, "album lookup failed", "enrich_lookup_failed",
				logging.Int("row", row.Number),
				logging.String(logging.FieldAlbumID, id),
				logging.Error(err),
				logging.String(logging.FieldImpact, "row left without catalog metadata"),
			)
			return rowUpdate{failed: true}
		}

		genres := payload.Genres
		if len(genres) == 0 && len(payload.Artists) > 0 && payload.Artists[0].ID != "" {
			artist, err := source.GetArtist(ctx, payload.Artists[0].ID)
			if err != nil {
				r.logger.Debug("artist genre lookup failed", logging.String(logging.FieldAlbumID, id), logging.Error(err))
			} else {
				genres = artist.Genres
			}
		}

		values := map[string]string{
			ledger.ColumnLabel:  strings.TrimSpace(payload.Label),
			ledger.ColumnGenres: album.Record{Genres: genres}.GenreList(),
		}
		if payload.TotalTracks > 0 {
			values[ledger.ColumnTotalTracks] = strconv.Itoa(payload.TotalTracks)
		}

		var cells []ledger.CellUpdate
		for _, field := range fields {
			value := values[field]
			if value == "" || (row.Value(field) != "" && !opts.Force) {
				continue
			}
			cell, _ := l.Cell(row, field)
			cell.Value = value
			cells = append(cells, cell)
		}
		if len(cells) == 0 {
			return rowUpdate{notFound: true}
		}
		return rowUpdate{cells: cells}
	})
	if err != nil {
		return report, err
	}
	return report, r.finish(ctx, l, &report, results, opts)
}

func rowAlbumID(row ledger.Row) string {
	if id := row.Value(ledger.ColumnAlbumID); id != "" {
		return id
	}
	id, _ := album.ExtractID(row.Value(ledger.ColumnAlbumURL))
	return id
}
