package snapshot

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"aotw/internal/album"
	"aotw/internal/ledger"
	"aotw/internal/logging"
	"aotw/internal/services"
)

// Entry is one album in the published snapshot.
type Entry struct {
	SpotifyAlbumID string `json:"spotify_album_id"`
	PickNumber     int    `json:"pick_number"`
	PickedAt       string `json:"picked_at"`
	Artist         string `json:"artist"`
	Album          string `json:"album"`
	Year           string `json:"year"`
	Label          string `json:"label"`
	Genres         string `json:"genres"`
	TotalTracks    string `json:"total_tracks"`
	ArtworkURL     string `json:"artwork_url"`
	SpotifyURL     string `json:"spotify_url"`
	AppleMusicURL  string `json:"apple_music_url"`
	Picker         string `json:"picker"`
}

// Exporter reads snapshots from a ledger.
type Exporter struct {
	opener ledger.Opener
	logger *slog.Logger
}

// NewExporter creates an Exporter that connects through opener.
func NewExporter(opener ledger.Opener, logger *slog.Logger) *Exporter {
	return &Exporter{opener: opener, logger: logging.NewComponentLogger(logger, "snapshot")}
}

// Export connects to the ledger fresh and returns its entries.
func (e *Exporter) Export(ctx context.Context, ref ledger.Ref) ([]Entry, error) {
	sheet, err := e.opener.Open(ctx, ref)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "snapshot", "connect ledger", "", err)
	}
	l, err := ledger.Open(ctx, sheet)
	if err != nil {
		return nil, err
	}
	entries := FromLedger(l, e.logger)
	e.logger.Debug("snapshot exported",
		logging.Int("albums", len(entries)),
		logging.String(logging.FieldEventType, "snapshot_exported"),
	)
	return entries, nil
}

// FromLedger converts ledger rows into entries sorted by pick number. Rows
// whose URL carries no album id are skipped with a warning; unparseable pick
// numbers become 0.
func FromLedger(l *ledger.Ledger, logger *slog.Logger) []Entry {
	var entries []Entry
	for _, row := range l.Rows() {
		sourceURL := row.Value(ledger.ColumnAlbumURL)
		id, ok := album.ExtractID(sourceURL)
		if !ok {
			logging.WarnWithContext(logger, "skipping row without album id", "snapshot_row_skipped",
				logging.Int("row", row.Number),
				logging.String("spotify_album_url", sourceURL),
				logging.String(logging.FieldErrorHint, "fix the spotify_album_url cell in the sheet"),
				logging.String(logging.FieldImpact, "album missing from website"),
			)
			continue
		}
		pick, _ := ledger.ParsePick(row.Value(ledger.ColumnPick))
		var pickedAt string
		if date, ok := ledger.ParseDate(row.Value(ledger.ColumnDate)); ok {
			pickedAt = ledger.FormatISODate(date)
		}
		entries = append(entries, Entry{
			SpotifyAlbumID: id,
			PickNumber:     pick,
			PickedAt:       pickedAt,
			Artist:         row.Value(ledger.ColumnArtist),
			Album:          row.Value(ledger.ColumnAlbum),
			Year:           row.Value(ledger.ColumnYear),
			Label:          row.Value(ledger.ColumnLabel),
			Genres:         row.Value(ledger.ColumnGenres),
			TotalTracks:    row.Value(ledger.ColumnTotalTracks),
			ArtworkURL:     row.Value(ledger.ColumnArtworkURL),
			SpotifyURL:     sourceURL,
			AppleMusicURL:  row.Value(ledger.ColumnAppleMusic),
			Picker:         row.Value(ledger.ColumnPicker),
		})
	}
	slices.SortStableFunc(entries, func(a, b Entry) int {
		return cmp.Compare(a.PickNumber, b.PickNumber)
	})
	return entries
}

// Marshal encodes entries as an indented JSON array. An empty snapshot
// encodes as [].
func Marshal(entries []Entry) ([]byte, error) {
	if entries == nil {
		entries = []Entry{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteFile writes the encoded snapshot to path, replacing it atomically.
func WriteFile(path string, entries []Entry) error {
	data, err := Marshal(entries)
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
