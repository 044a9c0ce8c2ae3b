package ledger

import (
	"strconv"
	"time"

	"aotw/internal/album"
)

// PickFormula returns the self-numbering pick cell for a ledger whose header
// sits on headerRow.
func PickFormula(headerRow int) string {
	return "=ROW()-" + strconv.Itoa(headerRow)
}

// BuildRow lays out a record in header order. The row is as wide as the
// highest known column; columns the sheet lacks are skipped. When headerRow is
// positive the pick cell holds PickFormula instead of the literal pick.
func BuildRow(cols Columns, pick int, date time.Time, rec album.Record, headerRow int) []string {
	row := make([]string, cols.Width())
	set := func(name, value string) {
		if idx, ok := cols.Index(name); ok {
			row[idx] = value
		}
	}

	switch {
	case headerRow > 0:
		set(ColumnPick, PickFormula(headerRow))
	case pick > 0:
		set(ColumnPick, strconv.Itoa(pick))
	}
	set(ColumnDate, FormatSheetDate(date))
	set(ColumnArtist, rec.Artist)
	set(ColumnAlbum, rec.Title)
	set(ColumnYear, rec.Year)
	set(ColumnAlbumID, rec.CatalogID)
	set(ColumnAlbumURL, rec.SourceURL)
	set(ColumnArtworkURL, rec.ArtworkURL)
	set(ColumnAppleMusic, rec.AlternateURL)
	set(ColumnLabel, rec.Label)
	set(ColumnGenres, rec.GenreList())
	if rec.TotalTracks > 0 {
		set(ColumnTotalTracks, strconv.Itoa(rec.TotalTracks))
	}
	set(ColumnPicker, rec.Picker)
	return row
}
