package ledger

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// Column names understood by the ledger. Lookups are case-insensitive.
const (
	ColumnPick        = "pick"
	ColumnDate        = "date"
	ColumnArtist      = "artist"
	ColumnAlbum       = "album"
	ColumnYear        = "year"
	ColumnAlbumID     = "spotify_album_id"
	ColumnAlbumURL    = "spotify_album_url"
	ColumnArtworkURL  = "artwork_url"
	ColumnAppleMusic  = "apple_music_url"
	ColumnLabel       = "label"
	ColumnGenres      = "genres"
	ColumnTotalTracks = "total_tracks"
	ColumnPicker      = "picker"
)

// ErrMissingColumns reports that an anchor column could not be found.
var ErrMissingColumns = errors.New("missing required columns")

// Columns maps normalized header names to 0-based column indexes. It is
// built once per connection and only exposed through read accessors.
type Columns struct {
	index map[string]int
	width int
}

// NewColumns builds a column map from header cells.
func NewColumns(names []string) Columns {
	cols := Columns{index: make(map[string]int, len(names))}
	for i, name := range names {
		key := normalizeName(name)
		if key == "" {
			continue
		}
		cols.index[key] = i
		if i+1 > cols.width {
			cols.width = i + 1
		}
	}
	return cols
}

// Index returns the 0-based position of the named column.
func (c Columns) Index(name string) (int, bool) {
	idx, ok := c.index[normalizeName(name)]
	return idx, ok
}

// Has reports whether the named column exists.
func (c Columns) Has(name string) bool {
	_, ok := c.Index(name)
	return ok
}

// Width is the highest known column index plus one.
func (c Columns) Width() int {
	return c.width
}

// Header is the resolved header row of a ledger.
type Header struct {
	// Row is the 1-based sheet row holding the column names.
	Row     int
	Columns Columns
}

// LocateHeader finds the Pick and Date anchors, scanning row by row, and
// resolves the header row as the later of the two.
func LocateHeader(values [][]string) (Header, error) {
	pickRow, pickOK := findCell(values, ColumnPick)
	dateRow, dateOK := findCell(values, ColumnDate)
	if !pickOK || !dateOK {
		return Header{}, fmt.Errorf("%w: Pick, Date", ErrMissingColumns)
	}
	row := max(pickRow, dateRow)
	return Header{Row: row, Columns: NewColumns(values[row-1])}, nil
}

// findCell returns the 1-based row of the first cell equal to name.
func findCell(values [][]string, name string) (int, bool) {
	for r, row := range values {
		for _, cell := range row {
			if normalizeName(cell) == name {
				return r + 1, true
			}
		}
	}
	return 0, false
}

func normalizeName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
