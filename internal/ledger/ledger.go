package ledger

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"aotw/internal/album"
	"aotw/internal/services"
)

// Ledger is a connected view of the pick sheet. The values and header are
// read once at Open and never refreshed; reconnect to observe new rows.
type Ledger struct {
	sheet  Sheet
	values [][]string
	header Header
}

// Open reads the sheet and resolves its header.
func Open(ctx context.Context, sheet Sheet) (*Ledger, error) {
	values, err := sheet.Values(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, "ledger", "read values", "failed to read sheet", err)
	}
	header, err := LocateHeader(values)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "ledger", "locate header", "", err)
	}
	return &Ledger{sheet: sheet, values: values, header: header}, nil
}

// Header returns the resolved header.
func (l *Ledger) Header() Header {
	return l.header
}

// Row is one data row below the header.
type Row struct {
	// Number is the 1-based sheet row.
	Number  int
	cells   []string
	columns Columns
}

// Value returns the trimmed cell under the named column, or "".
func (r Row) Value(name string) string {
	idx, ok := r.columns.Index(name)
	if !ok || idx >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[idx])
}

// Blank reports whether every cell is empty.
func (r Row) Blank() bool {
	for _, cell := range r.cells {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Rows returns the non-blank data rows in sheet order.
func (l *Ledger) Rows() []Row {
	var rows []Row
	for i := l.header.Row; i < len(l.values); i++ {
		row := Row{Number: i + 1, cells: l.values[i], columns: l.header.Columns}
		if row.Blank() {
			continue
		}
		rows = append(rows, row)
	}
	return rows
}

// PriorPick locates an album already in the ledger.
type PriorPick struct {
	Pick string
	Date string
}

// Message describes the earlier pick for a rejected submission.
func (p PriorPick) Message() string {
	return fmt.Sprintf("Already added: Pick #%s on %s", p.Pick, p.Date)
}

// DuplicateIndex maps catalog ids to the pick that added them. Rows whose URL
// cell is empty or carries no id are skipped; later rows win. A ledger without
// a URL column yields an empty index.
func (l *Ledger) DuplicateIndex() map[string]PriorPick {
	index := map[string]PriorPick{}
	if !l.header.Columns.Has(ColumnAlbumURL) {
		return index
	}
	for _, row := range l.Rows() {
		url := row.Value(ColumnAlbumURL)
		if url == "" {
			continue
		}
		id, ok := album.ExtractID(url)
		if !ok {
			continue
		}
		index[id] = PriorPick{Pick: row.Value(ColumnPick), Date: row.Value(ColumnDate)}
	}
	return index
}

// CheckDuplicate reports whether the album behind url is already recorded.
// A URL without an id never collides.
func (l *Ledger) CheckDuplicate(url string) (PriorPick, bool) {
	id, ok := album.ExtractID(url)
	if !ok {
		return PriorPick{}, false
	}
	prior, found := l.DuplicateIndex()[id]
	return prior, found
}

// NextPickAndDate returns the pick after the last parseable pick number (1
// when none) and the date seven days after the last parseable date (zero when
// none). Malformed cells are skipped.
func (l *Ledger) NextPickAndDate() (int, time.Time) {
	lastPick, havePick := 0, false
	var lastDate time.Time
	for _, row := range l.Rows() {
		if pick, ok := ParsePick(row.Value(ColumnPick)); ok {
			lastPick, havePick = pick, true
		}
		if date, ok := ParseDate(row.Value(ColumnDate)); ok {
			lastDate = date
		}
	}
	next := 1
	if havePick {
		next = lastPick + 1
	}
	if lastDate.IsZero() {
		return next, time.Time{}
	}
	return next, lastDate.AddDate(0, 0, 7)
}

// ParsePick reads a pick cell, tolerating decimal renderings such as "12.0".
// NaN, infinities, and values outside the int range are rejected.
func ParsePick(value string) (int, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	if f < math.MinInt || f >= math.MaxInt {
		return 0, false
	}
	return int(f), true
}

// Append adds a row built by BuildRow.
func (l *Ledger) Append(ctx context.Context, row []string) error {
	if err := l.sheet.AppendRow(ctx, row); err != nil {
		return services.Wrap(services.ErrExternal, "ledger", "append row", "failed to append", err)
	}
	return nil
}

// UpdateCells writes cell updates in one batch. An empty batch is a no-op.
func (l *Ledger) UpdateCells(ctx context.Context, updates []CellUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	if err := l.sheet.UpdateCells(ctx, updates); err != nil {
		return services.Wrap(services.ErrExternal, "ledger", "update cells", fmt.Sprintf("failed to write %d cells", len(updates)), err)
	}
	return nil
}

// Cell addresses the named column of row for an update.
func (l *Ledger) Cell(row Row, name string) (CellUpdate, bool) {
	idx, ok := l.header.Columns.Index(name)
	if !ok {
		return CellUpdate{}, false
	}
	return CellUpdate{Row: row.Number, Column: idx + 1}, true
}
