package ledger

import (
	"context"
	"fmt"
	"strings"

	"aotw/internal/config"
)

// Sheet is the remote table backing a ledger.
type Sheet interface {
	// Values returns every populated row of the tab, with trailing empty
	// cells trimmed the way the Sheets API reports them.
	Values(ctx context.Context) ([][]string, error)
	// AppendRow appends a row in user-entered mode so the service infers
	// dates, numbers, and formulas.
	AppendRow(ctx context.Context, row []string) error
	// UpdateCells writes several cells in one request.
	UpdateCells(ctx context.Context, updates []CellUpdate) error
}

// Ref names a ledger tab and the credentials used to reach it.
type Ref struct {
	SpreadsheetID string
	Tab           string
	Credentials   config.Credentials
}

// Opener connects to the sheet named by a Ref.
type Opener interface {
	Open(ctx context.Context, ref Ref) (Sheet, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func(ctx context.Context, ref Ref) (Sheet, error)

// Open calls f.
func (f OpenerFunc) Open(ctx context.Context, ref Ref) (Sheet, error) {
	return f(ctx, ref)
}

// CellUpdate is a single-cell write addressed by 1-based row and column.
type CellUpdate struct {
	Row    int
	Column int
	Value  string
}

// A1 returns the cell address, e.g. "C12".
func (u CellUpdate) A1() string {
	return CellAddress(u.Row, u.Column)
}

// CellAddress formats a 1-based row and column in A1 notation.
func CellAddress(row, column int) string {
	return ColumnLetters(column) + fmt.Sprint(row)
}

// ColumnLetters converts a 1-based column number to its letter name
// (1 → A, 27 → AA).
func ColumnLetters(column int) string {
	if column < 1 {
		return ""
	}
	var letters []byte
	for column > 0 {
		column--
		letters = append(letters, byte('A'+column%26))
		column /= 26
	}
	for i, j := 0, len(letters)-1; i < j; i, j = i+1, j-1 {
		letters[i], letters[j] = letters[j], letters[i]
	}
	return string(letters)
}

// QuoteTab renders a tab name for use in an A1 range.
func QuoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
