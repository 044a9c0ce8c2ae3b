package ledger_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"aotw/internal/album"
	"aotw/internal/ledger"
	"aotw/internal/services"
	"aotw/internal/testsupport"
)

const (
	idA = "6dVIqQ8qmQ5GBnJ9shOYGE"
	idB = "1ATL5GLyefJaxhQzSPVrLX"
)

var header = []string{"Pick", "Date", "Artist", "Album", "Year", "spotify_album_id", "spotify_album_url", "artwork_url", "picker"}

func openLedger(t *testing.T, rows ...[]string) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(context.Background(), testsupport.NewMemorySheet(rows...))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return l
}

func TestLocateHeaderUsesLaterAnchorRow(t *testing.T) {
	values := [][]string{
		{"Album of the Week", "", "Date"},
		{"PICK", " date ", "Artist", "Album"},
		{"1", "1/5/2025", "Radiohead", "OK Computer"},
	}
	h, err := ledger.LocateHeader(values)
	if err != nil {
		t.Fatalf("LocateHeader: %v", err)
	}
	if h.Row != 2 {
		t.Fatalf("expected header row 2, got %d", h.Row)
	}
	if idx, ok := h.Columns.Index("ARTIST"); !ok || idx != 2 {
		t.Fatalf("expected artist at 2, got %d %v", idx, ok)
	}
	if h.Columns.Width() != 4 {
		t.Fatalf("unexpected width %d", h.Columns.Width())
	}
}

func TestLocateHeaderMissingAnchors(t *testing.T) {
	_, err := ledger.LocateHeader([][]string{{"Pick", "Artist"}})
	if !errors.Is(err, ledger.ErrMissingColumns) {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
	if err.Error() != "missing required columns: Pick, Date" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestOpenReportsMissingColumns(t *testing.T) {
	_, err := ledger.Open(context.Background(), testsupport.NewMemorySheet([]string{"Artist"}))
	if !errors.Is(err, ledger.ErrMissingColumns) || !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected missing columns validation error, got %v", err)
	}
}

func TestOpenWrapsReadFailure(t *testing.T) {
	sheet := testsupport.NewMemorySheet()
	sheet.ValuesErr = errors.New("quota exceeded")
	_, err := ledger.Open(context.Background(), sheet)
	if !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
}

func TestDuplicateIndexKeyedByID(t *testing.T) {
	l := openLedger(t,
		header,
		[]string{"1", "1/5/2025", "Radiohead", "OK Computer", "1997", idA, "https://open.spotify.com/album/" + idA + "?si=first"},
		[]string{"", "", "", "", "", "", ""},
		[]string{"2", "1/12/2025", "X", "Y", "2000", "", "not a url"},
		[]string{"3", "1/19/2025", "X", "Y", "2000", "", ""},
	)

	index := l.DuplicateIndex()
	if len(index) != 1 {
		t.Fatalf("expected one indexed album, got %v", index)
	}
	if index[idA] != (ledger.PriorPick{Pick: "1", Date: "1/5/2025"}) {
		t.Fatalf("unexpected prior pick %+v", index[idA])
	}

	prior, dup := l.CheckDuplicate("https://open.spotify.com/album/" + idA + "?si=other")
	if !dup {
		t.Fatal("expected query-string variant to be a duplicate")
	}
	if prior.Message() != "Already added: Pick #1 on 1/5/2025" {
		t.Fatalf("unexpected message %q", prior.Message())
	}
	if _, dup := l.CheckDuplicate("https://open.spotify.com/album/" + idB); dup {
		t.Fatal("expected unseen album not to be a duplicate")
	}
	if _, dup := l.CheckDuplicate("https://open.spotify.com/track/abc"); dup {
		t.Fatal("expected url without id not to collide")
	}
}

func TestDuplicateIndexWithoutURLColumn(t *testing.T) {
	l := openLedger(t, []string{"Pick", "Date", "Artist"}, []string{"1", "1/5/2025", "Radiohead"})
	if index := l.DuplicateIndex(); len(index) != 0 {
		t.Fatalf("expected empty index, got %v", index)
	}
}

func TestNextPickAndDate(t *testing.T) {
	t.Run("empty ledger", func(t *testing.T) {
		l := openLedger(t, header)
		pick, date := l.NextPickAndDate()
		if pick != 1 || !date.IsZero() {
			t.Fatalf("expected (1, zero), got (%d, %v)", pick, date)
		}
	})

	t.Run("one prior row", func(t *testing.T) {
		l := openLedger(t, header, []string{"5", "2025-01-05"})
		pick, date := l.NextPickAndDate()
		want := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
		if pick != 6 || !date.Equal(want) {
			t.Fatalf("expected (6, %v), got (%d, %v)", want, pick, date)
		}
	})

	t.Run("tolerates malformed cells", func(t *testing.T) {
		l := openLedger(t, header,
			[]string{"7.0", "1/5/2025"},
			[]string{"n/a", "someday"},
			[]string{"", ""},
		)
		pick, date := l.NextPickAndDate()
		if pick != 8 || ledger.FormatSheetDate(date) != "1/12/2025" {
			t.Fatalf("unexpected (%d, %v)", pick, date)
		}
	})

	t.Run("ignores non-finite and oversized picks", func(t *testing.T) {
		l := openLedger(t, header,
			[]string{"5", "1/5/2025"},
			[]string{"NaN", ""},
			[]string{"1e30", ""},
			[]string{"-Inf", ""},
		)
		pick, _ := l.NextPickAndDate()
		if pick != 6 {
			t.Fatalf("expected pick 6, got %d", pick)
		}
	})
}

func TestParsePick(t *testing.T) {
	cases := []struct {
		value string
		want  int
		ok    bool
	}{
		{value: "12", want: 12, ok: true},
		{value: " 12.0 ", want: 12, ok: true},
		{value: "", ok: false},
		{value: "n/a", ok: false},
		{value: "NaN", ok: false},
		{value: "Inf", ok: false},
		{value: "-Inf", ok: false},
		{value: "1e30", ok: false},
		{value: "-1e30", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.value, func(t *testing.T) {
			got, ok := ledger.ParsePick(tc.value)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("ParsePick(%q) = (%d, %v), want (%d, %v)", tc.value, got, ok, tc.want, tc.ok)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	want := time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	for _, value := range []string{"1/5/2025", "01/05/2025", "2025-01-05", "2025-01-05T10:30:00", "2025-01-05T10:30:00Z"} {
		got, ok := ledger.ParseDate(value)
		if !ok || !got.Equal(want) {
			t.Fatalf("ParseDate(%q) = %v %v", value, got, ok)
		}
	}
	for _, value := range []string{"", "Jan 5", "5/1"} {
		if _, ok := ledger.ParseDate(value); ok {
			t.Fatalf("expected %q to be rejected", value)
		}
	}
}

func TestBuildRowUsesFormulaAndSkipsUnknownColumns(t *testing.T) {
	cols := ledger.NewColumns([]string{"Pick", "Date", "Artist", "Album", "Notes", "spotify_album_url", "total_tracks"})
	rec := album.Record{
		Artist:      "Radiohead",
		Title:       "OK Computer",
		SourceURL:   "https://open.spotify.com/album/" + idA,
		ArtworkURL:  "https://i.scdn.co/image/a",
		TotalTracks: 12,
	}
	date := time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)

	row := ledger.BuildRow(cols, 6, date, rec, 1)
	want := []string{"=ROW()-1", "1/12/2025", "Radiohead", "OK Computer", "", rec.SourceURL, "12"}
	if len(row) != len(want) {
		t.Fatalf("unexpected row width %d: %v", len(row), row)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("cell %d = %q, want %q (row %v)", i, row[i], want[i], row)
		}
	}

	literal := ledger.BuildRow(cols, 6, time.Time{}, rec, 0)
	if literal[0] != "6" || literal[1] != "" {
		t.Fatalf("expected literal pick and blank date, got %v", literal)
	}
}

func TestAppendWritesThroughSheet(t *testing.T) {
	sheet := testsupport.NewMemorySheet(header)
	l, err := ledger.Open(context.Background(), sheet)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	row := ledger.BuildRow(l.Header().Columns, 1, time.Time{}, album.Record{Artist: "A"}, l.Header().Row)
	if err := l.Append(context.Background(), row); err != nil {
		t.Fatalf("Append: %v", err)
	}
	rows := sheet.Rows()
	if got := rows[len(rows)-1][0]; got != "1" {
		t.Fatalf("expected formula to evaluate to pick 1, got %q", got)
	}

	sheet.AppendErr = errors.New("boom")
	if err := l.Append(context.Background(), row); !errors.Is(err, services.ErrExternal) {
		t.Fatalf("expected external error, got %v", err)
	}
}

func TestUpdateCellsAndAddresses(t *testing.T) {
	sheet := testsupport.NewMemorySheet(header, []string{"1", "1/5/2025"})
	l, err := ledger.Open(context.Background(), sheet)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	row := l.Rows()[0]
	cell, ok := l.Cell(row, ledger.ColumnPicker)
	if !ok {
		t.Fatal("expected picker column")
	}
	cell.Value = "SS"
	if cell.A1() != "I2" {
		t.Fatalf("unexpected address %q", cell.A1())
	}
	if err := l.UpdateCells(context.Background(), []ledger.CellUpdate{cell}); err != nil {
		t.Fatalf("UpdateCells: %v", err)
	}
	if got := sheet.Rows()[1][8]; got != "SS" {
		t.Fatalf("expected picker written, got %q", got)
	}
	if err := l.UpdateCells(context.Background(), nil); err != nil {
		t.Fatalf("empty batch should be a no-op: %v", err)
	}
}

func TestColumnLetters(t *testing.T) {
	cases := map[int]string{1: "A", 26: "Z", 27: "AA", 52: "AZ", 703: "AAA", 0: ""}
	for column, want := range cases {
		if got := ledger.ColumnLetters(column); got != want {
			t.Fatalf("ColumnLetters(%d) = %q, want %q", column, got, want)
		}
	}
	if got := ledger.QuoteTab("Bob's picks"); got != "'Bob''s picks'" {
		t.Fatalf("unexpected quoted tab %q", got)
	}
}
