package enrich_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"aotw/internal/catalog/spotify"
	"aotw/internal/config"
	"aotw/internal/enrich"
	"aotw/internal/ledger"
	"aotw/internal/logging"
	"aotw/internal/picker"
	"aotw/internal/testsupport"
)

const (
	id1 = "6dVIqQ8qmQ5GBnJ9shOYGE"
	id2 = "1ATL5GLyefJaxhQzSPVrLX"
	id3 = "2noRn2Aes5aoNVsU6iWThc"
)

func albumURL(id string) string { return "https://open.spotify.com/album/" + id }

func newRunner(sheet *testsupport.MemorySheet) *enrich.Runner {
	return enrich.NewRunner(sheet.Opener(nil), logging.NewNop(), enrich.WithConcurrency(2))
}

func cellValues(updates []ledger.CellUpdate) map[string]string {
	out := make(map[string]string, len(updates))
	for _, u := range updates {
		out[u.A1()] = u.Value
	}
	return out
}

func TestBackfillPickers(t *testing.T) {
	rotation := picker.NewRotation(config.Pickers{
		FirstCycle: []string{"SS", "DG", "RB"},
		Cycle:      []string{"SS", "DG", "RB", "JC"},
	})
	rows := func() *testsupport.MemorySheet {
		return testsupport.NewMemorySheet(
			[]string{"Pick", "Date", "Artist", "Picker"},
			[]string{"1", "1/5/2025", "A", ""},
			[]string{"2", "1/12/2025", "B", "XX"},
			[]string{"7", "2/23/2025", "C", ""},
			[]string{"n/a", "3/2/2025", "D", ""},
		)
	}

	t.Run("fills empty cells", func(t *testing.T) {
		sheet := rows()
		report, err := newRunner(sheet).BackfillPickers(context.Background(), ledger.Ref{}, rotation, enrich.Options{})
		if err != nil {
			t.Fatalf("BackfillPickers: %v", err)
		}
		got := cellValues(sheet.Updates)
		if len(got) != 2 || got["D2"] != "SS" || got["D4"] != "JC" {
			t.Fatalf("unexpected updates %v", got)
		}
		if report.Scanned != 4 || report.Updated != 2 || report.Skipped != 2 {
			t.Fatalf("unexpected report %+v", report)
		}
	})

	t.Run("force overwrites", func(t *testing.T) {
		sheet := rows()
		if _, err := newRunner(sheet).BackfillPickers(context.Background(), ledger.Ref{}, rotation, enrich.Options{Force: true}); err != nil {
			t.Fatalf("BackfillPickers: %v", err)
		}
		if got := cellValues(sheet.Updates); got["D3"] != "DG" {
			t.Fatalf("expected forced overwrite, got %v", got)
		}
	})

	t.Run("dry run", func(t *testing.T) {
		sheet := rows()
		report, err := newRunner(sheet).BackfillPickers(context.Background(), ledger.Ref{}, rotation, enrich.Options{DryRun: true})
		if err != nil {
			t.Fatalf("BackfillPickers: %v", err)
		}
		if len(sheet.Updates) != 0 {
			t.Fatal("dry run wrote cells")
		}
		if !report.DryRun || len(report.Updates) != 2 {
			t.Fatalf("expected planned updates, got %+v", report)
		}
	})

	t.Run("missing picker column", func(t *testing.T) {
		sheet := testsupport.NewMemorySheet([]string{"Pick", "Date"}, []string{"1", "1/5/2025"})
		_, err := newRunner(sheet).BackfillPickers(context.Background(), ledger.Ref{}, rotation, enrich.Options{})
		if !errors.Is(err, ledger.ErrMissingColumns) {
			t.Fatalf("expected missing column error, got %v", err)
		}
	})
}

type fakeLinks struct {
	mu    sync.Mutex
	links map[string]string
	fail  map[string]bool
	calls int
}

func (f *fakeLinks) AppleMusicURL(_ context.Context, sourceURL string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail[sourceURL] {
		return "", errors.New("rate limited")
	}
	return f.links[sourceURL], nil
}

func TestAppleMusicLinks(t *testing.T) {
	sheet := testsupport.NewMemorySheet(
		[]string{"Pick", "Date", "spotify_album_url", "apple_music_url"},
		[]string{"1", "1/5/2025", albumURL(id1), ""},
		[]string{"2", "1/12/2025", albumURL(id2), "https://music.apple.com/existing"},
		[]string{"3", "1/19/2025", albumURL(id3), ""},
		[]string{"4", "1/26/2025", "https://open.spotify.com/album/unknown0000000000000", ""},
		[]string{"5", "2/2/2025", "", ""},
	)
	links := &fakeLinks{
		links: map[string]string{albumURL(id1): "https://music.apple.com/one"},
		fail:  map[string]bool{albumURL(id3): true},
	}

	report, err := newRunner(sheet).AppleMusicLinks(context.Background(), ledger.Ref{}, links, enrich.Options{})
	if err != nil {
		t.Fatalf("AppleMusicLinks: %v", err)
	}
	if links.calls != 3 {
		t.Fatalf("expected 3 lookups, got %d", links.calls)
	}
	got := cellValues(sheet.Updates)
	if len(got) != 1 || got["D2"] != "https://music.apple.com/one" {
		t.Fatalf("unexpected updates %v", got)
	}
	if report.Updated != 1 || report.Failed != 1 || report.NotFound != 1 || report.Skipped != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
}

type fakeCatalog struct {
	mu      sync.Mutex
	albums  map[string]*spotify.Album
	artists map[string]*spotify.Artist
}

func (f *fakeCatalog) GetAlbum(_ context.Context, id string) (*spotify.Album, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.albums[id]; ok {
		return a, nil
	}
	return nil, errors.New("not found")
}

func (f *fakeCatalog) GetArtist(_ context.Context, id string) (*spotify.Artist, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.artists[id]; ok {
		return a, nil
	}
	return nil, errors.New("not found")
}

func TestSpotifyMetadata(t *testing.T) {
	sheet := testsupport.NewMemorySheet(
		[]string{"Pick", "Date", "spotify_album_id", "spotify_album_url", "label", "genres", "total_tracks"},
		[]string{"1", "1/5/2025", id1, albumURL(id1), "", "", ""},
		[]string{"2", "1/12/2025", "", albumURL(id2), "One Little Independent", "", "10"},
		[]string{"3", "1/19/2025", id3, albumURL(id3), "Label", "rock", "9"},
		[]string{"4", "1/26/2025", "", "", "", "", ""},
	)
	catalog := &fakeCatalog{
		albums: map[string]*spotify.Album{
			id1: {ID: id1, Label: "Parlophone", Genres: []string{"art rock", "alternative"}, TotalTracks: 12},
			id2: {ID: id2, Label: "Ignored", TotalTracks: 10, Artists: []spotify.Artist{{ID: "artist2"}}},
		},
		artists: map[string]*spotify.Artist{"artist2": {ID: "artist2", Genres: []string{"art pop", "icelandic pop"}}},
	}

	report, err := newRunner(sheet).SpotifyMetadata(context.Background(), ledger.Ref{}, catalog, enrich.Options{})
	if err != nil {
		t.Fatalf("SpotifyMetadata: %v", err)
	}
	got := cellValues(sheet.Updates)
	want := map[string]string{
		"E2": "Parlophone",
		"F2": "art rock, alternative",
		"G2": "12",
		"F3": "art pop, icelandic pop",
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected updates %v", got)
	}
	for cell, value := range want {
		if got[cell] != value {
			t.Fatalf("cell %s: expected %q, got %q", cell, value, got[cell])
		}
	}
	if report.Updated != 2 || report.Skipped != 2 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestSpotifyMetadataRequiresColumns(t *testing.T) {
	sheet := testsupport.NewMemorySheet([]string{"Pick", "Date", "label"})
	_, err := newRunner(sheet).SpotifyMetadata(context.Background(), ledger.Ref{}, &fakeCatalog{}, enrich.Options{})
	if !errors.Is(err, ledger.ErrMissingColumns) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}
