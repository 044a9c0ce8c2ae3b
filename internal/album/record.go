package album

import (
	"strings"
	"time"
)

// Record describes one album pick. Catalog lookup fills the descriptive
// fields; the ledger supplies PickNumber and PickedAt.
type Record struct {
	CatalogID    string
	Artist       string
	Title        string
	Year         string
	SourceURL    string
	ArtworkURL   string
	AlternateURL string
	Label        string
	Genres       []string
	TotalTracks  int
	PickNumber   int
	PickedAt     time.Time
	Picker       string
}

// GenreList joins genres the way the ledger stores them.
func (r Record) GenreList() string {
	return strings.Join(r.Genres, ", ")
}

// SplitGenres parses a stored genre cell back into a list.
func SplitGenres(value string) []string {
	var genres []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			genres = append(genres, part)
		}
	}
	return genres
}
