package album

import (
	"fmt"
	"strings"
)

// Required field names, in reporting order.
const (
	FieldArtist     = "artist"
	FieldTitle      = "album"
	FieldYear       = "year"
	FieldSourceURL  = "spotify_album_url"
	FieldArtworkURL = "artwork_url"
)

// MissingFields lists required fields that are absent or blank.
func MissingFields(r Record) []string {
	checks := []struct {
		name  string
		value string
	}{
		{FieldArtist, r.Artist},
		{FieldTitle, r.Title},
		{FieldYear, r.Year},
		{FieldSourceURL, r.SourceURL},
		{FieldArtworkURL, r.ArtworkURL},
	}
	var missing []string
	for _, check := range checks {
		if strings.TrimSpace(check.value) == "" {
			missing = append(missing, check.name)
		}
	}
	return missing
}

// Validate returns ("", true) for a complete record, otherwise a reason
// naming every missing field.
func Validate(r Record) (string, bool) {
	missing := MissingFields(r)
	if len(missing) == 0 {
		return "", true
	}
	return fmt.Sprintf("Missing required fields: %s", strings.Join(missing, ", ")), false
}
