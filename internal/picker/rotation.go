package picker

import (
	"strings"

	"aotw/internal/config"
)

// Rotation assigns picks in order: the first cycle once, then Cycle repeating.
type Rotation struct {
	First []string
	Cycle []string
}

// NewRotation builds the rotation from configuration.
func NewRotation(cfg config.Pickers) Rotation {
	return Rotation{
		First: append([]string(nil), cfg.FirstCycle...),
		Cycle: append([]string(nil), cfg.Cycle...),
	}
}

// For returns the picker code for a 1-based pick number, or "" when the
// rotation has no answer.
func (r Rotation) For(pick int) string {
	if pick < 1 {
		return ""
	}
	if pick <= len(r.First) {
		return r.First[pick-1]
	}
	if len(r.Cycle) == 0 {
		return ""
	}
	return r.Cycle[(pick-1-len(r.First))%len(r.Cycle)]
}

// Directory maps chat usernames to picker codes.
type Directory struct {
	codes map[string]string
}

// NewDirectory builds a directory from a username → code map.
func NewDirectory(usernames map[string]string) Directory {
	codes := make(map[string]string, len(usernames))
	for name, code := range usernames {
		codes[normalizeUsername(name)] = strings.ToUpper(strings.TrimSpace(code))
	}
	return Directory{codes: codes}
}

// Lookup returns the code for username, matched case-insensitively with or
// without a leading "@".
func (d Directory) Lookup(username string) (string, bool) {
	code, ok := d.codes[normalizeUsername(username)]
	return code, ok && code != ""
}

func normalizeUsername(name string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), "@"))
}
