// Package odesli resolves a streaming link into the matching Apple Music link
// through the Odesli (song.link) API. Unknown albums are not errors; they
// resolve to an empty link.
package odesli
