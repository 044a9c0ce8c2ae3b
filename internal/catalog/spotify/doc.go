// Package spotify provides the minimal Spotify Web API client used to look up
// album metadata.
//
// Requests authenticate with an app-level client-credentials token that the
// oauth2 transport fetches and refreshes. A 400 or 404 response for an album
// id is reported as services.ErrNotFound so the pipeline can tell "not an
// album" apart from an unavailable catalog.
package spotify
