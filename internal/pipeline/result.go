package pipeline

import (
	"aotw/internal/album"
	"aotw/internal/ledger"
)

// Kind classifies a pipeline outcome.
type Kind string

const (
	KindAdded               Kind = "added"
	KindPublishFailed       Kind = "publish_failed"
	KindInvalidURL          Kind = "invalid_url"
	KindLedgerUnavailable   Kind = "ledger_unavailable"
	KindDuplicateFound      Kind = "duplicate_found"
	KindCatalogLookupFailed Kind = "catalog_lookup_failed"
	KindNoAlbumData         Kind = "no_album_data"
	KindIncompleteMetadata  Kind = "incomplete_metadata"
	KindLedgerWriteFailed   Kind = "ledger_write_failed"
)

// Rejection messages shown to the submitter.
const (
	MessageInvalidURL        = "❌ Invalid Spotify album link. Please post a valid album URL."
	MessageLedgerUnavailable = "❌ Failed to access Google Sheet. Please try again later."
	MessageCatalogFailed     = "❌ Couldn't fetch album info from Spotify. Please try again."
	MessageNoAlbumData       = "❌ Invalid album URL or missing album data."
	MessageLedgerWriteFailed = "❌ Failed to add album to sheet. Please try again."
)

// Result is the outcome of one submission.
type Result struct {
	// Success is true once the ledger holds the new row, even when the
	// publish step failed afterwards.
	Success bool
	// PartialFailure marks a success whose snapshot publish did not complete.
	PartialFailure bool
	Kind           Kind
	// Message is the single formatted reply for the submitter.
	Message string
	// Album is set once the catalog lookup succeeds.
	Album *album.Record
	// Duplicate locates the earlier pick for KindDuplicateFound.
	Duplicate *ledger.PriorPick
	// Missing lists absent fields for KindIncompleteMetadata.
	Missing        []string
	PublishMessage string
	CorrelationID  string

	cause error
}

// Rejected reports whether the submission did not reach the ledger.
func (r Result) Rejected() bool {
	return !r.Success
}

// Cause returns the infrastructure error behind a rejection, if any.
func (r Result) Cause() error {
	return r.cause
}

func rejection(kind Kind, message string) Result {
	return Result{Kind: kind, Message: message}
}

func failure(kind Kind, message string, err error) Result {
	return Result{Kind: kind, Message: message, cause: err}
}
