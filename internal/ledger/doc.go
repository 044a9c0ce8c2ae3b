// Package ledger adapts the pick spreadsheet into the operations the pipeline
// needs: header discovery, duplicate detection, next pick and date
// computation, row construction, and appends.
//
// Column positions are never fixed. Every connection resolves an immutable
// Columns map from the header row, located by the "Pick" and "Date" anchors
// (case-insensitive). Rows above the header are ignored, as are blank rows
// below it.
//
// The Sheet interface is the only dependency on the remote service; the
// GoogleSheets type implements it over the Sheets v4 API and tests use an
// in-memory implementation.
package ledger
