// Package pipeline turns one submitted album link into a ledger row and a
// refreshed website snapshot.
//
// Orchestrator.Process runs the stages in a fixed order: validate the URL,
// connect the ledger, reject duplicates, look the album up in the catalog,
// check required metadata, enrich the record, append the row, then publish.
// Each stage gates the next, so nothing runs concurrently. Every outcome,
// including expected rejections, comes back as a Result; Process never
// returns an error.
//
// Publishing runs only after the ledger append succeeds. A publish failure
// downgrades the result to a partial success because the ledger already holds
// the pick and the next successful publish rebuilds the snapshot from it.
package pipeline
