// Package publish pushes the album snapshot to the website repository.
//
// ContentsClient speaks the GitHub Contents API: it reads the current blob
// SHA of the target file (404 means the file does not exist yet) and writes
// the new content with that SHA. Publisher layers snapshot export and the
// retry policy on top and never returns an error: a failed publish is
// reported as (false, pending message) because the ledger already holds the
// pick and the next successful run republishes everything.
package publish
