// Package enrich runs batch jobs that fill optional ledger columns for rows
// added before those columns existed.
//
// Every job connects to the ledger once, computes cell updates, and writes
// them in a single batch. Remote lookups fan out over a bounded errgroup;
// a failed lookup is counted in the Report and never aborts the job. Dry runs
// compute the same Report without writing.
package enrich
