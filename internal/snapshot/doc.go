// Package snapshot rebuilds the website's album list from the ledger.
//
// Export always reconnects and reads the whole ledger, so a snapshot can be
// regenerated at any time and a missed publish heals on the next run. The
// JSON encoding keeps non-ASCII text literal and sorts entries by pick.
package snapshot
