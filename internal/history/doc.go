// Package history journals pipeline submissions and publish runs in SQLite.
//
// The journal is local, append-only bookkeeping: the ledger stays the source
// of truth for picks. It answers two questions the ledger cannot: what
// happened to recent submissions (including rejections), and whether the
// website snapshot is behind the ledger because a publish failed.
//
// The schema is embedded from schema.sql and versioned through PRAGMA
// user_version. When the schema changes, bump schemaVersion; older
// databases are rejected with ErrSchemaMismatch.
package history
