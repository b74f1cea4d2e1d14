// Package ledger provides SQLite-backed durable storage for the
// append-only fact log.
//
// Invariants the store enforces:
//
//   - A (fact_id, version) pair is written at most once and never
//     rewritten; the composite primary key rejects duplicates.
//   - Versions per fact_id form a contiguous ascending sequence starting
//     at 1; Append rejects out-of-sequence versions inside the same
//     transaction that inserts the row.
//   - Status transitions append a new version copying unrelated fields;
//     the prior version remains retrievable forever.
//
// Durability: every append commits through a SQLite transaction in WAL
// mode, so a reader never observes a partially written fact. Recovery
// after a failed append is simply retrying the same append.
//
// The database also hosts the projection, claim cache and lease tables
// (see schema.sql); those are maintained by their own packages over the
// shared connection. Only this package writes the facts table.
package ledger
