// Package engine composes validation, decision, ledger and projection
// into the idempotent upsert operation.
//
// Guarantees:
//
//   - Upserting the same logical entity any number of times yields the
//     same handle and exactly one stored record.
//   - Appends for the same candidate serialize within the process
//     (mutexes striped by fingerprint); candidates with different
//     fingerprints proceed concurrently.
//   - Review and block outcomes perform no writes; callers route them
//     to a review queue rather than retrying blindly.
//
// The engine is the single writer to the ledger in a process. Cross
// process coordination is out of scope here; see the lease package for
// the advisory mechanism.
package engine
