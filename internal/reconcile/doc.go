// Package reconcile applies the ledger's dedup discipline to an external
// mutable claim store (e.g. a wikibase-style knowledge base).
//
// The ensure-claim procedure guarantees that no matter how many times a
// logical claim is presented (across retries, restarts, and concurrent
// runs within a process), at most one external claim is ever created for
// it:
//
//  1. Canonicalize the claim (normalized property id, fixed-precision
//     time/quantity encodings, deep-sorted qualifiers and references,
//     canonical reference URLs) and fingerprint the canonical JSON.
//  2. Check the fingerprint -> external id cache. Hit: return, no
//     network call.
//  3. Miss: fetch existing claims for (entity, property), canonicalize
//     each, compare fingerprints. Equivalent found: cache and return,
//     no write performed.
//  4. Otherwise AddClaim once, cache the returned id, return it.
//
// All network calls are gated by an injected rate limiter (sliding
// window plus minimum inter-call spacing) and a circuit breaker.
package reconcile
