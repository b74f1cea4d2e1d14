// Package decision implements the match/merge decision procedure for
// candidate entities.
//
// Deciding is a pure function: it reads the projection index and the
// match provider but never writes. The caller owns retries and owns
// acting on the outcome (appending to the ledger, routing to review).
//
// Decision order, per upsert attempt:
//
//	Start → TimelineInvalid → Block   (terminal, non-overridable)
//	      → ExactHit        → Reuse   (terminal, no fuzzy comparison)
//	      → NoExact → Score → Merge | Review | Create (terminal)
//
// An exact fingerprint hit always beats fuzzy matching. The review band
// is where automatic merging and automatic creation are both disallowed;
// outcomes there must go to a human.
package decision
