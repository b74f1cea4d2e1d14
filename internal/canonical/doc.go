// Package canonical provides the deterministic serialization layer used for
// content-addressed identity throughout lineage.
//
// Every deduplication key in the system (entity fingerprints, claim
// fingerprints, ledger statement encodings) is derived from the same
// canonical JSON form produced here:
//
//   - Object keys sorted by UTF-16 code units (RFC 8785 ordering)
//   - Strings NFC normalized at the serialization boundary
//   - No HTML escaping (< > & appear literally)
//   - No floats and no nulls (both break cross-run determinism)
//
// Digests are SHA-256 with domain separation:
//
//	SHA256(domain || 0x00 || canonicalJSON)
//
// The null byte prevents ambiguity between the domain tag and the payload.
// Domain tags carry a version suffix (e.g. "lineage/person/v1") so the
// hashing scheme can be migrated without colliding with old digests.
package canonical
