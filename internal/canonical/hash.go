package canonical

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain tags for content-addressed identity. The version suffix allows
// the hashing scheme to change without colliding with digests already in
// the ledger or in external caches.
const (
	DomainPerson       = "lineage/person/v1"
	DomainEvent        = "lineage/event/v1"
	DomainSource       = "lineage/source/v1"
	DomainCitation     = "lineage/citation/v1"
	DomainPlace        = "lineage/place/v1"
	DomainRelationship = "lineage/relationship/v1"
	DomainMedia        = "lineage/media/v1"
	DomainClaim        = "lineage/claim/v1"
	DomainFact         = "lineage/fact/v1"
)

// HashWithDomain computes SHA256(domain || 0x00 || data) as lowercase hex.
// The null separator prevents boundary ambiguity between tag and payload.
func HashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// HashValue marshals v to canonical JSON and digests it under domain.
func HashValue(domain string, v Value) (string, error) {
	data, err := Marshal(v)
	if err != nil {
		return "", fmt.Errorf("hash %s: %w", domain, err)
	}
	return HashWithDomain(domain, data), nil
}

// HashLines digests a newline-joined tuple of already-normalized fields
// under domain. Used by the entity fingerprint functions, where the field
// order is fixed by the entity kind.
func HashLines(domain string, fields []string) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	for i, f := range fields {
		if i > 0 {
			h.Write([]byte{'\n'})
		}
		h.Write([]byte(f))
	}
	return hex.EncodeToString(h.Sum(nil))
}
