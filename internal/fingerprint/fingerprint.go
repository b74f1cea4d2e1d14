// Package fingerprint maps genealogical entities to stable content
// digests. Two logically identical entities produce the same fingerprint
// regardless of formatting, case, or diacritics, because every text field
// passes through normalize.Text and every date through Date.Canonical
// before hashing.
//
// Each entity kind hashes a fixed, ordered field tuple under its own
// domain tag, so a person and a place with coincidentally equal fields
// can never collide.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/roach88/lineage/internal/canonical"
	"github.com/roach88/lineage/internal/entity"
	"github.com/roach88/lineage/internal/normalize"
)

// Fingerprint is a deduplication key: the entity kind plus a 64-hex-char
// SHA-256 digest of its normalized identity fields.
type Fingerprint struct {
	Kind  entity.Kind `json:"kind"`
	Value string      `json:"value"`
}

func (f Fingerprint) String() string {
	return fmt.Sprintf("%s:%s", f.Kind, f.Value)
}

// IsZero reports whether the fingerprint is unset.
func (f Fingerprint) IsZero() bool { return f.Value == "" }

// Person fingerprints an individual over normalized names, sex, and the
// coarsest safe precision of birth/death dates plus birth place.
func Person(p entity.Person) Fingerprint {
	fields := []string{
		normalize.Text(p.GivenNames),
		normalize.Text(p.Surname),
		normalize.Text(p.Sex),
		p.Birth.Canonical(),
		p.Death.Canonical(),
		normalize.Text(p.BirthPlace),
	}
	return Fingerprint{Kind: entity.KindPerson, Value: canonical.HashLines(canonical.DomainPerson, fields)}
}

// Event fingerprints a dated occurrence. PersonID is an opaque handle and
// is hashed verbatim; free-text fields are normalized.
func Event(e entity.Event) Fingerprint {
	fields := []string{
		normalize.Text(e.Type),
		e.PersonID,
		e.Date.Canonical(),
		normalize.Text(e.Place),
		normalize.Text(e.Detail),
	}
	return Fingerprint{Kind: entity.KindEvent, Value: canonical.HashLines(canonical.DomainEvent, fields)}
}

// Source fingerprints a source record over its bibliographic identity.
func Source(s entity.SourceRecord) Fingerprint {
	fields := []string{
		normalize.Text(s.Title),
		normalize.Text(s.Author),
		normalize.Text(s.Repository),
		normalize.Text(s.Reference),
	}
	return Fingerprint{Kind: entity.KindSource, Value: canonical.HashLines(canonical.DomainSource, fields)}
}

// Citation fingerprints a pointer into a source. Page text is normalized
// (so " 12 " and "12" match) and the date coarsens per its qualifier.
func Citation(c entity.Citation) Fingerprint {
	fields := []string{
		c.SourceID,
		normalize.Text(c.Page),
		c.Date.Canonical(),
		normalize.Text(c.Text),
	}
	return Fingerprint{Kind: entity.KindCitation, Value: canonical.HashLines(canonical.DomainCitation, fields)}
}

// Place fingerprints a named location with its jurisdiction chain.
func Place(p entity.Place) Fingerprint {
	fields := []string{
		normalize.Text(p.Name),
		normalize.Text(p.Jurisdiction),
		normalize.Text(p.Country),
	}
	return Fingerprint{Kind: entity.KindPlace, Value: canonical.HashLines(canonical.DomainPlace, fields)}
}

// Relationship fingerprints a link between two persons. Symmetric kinds
// (spouse, partner, sibling) sort the endpoints so (A,B) and (B,A)
// fingerprint identically; asymmetric kinds (parent_of, child_of)
// preserve argument order.
func Relationship(r entity.Relationship) Fingerprint {
	from, to := r.From, r.To
	if r.Kind.Symmetric() && to < from {
		from, to = to, from
	}
	fields := []string{
		normalize.Text(string(r.Kind)),
		from,
		to,
	}
	return Fingerprint{Kind: entity.KindRelationship, Value: canonical.HashLines(canonical.DomainRelationship, fields)}
}

// Media content-addresses raw bytes directly, bypassing text
// normalization entirely. Identical bytes always produce the same digest.
func Media(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash media: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
