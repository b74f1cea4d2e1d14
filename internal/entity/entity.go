// Package entity defines the genealogical domain records that flow through
// the upsert engine, and the versioned Fact records the ledger stores.
//
// Identity-bearing fields (names, dates, places, kinds) participate in
// fingerprinting after normalization. Volatile fields (timestamps, access
// metadata) never do.
package entity

import "github.com/roach88/lineage/internal/normalize"

// Kind tags the entity families the engine knows how to fingerprint.
type Kind string

const (
	KindPerson       Kind = "person"
	KindEvent        Kind = "event"
	KindSource       Kind = "source"
	KindCitation     Kind = "citation"
	KindPlace        Kind = "place"
	KindRelationship Kind = "relationship"
)

// Person is an individual under research.
type Person struct {
	GivenNames string         `json:"given_names"`
	Surname    string         `json:"surname"`
	Sex        string         `json:"sex,omitempty"`
	Birth      normalize.Date `json:"birth,omitempty"`
	Death      normalize.Date `json:"death,omitempty"`
	BirthPlace string         `json:"birth_place,omitempty"`
}

// Event is a dated occurrence attached to a person (birth, marriage,
// census entry, immigration, ...).
type Event struct {
	Type     string         `json:"type"`
	PersonID string         `json:"person_id"`
	Date     normalize.Date `json:"date,omitempty"`
	Place    string         `json:"place,omitempty"`
	Detail   string         `json:"detail,omitempty"`
}

// SourceRecord is a source of evidence: a register, book, database,
// or archival collection.
type SourceRecord struct {
	Title      string `json:"title"`
	Author     string `json:"author,omitempty"`
	Repository string `json:"repository,omitempty"`
	Reference  string `json:"reference,omitempty"`
}

// Citation points into a source at a specific location.
type Citation struct {
	SourceID string         `json:"source_id"`
	Page     string         `json:"page,omitempty"`
	Date     normalize.Date `json:"date,omitempty"`
	Text     string         `json:"text,omitempty"`
}

// Place is a named location with optional jurisdiction chain.
type Place struct {
	Name         string `json:"name"`
	Jurisdiction string `json:"jurisdiction,omitempty"`
	Country      string `json:"country,omitempty"`
}

// RelationKind names the relation between two persons.
type RelationKind string

const (
	RelSpouse   RelationKind = "spouse"
	RelPartner  RelationKind = "partner"
	RelParentOf RelationKind = "parent_of"
	RelChildOf  RelationKind = "child_of"
	RelSibling  RelationKind = "sibling"
)

// Symmetric reports whether (A,B) and (B,A) denote the same relationship.
// Symmetric kinds fingerprint with sorted endpoints.
func (k RelationKind) Symmetric() bool {
	switch k {
	case RelSpouse, RelPartner, RelSibling:
		return true
	default:
		return false
	}
}

// Relationship links two persons. From/To are ledger handles or stable
// person identifiers, not display names.
type Relationship struct {
	Kind RelationKind `json:"kind"`
	From string       `json:"from"`
	To   string       `json:"to"`
}
