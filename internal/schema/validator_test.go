package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lineage/internal/entity"
	"github.com/roach88/lineage/internal/normalize"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := New()
	require.NoError(t, err, "embedded schema must compile")
	return v
}

func TestNew_SchemaCompilesAndResolvesDefinitions(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	require.NotNil(t, v)

	for _, kind := range []entity.Kind{
		entity.KindPerson, entity.KindEvent, entity.KindSource,
		entity.KindCitation, entity.KindPlace, entity.KindRelationship,
	} {
		_, ok := v.defs[kind]
		assert.True(t, ok, "definition for %s must resolve at construction", kind)
	}
}

func TestValidatePerson(t *testing.T) {
	v := newValidator(t)

	res := v.ValidatePerson(entity.Person{
		GivenNames: "John",
		Surname:    "Smith",
		Sex:        "male",
		Birth:      normalize.Date{Year: 1850, Month: 3, Day: 7},
	})
	assert.True(t, res.Valid, "errors: %v", res.Errors)

	res = v.ValidatePerson(entity.Person{Surname: "Smith"})
	assert.True(t, res.Valid, "surname alone names a person; errors: %v", res.Errors)

	res = v.ValidatePerson(entity.Person{GivenNames: "John"})
	assert.True(t, res.Valid, "given names alone name a person; errors: %v", res.Errors)

	res = v.ValidatePerson(entity.Person{})
	assert.False(t, res.Valid, "a person needs at least one name component")
	assert.NotEmpty(t, res.Errors)

	res = v.ValidatePerson(entity.Person{GivenNames: "John", Sex: "other"})
	assert.False(t, res.Valid, "sex outside the enumeration must fail")
}

func TestValidatePerson_DateBounds(t *testing.T) {
	v := newValidator(t)

	res := v.ValidatePerson(entity.Person{
		GivenNames: "John",
		Birth:      normalize.Date{Year: 1850, Month: 13},
	})
	assert.False(t, res.Valid, "month 13 must fail")
}

func TestValidateEvent(t *testing.T) {
	v := newValidator(t)

	res := v.ValidateEvent(entity.Event{Type: "birth", PersonID: "p-1"})
	assert.True(t, res.Valid, "errors: %v", res.Errors)

	res = v.ValidateEvent(entity.Event{PersonID: "p-1"})
	assert.False(t, res.Valid, "event type is required")

	res = v.ValidateEvent(entity.Event{Type: "birth"})
	assert.False(t, res.Valid, "person id is required")
}

func TestValidateSource(t *testing.T) {
	v := newValidator(t)

	assert.True(t, v.ValidateSource(entity.SourceRecord{Title: "Parish Register"}).Valid)
	assert.False(t, v.ValidateSource(entity.SourceRecord{}).Valid)
}

func TestValidateCitation(t *testing.T) {
	v := newValidator(t)

	assert.True(t, v.ValidateCitation(entity.Citation{SourceID: "src-1", Page: "12"}).Valid)
	assert.False(t, v.ValidateCitation(entity.Citation{Page: "12"}).Valid)
}

func TestValidatePlace(t *testing.T) {
	v := newValidator(t)

	assert.True(t, v.ValidatePlace(entity.Place{Name: "Boston"}).Valid)
	assert.False(t, v.ValidatePlace(entity.Place{}).Valid)
}

func TestValidateRelationship(t *testing.T) {
	v := newValidator(t)

	assert.True(t, v.ValidateRelationship(entity.Relationship{Kind: entity.RelSpouse, From: "a", To: "b"}).Valid)
	assert.False(t, v.ValidateRelationship(entity.Relationship{Kind: "cousin_of", From: "a", To: "b"}).Valid)
	assert.False(t, v.ValidateRelationship(entity.Relationship{Kind: entity.RelSpouse, From: "a"}).Valid)
}

func TestValidate_UnknownKind(t *testing.T) {
	v := newValidator(t)

	res := v.Validate(entity.Kind("mystery"), struct{}{})
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)
}
