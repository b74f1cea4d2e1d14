// Package schema validates candidate entities against CUE definitions
// before they reach the decision engine. Validation is an explicit,
// injectable step returning a typed outcome; a failing entity never
// proceeds silently.
package schema

import (
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"

	"github.com/roach88/lineage/internal/entity"
)

//go:embed schema.cue
var schemaCUE string

// Result is the typed validation outcome.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator checks entities against the embedded CUE schema. Compile
// once, validate many; safe for concurrent use.
type Validator struct {
	ctx  *cue.Context
	defs map[entity.Kind]cue.Value
}

// New compiles the embedded schema.
func New() (*Validator, error) {
	ctx := cuecontext.New()
	root := ctx.CompileString(schemaCUE)
	if err := root.Err(); err != nil {
		return nil, fmt.Errorf("compile entity schema: %w", err)
	}

	defs := make(map[entity.Kind]cue.Value)
	for kind, defName := range map[entity.Kind]string{
		entity.KindPerson:       "#Person",
		entity.KindEvent:        "#Event",
		entity.KindSource:       "#Source",
		entity.KindCitation:     "#Citation",
		entity.KindPlace:        "#Place",
		entity.KindRelationship: "#Relationship",
	} {
		def := root.LookupPath(cue.ParsePath(defName))
		if err := def.Err(); err != nil {
			return nil, fmt.Errorf("lookup %s: %w", defName, err)
		}
		defs[kind] = def
	}

	return &Validator{ctx: ctx, defs: defs}, nil
}

// Validate unifies the entity with its kind's definition and reports
// every constraint violation, not just the first.
func (v *Validator) Validate(kind entity.Kind, e any) Result {
	def, ok := v.defs[kind]
	if !ok {
		return Result{Errors: []string{fmt.Sprintf("no schema for kind %q", kind)}}
	}

	val := v.ctx.Encode(e)
	if err := val.Err(); err != nil {
		return Result{Errors: []string{fmt.Sprintf("encode %s: %v", kind, err)}}
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		var msgs []string
		for _, e := range cueerrors.Errors(err) {
			msgs = append(msgs, e.Error())
		}
		return Result{Errors: msgs}
	}
	return Result{Valid: true}
}

// ValidatePerson is a typed convenience wrapper.
func (v *Validator) ValidatePerson(p entity.Person) Result {
	return v.Validate(entity.KindPerson, p)
}

// ValidateEvent is a typed convenience wrapper.
func (v *Validator) ValidateEvent(e entity.Event) Result {
	return v.Validate(entity.KindEvent, e)
}

// ValidateSource is a typed convenience wrapper.
func (v *Validator) ValidateSource(s entity.SourceRecord) Result {
	return v.Validate(entity.KindSource, s)
}

// ValidateCitation is a typed convenience wrapper.
func (v *Validator) ValidateCitation(c entity.Citation) Result {
	return v.Validate(entity.KindCitation, c)
}

// ValidatePlace is a typed convenience wrapper.
func (v *Validator) ValidatePlace(p entity.Place) Result {
	return v.Validate(entity.KindPlace, p)
}

// ValidateRelationship is a typed convenience wrapper.
func (v *Validator) ValidateRelationship(r entity.Relationship) Result {
	return v.Validate(entity.KindRelationship, r)
}
