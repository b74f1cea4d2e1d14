package normalize

import "fmt"

// Qualifier expresses how precisely a genealogical date is known.
type Qualifier string

const (
	Exact       Qualifier = "exact"
	Approximate Qualifier = "approximate"
	Before      Qualifier = "before"
	After       Qualifier = "after"
)

// Date is a possibly-partial genealogical date. Zero components are
// treated as unknown; a zero Year means the date carries no usable
// information for identity purposes.
type Date struct {
	Year      int       `json:"year"`
	Month     int       `json:"month,omitempty"`
	Day       int       `json:"day,omitempty"`
	Qualifier Qualifier `json:"qualifier,omitempty"`
}

// IsZero reports whether the date carries no year.
func (d Date) IsZero() bool { return d.Year == 0 }

// YearOnly reports whether the date is known only to year precision,
// either because month/day are missing or because a non-exact qualifier
// coarsens it. This is the "weak evidence" signal used by the decision
// engine to raise its merge threshold.
func (d Date) YearOnly() bool {
	if d.IsZero() {
		return false
	}
	return d.Month == 0 || !d.exact()
}

func (d Date) exact() bool {
	return d.Qualifier == "" || d.Qualifier == Exact
}

// Canonical reduces the date to its coarsest safe precision:
//
//   - no year: empty string (the field drops out of the fingerprint)
//   - approximate/before/after: year only, regardless of finer components
//   - otherwise: year, year-month, or year-month-day, as known
//
// An approximate "about March 1850" and an exact "1850" therefore
// fingerprint identically, which is intentional: the overlap in what is
// actually known is the year.
func (d Date) Canonical() string {
	if d.IsZero() {
		return ""
	}
	if !d.exact() {
		return fmt.Sprintf("%04d", d.Year)
	}
	switch {
	case d.Month == 0:
		return fmt.Sprintf("%04d", d.Year)
	case d.Day == 0:
		return fmt.Sprintf("%04d-%02d", d.Year, d.Month)
	default:
		return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
	}
}

// String renders the date for human display, including the qualifier.
func (d Date) String() string {
	c := d.Canonical()
	if c == "" {
		return "unknown"
	}
	if !d.exact() {
		return fmt.Sprintf("%s %s", d.Qualifier, c)
	}
	return c
}
