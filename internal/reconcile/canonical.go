package reconcile

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/roach88/lineage/internal/canonical"
)

var (
	propertyPattern = regexp.MustCompile(`^P[0-9]+$`)
	entityPattern   = regexp.MustCompile(`^[A-Z][0-9A-Z]*[0-9]$`)
	timePattern     = regexp.MustCompile(`^([0-9]{1,4})(?:-([0-9]{1,2}))?(?:-([0-9]{1,2}))?$`)
	amountPattern   = regexp.MustCompile(`^[+-]?[0-9]+(\.[0-9]+)?$`)
)

// trackingParams are stripped from reference URLs: they vary per visit
// and would fork fingerprints of logically identical references.
var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"ref":    true,
}

func isTrackingParam(name string) bool {
	return trackingParams[name] || strings.HasPrefix(name, "utm_")
}

// NormalizeProperty canonicalizes a property identifier ("p31", " P31 ")
// to its upper-case form, rejecting anything that is not a P-number.
func NormalizeProperty(p string) (string, error) {
	p = strings.ToUpper(strings.TrimSpace(p))
	if !propertyPattern.MatchString(p) {
		return "", &ValidationError{Field: "property", Message: fmt.Sprintf("%q is not a property id", p)}
	}
	return p, nil
}

// NormalizeEntityID canonicalizes an external entity identifier.
func NormalizeEntityID(id string) (string, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	if !entityPattern.MatchString(id) {
		return "", &ValidationError{Field: "entity_id", Message: fmt.Sprintf("%q is not an entity id", id)}
	}
	return id, nil
}

// CanonicalURL produces a stable form of a reference URL: lowercased
// scheme and host, default port dropped, fragment dropped, tracking
// parameters removed, remaining query parameters sorted.
func CanonicalURL(raw string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", &ValidationError{Field: "url", Message: err.Error()}
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &ValidationError{Field: "url", Message: fmt.Sprintf("%q is not an absolute URL", raw)}
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host
	u.Fragment = ""

	q := u.Query()
	for name := range q {
		if isTrackingParam(name) {
			q.Del(name)
		}
	}
	u.RawQuery = q.Encode() // Encode sorts keys

	return u.String(), nil
}

// canonicalTime normalizes a calendar date to the fixed encoding
// "+YYYY-MM-DDT00:00:00Z" with components below the precision zeroed.
// Precision 9 keeps the year, 10 adds the month, 11 the day. A zero
// precision is derived from the components present.
func canonicalTime(t string, precision int) (string, int, error) {
	m := timePattern.FindStringSubmatch(strings.TrimSpace(t))
	if m == nil {
		return "", 0, &ValidationError{Field: "time", Message: fmt.Sprintf("%q is not a date", t)}
	}
	year := atoi(m[1])
	month := atoi(m[2])
	day := atoi(m[3])

	if precision == 0 {
		switch {
		case day > 0:
			precision = 11
		case month > 0:
			precision = 10
		default:
			precision = 9
		}
	}
	if precision < 9 || precision > 11 {
		return "", 0, &ValidationError{Field: "precision", Message: fmt.Sprintf("unsupported precision %d", precision)}
	}
	if precision < 11 {
		day = 0
	}
	if precision < 10 {
		month = 0
	}

	return fmt.Sprintf("+%04d-%02d-%02dT00:00:00Z", year, month, day), precision, nil
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

// canonicalAmount normalizes a decimal string to a fixed form: explicit
// sign, no leading zeros, no trailing fractional zeros. Pure string
// manipulation; no float ever enters a canonical form.
func canonicalAmount(amount string) (string, error) {
	a := strings.TrimSpace(amount)
	if !amountPattern.MatchString(a) {
		return "", &ValidationError{Field: "amount", Message: fmt.Sprintf("%q is not a decimal amount", amount)}
	}

	sign := "+"
	switch a[0] {
	case '+':
		a = a[1:]
	case '-':
		sign = "-"
		a = a[1:]
	}

	intPart, fracPart, _ := strings.Cut(a, ".")
	intPart = strings.TrimLeft(intPart, "0")
	if intPart == "" {
		intPart = "0"
	}
	fracPart = strings.TrimRight(fracPart, "0")

	if intPart == "0" && fracPart == "" {
		return "+0", nil // negative zero collapses
	}
	if fracPart != "" {
		return sign + intPart + "." + fracPart, nil
	}
	return sign + intPart, nil
}

// canonicalValue converts a ClaimValue to its canonical map form.
func canonicalValue(v ClaimValue) (canonical.Map, error) {
	switch v.Kind {
	case ValueString:
		return canonical.Map{
			"kind": canonical.Str("string"),
			"text": canonical.Str(strings.TrimSpace(v.Text)),
		}, nil
	case ValueEntity:
		id, err := NormalizeEntityID(v.Text)
		if err != nil {
			return nil, err
		}
		return canonical.Map{
			"kind": canonical.Str("entity"),
			"id":   canonical.Str(id),
		}, nil
	case ValueTime:
		t, prec, err := canonicalTime(v.Time, v.Precision)
		if err != nil {
			return nil, err
		}
		return canonical.Map{
			"kind":      canonical.Str("time"),
			"time":      canonical.Str(t),
			"precision": canonical.Int(prec),
		}, nil
	case ValueQuantity:
		amt, err := canonicalAmount(v.Amount)
		if err != nil {
			return nil, err
		}
		m := canonical.Map{
			"kind":   canonical.Str("quantity"),
			"amount": canonical.Str(amt),
		}
		if unit := strings.TrimSpace(v.Unit); unit != "" {
			m["unit"] = canonical.Str(unit)
		}
		return m, nil
	case ValueURL:
		u, err := CanonicalURL(v.URL)
		if err != nil {
			return nil, err
		}
		return canonical.Map{
			"kind": canonical.Str("url"),
			"url":  canonical.Str(u),
		}, nil
	default:
		return nil, &ValidationError{Field: "value", Message: fmt.Sprintf("unknown value kind %q", v.Kind)}
	}
}

// canonicalSnaks converts a snak list to a deep-sorted canonical list.
// Sorting is by the canonical JSON bytes of each snak, which makes the
// result independent of input order.
func canonicalSnaks(snaks []Snak) (canonical.List, error) {
	encoded := make([][]byte, 0, len(snaks))
	values := make(map[string]canonical.Value, len(snaks))

	for i, s := range snaks {
		prop, err := NormalizeProperty(s.Property)
		if err != nil {
			return nil, fmt.Errorf("snak[%d]: %w", i, err)
		}
		val, err := canonicalValue(s.Value)
		if err != nil {
			return nil, fmt.Errorf("snak[%d]: %w", i, err)
		}
		m := canonical.Map{
			"property": canonical.Str(prop),
			"value":    val,
		}
		b, err := canonical.Marshal(m)
		if err != nil {
			return nil, fmt.Errorf("snak[%d]: %w", i, err)
		}
		encoded = append(encoded, b)
		values[string(b)] = m
	}

	sort.Slice(encoded, func(i, j int) bool {
		return string(encoded[i]) < string(encoded[j])
	})

	list := make(canonical.List, len(encoded))
	for i, b := range encoded {
		list[i] = values[string(b)]
	}
	return list, nil
}

// CanonicalForm reduces a claim to its order-independent,
// formatting-independent canonical map.
func CanonicalForm(c Claim) (canonical.Map, error) {
	entityID, err := NormalizeEntityID(c.EntityID)
	if err != nil {
		return nil, err
	}
	prop, err := NormalizeProperty(c.Property)
	if err != nil {
		return nil, err
	}
	val, err := canonicalValue(c.Value)
	if err != nil {
		return nil, err
	}
	quals, err := canonicalSnaks(c.Qualifiers)
	if err != nil {
		return nil, fmt.Errorf("qualifiers: %w", err)
	}
	refs, err := canonicalSnaks(c.References)
	if err != nil {
		return nil, fmt.Errorf("references: %w", err)
	}

	return canonical.Map{
		"entity":     canonical.Str(entityID),
		"property":   canonical.Str(prop),
		"value":      val,
		"qualifiers": quals,
		"references": refs,
	}, nil
}

// Fingerprint computes the claim's deduplication key from its canonical
// form.
func Fingerprint(c Claim) (string, error) {
	form, err := CanonicalForm(c)
	if err != nil {
		return "", err
	}
	return canonical.HashValue(canonical.DomainClaim, form)
}
