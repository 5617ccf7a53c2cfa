package records

import "strings"

// RouteKeySeparator joins the two endpoint codes of a canonical route key.
const RouteKeySeparator = "-"

// NormalizeCode normalizes an airport code: trimmed and uppercased.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidIATA reports whether code is a well-formed IATA code after
// normalization: exactly three ASCII letters.
func ValidIATA(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// RouteKey returns the canonical key for the unordered pair of endpoint
// codes: both normalized, sorted alphabetically, joined with "-". The two
// physical directions of a city-pair collapse to the same key, so
// RouteKey(a, b) == RouteKey(b, a).
func RouteKey(a, b string) string {
	a = NormalizeCode(a)
	b = NormalizeCode(b)
	if b < a {
		a, b = b, a
	}
	return a + RouteKeySeparator + b
}
