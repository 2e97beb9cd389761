package facematch

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// CanonicalName is the form a name is stored under: trimmed, inner whitespace
// collapsed to single spaces, NFC-composed. Case and diacritics are preserved.
func CanonicalName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}

// RemoveDiacritics removes diacritical marks from a string (e.g., "Jiří" -> "Jiri").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizePersonName normalizes a name for loose lookup (lowercase, no diacritics, spaces for dashes).
func NormalizePersonName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	name = strings.ReplaceAll(name, "-", " ")
	return strings.Join(strings.Fields(name), " ")
}

// FindLoose looks up an identity by exact canonical name first, then by
// NormalizePersonName. A loose hit is returned only when it is unambiguous.
func (r Registry) FindLoose(name string) (Identity, bool) {
	if id, ok := r.Find(CanonicalName(name)); ok {
		return id, true
	}

	want := NormalizePersonName(name)
	var hit Identity
	hits := 0
	for _, id := range r.Identities {
		if NormalizePersonName(id.Name) == want {
			hit = id
			hits++
		}
	}
	if hits != 1 {
		return Identity{}, false
	}
	return hit, true
}
