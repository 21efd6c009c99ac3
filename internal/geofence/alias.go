package geofence

import "strings"

// Municipalities that appear under more than one spelling in upstream data.
// Keys are lowercased; values are the canonical name used everywhere in the
// engine, so two spellings of the same municipality never read as a crossing.
var aliases = map[string]string{
	"san fernando":         "City of San Fernando",
	"city of san fernando": "City of San Fernando",
	"sto. tomas":           "Santo Tomas",
	"santo tomas":          "Santo Tomas",
}

// Normalize returns the canonical municipality name for any known alias.
// Unknown names are returned trimmed but otherwise as-is (fails open).
func Normalize(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	if canonical, ok := aliases[strings.ToLower(trimmed)]; ok {
		return canonical
	}
	return trimmed
}

// SameMunicipality compares two municipality names alias- and
// case-insensitively.
func SameMunicipality(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.EqualFold(na, nb)
}
