package geocode

import (
	"strings"

	"github.com/brm-map/BrevetSync/app/models"
)

// countryCodes maps lowercase country names in several languages to their ISO
// 3166-1 alpha-2 code. The catalog mixes languages freely (the same event may
// say "Suisse" in one field and "Switzerland" in another), so alias coverage
// is what makes SameCountry work. New aliases are a data change: add a row.
var countryCodes = map[string]string{
	"switzerland": "ch", "suisse": "ch", "schweiz": "ch", "svizzera": "ch",
	"germany": "de", "allemagne": "de", "deutschland": "de",
	"italy": "it", "italie": "it", "italia": "it",
	"spain": "es", "espagne": "es", "españa": "es",
	"belgium": "be", "belgique": "be", "belgië": "be",
	"netherlands": "nl", "pays-bas": "nl", "nederland": "nl",
	"austria": "at", "autriche": "at", "österreich": "at",
	"portugal": "pt",
	"united kingdom": "gb", "royaume-uni": "gb",
	"russia": "ru", "russie": "ru", "russland": "ru",
	"philippines": "ph",
	"ireland": "ie", "irlande": "ie",
	"cambodia": "kh", "cambodge": "kh",
	"china": "cn", "chine": "cn",
	"india": "in", "inde": "in",
	"japan": "jp", "japon": "jp",
	"south korea": "kr", "corée du sud": "kr",
	"australia": "au", "australie": "au",
	"canada": "ca",
	"united states": "us", "états-unis": "us", "usa": "us",
	"brazil": "br", "brésil": "br",
}

// SameCountry reports whether two country names denote the same country,
// matching across languages via the alias table.
func SameCountry(a, b string) bool {
	la := strings.ToLower(strings.TrimSpace(a))
	lb := strings.ToLower(strings.TrimSpace(b))
	if la == lb {
		return true
	}
	codeA := countryCodes[la]
	codeB := countryCodes[lb]
	return codeA != "" && codeB != "" && codeA == codeB
}

// Normalize builds the ordered query tokens for the geocoder.
//
// Without a usable city there is nothing to geocode: resolving a bare
// department or country would pin the event to the country's center, which is
// worse than no coordinates at all, so the result is empty and the caller
// must skip the lookup.
//
// Some events are administratively attached to one country but start in a
// neighboring one, and then the department field actually holds a country
// name (e.g. department="Switzerland" on an event starting in Konstanz,
// Germany). When department and country denote the same country the region
// (canton/state) replaces both, avoiding a self-contradictory
// "city, Switzerland, Switzerland" query.
func Normalize(city, department, country, region *string) []string {
	c := deref(city)
	if c == "" || c == models.CityNotDetermined {
		return nil
	}

	tokens := []string{c}
	dep := deref(department)
	ctry := deref(country)

	if dep != "" && ctry != "" && SameCountry(dep, ctry) {
		if reg := deref(region); reg != "" {
			tokens = append(tokens, reg)
		}
	} else {
		if dep != "" {
			tokens = append(tokens, dep)
		}
		if ctry != "" {
			tokens = append(tokens, ctry)
		}
	}
	return tokens
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
