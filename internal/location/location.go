// Package location extracts "City, Region, Country" tags from
// free-text merchant descriptions and returns the cleaned residual.
package location

import (
	"regexp"
	"strings"
)

// Matcher variants tried in order within each tier. City tokens are
// single uppercase words; multi-word cities would swallow the merchant
// name that precedes them.
var (
	trailingPattern = regexp.MustCompile(`([A-Z]+)\s+([A-Z]{2})\s*$`)
	gluedPattern    = regexp.MustCompile(`([A-Z]{4,}?)([A-Z]{2})\s*$`)
	interiorPattern = regexp.MustCompile(`([A-Z]+)\s+([A-Z]{2})\b`)
	sepPattern      = regexp.MustCompile(`([A-Z]+)[,\-]\s*([A-Z]{2})\b`)

	cityDigits  = regexp.MustCompile(`\d+[-\d]*`)
	citySpecial = regexp.MustCompile(`[#*\-_]+`)
	whitespace  = regexp.MustCompile(`\s+`)

	bareCode     = regexp.MustCompile(`^[A-Z]{1,4}$`)
	allDigits    = regexp.MustCompile(`^\d+$`)
	countryAtEnd = regexp.MustCompile(`\b([A-Z]{3}|[A-Z]{2})\s*$`)
	codeAtEnd    = regexp.MustCompile(`\b[A-Z]{2,3}\s*$`)
)

type internationalPattern struct {
	re       *regexp.Regexp
	location string
}

// Extractor maps merchant descriptions to normalized location tags.
// All tables are fixed at construction; the extractor is safe for
// concurrent use.
type Extractor struct {
	provinces     map[string]string
	states        map[string]string
	countries     map[string]string
	cityFixes     map[string]string
	denylist      map[string]struct{}
	international []internationalPattern
}

// NewExtractor builds an extractor with the default province, state,
// and country tables.
func NewExtractor() *Extractor {
	return &Extractor{
		provinces: map[string]string{
			"AB": "Alberta", "BC": "British Columbia", "MB": "Manitoba",
			"NB": "New Brunswick", "NL": "Newfoundland and Labrador",
			"NS": "Nova Scotia", "NT": "Northwest Territories", "NU": "Nunavut",
			"ON": "Ontario", "PE": "Prince Edward Island", "QC": "Quebec",
			"SK": "Saskatchewan", "YT": "Yukon",
		},
		states: map[string]string{
			"CA": "California", "NY": "New York", "FL": "Florida",
			"TX": "Texas", "WA": "Washington", "IL": "Illinois",
			"PA": "Pennsylvania", "OH": "Ohio", "MI": "Michigan",
			"MA": "Massachusetts", "NJ": "New Jersey", "VA": "Virginia",
		},
		countries: map[string]string{
			"CAN": "Canada", "CA": "Canada",
			"USA": "United States", "US": "United States",
			"UK": "United Kingdom", "GB": "United Kingdom",
			"FRA": "France", "DEU": "Germany", "NLD": "Netherlands",
			"ESP": "Spain", "ITA": "Italy", "AUS": "Australia",
		},
		// Repairs city names truncated by a glued province code.
		cityFixes: map[string]string{
			"VANCOUV": "VANCOUVER",
			"TORONT":  "TORONTO",
			"CALGAR":  "CALGARY",
			"OTTAW":   "OTTAWA",
			"MONTREA": "MONTREAL",
			"WINDSO":  "WINDSOR",
		},
		denylist: map[string]struct{}{
			"HTTP": {}, "WWW": {}, "COM": {}, "NET": {}, "TMCANADA": {},
		},
		international: []internationalPattern{
			{regexp.MustCompile(`\bLONDON\s+UK\b`), "London, United Kingdom"},
			{regexp.MustCompile(`\bPARIS\s+FRA?\b`), "Paris, France"},
			{regexp.MustCompile(`\bBERLIN\s+DEU?\b`), "Berlin, Germany"},
			{regexp.MustCompile(`\bAMSTERDAM\s+NLD?\b`), "Amsterdam, Netherlands"},
			{regexp.MustCompile(`\bMADRID\s+ESP?\b`), "Madrid, Spain"},
			{regexp.MustCompile(`\bROME\s+ITA?\b`), "Rome, Italy"},
			{regexp.MustCompile(`\bSYDNEY\s+AUS?\b`), "Sydney, Australia"},
			{regexp.MustCompile(`\bMUNICH\s+DEU?\b`), "Munich, Germany"},
			{regexp.MustCompile(`\bVIENNA\s+AUT?\b`), "Vienna, Austria"},
			{regexp.MustCompile(`\bZURICH\s+CHE?\b`), "Zurich, Switzerland"},
		},
	}
}

// Extract finds a location tag in description. It returns the tag (or
// "" when none was found) and the description with the matched city
// and code removed. When no location is found, or removal would leave
// an empty string, the description comes back unchanged.
func (e *Extractor) Extract(description string) (string, string) {
	if description == "" {
		return "", description
	}

	if loc := e.extractCanadian(description); loc != "" {
		return loc, e.removeLocation(description, loc)
	}
	if loc := e.extractUS(description); loc != "" {
		return loc, e.removeLocation(description, loc)
	}
	if loc := e.extractInternational(description); loc != "" {
		return loc, e.removeLocation(description, loc)
	}
	return "", description
}

func (e *Extractor) extractCanadian(description string) string {
	upper := strings.ToUpper(description)

	for _, pattern := range []*regexp.Regexp{trailingPattern, gluedPattern, interiorPattern, sepPattern} {
		for _, match := range pattern.FindAllStringSubmatch(upper, -1) {
			city, code := match[1], match[2]
			province, ok := e.provinces[code]
			if !ok {
				continue
			}

			city = cityDigits.ReplaceAllString(city, "")
			city = citySpecial.ReplaceAllString(city, " ")
			city = strings.TrimSpace(whitespace.ReplaceAllString(city, " "))

			// Glued codes often clip the final city letter(s).
			if len(city) > 6 && !strings.Contains(city, " ") {
				for partial, full := range e.cityFixes {
					if strings.HasPrefix(city, partial) {
						city = full
						break
					}
				}
			}

			if !e.plausibleCity(city) {
				continue
			}
			return titleCase(city) + ", " + province + ", Canada"
		}
	}
	return ""
}

func (e *Extractor) extractUS(description string) string {
	upper := strings.ToUpper(description)

	for _, pattern := range []*regexp.Regexp{trailingPattern, gluedPattern, interiorPattern, sepPattern} {
		for _, match := range pattern.FindAllStringSubmatch(upper, -1) {
			city, code := match[1], match[2]
			state, ok := e.states[code]
			if !ok {
				continue
			}

			city = strings.TrimSpace(whitespace.ReplaceAllString(city, " "))
			if len(city) < 3 || bareCode.MatchString(city) {
				continue
			}
			return city + ", " + state + ", USA"
		}
	}
	return ""
}

func (e *Extractor) extractInternational(description string) string {
	upper := strings.ToUpper(description)

	if match := countryAtEnd.FindStringSubmatch(upper); match != nil {
		if country, ok := e.countries[match[1]]; ok {
			return country
		}
	}

	for _, p := range e.international {
		if p.re.MatchString(upper) {
			return p.location
		}
	}
	return ""
}

func (e *Extractor) plausibleCity(city string) bool {
	if len(city) < 3 || bareCode.MatchString(city) || allDigits.MatchString(city) {
		return false
	}
	_, denied := e.denylist[city]
	return !denied
}

// removeLocation strips the matched city+code from the description.
// The removal pattern is re-derived from the location string rather
// than the original match span, so a fixed-up city name that no longer
// appears verbatim leaves the description untouched.
func (e *Extractor) removeLocation(description, loc string) string {
	var cleaned string
	if strings.HasSuffix(loc, ", Canada") || strings.HasSuffix(loc, ", USA") {
		city := strings.SplitN(loc, ", ", 2)[0]
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(strings.ToUpper(city)) + `\s+[A-Z]{2}\b`)
		cleaned = re.ReplaceAllString(description, "")
	} else {
		cleaned = codeAtEnd.ReplaceAllString(description, "")
	}

	cleaned = strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
	if cleaned == "" {
		return description
	}
	return cleaned
}

// City returns the city component of a normalized location string.
func City(loc string) string {
	if loc == "" {
		return ""
	}
	return strings.Split(loc, ", ")[0]
}

// Region returns the province/state component, or "" when the location
// carries no region (country-only international tags).
func Region(loc string) string {
	parts := strings.Split(loc, ", ")
	if len(parts) >= 3 {
		return parts[1]
	}
	return ""
}

// Country returns the country component of a location string.
func Country(loc string) string {
	if loc == "" {
		return ""
	}
	parts := strings.Split(loc, ", ")
	return parts[len(parts)-1]
}

// titleCase uppercases the first letter of each space-separated word
// and lowercases the rest, matching how city names are rendered in
// the Canadian tier.
func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
