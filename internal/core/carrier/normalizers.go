package carrier

import (
	"strings"

	"github.com/JonMunkholm/shipbatch/internal/core"
)

// usStates maps US state full names to their abbreviations.
var usStates = map[string]string{
	"alabama":              "AL",
	"alaska":               "AK",
	"arizona":              "AZ",
	"arkansas":             "AR",
	"california":           "CA",
	"colorado":             "CO",
	"connecticut":          "CT",
	"delaware":             "DE",
	"district of columbia": "DC",
	"florida":              "FL",
	"georgia":              "GA",
	"hawaii":               "HI",
	"idaho":                "ID",
	"illinois":             "IL",
	"indiana":              "IN",
	"iowa":                 "IA",
	"kansas":               "KS",
	"kentucky":             "KY",
	"louisiana":            "LA",
	"maine":                "ME",
	"maryland":             "MD",
	"massachusetts":        "MA",
	"michigan":             "MI",
	"minnesota":            "MN",
	"mississippi":          "MS",
	"missouri":             "MO",
	"montana":              "MT",
	"nebraska":             "NE",
	"nevada":               "NV",
	"new hampshire":        "NH",
	"new jersey":           "NJ",
	"new mexico":           "NM",
	"new york":             "NY",
	"north carolina":       "NC",
	"north dakota":         "ND",
	"ohio":                 "OH",
	"oklahoma":             "OK",
	"oregon":               "OR",
	"pennsylvania":         "PA",
	"rhode island":         "RI",
	"south carolina":       "SC",
	"south dakota":         "SD",
	"tennessee":            "TN",
	"texas":                "TX",
	"utah":                 "UT",
	"vermont":              "VT",
	"virginia":             "VA",
	"washington":           "WA",
	"west virginia":        "WV",
	"wisconsin":            "WI",
	"wyoming":              "WY",
}

// caProvinces maps Canadian province and territory names to their codes.
var caProvinces = map[string]string{
	"alberta":                   "AB",
	"british columbia":          "BC",
	"manitoba":                  "MB",
	"new brunswick":             "NB",
	"newfoundland and labrador": "NL",
	"northwest territories":     "NT",
	"nova scotia":               "NS",
	"nunavut":                   "NU",
	"ontario":                   "ON",
	"prince edward island":      "PE",
	"quebec":                    "QC",
	"saskatchewan":              "SK",
	"yukon":                     "YT",
}

// auStates maps Australian state names to their codes.
var auStates = map[string]string{
	"australian capital territory": "ACT",
	"new south wales":              "NSW",
	"northern territory":           "NT",
	"queensland":                   "QLD",
	"south australia":              "SA",
	"tasmania":                     "TAS",
	"victoria":                     "VIC",
	"western australia":            "WA",
}

// countryNames maps common country spellings to ISO 3166-1 alpha-2 codes.
var countryNames = map[string]string{
	"united states":            "US",
	"united states of america": "US",
	"usa":                      "US",
	"u.s.a.":                   "US",
	"u.s.":                     "US",
	"america":                  "US",
	"canada":                   "CA",
	"mexico":                   "MX",
	"united kingdom":           "GB",
	"great britain":            "GB",
	"uk":                       "GB",
	"england":                  "GB",
	"scotland":                 "GB",
	"wales":                    "GB",
	"ireland":                  "IE",
	"germany":                  "DE",
	"deutschland":              "DE",
	"austria":                  "AT",
	"switzerland":              "CH",
	"france":                   "FR",
	"belgium":                  "BE",
	"netherlands":              "NL",
	"the netherlands":          "NL",
	"holland":                  "NL",
	"luxembourg":               "LU",
	"italy":                    "IT",
	"spain":                    "ES",
	"portugal":                 "PT",
	"poland":                   "PL",
	"denmark":                  "DK",
	"sweden":                   "SE",
	"norway":                   "NO",
	"finland":                  "FI",
	"australia":                "AU",
	"new zealand":              "NZ",
	"japan":                    "JP",
}

// NormalizeState converts US, Canadian and Australian state names to their
// codes and uppercases anything else.
func NormalizeState(s string) string {
	s = strings.TrimSpace(s)
	sLower := strings.ToLower(s)

	for _, table := range []map[string]string{usStates, caProvinces, auStates} {
		if code, ok := table[sLower]; ok {
			return code
		}
	}

	// Fallback: assume an abbreviation
	return strings.ToUpper(s)
}

// NormalizeCountry converts country names to ISO alpha-2 codes.
// Unknown values are uppercased and returned as-is.
func NormalizeCountry(s string) string {
	s = strings.TrimSpace(s)
	if code, ok := countryNames[strings.ToLower(s)]; ok {
		return code
	}
	return strings.ToUpper(s)
}

// NormalizePostalCode uppercases and trims a postal code.
func NormalizePostalCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizePhone keeps digits and a leading plus sign.
func NormalizePhone(s string) string {
	s = strings.TrimSpace(s)
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '+' && i == 0:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return s
	}
	return b.String()
}

// NormalizeWeightUnit maps unit spellings to KG or LB.
func NormalizeWeightUnit(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "kg", "kgs", "kilo", "kilos", "kilogram", "kilograms":
		return core.UnitKilogram
	case "lb", "lbs", "pound", "pounds":
		return core.UnitPound
	}
	return strings.ToUpper(strings.TrimSpace(s))
}

// NormalizeDimensionUnit maps unit spellings to CM or IN.
func NormalizeDimensionUnit(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cm", "cms", "centimeter", "centimeters", "centimetre", "centimetres":
		return core.UnitCentimeter
	case "in", "inch", "inches", `"`:
		return core.UnitInch
	}
	return strings.ToUpper(strings.TrimSpace(s))
}
