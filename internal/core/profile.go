package core

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// CountryProfile holds per-destination overrides of catalog rules.
type CountryProfile struct {
	CountryCode          string `json:"countryCode" yaml:"country_code"`
	PostalCodePattern    string `json:"postalCodePattern,omitempty" yaml:"postal_code_pattern"`
	StatePattern         string `json:"statePattern,omitempty" yaml:"state_pattern"`
	StateRequired        bool   `json:"stateRequired" yaml:"state_required"`
	PhonePattern         string `json:"phonePattern,omitempty" yaml:"phone_pattern"`
	DefaultWeightUnit    string `json:"defaultWeightUnit" yaml:"default_weight_unit"`
	DefaultDimensionUnit string `json:"defaultDimensionUnit" yaml:"default_dimension_unit"`

	postalRE *regexp.Regexp
	stateRE  *regexp.Regexp
	phoneRE  *regexp.Regexp
}

// Neutral is the profile used for countries without an entry.
// Its empty patterns make the validator fall back to catalog patterns.
func Neutral() CountryProfile {
	return CountryProfile{
		DefaultWeightUnit:    UnitKilogram,
		DefaultDimensionUnit: UnitCentimeter,
	}
}

// Pattern returns the compiled profile pattern for src, or nil when the
// profile defines none.
func (p CountryProfile) Pattern(src PatternSource) *regexp.Regexp {
	switch src {
	case PatternPostal:
		return p.postalRE
	case PatternState:
		return p.stateRE
	case PatternPhone:
		return p.phoneRE
	}
	return nil
}

// compile anchors and compiles the profile's patterns.
func (p *CountryProfile) compile() error {
	var err error
	if p.postalRE, err = compileAnchored(p.PostalCodePattern); err != nil {
		return fmt.Errorf("%s postal code pattern: %w", p.CountryCode, err)
	}
	if p.stateRE, err = compileAnchored(p.StatePattern); err != nil {
		return fmt.Errorf("%s state pattern: %w", p.CountryCode, err)
	}
	if p.phoneRE, err = compileAnchored(p.PhonePattern); err != nil {
		return fmt.Errorf("%s phone pattern: %w", p.CountryCode, err)
	}
	return nil
}

func compileAnchored(pattern string) (*regexp.Regexp, error) {
	if pattern == "" {
		return nil, nil
	}
	return regexp.Compile(`^(?:` + pattern + `)$`)
}

// ProfileTable is the immutable Country Profile Table.
// Lookup is total: unknown countries resolve to the neutral profile.
type ProfileTable struct {
	profiles map[string]CountryProfile
	fallback CountryProfile
}

// NewProfileTable compiles profiles into a table. Later entries for the same
// country replace earlier ones.
func NewProfileTable(profiles []CountryProfile) (*ProfileTable, error) {
	t := &ProfileTable{
		profiles: make(map[string]CountryProfile, len(profiles)),
		fallback: Neutral(),
	}
	for _, p := range profiles {
		p.CountryCode = strings.ToUpper(strings.TrimSpace(p.CountryCode))
		if p.CountryCode == "" {
			return nil, fmt.Errorf("country profile without country code")
		}
		if p.DefaultWeightUnit == "" {
			p.DefaultWeightUnit = UnitKilogram
		}
		if p.DefaultDimensionUnit == "" {
			p.DefaultDimensionUnit = UnitCentimeter
		}
		p.DefaultWeightUnit = strings.ToUpper(p.DefaultWeightUnit)
		p.DefaultDimensionUnit = strings.ToUpper(p.DefaultDimensionUnit)
		if err := p.compile(); err != nil {
			return nil, err
		}
		t.profiles[p.CountryCode] = p
	}
	return t, nil
}

// MustProfileTable is NewProfileTable for static tables; it panics on error.
func MustProfileTable(profiles []CountryProfile) *ProfileTable {
	t, err := NewProfileTable(profiles)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup returns the profile for a country code, or the neutral profile.
func (t *ProfileTable) Lookup(code string) CountryProfile {
	if t == nil {
		return Neutral()
	}
	if p, ok := t.profiles[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return p
	}
	return t.fallback
}

// Has reports whether an explicit profile exists for code.
func (t *ProfileTable) Has(code string) bool {
	if t == nil {
		return false
	}
	_, ok := t.profiles[strings.ToUpper(strings.TrimSpace(code))]
	return ok
}

// Profiles returns all explicit profiles sorted by country code.
func (t *ProfileTable) Profiles() []CountryProfile {
	if t == nil {
		return nil
	}
	out := make([]CountryProfile, 0, len(t.profiles))
	for _, p := range t.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CountryCode < out[j].CountryCode })
	return out
}

// WithOverrides returns a new table where overrides replace same-country entries.
func (t *ProfileTable) WithOverrides(overrides []CountryProfile) (*ProfileTable, error) {
	merged := append(t.Profiles(), overrides...)
	return NewProfileTable(merged)
}
