package carrier

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/shipbatch/internal/core"
)

const (
	usPhone = `(\+?1)?\d{10}`
	euPhone = `\+?\d{6,14}`
)

// countryProfiles are the built-in per-destination rules.
var countryProfiles = []core.CountryProfile{
	{CountryCode: "US", PostalCodePattern: `\d{5}(-\d{4})?`, StatePattern: `[A-Z]{2}`, StateRequired: true, PhonePattern: usPhone, DefaultWeightUnit: core.UnitPound, DefaultDimensionUnit: core.UnitInch},
	{CountryCode: "CA", PostalCodePattern: `[A-Z]\d[A-Z] ?\d[A-Z]\d`, StatePattern: `[A-Z]{2}`, StateRequired: true, PhonePattern: usPhone},
	{CountryCode: "MX", PostalCodePattern: `\d{5}`, StatePattern: `[A-Z]{2,3}`, StateRequired: true},
	{CountryCode: "GB", PostalCodePattern: `[A-Z]{1,2}\d[A-Z\d]? ?\d[A-Z]{2}`, PhonePattern: `(\+?44|0)\d{9,10}`},
	{CountryCode: "IE", PostalCodePattern: `[A-Z]\d[\dW] ?[A-Z\d]{4}`},
	{CountryCode: "DE", PostalCodePattern: `\d{5}`, PhonePattern: `(\+?49|0)\d{6,13}`},
	{CountryCode: "AT", PostalCodePattern: `\d{4}`, PhonePattern: euPhone},
	{CountryCode: "CH", PostalCodePattern: `\d{4}`, PhonePattern: euPhone},
	{CountryCode: "FR", PostalCodePattern: `\d{5}`, PhonePattern: euPhone},
	{CountryCode: "BE", PostalCodePattern: `\d{4}`, PhonePattern: euPhone},
	{CountryCode: "NL", PostalCodePattern: `\d{4} ?[A-Z]{2}`, PhonePattern: euPhone},
	{CountryCode: "LU", PostalCodePattern: `(L-)?\d{4}`, PhonePattern: euPhone},
	{CountryCode: "IT", PostalCodePattern: `\d{5}`, PhonePattern: euPhone},
	{CountryCode: "ES", PostalCodePattern: `\d{5}`, PhonePattern: euPhone},
	{CountryCode: "PT", PostalCodePattern: `\d{4}-\d{3}`, PhonePattern: euPhone},
	{CountryCode: "PL", PostalCodePattern: `\d{2}-\d{3}`, PhonePattern: euPhone},
	{CountryCode: "DK", PostalCodePattern: `\d{4}`, PhonePattern: euPhone},
	{CountryCode: "SE", PostalCodePattern: `\d{3} ?\d{2}`, PhonePattern: euPhone},
	{CountryCode: "NO", PostalCodePattern: `\d{4}`, PhonePattern: euPhone},
	{CountryCode: "FI", PostalCodePattern: `\d{5}`, PhonePattern: euPhone},
	{CountryCode: "AU", PostalCodePattern: `\d{4}`, StatePattern: `ACT|NSW|NT|QLD|SA|TAS|VIC|WA`, StateRequired: true},
	{CountryCode: "NZ", PostalCodePattern: `\d{4}`},
	{CountryCode: "JP", PostalCodePattern: `\d{3}-?\d{4}`},
}

var profiles = core.MustProfileTable(countryProfiles)

// Profiles returns the built-in Country Profile Table.
func Profiles() *core.ProfileTable { return profiles }

// profileFile is the layout of a country profile override file.
type profileFile struct {
	Profiles []core.CountryProfile `yaml:"profiles"`
}

// LoadProfileOverrides reads country profiles from a YAML file of the form:
//
//	profiles:
//	  - country_code: DE
//	    postal_code_pattern: '\d{5}'
//	    default_weight_unit: KG
func LoadProfileOverrides(path string) ([]core.CountryProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read country profiles: %w", err)
	}
	return ParseProfileOverrides(data)
}

// ParseProfileOverrides decodes the YAML override document.
func ParseProfileOverrides(data []byte) ([]core.CountryProfile, error) {
	var f profileFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse country profiles: %w", err)
	}
	return f.Profiles, nil
}

// NewEnv builds the pipeline environment from the built-in tables.
// overridesFile may be empty; when set, its profiles replace the built-in
// ones for the same country.
func NewEnv(homeCountry, overridesFile string) (core.Env, error) {
	if homeCountry == "" {
		homeCountry = DefaultHomeCountry
	}
	table := profiles
	if overridesFile != "" {
		overrides, err := LoadProfileOverrides(overridesFile)
		if err != nil {
			return core.Env{}, err
		}
		if table, err = profiles.WithOverrides(overrides); err != nil {
			return core.Env{}, fmt.Errorf("country profiles: %w", err)
		}
	}
	return core.Env{Catalog: catalog, Profiles: table, HomeCountry: homeCountry}, nil
}
