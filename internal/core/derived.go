package core

import "strings"

// MaxLithiumIndicators is how many lithium indicators may be set on one package.
const MaxLithiumIndicators = 3

// DeclaredValueCeiling is the carrier liability ceiling (exclusive).
const DeclaredValueCeiling = 1000.0

// WeightUnit returns the record's weight unit, or the profile default.
func WeightUnit(rec ShipmentRecord, profile CountryProfile) string {
	if u := strings.ToUpper(rec.Text(KeyWeightUnit)); u == UnitKilogram || u == UnitPound {
		return u
	}
	if profile.DefaultWeightUnit == UnitPound {
		return UnitPound
	}
	return UnitKilogram
}

// DimensionUnit returns the record's dimension unit, or the profile default.
func DimensionUnit(rec ShipmentRecord, profile CountryProfile) string {
	if u := strings.ToUpper(rec.Text(KeyDimensionUnit)); u == UnitCentimeter || u == UnitInch {
		return u
	}
	if profile.DefaultDimensionUnit == UnitInch {
		return UnitInch
	}
	return UnitCentimeter
}

// WeightLimits returns the accepted package weight range for unit.
func WeightLimits(unit string) (lo, hi float64) {
	if unit == UnitPound {
		return 0.1, 150
	}
	return 0.1, 70
}

// SizeLimits are the unit-dependent package size thresholds.
type SizeLimits struct {
	LargeLength          float64 // length above this is a large package
	LargeLengthPlusGirth float64 // length + girth above this is a large package
	MaxLength            float64 // hard maximum length
	MaxLengthPlusGirth   float64 // hard maximum length + girth
}

var (
	centimeterLimits = SizeLimits{LargeLength: 244, LargeLengthPlusGirth: 330, MaxLength: 274, MaxLengthPlusGirth: 400}
	inchLimits       = SizeLimits{LargeLength: 96, LargeLengthPlusGirth: 130, MaxLength: 108, MaxLengthPlusGirth: 165}
)

// LimitsFor returns the size limits for a dimension unit.
func LimitsFor(unit string) SizeLimits {
	if unit == UnitInch {
		return inchLimits
	}
	return centimeterLimits
}

// Dimensions is a fully measured package.
type Dimensions struct {
	Length, Width, Height float64
	Unit                  string
	Limits                SizeLimits
}

// Girth is twice the sum of width and height.
func (d Dimensions) Girth() float64 { return 2 * (d.Width + d.Height) }

// LengthPlusGirth is the carrier's combined size measure.
func (d Dimensions) LengthPlusGirth() float64 { return d.Length + d.Girth() }

// Large reports whether the package exceeds the standard size.
func (d Dimensions) Large() bool {
	return d.Length > d.Limits.LargeLength || d.LengthPlusGirth() > d.Limits.LargeLengthPlusGirth
}

// MeasureDimensions reads length, width and height from rec.
// ok is false unless all three are present and numeric.
func MeasureDimensions(rec ShipmentRecord, profile CountryProfile) (Dimensions, bool) {
	l, okL := rec.Number(KeyLength)
	w, okW := rec.Number(KeyWidth)
	h, okH := rec.Number(KeyHeight)
	if !okL || !okW || !okH {
		return Dimensions{}, false
	}
	unit := DimensionUnit(rec, profile)
	return Dimensions{Length: l, Width: w, Height: h, Unit: unit, Limits: LimitsFor(unit)}, true
}

// CountLithium returns how many lithium indicators are set.
func CountLithium(rec ShipmentRecord) int {
	n := 0
	for _, k := range LithiumKeys {
		if rec.Flag(k) {
			n++
		}
	}
	return n
}

// DuplicateIndex groups record ids by duplicate key.
type DuplicateIndex map[string][]int64

// DuplicateKey returns the case-insensitive (name, address1, city) key,
// or "" when all three are empty.
func DuplicateKey(rec ShipmentRecord) string {
	name := strings.ToLower(rec.Text(KeyName))
	addr := strings.ToLower(rec.Text(KeyAddress1))
	city := strings.ToLower(rec.Text(KeyCity))
	if name == "" && addr == "" && city == "" {
		return ""
	}
	return name + "|" + addr + "|" + city
}

// BuildDuplicateIndex indexes recs by duplicate key.
func BuildDuplicateIndex(recs []ShipmentRecord) DuplicateIndex {
	idx := make(DuplicateIndex, len(recs))
	for _, r := range recs {
		idx.Add(r)
	}
	return idx
}

// Add indexes rec.
func (d DuplicateIndex) Add(rec ShipmentRecord) {
	if key := DuplicateKey(rec); key != "" {
		d[key] = append(d[key], rec.ID)
	}
}

// IsDuplicate reports whether another record shares rec's duplicate key.
func (d DuplicateIndex) IsDuplicate(rec ShipmentRecord) bool {
	if d == nil {
		return false
	}
	for _, id := range d[DuplicateKey(rec)] {
		if id != rec.ID {
			return true
		}
	}
	return false
}
