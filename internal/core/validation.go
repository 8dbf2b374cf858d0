package core

// validation.go provides record-level validation for shipments.
//
// Validation happens in three stages:
//  1. Critical check: a record with none of its identity fields is rejected
//     at once and no other check runs against it
//  2. Field checks: each catalog field is checked for requiredness, length,
//     type, option membership and format
//  3. Derived checks: rules spanning several fields (weight per unit, girth,
//     lithium combinations, declared value ceiling, dry ice)
//
// Warnings are collected alongside and never affect validity. Validation is
// read-only and depends only on the record and its ValidationContext.

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// emailRegex is a deliberately loose address check; carriers only reject the obvious.
var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// FieldError is one validation failure attributed to a field or synthetic key.
type FieldError struct {
	Key     string `json:"key"`
	Label   string `json:"label"`
	Value   string `json:"value,omitempty"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	if e.Label != "" {
		return fmt.Sprintf("%s: %s", e.Label, e.Message)
	}
	return e.Message
}

// Verdict is the result of validating one record.
type Verdict struct {
	RecordID     int64        `json:"recordId"`
	IsValid      bool         `json:"isValid"`
	Critical     bool         `json:"critical,omitempty"`
	LargePackage bool         `json:"largePackage,omitempty"`
	Duplicate    bool         `json:"duplicate,omitempty"`
	FieldErrors  []FieldError `json:"fieldErrors"`
	Warnings     []string     `json:"warnings"`
}

// ErrorsFor returns the errors attached to key.
func (v Verdict) ErrorsFor(key string) []FieldError {
	var out []FieldError
	for _, e := range v.FieldErrors {
		if e.Key == key {
			out = append(out, e)
		}
	}
	return out
}

// HasError reports whether key has at least one error.
func (v Verdict) HasError(key string) bool {
	return len(v.ErrorsFor(key)) > 0
}

// ValidationContext is everything a verdict depends on besides the record.
type ValidationContext struct {
	Catalog     *Catalog
	Profile     CountryProfile
	HomeCountry string
	Duplicates  DuplicateIndex // optional
}

func (c ValidationContext) ruleEnv() RuleEnv {
	return RuleEnv{HomeCountry: c.HomeCountry, Profile: c.Profile}
}

// Warning messages. They are fixed strings so the import report can
// deduplicate them.
const (
	WarnNoContact      = "no e-mail address or telephone number for delivery notifications"
	WarnHeavy          = "package weighs more than 30 kg"
	WarnNoCustomsValue = "international shipment without a customs value"
	WarnDuplicate      = "possible duplicate: same name, address and city as another shipment"
	WarnLargePackage   = "large package: dimensions exceed the standard size limits"
)

// heavyKG is the weight above which a warning is raised.
const heavyKG = 30.0

const poundsToKG = 0.45359237

// SaturdayServices are the service codes that allow Saturday delivery.
var SaturdayServices = map[string]bool{
	"01": true, // next day air
	"02": true, // second day air
	"13": true, // next day air saver
	"14": true, // next day air early
	"59": true, // second day air A.M.
	"07": true, // worldwide express
	"54": true, // worldwide express plus
}

// ValidateRecord validates rec and returns its verdict. Every check runs so
// the caller sees the full error set, except for critical records.
func ValidateRecord(rec ShipmentRecord, ctx ValidationContext) Verdict {
	v := Verdict{RecordID: rec.ID, FieldErrors: []FieldError{}, Warnings: []string{}}

	if IsCritical(rec) {
		v.Critical = true
		v.FieldErrors = append(v.FieldErrors, FieldError{
			Key:     KeyRecord,
			Label:   ctx.Catalog.Label(KeyRecord),
			Message: "recipient name, address, city, country and postal code are all missing",
		})
		return v
	}

	env := ctx.ruleEnv()
	for i := range ctx.Catalog.Fields() {
		spec := &ctx.Catalog.Fields()[i]
		if msg, val := checkField(rec, spec, ctx.Profile, env); msg != "" {
			v.FieldErrors = append(v.FieldErrors, FieldError{
				Key:     spec.Key,
				Label:   spec.Label,
				Value:   val,
				Message: msg,
			})
		}
	}

	derivedChecks(rec, ctx, &v)
	warnings(rec, ctx, &v)

	v.IsValid = len(v.FieldErrors) == 0
	return v
}

// IsCritical reports whether every identity field of rec is empty.
func IsCritical(rec ShipmentRecord) bool {
	for _, k := range IdentityKeys {
		if rec.Has(k) {
			return false
		}
	}
	return true
}

// checkField runs the single-field checks for spec and returns the first
// failure message with the offending value, or "" when the field passes.
func checkField(rec ShipmentRecord, spec *FieldSpec, profile CountryProfile, env RuleEnv) (string, string) {
	// Always-recomputed fields ignore whatever is stored.
	if spec.Derive != nil && spec.Derive.Authority == AlwaysRecompute {
		return "", ""
	}

	if !rec.Has(spec.Key) {
		if spec.Required.Resolve(rec, env) {
			if spec.Required.Mode == RequireWhen {
				return "is required when " + spec.Required.When.String(), ""
			}
			return "is required", ""
		}
		return "", ""
	}

	val, _ := rec.Get(spec.Key)
	text := rec.Text(spec.Key)

	if spec.MaxLength > 0 && utf8.RuneCountInString(text) > spec.MaxLength {
		return fmt.Sprintf("exceeds maximum length of %d characters", spec.MaxLength), text
	}

	switch {
	case spec.Boolean:
		if _, ok := val.AsBool(); !ok {
			return "must be yes/no, true/false, or 1/0", text
		}
		return "", ""
	case spec.Kind == KindNumber:
		n, ok := val.AsNumber()
		if !ok {
			return "not a valid number", text
		}
		if spec.Min != nil && n < *spec.Min {
			return fmt.Sprintf("must be at least %s", FormatNumber(*spec.Min)), text
		}
		if spec.Max != nil && n > *spec.Max {
			return fmt.Sprintf("must be at most %s", FormatNumber(*spec.Max)), text
		}
	case spec.Kind == KindSelect:
		if _, ok := spec.HasOption(text); !ok {
			return fmt.Sprintf("value must be one of: %s", optionCodes(spec.Options)), text
		}
	case spec.Kind == KindEmail:
		if !emailRegex.MatchString(text) {
			return "not a valid e-mail address", text
		}
	}

	if re := patternFor(spec, profile); re != nil && !re.MatchString(text) {
		return "invalid format", text
	}
	return "", ""
}

// patternFor prefers the destination's profile pattern over the catalog's.
func patternFor(spec *FieldSpec, profile CountryProfile) *regexp.Regexp {
	if spec.PatternSource != PatternCatalog {
		if re := profile.Pattern(spec.PatternSource); re != nil {
			return re
		}
	}
	return spec.CompiledPattern()
}

func optionCodes(opts []Option) string {
	codes := make([]string, len(opts))
	for i, o := range opts {
		codes[i] = o.Code
	}
	return strings.Join(codes, ", ")
}

// derivedChecks runs the cross-field rules. A rule only reports on a field
// that has no single-field error yet.
func derivedChecks(rec ShipmentRecord, ctx ValidationContext, v *Verdict) {
	add := func(key, value, msg string) {
		if v.HasError(key) {
			return
		}
		v.FieldErrors = append(v.FieldErrors, FieldError{
			Key:     key,
			Label:   ctx.Catalog.Label(key),
			Value:   value,
			Message: msg,
		})
	}

	weight, hasWeight := rec.Number(KeyWeight)
	if hasWeight {
		unit := WeightUnit(rec, ctx.Profile)
		lo, hi := WeightLimits(unit)
		if weight < lo || weight > hi {
			add(KeyWeight, FormatNumber(weight),
				fmt.Sprintf("must be between %s and %s %s", FormatNumber(lo), FormatNumber(hi), unit))
		}
	}

	if dims, ok := MeasureDimensions(rec, ctx.Profile); ok {
		v.LargePackage = dims.Large()
		if dims.Length > dims.Limits.MaxLength {
			add(KeyLength, FormatNumber(dims.Length),
				fmt.Sprintf("must not exceed %s %s", FormatNumber(dims.Limits.MaxLength), dims.Unit))
		}
		if dims.LengthPlusGirth() > dims.Limits.MaxLengthPlusGirth {
			add(KeyDimensions, FormatNumber(dims.LengthPlusGirth()),
				fmt.Sprintf("length + girth of %s %s exceeds the maximum of %s %s",
					FormatNumber(dims.LengthPlusGirth()), dims.Unit,
					FormatNumber(dims.Limits.MaxLengthPlusGirth), dims.Unit))
		}
	}

	if n := CountLithium(rec); n > MaxLithiumIndicators {
		add(KeyLithiumBatteries, "",
			fmt.Sprintf("at most %d lithium battery indicators may be set, found %d", MaxLithiumIndicators, n))
	}

	if rec.Has(KeyDeclaredValue) {
		if dv, ok := rec.Number(KeyDeclaredValue); ok && (dv < 0 || dv >= DeclaredValueCeiling) {
			add(KeyDeclaredValue, FormatNumber(dv),
				fmt.Sprintf("must be at least 0 and less than %s", FormatNumber(DeclaredValueCeiling)))
		}
	}

	if rec.Has(KeyDryIceWeight) {
		if ice, ok := rec.Number(KeyDryIceWeight); ok {
			switch {
			case ice < 0 || ice != float64(int64(ice)):
				add(KeyDryIceWeight, FormatNumber(ice), "must be a non-negative whole number")
			case hasWeight && ice > weight:
				add(KeyDryIceWeight, FormatNumber(ice), "cannot exceed the package weight")
			}
		}
	}

	if rec.Flag(KeySaturdayDelivery) && rec.Has(KeyServiceCode) {
		if svc := rec.Text(KeyServiceCode); !SaturdayServices[svc] {
			add(KeySaturdayDelivery, svc, fmt.Sprintf("not available for service %s", svc))
		}
	}
}

func warnings(rec ShipmentRecord, ctx ValidationContext, v *Verdict) {
	if !rec.Has(KeyEmail) && !rec.Has(KeyTelephone) {
		v.Warnings = append(v.Warnings, WarnNoContact)
	}

	if w, ok := rec.Number(KeyWeight); ok {
		if WeightUnit(rec, ctx.Profile) == UnitPound {
			w *= poundsToKG
		}
		if w > heavyKG {
			v.Warnings = append(v.Warnings, WarnHeavy)
		}
	}

	if home, known := (CountryIsHome{}).Eval(rec, ctx.ruleEnv()); known && !home && !rec.Has(KeyCustomsValue) {
		v.Warnings = append(v.Warnings, WarnNoCustomsValue)
	}

	if ctx.Duplicates.IsDuplicate(rec) {
		v.Duplicate = true
		v.Warnings = append(v.Warnings, WarnDuplicate)
	}

	if v.LargePackage {
		v.Warnings = append(v.Warnings, WarnLargePackage)
	}
}
