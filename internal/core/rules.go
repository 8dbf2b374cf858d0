package core

// rules.go holds the small expression language used for conditional
// requiredness. Each Cond is a tagged variant interpreted uniformly by
// Requirement.Resolve; none of them capture outer state.
//
// Evaluation is three-valued: a Cond reports (result, known). When an operand
// references a field that is absent from the record the result is unknown,
// and an unknown requirement resolves to "not required" (fail-open).

import (
	"fmt"
	"strings"
)

// RuleEnv is the record-independent input to rule evaluation.
type RuleEnv struct {
	HomeCountry string
	Profile     CountryProfile
}

// Cond is a predicate over a full record.
type Cond interface {
	Eval(rec ShipmentRecord, env RuleEnv) (result bool, known bool)
	String() string
}

// CountryIn holds when the record's country is one of Codes.
type CountryIn struct {
	Codes []string
}

func (c CountryIn) Eval(rec ShipmentRecord, _ RuleEnv) (bool, bool) {
	country := strings.ToUpper(rec.Text(KeyCountry))
	if country == "" {
		return false, false
	}
	for _, code := range c.Codes {
		if strings.EqualFold(code, country) {
			return true, true
		}
	}
	return false, true
}

func (c CountryIn) String() string {
	return fmt.Sprintf("country in {%s}", strings.Join(c.Codes, ","))
}

// CountryIsHome holds when the record ships within the configured home country.
type CountryIsHome struct{}

func (CountryIsHome) Eval(rec ShipmentRecord, env RuleEnv) (bool, bool) {
	country := rec.Text(KeyCountry)
	if country == "" || env.HomeCountry == "" {
		return false, false
	}
	return strings.EqualFold(country, env.HomeCountry), true
}

func (CountryIsHome) String() string { return "country is home" }

// ProfileRequiresState holds when the destination's country profile demands a state.
type ProfileRequiresState struct{}

func (ProfileRequiresState) Eval(rec ShipmentRecord, env RuleEnv) (bool, bool) {
	if rec.Text(KeyCountry) == "" {
		return false, false
	}
	return env.Profile.StateRequired, true
}

func (ProfileRequiresState) String() string { return "profile requires state" }

// FieldEquals holds when Key's text equals Value (case-insensitive).
type FieldEquals struct {
	Key   string
	Value string
}

func (c FieldEquals) Eval(rec ShipmentRecord, _ RuleEnv) (bool, bool) {
	if !rec.Has(c.Key) {
		return false, false
	}
	return strings.EqualFold(rec.Text(c.Key), c.Value), true
}

func (c FieldEquals) String() string { return fmt.Sprintf("%s = %q", c.Key, c.Value) }

// FieldTrue holds when Key parses as boolean true.
// An absent key is known-false: flags default to off.
type FieldTrue struct {
	Key string
}

func (c FieldTrue) Eval(rec ShipmentRecord, _ RuleEnv) (bool, bool) {
	return rec.Flag(c.Key), true
}

func (c FieldTrue) String() string { return c.Key + " is set" }

// Not negates its operand; unknown stays unknown.
type Not struct {
	Cond Cond
}

func (c Not) Eval(rec ShipmentRecord, env RuleEnv) (bool, bool) {
	r, known := c.Cond.Eval(rec, env)
	if !known {
		return false, false
	}
	return !r, true
}

func (c Not) String() string { return "not (" + c.Cond.String() + ")" }

// And holds when every operand holds. A known false operand decides the result
// even if others are unknown.
type And struct {
	Conds []Cond
}

func (c And) Eval(rec ShipmentRecord, env RuleEnv) (bool, bool) {
	allKnown := true
	for _, sub := range c.Conds {
		r, known := sub.Eval(rec, env)
		if !known {
			allKnown = false
			continue
		}
		if !r {
			return false, true
		}
	}
	if !allKnown {
		return false, false
	}
	return true, true
}

func (c And) String() string { return joinConds(c.Conds, " and ") }

// Or holds when any operand holds. A known true operand decides the result.
type Or struct {
	Conds []Cond
}

func (c Or) Eval(rec ShipmentRecord, env RuleEnv) (bool, bool) {
	allKnown := true
	for _, sub := range c.Conds {
		r, known := sub.Eval(rec, env)
		if !known {
			allKnown = false
			continue
		}
		if r {
			return true, true
		}
	}
	if !allKnown {
		return false, false
	}
	return false, true
}

func (c Or) String() string { return joinConds(c.Conds, " or ") }

func joinConds(conds []Cond, sep string) string {
	parts := make([]string, len(conds))
	for i, c := range conds {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, sep) + ")"
}

// International holds when the destination differs from the home country.
func International() Cond { return Not{Cond: CountryIsHome{}} }

// RequireMode is how a field's requiredness is decided.
type RequireMode int

const (
	RequireNever RequireMode = iota
	RequireAlways
	RequireWhen
)

// Requirement is the required-ness of a FieldSpec.
type Requirement struct {
	Mode RequireMode
	When Cond
}

var (
	Always = Requirement{Mode: RequireAlways}
	Never  = Requirement{Mode: RequireNever}
)

// When makes a field required only while c holds.
func When(c Cond) Requirement { return Requirement{Mode: RequireWhen, When: c} }

// Resolve reports whether the field is required for rec.
func (r Requirement) Resolve(rec ShipmentRecord, env RuleEnv) bool {
	switch r.Mode {
	case RequireAlways:
		return true
	case RequireWhen:
		if r.When == nil {
			return false
		}
		result, known := r.When.Eval(rec, env)
		return known && result
	default:
		return false
	}
}

// String describes the requirement for field listings.
func (r Requirement) String() string {
	switch r.Mode {
	case RequireAlways:
		return "always"
	case RequireWhen:
		if r.When == nil {
			return "never"
		}
		return "when " + r.When.String()
	default:
		return "never"
	}
}
