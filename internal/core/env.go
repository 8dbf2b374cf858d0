package core

import "strings"

// Env bundles the process-wide, read-only inputs of the pipeline.
// It is loaded once at startup and passed explicitly into every call.
type Env struct {
	Catalog     *Catalog
	Profiles    *ProfileTable
	HomeCountry string
}

// Check returns ErrCatalogUnavailable when the Field Catalog is not loaded.
func (e Env) Check() error {
	if e.Catalog == nil || e.Catalog.Len() == 0 {
		return ErrCatalogUnavailable
	}
	return nil
}

// RuleEnv resolves the rule environment for a record's destination.
func (e Env) RuleEnv(rec ShipmentRecord) RuleEnv {
	return RuleEnv{
		HomeCountry: strings.ToUpper(e.HomeCountry),
		Profile:     e.Profiles.Lookup(rec.Text(KeyCountry)),
	}
}

// ContextFor builds the validation context for rec. dups may be nil.
func (e Env) ContextFor(rec ShipmentRecord, dups DuplicateIndex) ValidationContext {
	return ValidationContext{
		Catalog:     e.Catalog,
		Profile:     e.Profiles.Lookup(rec.Text(KeyCountry)),
		HomeCountry: strings.ToUpper(e.HomeCountry),
		Duplicates:  dups,
	}
}

// Validate validates rec in this environment.
func (e Env) Validate(rec ShipmentRecord, dups DuplicateIndex) Verdict {
	return ValidateRecord(rec, e.ContextFor(rec, dups))
}
