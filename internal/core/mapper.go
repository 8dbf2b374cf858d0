package core

// mapper.go maps arbitrary input headers onto canonical field keys.
//
// Each header is normalized (trimmed, lowercased, quotes stripped) and then
// tried against the catalog in three passes: exact name, substring
// containment in either direction, and finally the synonym table. The first
// pass that matches wins, and within a pass the first field in catalog order
// wins. Headers that match nothing stay in the mapping as unmapped.

import (
	"fmt"
	"strings"
)

// minSubstringLen keeps one- and two-letter headers out of substring matching.
const minSubstringLen = 3

// MatchRule records how a column was mapped.
type MatchRule string

const (
	MatchNone      MatchRule = "unmapped"
	MatchExact     MatchRule = "exact"
	MatchSubstring MatchRule = "substring"
	MatchSynonym   MatchRule = "synonym"
	MatchOverride  MatchRule = "override"
)

// synonyms maps normalized header abbreviations to canonical keys.
var synonyms = map[string]string{
	// Recipient
	"company":       KeyName,
	"company name":  KeyName,
	"recipient":     KeyName,
	"consignee":     KeyName,
	"ship to":       KeyName,
	"attn":          KeyContactName,
	"attention":     KeyContactName,
	"contact":       KeyContactName,
	"street":        KeyAddress1,
	"street1":       KeyAddress1,
	"addr1":         KeyAddress1,
	"addr":          KeyAddress1,
	"line1":         KeyAddress1,
	"street2":       KeyAddress2,
	"addr2":         KeyAddress2,
	"line2":         KeyAddress2,
	"suite":         KeyAddress2,
	"street3":       KeyAddress3,
	"addr3":         KeyAddress3,
	"line3":         KeyAddress3,
	"town":          KeyCity,
	"locality":      KeyCity,
	"province":      KeyState,
	"prov":          KeyState,
	"region":        KeyState,
	"st":            KeyState,
	"county":        KeyState,
	"zip":           KeyPostalCode,
	"zipcode":       KeyPostalCode,
	"zip_code":      KeyPostalCode,
	"post code":     KeyPostalCode,
	"postcode":      KeyPostalCode,
	"postal_code":   KeyPostalCode,
	"plz":           KeyPostalCode,
	"ctry":          KeyCountry,
	"cntry":         KeyCountry,
	"country_code":  KeyCountry,
	"iso":           KeyCountry,
	"tel":           KeyTelephone,
	"tel.":          KeyTelephone,
	"mobile":        KeyTelephone,
	"cell":          KeyTelephone,
	"ext":           KeyExtension,
	"ext.":          KeyExtension,
	"mail":          KeyEmail,
	"e-mail":        KeyEmail,
	"email_address": KeyEmail,
	"resi":          KeyResidential,
	"residence":     KeyResidential,
	"home delivery": KeyResidential,

	// Package
	"pkg":          KeyPackagingType,
	"package type": KeyPackagingType,
	"packaging":    KeyPackagingType,
	"wt":           KeyWeight,
	"wgt":          KeyWeight,
	"kg":           KeyWeight,
	"lbs":          KeyWeight,
	"mass":         KeyWeight,
	"uom":          KeyWeightUnit,
	"wt unit":      KeyWeightUnit,
	"len":          KeyLength,
	"l":            KeyLength,
	"w":            KeyWidth,
	"h":            KeyHeight,
	"dim unit":     KeyDimensionUnit,
	"oversize":     KeyLargePackage,
	"ahs":          KeyAdditionalHandling,

	// Service and options
	"svc":             KeyServiceCode,
	"service level":   KeyServiceCode,
	"shipping method": KeyServiceCode,
	"contents":        KeyDescription,
	"goods":           KeyDescription,
	"insured value":   KeyDeclaredValue,
	"insurance":       KeyDeclaredValue,
	"dv":              KeyDeclaredValue,
	"customs":         KeyCustomsValue,
	"invoice value":   KeyCustomsValue,
	"sat":             KeySaturdayDelivery,
	"saturday":        KeySaturdayDelivery,
	"sig":             KeySignatureRequired,
	"signature":       KeySignatureRequired,
	"ref":             "reference1",
	"ref1":            "reference1",
	"ref 1":           "reference1",
	"po":              "reference1",
	"order":           "reference1",
	"order number":    "reference1",
	"ref2":            "reference2",
	"ref 2":           "reference2",
	"ref3":            "reference3",
	"ref 3":           "reference3",
	"dry ice":         KeyDryIceWeight,
	"co2":             KeyDryIceWeight,
	"hazmat":          KeyDangerousGoods,
	"dg":              KeyDangerousGoods,
}

// ColumnMapping is the mapping decision for one input column.
type ColumnMapping struct {
	Index  int       `json:"index"`
	Header string    `json:"header"`
	Key    string    `json:"key,omitempty"` // empty when unmapped
	Rule   MatchRule `json:"rule"`
}

// FieldMapping maps input column indexes to canonical keys. It keeps one entry
// per header, including unmapped ones, and is advisory until an import is
// committed.
type FieldMapping struct {
	Columns []ColumnMapping `json:"columns"`
}

// KeyFor returns the canonical key mapped to column index i.
func (m FieldMapping) KeyFor(i int) (string, bool) {
	if i < 0 || i >= len(m.Columns) || m.Columns[i].Key == "" {
		return "", false
	}
	return m.Columns[i].Key, true
}

// Mapped returns the columns that have a key.
func (m FieldMapping) Mapped() []ColumnMapping {
	var out []ColumnMapping
	for _, c := range m.Columns {
		if c.Key != "" {
			out = append(out, c)
		}
	}
	return out
}

// Unmapped returns the columns that matched nothing.
func (m FieldMapping) Unmapped() []ColumnMapping {
	var out []ColumnMapping
	for _, c := range m.Columns {
		if c.Key == "" {
			out = append(out, c)
		}
	}
	return out
}

// Keys returns column index -> key for every mapped column.
func (m FieldMapping) Keys() map[int]string {
	out := make(map[int]string, len(m.Columns))
	for _, c := range m.Mapped() {
		out[c.Index] = c.Key
	}
	return out
}

// WithOverrides returns a copy with user overrides applied.
// An empty key unmaps the column; an unknown key is an error.
func (m FieldMapping) WithOverrides(cat *Catalog, overrides map[int]string) (FieldMapping, error) {
	out := FieldMapping{Columns: append([]ColumnMapping(nil), m.Columns...)}
	for idx, key := range overrides {
		if idx < 0 || idx >= len(out.Columns) {
			return m, fmt.Errorf("%w: column %d out of range", ErrInvalidMapping, idx)
		}
		key = strings.TrimSpace(key)
		if key == "" {
			out.Columns[idx].Key = ""
			out.Columns[idx].Rule = MatchNone
			continue
		}
		if _, ok := cat.Lookup(key); !ok {
			return m, fmt.Errorf("%w: unknown field %q", ErrInvalidMapping, key)
		}
		out.Columns[idx].Key = key
		out.Columns[idx].Rule = MatchOverride
	}
	return out, nil
}

// NormalizeHeader trims, lowercases and strips quotes from a header cell.
func NormalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.Trim(strings.TrimSpace(h), `"'`)
	return strings.ToLower(strings.TrimSpace(h))
}

// MapHeaders maps every header cell to a canonical key.
func MapHeaders(cat *Catalog, header []string) FieldMapping {
	m := FieldMapping{Columns: make([]ColumnMapping, len(header))}
	for i, h := range header {
		col := ColumnMapping{Index: i, Header: h, Rule: MatchNone}
		if key, rule := matchHeader(cat, NormalizeHeader(h)); key != "" {
			col.Key = key
			col.Rule = rule
		}
		m.Columns[i] = col
	}
	return m
}

func matchHeader(cat *Catalog, h string) (string, MatchRule) {
	if h == "" {
		return "", MatchNone
	}
	fields := cat.Fields()

	// Carrier names outrank labels and keys so exported files map back exactly.
	for _, f := range fields {
		if strings.ToLower(f.ExternalName) == h {
			return f.Key, MatchExact
		}
	}
	for _, f := range fields {
		if strings.ToLower(f.Label) == h || strings.ToLower(f.Key) == h {
			return f.Key, MatchExact
		}
	}

	if len(h) >= minSubstringLen {
		for _, f := range fields {
			for _, name := range []string{strings.ToLower(f.ExternalName), strings.ToLower(f.Label)} {
				if len(name) >= minSubstringLen && (strings.Contains(name, h) || strings.Contains(h, name)) {
					return f.Key, MatchSubstring
				}
			}
		}
	}

	if key, ok := synonyms[h]; ok {
		if _, known := cat.Lookup(key); known {
			return key, MatchSynonym
		}
	}
	return "", MatchNone
}

// BuildRecord converts a raw row into a record using mapping.
// When several columns map to one key, the first non-empty cell wins.
// Cells are cleaned, normalized and typed per their FieldSpec; values that
// fail to convert are kept as text so the validator can report them.
// Mandatory fields left empty receive their catalog default.
func BuildRecord(cat *Catalog, mapping FieldMapping, row RawRow, id int64) ShipmentRecord {
	rec := NewRecord(id)
	for _, col := range mapping.Columns {
		if col.Key == "" || col.Index >= len(row.Cells) {
			continue
		}
		if rec.Has(col.Key) {
			continue
		}
		raw := CleanCell(row.Cells[col.Index])
		if raw == "" {
			continue
		}
		spec, ok := cat.Lookup(col.Key)
		if !ok {
			rec.Fields[col.Key] = TextValue(raw)
			continue
		}
		rec.Fields[col.Key] = TypedValue(spec, raw)
	}
	return ApplyDefaults(cat, rec)
}

// ApplyDefaults fills every always-required field that is missing from rec
// and has a catalog default. rec is modified in place and returned.
func ApplyDefaults(cat *Catalog, rec ShipmentRecord) ShipmentRecord {
	for i := range cat.Fields() {
		spec := &cat.Fields()[i]
		if spec.Default == "" || spec.Required.Mode != RequireAlways || rec.Has(spec.Key) {
			continue
		}
		rec.Fields[spec.Key] = TypedValue(spec, spec.Default)
	}
	return rec
}

// TypedValue converts a cleaned cell into the value type of spec.
func TypedValue(spec *FieldSpec, raw string) Value {
	if spec.Normalizer != nil {
		raw = spec.Normalizer(raw)
	}
	switch {
	case spec.Boolean:
		if b, ok := ParseBool(raw); ok {
			return BoolValue(b)
		}
	case spec.Kind == KindNumber:
		if f, ok := ParseNumber(raw); ok {
			return NumberValue(f)
		}
	case spec.Kind == KindSelect:
		if code, ok := spec.HasOption(raw); ok {
			return TextValue(code)
		}
		for _, o := range spec.Options {
			if strings.EqualFold(o.Label, raw) {
				return TextValue(o.Code)
			}
		}
	}
	return TextValue(raw)
}
