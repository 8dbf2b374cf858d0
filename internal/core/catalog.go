package core

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldKind is the data type of a carrier field.
type FieldKind int

const (
	KindText FieldKind = iota
	KindNumber
	KindSelect
	KindEmail
)

func (k FieldKind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindSelect:
		return "select"
	case KindEmail:
		return "email"
	default:
		return "text"
	}
}

// MarshalText renders the kind by name in JSON field listings.
func (k FieldKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Option is one enumerated (code, label) pair of a select field.
type Option struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

// PatternSource says where a field's format pattern comes from.
type PatternSource int

const (
	PatternCatalog PatternSource = iota // FieldSpec.Pattern only
	PatternPostal                       // country profile postal code pattern
	PatternPhone                        // country profile phone pattern
	PatternState                        // country profile state pattern
)

// Authority decides whether a derived value overrides stored data.
type Authority int

const (
	// FillMissing derives a value only when the record has none.
	FillMissing Authority = iota
	// AlwaysRecompute ignores stored data and derives at export time.
	AlwaysRecompute
)

// DeriveFunc computes a field value from the full record.
// ok is false when the inputs needed for the computation are missing.
type DeriveFunc func(rec ShipmentRecord, env RuleEnv) (v Value, ok bool)

// Derivation attaches a computed value and its authority policy to a field.
type Derivation struct {
	Func      DeriveFunc
	Authority Authority
}

// FieldSpec describes one carrier output field.
type FieldSpec struct {
	Key           string
	ExternalName  string // column header / tag source in carrier files
	Label         string // human label
	Kind          FieldKind
	Required      Requirement
	MaxLength     int
	Pattern       string // full-match regular expression, without anchors
	PatternSource PatternSource
	Options       []Option
	Min           *float64
	Max           *float64
	Default       string
	Boolean       bool     // serialized as "1"/"0"
	Aliases       []string // legacy record keys consulted at export
	Derive        *Derivation
	Normalizer    func(string) string // applied to raw cells during mapping

	pattern *regexp.Regexp
}

// CompiledPattern returns the compiled catalog pattern, or nil.
func (f *FieldSpec) CompiledPattern() *regexp.Regexp { return f.pattern }

// HasOption reports whether code is one of the field's option codes,
// returning the canonical spelling.
func (f *FieldSpec) HasOption(code string) (string, bool) {
	code = strings.TrimSpace(code)
	for _, o := range f.Options {
		if strings.EqualFold(o.Code, code) {
			return o.Code, true
		}
	}
	return "", false
}

// Bound returns a pointer to f for optional Min/Max.
func Bound(f float64) *float64 { return &f }

// BoolOptions are the option codes of every boolean-backed field.
// "0" comes first so the export fallback never turns an unknown value on.
var BoolOptions = []Option{{Code: "0", Label: "No"}, {Code: "1", Label: "Yes"}}

// Catalog is the immutable, ordered Field Catalog.
// The order of Fields is the carrier-mandated output order.
type Catalog struct {
	fields     []FieldSpec
	byKey      map[string]int
	byExternal map[string]int
}

// NewCatalog builds a catalog from specs in output order.
// Panics if a key or external name is registered twice or a pattern does not compile.
func NewCatalog(specs []FieldSpec) *Catalog {
	c := &Catalog{
		fields:     make([]FieldSpec, 0, len(specs)),
		byKey:      make(map[string]int, len(specs)),
		byExternal: make(map[string]int, len(specs)),
	}

	for _, spec := range specs {
		if spec.Key == "" {
			panic("catalog: field with empty key")
		}
		if _, exists := c.byKey[spec.Key]; exists {
			panic(fmt.Sprintf("catalog: field already registered: %s", spec.Key))
		}
		ext := strings.ToLower(spec.ExternalName)
		if _, exists := c.byExternal[ext]; exists {
			panic(fmt.Sprintf("catalog: external name already registered: %s", spec.ExternalName))
		}
		if spec.Label == "" {
			spec.Label = spec.ExternalName
		}
		if spec.Boolean && len(spec.Options) == 0 {
			spec.Kind = KindSelect
			spec.Options = BoolOptions
		}
		if spec.Boolean && spec.Default == "" {
			spec.Default = "0"
		}
		if spec.Pattern != "" {
			spec.pattern = regexp.MustCompile(`^(?:` + spec.Pattern + `)$`)
		}

		c.byKey[spec.Key] = len(c.fields)
		c.byExternal[ext] = len(c.fields)
		c.fields = append(c.fields, spec)
	}

	return c
}

// Len returns the number of fields.
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.fields)
}

// Fields returns the specs in output order. Callers must not modify the result.
func (c *Catalog) Fields() []FieldSpec {
	if c == nil {
		return nil
	}
	return c.fields
}

// Keys returns every canonical key in output order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, c.Len())
	for _, f := range c.Fields() {
		keys = append(keys, f.Key)
	}
	return keys
}

// Lookup returns the spec for a canonical key.
func (c *Catalog) Lookup(key string) (*FieldSpec, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.byKey[key]
	if !ok {
		return nil, false
	}
	return &c.fields[i], true
}

// ByExternalName returns the spec whose carrier name matches (case-insensitive).
func (c *Catalog) ByExternalName(name string) (*FieldSpec, bool) {
	if c == nil {
		return nil, false
	}
	i, ok := c.byExternal[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, false
	}
	return &c.fields[i], true
}

// Label returns the display label for key, or the key itself if unknown.
func (c *Catalog) Label(key string) string {
	if spec, ok := c.Lookup(key); ok {
		return spec.Label
	}
	switch key {
	case KeyLithiumBatteries:
		return "Lithium batteries"
	case KeyDimensions:
		return "Package dimensions"
	case KeyRecord:
		return "Record"
	}
	return key
}

// Options returns the enumerated options for key (nil for non-select fields).
func (c *Catalog) Options(key string) []Option {
	if spec, ok := c.Lookup(key); ok {
		return spec.Options
	}
	return nil
}
