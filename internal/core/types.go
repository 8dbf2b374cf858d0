package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ValueKind identifies the dynamic type held by a Value.
type ValueKind int

const (
	ValueText ValueKind = iota
	ValueNumber
	ValueBool
)

// Value is a single typed field value on a ShipmentRecord.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
}

// TextValue wraps a string.
func TextValue(s string) Value { return Value{Kind: ValueText, Str: s} }

// NumberValue wraps a number.
func NumberValue(f float64) Value { return Value{Kind: ValueNumber, Num: f} }

// BoolValue wraps a boolean.
func BoolValue(b bool) Value { return Value{Kind: ValueBool, Bool: b} }

// String returns the canonical text form of the value.
// Numbers use the shortest exact decimal form; booleans render as "true"/"false".
func (v Value) String() string {
	switch v.Kind {
	case ValueNumber:
		return FormatNumber(v.Num)
	case ValueBool:
		if v.Bool {
			return "true"
		}
		return "false"
	default:
		return v.Str
	}
}

// IsEmpty reports whether the value carries no data.
// Numbers and booleans are never empty.
func (v Value) IsEmpty() bool {
	return v.Kind == ValueText && strings.TrimSpace(v.Str) == ""
}

// AsNumber returns the numeric interpretation of the value.
func (v Value) AsNumber() (float64, bool) {
	switch v.Kind {
	case ValueNumber:
		return v.Num, true
	case ValueText:
		return ParseNumber(v.Str)
	default:
		return 0, false
	}
}

// AsBool returns the boolean interpretation of the value.
func (v Value) AsBool() (bool, bool) {
	switch v.Kind {
	case ValueBool:
		return v.Bool, true
	case ValueText:
		return ParseBool(v.Str)
	case ValueNumber:
		if v.Num == 0 || v.Num == 1 {
			return v.Num == 1, true
		}
	}
	return false, false
}

// MarshalJSON encodes the value as a native JSON string, number or bool.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case ValueNumber:
		return json.Marshal(v.Num)
	case ValueBool:
		return json.Marshal(v.Bool)
	default:
		return json.Marshal(v.Str)
	}
}

// UnmarshalJSON decodes a native JSON string, number or bool.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch t := raw.(type) {
	case nil:
		*v = TextValue("")
	case string:
		*v = TextValue(t)
	case float64:
		*v = NumberValue(t)
	case bool:
		*v = BoolValue(t)
	default:
		return fmt.Errorf("unsupported field value %s", string(data))
	}
	return nil
}

// ShipmentRecord is one shipment: canonical field key -> typed value, plus a stable id.
// Validation never mutates a record; changes go through explicit update operations.
type ShipmentRecord struct {
	ID     int64            `json:"id"`
	Fields map[string]Value `json:"fields"`
}

// NewRecord returns an empty record with the given id.
func NewRecord(id int64) ShipmentRecord {
	return ShipmentRecord{ID: id, Fields: make(map[string]Value)}
}

// Get returns the raw value stored under key.
func (r ShipmentRecord) Get(key string) (Value, bool) {
	v, ok := r.Fields[key]
	return v, ok
}

// Has reports whether key holds a non-empty value.
func (r ShipmentRecord) Has(key string) bool {
	v, ok := r.Fields[key]
	return ok && !v.IsEmpty()
}

// Text returns the trimmed text form of key, or "" when absent.
func (r ShipmentRecord) Text(key string) string {
	v, ok := r.Fields[key]
	if !ok {
		return ""
	}
	return strings.TrimSpace(v.String())
}

// Number returns the numeric value of key. ok is false when absent or unparseable.
func (r ShipmentRecord) Number(key string) (float64, bool) {
	v, ok := r.Fields[key]
	if !ok || v.IsEmpty() {
		return 0, false
	}
	return v.AsNumber()
}

// Flag returns true only when key holds a value that parses as boolean true.
func (r ShipmentRecord) Flag(key string) bool {
	v, ok := r.Fields[key]
	if !ok {
		return false
	}
	b, ok := v.AsBool()
	return ok && b
}

// Clone returns a deep copy of the record.
func (r ShipmentRecord) Clone() ShipmentRecord {
	out := ShipmentRecord{ID: r.ID, Fields: make(map[string]Value, len(r.Fields))}
	for k, v := range r.Fields {
		out.Fields[k] = v
	}
	return out
}

// With returns a copy of the record with key set to v.
func (r ShipmentRecord) With(key string, v Value) ShipmentRecord {
	out := r.Clone()
	out.Fields[key] = v
	return out
}

// Merge returns a copy of the record with every entry of fields applied.
// An empty text value removes the key.
func (r ShipmentRecord) Merge(fields map[string]Value) ShipmentRecord {
	out := r.Clone()
	for k, v := range fields {
		if v.IsEmpty() {
			delete(out.Fields, k)
			continue
		}
		out.Fields[k] = v
	}
	return out
}

// RawRow is one tokenized input line, index-aligned with the header row.
type RawRow struct {
	Line  int      `json:"line"` // 1-indexed line number where the row starts
	Cells []string `json:"cells"`
}
