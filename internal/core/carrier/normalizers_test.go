package carrier

import "testing"

func TestNormalizeState(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Illinois", "IL"},
		{"  new york ", "NY"},
		{"District of Columbia", "DC"},
		{"Ontario", "ON"},
		{"New South Wales", "NSW"},
		{"ca", "CA"},
		{"Bavaria", "BAVARIA"},
	}
	for _, tt := range tests {
		if got := NormalizeState(tt.input); got != tt.want {
			t.Errorf("NormalizeState(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeCountry(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"United States", "US"},
		{"usa", "US"},
		{"Germany", "DE"},
		{" de ", "DE"},
		{"Atlantis", "ATLANTIS"},
	}
	for _, tt := range tests {
		if got := NormalizeCountry(tt.input); got != tt.want {
			t.Errorf("NormalizeCountry(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"(217) 555-0100", "2175550100"},
		{"+49 30 1234567", "+49301234567"},
		{"030/123+456", "030123456"},
		{"n/a", "n/a"},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.input); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeUnits(t *testing.T) {
	tests := []struct {
		fn    func(string) string
		input string
		want  string
	}{
		{NormalizeWeightUnit, "lbs", "LB"},
		{NormalizeWeightUnit, "Kilograms", "KG"},
		{NormalizeWeightUnit, "oz", "OZ"},
		{NormalizeDimensionUnit, "inches", "IN"},
		{NormalizeDimensionUnit, "centimetres", "CM"},
		{NormalizeDimensionUnit, "mm", "MM"},
	}
	for _, tt := range tests {
		if got := tt.fn(tt.input); got != tt.want {
			t.Errorf("normalize(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
