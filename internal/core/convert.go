package core

// convert.go provides conversion helpers for user-provided cell data.
//
// These functions handle the messy reality of spreadsheet exports:
//   - Currency symbols and thousand separators in numbers
//   - Decimal commas from European locales ("1,5")
//   - Various boolean representations (yes/no, true/false, x, 1/0)
//   - Excel formula prefixes (="value")
//   - Common CSV artifacts (BOM, weird quotes)

import (
	"regexp"
	"strconv"
	"strings"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// thousandsRegex matches numbers grouped with comma thousand separators.
var thousandsRegex = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)

// decimalCommaRegex matches a number that uses a comma as the decimal separator.
var decimalCommaRegex = regexp.MustCompile(`^[+-]?\d+,\d+$`)

// ParseNumber converts a cell to a float64.
// Handles currency symbols, thousands separators, decimal commas and
// accounting format (parentheses for negative).
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.TrimSpace(s)

	switch {
	case thousandsRegex.MatchString(s):
		s = strings.ReplaceAll(s, ",", "")
	case decimalCommaRegex.MatchString(s):
		s = strings.Replace(s, ",", ".", 1)
	}

	if isNegative {
		s = "-" + s
	}

	if !numericRegex.MatchString(s) {
		return 0, false
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// FormatNumber renders a number in its shortest exact decimal form ("2.5", "70", "0.1").
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// ParseBool converts a cell to a bool.
// Accepts various representations: true/false, yes/no, t/f, y/n, x, 1/0.
func ParseBool(s string) (bool, bool) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return false, false
	}

	switch s {
	case "true", "t", "yes", "y", "1", "x", "on":
		return true, true
	case "false", "f", "no", "n", "0", "off":
		return false, true
	default:
		return false, false
	}
}

// CleanCell removes common CSV artifacts from a cell value:
// - Trims whitespace
// - Removes Excel formula prefix (="...")
// - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	s = strings.Trim(s, `"'`)

	return strings.TrimSpace(s)
}
