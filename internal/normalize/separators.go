// Package normalize converts locale-ambiguous numeric text from the source
// site into canonical numeric values. All functions are pure; a value that
// cannot be parsed yields ok=false rather than an error.
package normalize

import (
	"strings"
)

// The source renders numbers in Brazilian format (1.234.567,89) but some
// fields arrive in international format (1234567.89). Whether '.' and ','
// group or mark the decimal can only be decided per token; the heuristics
// below are shared by every numeric normalizer.

// decimalGroupLen is the longest trailing digit group that still reads as a
// decimal fraction. Three or more digits after the last separator means the
// separator groups thousands.
const decimalGroupLen = 2

// canonicalNumber rewrites a digit/separator token into strconv-parsable
// form ("1234.56") using the general disambiguation: comma+dot means
// Brazilian formatting, a lone separator is a decimal mark only when at most
// two digits follow it.
func canonicalNumber(text string) string {
	hasComma := strings.Contains(text, ",")
	hasDot := strings.Contains(text, ".")

	switch {
	case hasComma && hasDot:
		// Brazilian: dots group, comma is the decimal mark.
		text = strings.ReplaceAll(text, ".", "")
		text = strings.ReplaceAll(text, ",", ".")
	case hasComma:
		parts := strings.Split(text, ",")
		if len(parts[len(parts)-1]) <= decimalGroupLen {
			text = strings.ReplaceAll(text, ",", ".")
		} else {
			text = strings.ReplaceAll(text, ",", "")
		}
	case hasDot:
		parts := strings.Split(text, ".")
		if len(parts[len(parts)-1]) > decimalGroupLen {
			text = strings.ReplaceAll(text, ".", "")
		}
	}
	return text
}

// canonicalCurrency applies the stricter currency rule: a comma with at most
// two trailing digits is the decimal mark and every dot groups thousands;
// any other dot or comma is grouping and is stripped. Plain currency fields
// on the source never use a dot as a decimal point.
func canonicalCurrency(text string) string {
	if strings.Contains(text, ",") {
		parts := strings.Split(text, ",")
		if len(parts[len(parts)-1]) <= decimalGroupLen {
			text = strings.ReplaceAll(text, ".", "")
			text = strings.ReplaceAll(text, ",", ".")
		} else {
			text = strings.ReplaceAll(text, ",", "")
			text = strings.ReplaceAll(text, ".", "")
		}
	} else {
		text = strings.ReplaceAll(text, ".", "")
	}
	return text
}
