package normalize

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	unsignedNumberRe = regexp.MustCompile(`[\d.]+`)
	signedNumberRe   = regexp.MustCompile(`[-+]?[\d.]+`)
	signedIntegerRe  = regexp.MustCompile(`[-+]?\d+`)
	nonIntegerRe     = regexp.MustCompile(`[^\d\-+]`)
)

// scale suffixes for currency figures, checked in order. MIL must be
// checked before M so "250,30 mil" is thousands, not millions.
var scaleSuffixes = []struct {
	token  string
	factor float64
}{
	{"B", 1e9},
	{"MIL", 1e3},
	{"M", 1e6},
	{"K", 1e3},
}

// IsPlaceholder reports whether the source rendered "no value": empty text,
// the literal N/A, or a bare dash.
func IsPlaceholder(text string) bool {
	trimmed := strings.TrimSpace(text)
	return trimmed == "" || trimmed == "N/A" || trimmed == "-"
}

// isNegative detects the sign independent of currency marker position:
// "- R$ 0,18", "-R$ 0,18" and "R$ -0,18" are all negative.
func isNegative(text string) bool {
	return strings.HasPrefix(text, "-") ||
		strings.Contains(text, "R$ -") ||
		strings.Contains(text, "R$-")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// stripCurrency removes the currency marker, the sign and all whitespace,
// leaving only digits and separators (plus any scale token).
func stripCurrency(text string) string {
	r := strings.NewReplacer("R$", "", "R ", "", "-", "", " ", "")
	return strings.TrimSpace(r.Replace(text))
}

// Currency converts a plain currency token to a float rounded to two
// digits: "R$ 25,50" -> 25.50, "- R$ 0,18" -> -0.18.
func Currency(text string) (float64, bool) {
	if IsPlaceholder(text) {
		return 0, false
	}
	trimmed := strings.TrimSpace(text)
	negative := isNegative(trimmed)

	clean := canonicalCurrency(stripCurrency(trimmed))

	match := unsignedNumberRe.FindString(clean)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	value = round2(value)
	if negative {
		value = -value
	}
	return value, true
}

// CurrencyWithScale converts a currency token with an optional scale suffix:
// "R$ 1,5 M" -> 1500000.00, "- R$ 7,15 B" -> -7150000000.00,
// "R$ 250,30 mil" -> 250300.00.
func CurrencyWithScale(text string) (float64, bool) {
	if IsPlaceholder(text) {
		return 0, false
	}
	trimmed := strings.TrimSpace(text)
	negative := isNegative(trimmed)

	clean := strings.ToUpper(stripCurrency(trimmed))

	factor := 1.0
	for _, scale := range scaleSuffixes {
		if strings.Contains(clean, scale.token) {
			factor = scale.factor
			clean = strings.TrimSpace(strings.ReplaceAll(clean, scale.token, ""))
			break
		}
	}

	clean = canonicalNumber(clean)

	match := unsignedNumberRe.FindString(clean)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	value = round2(value * factor)
	if negative {
		value = -value
	}
	return value, true
}

// Percentage converts a percentage token to a float rounded to two digits.
//
// Source-defect policy: this data source renders some percentages inflated
// by a thousands scale ("-18.000,00%" where -18.00% is meant). Any value
// carrying both separators, and any dot-only value whose stripped magnitude
// reaches 1000, is divided by 1000 to undo that rendering. This is a policy
// for this specific source, not a general percentage-parsing rule.
func Percentage(text string) (float64, bool) {
	if IsPlaceholder(text) {
		return 0, false
	}
	clean := strings.TrimSpace(strings.ReplaceAll(text, "%", ""))

	correction := 1.0
	hasComma := strings.Contains(clean, ",")
	hasDot := strings.Contains(clean, ".")

	switch {
	case hasComma && hasDot:
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
		correction = 1000
	case hasComma:
		clean = strings.ReplaceAll(clean, ",", ".")
	case hasDot:
		parts := strings.Split(clean, ".")
		if len(parts[len(parts)-1]) > decimalGroupLen {
			clean = strings.ReplaceAll(clean, ".", "")
			// Only magnitudes that plausibly carry the spurious
			// thousands group get the correction.
			if v, err := strconv.ParseFloat(strings.TrimSpace(clean), 64); err == nil && math.Abs(v) >= 1000 {
				correction = 1000
			}
		}
	}

	match := signedNumberRe.FindString(clean)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return round2(value / correction), true
}

// Ratio converts a multiple/ratio token: "8,50" -> 8.50,
// "1.234,56" -> 1234.56.
func Ratio(text string) (float64, bool) {
	if IsPlaceholder(text) {
		return 0, false
	}
	clean := canonicalNumber(strings.TrimSpace(text))

	match := signedNumberRe.FindString(clean)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return round2(value), true
}

// Integer strips grouping punctuation and returns a whole number:
// "1.250.000.000" -> 1250000000.
func Integer(text string) (int64, bool) {
	if IsPlaceholder(text) {
		return 0, false
	}
	clean := strings.TrimSpace(text)
	clean = strings.ReplaceAll(clean, ".", "")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = nonIntegerRe.ReplaceAllString(clean, "")

	match := signedIntegerRe.FindString(clean)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseInt(match, 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// dateLayouts in priority order; the first successful parse wins.
var dateLayouts = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02/01/06",
}

// Date re-renders a date as DD/MM/YYYY. Unparsable text is returned
// unchanged with ok=true; only placeholders yield ok=false.
func Date(text string) (string, bool) {
	if IsPlaceholder(text) {
		return "", false
	}
	trimmed := strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed.Format("02/01/2006"), true
		}
	}
	return trimmed, true
}
