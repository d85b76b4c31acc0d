// Package common provides shared utilities across the application.
package common

import (
	"strings"
)

// MinSymbolLength is the minimum length of a valid trading code.
// Shorter strings harvested from the selector page are almost always
// navigation links or column junk, never real codes.
const MinSymbolLength = 4

// NormalizeSymbol trims and uppercases a raw trading code.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ValidSymbol reports whether a normalized trading code is usable as
// pipeline input.
func ValidSymbol(symbol string) bool {
	return len(symbol) >= MinSymbolLength
}

// DedupeSymbols normalizes, filters and deduplicates a symbol list,
// preserving first-occurrence order.
func DedupeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		normalized := NormalizeSymbol(s)
		if !ValidSymbol(normalized) {
			continue
		}
		if seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}
