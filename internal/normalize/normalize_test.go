package normalize

import (
	"fmt"
	"strconv"
	"strings"
	"testing"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"plain price", "R$ 25,50", 25.50, true},
		{"negative with leading sign", "- R$ 0,18", -0.18, true},
		{"negative with sign after marker", "R$ -0,18", -0.18, true},
		{"grouped thousands", "R$ 1.234,56", 1234.56, true},
		{"dot only groups", "R$ 1.234", 1234, true},
		{"no marker", "25,50", 25.50, true},
		{"placeholder dash", "-", 0, false},
		{"placeholder na", "N/A", 0, false},
		{"empty", "", 0, false},
		{"no digits", "R$ --", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Currency(tt.input)
			if ok != tt.ok {
				t.Fatalf("Currency(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Currency(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCurrencySignPositionIndependence(t *testing.T) {
	a, okA := Currency("- R$ 0,18")
	b, okB := Currency("R$ -0,18")
	if !okA || !okB {
		t.Fatal("both sign positions should parse")
	}
	if a != b || a != -0.18 {
		t.Errorf("sign position changed the value: %v vs %v", a, b)
	}
}

func TestCurrencyWithScale(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"millions", "R$ 1,5 M", 1_500_000.00, true},
		{"negative billions", "- R$ 7,15 B", -7_150_000_000.00, true},
		{"lowercase mil is thousands", "R$ 250,30 mil", 250_300.00, true},
		{"uppercase K", "R$ 12 K", 12_000.00, true},
		{"no suffix", "R$ 1.234,56", 1234.56, true},
		{"grouped with suffix", "R$ 1.234,5 M", 1_234_500_000.00, true},
		{"placeholder", "-", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CurrencyWithScale(tt.input)
			if ok != tt.ok {
				t.Fatalf("CurrencyWithScale(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("CurrencyWithScale(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"inflated both separators", "-18.000,00%", -18.00, true},
		{"inflated positive", "12.500,00%", 12.50, true},
		{"comma decimal", "8,52%", 8.52, true},
		{"dot decimal", "9.80%", 9.80, true},
		{"dot grouping large magnitude", "18.000%", 18.00, true},
		{"dot grouping small stays", "1.5%", 1.5, true},
		{"bare number", "42", 42, true},
		{"negative comma", "-3,25%", -3.25, true},
		{"placeholder", "N/A", 0, false},
		{"dash", "-", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Percentage(tt.input)
			if ok != tt.ok {
				t.Fatalf("Percentage(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Percentage(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// commaDecimalText renders a normalized value the way the source renders
// numbers: two decimals, comma as the decimal mark, no grouping.
func commaDecimalText(v float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}

// Normalization must be idempotent: rendering a normalized value back to
// source-style text and normalizing again yields the same value, across
// signs and scale suffixes.
func TestNormalizeRoundTripIsIdempotent(t *testing.T) {
	t.Run("currency", func(t *testing.T) {
		for _, input := range []string{"R$ 25,50", "- R$ 0,18", "R$ -0,18", "R$ 1.234,56"} {
			first, ok := Currency(input)
			if !ok {
				t.Fatalf("Currency(%q) failed", input)
			}
			again, ok := Currency(commaDecimalText(first))
			if !ok || again != first {
				t.Errorf("Currency round trip for %q: %v -> %v", input, first, again)
			}
		}
	})

	t.Run("currency with scale", func(t *testing.T) {
		for _, input := range []string{"R$ 1,5 M", "- R$ 7,15 B", "R$ 250,30 mil", "R$ 12 K", "R$ 1.234,56"} {
			first, ok := CurrencyWithScale(input)
			if !ok {
				t.Fatalf("CurrencyWithScale(%q) failed", input)
			}
			again, ok := CurrencyWithScale(commaDecimalText(first))
			if !ok || again != first {
				t.Errorf("CurrencyWithScale round trip for %q: %v -> %v", input, first, again)
			}
		}
	})

	t.Run("percentage", func(t *testing.T) {
		for _, input := range []string{"-18.000,00%", "8,52%", "9.80%", "-3,25%"} {
			first, ok := Percentage(input)
			if !ok {
				t.Fatalf("Percentage(%q) failed", input)
			}
			again, ok := Percentage(commaDecimalText(first) + "%")
			if !ok || again != first {
				t.Errorf("Percentage round trip for %q: %v -> %v", input, first, again)
			}
		}
	})

	t.Run("ratio", func(t *testing.T) {
		for _, input := range []string{"8,50", "1.234,56", "-2,75"} {
			first, ok := Ratio(input)
			if !ok {
				t.Fatalf("Ratio(%q) failed", input)
			}
			again, ok := Ratio(commaDecimalText(first))
			if !ok || again != first {
				t.Errorf("Ratio round trip for %q: %v -> %v", input, first, again)
			}
		}
	})

	t.Run("integer", func(t *testing.T) {
		for _, input := range []string{"1.250.000.000", "-7", "42"} {
			first, ok := Integer(input)
			if !ok {
				t.Fatalf("Integer(%q) failed", input)
			}
			again, ok := Integer(strconv.FormatInt(first, 10))
			if !ok || again != first {
				t.Errorf("Integer round trip for %q: %v -> %v", input, first, again)
			}
		}
	})

	t.Run("date", func(t *testing.T) {
		for _, input := range []string{"31/12/2024", "2024-12-31", "31/12/24"} {
			first, ok := Date(input)
			if !ok {
				t.Fatalf("Date(%q) failed", input)
			}
			again, ok := Date(first)
			if !ok || again != first {
				t.Errorf("Date round trip for %q: %q -> %q", input, first, again)
			}
		}
	})
}

func TestRatio(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{"comma decimal", "8,50", 8.50, true},
		{"grouped", "1.234,56", 1234.56, true},
		{"negative", "-2,75", -2.75, true},
		{"dot decimal", "3.14", 3.14, true},
		{"dot groups", "1.234", 1234, true},
		{"placeholder", "-", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Ratio(tt.input)
			if ok != tt.ok {
				t.Fatalf("Ratio(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Ratio(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestInteger(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
		ok    bool
	}{
		{"grouped share count", "1.250.000.000", 1_250_000_000, true},
		{"plain", "42", 42, true},
		{"negative", "-7", -7, true},
		{"comma grouped", "1,250,000", 1_250_000, true},
		{"placeholder", "N/A", 0, false},
		{"no digits", "abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Integer(tt.input)
			if ok != tt.ok {
				t.Fatalf("Integer(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Integer(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		ok    bool
	}{
		{"brazilian layout", "31/12/2024", "31/12/2024", true},
		{"iso layout", "2024-12-31", "31/12/2024", true},
		{"dashed brazilian", "31-12-2024", "31/12/2024", true},
		{"two digit year", "31/12/24", "31/12/2024", true},
		{"unparsable kept", "dezembro de 2024", "dezembro de 2024", true},
		{"placeholder", "-", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Date(tt.input)
			if ok != tt.ok {
				t.Fatalf("Date(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if got != tt.want {
				t.Errorf("Date(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
