// Package normalize canonicalizes raw record fields before matching.
//
// Upstream data arrives from OCR extraction and spreadsheet imports and is
// inherently noisy, so every function here is lenient: unparsable
// input yields the zero value for the type instead of an error. A zeroed
// field downstream reads as a legitimate "not found" signal, which is cheaper
// than surfacing every malformed cell.
package normalize

import (
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// TaxID strips everything but digits from a raw tax identifier (CPF/CNPJ
// style input with dots, dashes and slashes).
func TaxID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// ContractID trims surrounding whitespace and upper-cases the identifier.
func ContractID(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Name canonicalizes a person or company name for heuristic comparison:
// accents removed, upper-cased, interior whitespace collapsed.
func Name(raw string) string {
	stripped, _, err := transform.String(accentStripper, raw)
	if err != nil {
		stripped = raw
	}
	return strings.ToUpper(strings.Join(strings.Fields(stripped), " "))
}

// Money parses a currency representation into a cent-rounded decimal.
// It accepts plain numbers, "R$ 1.234,56", "1,234.56" and "1234.56";
// anything unparsable yields zero.
func Money(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}

	// Strip currency symbols and keep only digits, separators and sign.
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r == '.', r == ',', r == '-':
			b.WriteRune(r)
		}
	}
	s = b.String()
	if s == "" || s == "-" {
		return decimal.Zero
	}

	s = resolveSeparators(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d.Round(2)
}

// resolveSeparators decides which of '.' and ',' is the decimal separator.
// The rightmost separator wins; the other is treated as a thousands mark.
func resolveSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")

	switch {
	case lastComma > lastDot:
		// Comma-decimal (Brazilian): drop dots, turn comma into dot.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	case lastDot > lastComma:
		s = strings.ReplaceAll(s, ",", "")
	}
	return s
}

// dateFormats lists accepted date layouts, Brazilian day-first order included.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"02/01/2006 15:04:05",
	"02-01-2006",
	"2006/01/02",
}

// Date parses a date in any accepted layout, returning the zero time when
// nothing fits.
func Date(raw string) time.Time {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
