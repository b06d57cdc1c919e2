package core

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CellKind identifies which variant a Cell holds.
type CellKind uint8

const (
	KindMissing CellKind = iota
	KindText
	KindNumber
	KindBool
)

func (k CellKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "missing"
	}
}

// Cell is a single table value: Missing, Text, Number or Boolean.
// The zero value is Missing.
type Cell struct {
	kind CellKind
	text string
	num  decimal.Decimal
	b    bool
}

// MissingCell returns the absent-value sentinel. It is distinct from TextCell("").
func MissingCell() Cell { return Cell{} }

// TextCell wraps a string.
func TextCell(s string) Cell { return Cell{kind: KindText, text: s} }

// NumberCell wraps an exact decimal.
func NumberCell(d decimal.Decimal) Cell { return Cell{kind: KindNumber, num: d} }

// BoolCell wraps a boolean.
func BoolCell(b bool) Cell { return Cell{kind: KindBool, b: b} }

// Kind returns the variant tag.
func (c Cell) Kind() CellKind { return c.kind }

// IsMissing reports whether the cell holds no value.
func (c Cell) IsMissing() bool { return c.kind == KindMissing }

// Number returns the decimal value and true for Number cells.
func (c Cell) Number() (decimal.Decimal, bool) {
	if c.kind != KindNumber {
		return decimal.Zero, false
	}
	return c.num, true
}

// Text returns the string value and true for Text cells.
func (c Cell) Text() (string, bool) {
	if c.kind != KindText {
		return "", false
	}
	return c.text, true
}

// Bool returns the boolean value and true for Boolean cells.
func (c Cell) Bool() (bool, bool) {
	if c.kind != KindBool {
		return false, false
	}
	return c.b, true
}

// String renders the cell in its canonical CSV form. Missing renders as "".
func (c Cell) String() string {
	switch c.kind {
	case KindText:
		return c.text
	case KindNumber:
		return c.num.String()
	case KindBool:
		if c.b {
			return "True"
		}
		return "False"
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same variant and value.
// Numbers compare by value, so 1.50 equals 1.5.
func (c Cell) Equal(o Cell) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case KindText:
		return c.text == o.text
	case KindNumber:
		return c.num.Equal(o.num)
	case KindBool:
		return c.b == o.b
	default:
		return true
	}
}

// key is a map key that is equal for Equal cells.
func (c Cell) key() string {
	return string(rune('0'+c.kind)) + c.String()
}

// compareCells orders cells naturally: Numbers by value, then Booleans
// (false before true), then Text lexically. Missing sorts last.
func compareCells(a, b Cell) int {
	if a.kind != b.kind {
		return kindRank(a.kind) - kindRank(b.kind)
	}
	switch a.kind {
	case KindNumber:
		return a.num.Cmp(b.num)
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		default:
			return 1
		}
	case KindText:
		return strings.Compare(a.text, b.text)
	default:
		return 0
	}
}

func kindRank(k CellKind) int {
	switch k {
	case KindNumber:
		return 0
	case KindBool:
		return 1
	case KindText:
		return 2
	default:
		return 3
	}
}

// missingTokens are field values read as Missing.
var missingTokens = map[string]struct{}{
	"":         {},
	"NA":       {},
	"N/A":      {},
	"n/a":      {},
	"NaN":      {},
	"nan":      {},
	"-NaN":     {},
	"-nan":     {},
	"NULL":     {},
	"null":     {},
	"None":     {},
	"<NA>":     {},
	"#N/A":     {},
	"#NA":      {},
	"#N/A N/A": {},
}

var (
	integerRegex = regexp.MustCompile(`^[+-]?\d+$`)

	// numericRegex matches integers, decimals, and scientific notation.
	numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// maxExponent bounds scientific notation so "1e999999" stays text instead of
// expanding to a million digits.
const maxExponent = 308

// InferCell types a raw CSV field. The order is fixed: missing token, then
// integer, then float, then text. Text keeps the field exactly as read.
func InferCell(raw string) Cell {
	s := strings.TrimSpace(raw)
	if _, ok := missingTokens[s]; ok {
		return MissingCell()
	}
	if integerRegex.MatchString(s) {
		if d, err := decimal.NewFromString(s); err == nil {
			return NumberCell(d)
		}
	}
	if d, ok := parseFloatText(s); ok {
		return NumberCell(d)
	}
	return TextCell(raw)
}

// parseFloatText parses a plain decimal or scientific literal.
func parseFloatText(s string) (decimal.Decimal, bool) {
	if !numericRegex.MatchString(s) {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxExponent || exp < -maxExponent {
		return decimal.Zero, false
	}
	return d, true
}
