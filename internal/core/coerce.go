package core

// coerce.go converts cells to a requested type.
//
// Numeric parsing is permissive about the way spreadsheets export numbers:
//   - Currency symbols ($, €, £) and thousands separators are dropped
//   - Accounting format "(123.45)" is negative
//   - Scientific notation is accepted
//
// What happens to values that still cannot be parsed depends on the
// ErrorPolicy: PolicyCoerce turns them into Missing, PolicyRaise fails.

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TargetType is a typecast destination.
type TargetType string

const (
	TypeInt   TargetType = "int"
	TypeFloat TargetType = "float"
	TypeStr   TargetType = "str"
	TypeBool  TargetType = "bool"
)

var targetTypes = []TargetType{TypeInt, TypeFloat, TypeStr, TypeBool}

// ParseTargetType validates a typecast destination name.
func ParseTargetType(s string) (TargetType, error) {
	for _, t := range targetTypes {
		if string(t) == s {
			return t, nil
		}
	}
	names := make([]string, len(targetTypes))
	for i, t := range targetTypes {
		names[i] = string(t)
	}
	return "", NewErrorDetails(ErrInvalidType,
		fmt.Sprintf("Unsupported type: %s", s),
		"Supported types: "+strings.Join(names, ", "))
}

// ErrorPolicy decides what happens to values that cannot be converted.
type ErrorPolicy int

const (
	// PolicyCoerce turns unconvertible values into Missing.
	PolicyCoerce ErrorPolicy = iota
	// PolicyRaise fails the whole conversion with TYPECAST_ERROR.
	PolicyRaise
)

// trueTokens are the (lowercased) texts that coerce to true. Every other
// non-missing value coerces to false.
var trueTokens = map[string]bool{"true": true, "1": true, "yes": true, "y": true}

// Coerce converts the cells of column to target. Missing cells stay missing.
// The input slice is not modified.
func Coerce(column string, cells []Cell, target TargetType, policy ErrorPolicy) (out []Cell, err error) {
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = NewErrorDetails(ErrTypecast,
				fmt.Sprintf("Failed to typecast column '%s'", column),
				recoverAs(r).Error())
		}
	}()

	if _, err := ParseTargetType(string(target)); err != nil {
		return nil, err
	}

	out = make([]Cell, len(cells))
	for i, c := range cells {
		if c.IsMissing() {
			continue
		}

		switch target {
		case TypeStr:
			out[i] = TextCell(c.String())

		case TypeBool:
			out[i] = BoolCell(trueTokens[strings.ToLower(c.String())])

		case TypeInt, TypeFloat:
			d, ok := toNumber(c)
			if ok && target == TypeInt && !d.IsInteger() {
				ok = false
			}
			if !ok {
				if policy == PolicyRaise {
					return nil, NewErrorDetails(ErrTypecast,
						fmt.Sprintf("Failed to typecast column '%s'", column),
						fmt.Sprintf("Unable to convert %q at position %d to %s", c.String(), i, target))
				}
				continue
			}
			out[i] = NumberCell(d)
		}
	}
	return out, nil
}

// toNumber converts a cell to a decimal. Booleans are 1 and 0.
func toNumber(c Cell) (decimal.Decimal, bool) {
	switch c.kind {
	case KindNumber:
		return c.num, true
	case KindBool:
		if c.b {
			return decimal.NewFromInt(1), true
		}
		return decimal.Zero, true
	case KindText:
		return parseNumeric(c.text)
	default:
		return decimal.Zero, false
	}
}

// parseNumeric parses spreadsheet-style numeric text.
func parseNumeric(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, false
	}

	// Detect negative accounting format "(123.45)"
	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "\u20ac", "") // Euro
	s = strings.ReplaceAll(s, "\u00a3", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if isNegative {
		s = "-" + s
	}

	return parseFloatText(s)
}
