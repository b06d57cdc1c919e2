package core

import (
	"strings"
)

// Replacement match modes.
const (
	MatchExact    = "exact"
	MatchContains = "contains"
)

// replaceValues swaps occurrences of an old value for a new one.
//
// In exact mode a cell matches when it equals the old value (numbers by
// value). In contains mode a Text cell matches when the old value's text
// occurs in it, and the whole cell is replaced.
func replaceValues(t *Table, req CleanRequest) (*Table, error) {
	v := req.Value
	if v.Kind != ValuePair || v.Old == nil || v.New == nil {
		return nil, NewErrorDetails(ErrInvalidValue,
			"Invalid replacement values",
			"Both 'oldVal' and 'newVal' values must be provided for replace method")
	}

	if req.TargetType != MatchExact && req.TargetType != MatchContains {
		return nil, NewErrorDetails(ErrInvalidType,
			"Invalid target_type for replace method",
			"target_type must be either 'exact' or 'contains'")
	}

	oldText := strings.TrimSpace(*v.Old)
	newText := strings.TrimSpace(*v.New)
	if oldText == "" || newText == "" {
		return nil, NewError(ErrReplace,
			"Please provide both the 'old value' and 'new value' for the replacement operation")
	}

	oldCell := literalCell(oldText)
	newCell := literalCell(newText)
	match := func(c Cell) bool { return c.Equal(oldCell) }
	if req.TargetType == MatchContains {
		needle := oldCell.String()
		match = func(c Cell) bool {
			s, ok := c.Text()
			return ok && strings.Contains(s, needle)
		}
	}

	out := t.Clone()
	for _, name := range out.targetColumns(req.Column) {
		col := out.Column(name)
		for i := range col {
			if match(col[i]) {
				col[i] = newCell
			}
		}
	}
	return out, nil
}

// literalCell types a replacement operand: integer, then float, then text.
// Unlike InferCell, missing tokens stay text.
func literalCell(s string) Cell {
	if d, ok := parseFloatText(s); ok {
		return NumberCell(d)
	}
	return TextCell(s)
}
