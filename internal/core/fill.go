package core

// fill.go implements the methods that replace Missing cells: a constant
// (fillna), propagation (ffill/bfill), and column statistics
// (fillna_mean, fillna_median, fillna_mode).

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// fillNA replaces Missing cells with a scalar. The scalar is typed the same
// way a CSV field would be.
func fillNA(t *Table, req CleanRequest) (*Table, error) {
	switch req.Value.Kind {
	case ValueNone:
		return nil, NewError(ErrMissingValue, "Value must be provided for 'fillna' method")
	case ValueScalar:
	default:
		return nil, NewErrorDetails(ErrInvalidValue,
			"Invalid fill value for the data type",
			"Fill value must be a string, number or boolean")
	}

	fill := InferCell(req.Value.Scalar)
	if fill.IsMissing() {
		// A missing-token fill value is written back verbatim.
		fill = TextCell(req.Value.Scalar)
	}

	out := t.Clone()
	for _, name := range out.targetColumns(req.Column) {
		col := out.Column(name)
		for i := range col {
			if col[i].IsMissing() {
				col[i] = fill
			}
		}
	}
	return out, nil
}

func forwardFill(t *Table, req CleanRequest) (*Table, error) {
	return propagateFill(t, req, false)
}

func backwardFill(t *Table, req CleanRequest) (*Table, error) {
	return propagateFill(t, req, true)
}

func propagateFill(t *Table, req CleanRequest, backward bool) (*Table, error) {
	limit, err := parseLimit(req.Limit)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	for _, name := range out.targetColumns(req.Column) {
		out.setColumn(name, propagate(out.Column(name), limit, backward))
	}
	return out, nil
}

// parseLimit reads the ffill/bfill limit. Empty, zero, negative and
// out-of-range values mean no limit.
func parseLimit(raw string) (int, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if errors.Is(err, strconv.ErrRange) {
		// Out of range either way: no gap is that long.
		return 0, nil
	}
	if err != nil {
		return 0, NewErrorDetails(ErrInvalidValue,
			"Invalid limit value",
			fmt.Sprintf("Limit must be an integer, got %q", raw))
	}
	if n < 0 {
		return 0, nil
	}
	return n, nil
}

// propagate copies the nearest preceding (or, backward, following) present
// value into Missing cells. With limit > 0 at most limit consecutive cells
// of one gap are filled.
func propagate(cells []Cell, limit int, backward bool) []Cell {
	n := len(cells)
	out := make([]Cell, n)
	copy(out, cells)

	var last Cell
	have := false
	run := 0
	for k := 0; k < n; k++ {
		i := k
		if backward {
			i = n - 1 - k
		}
		if !cells[i].IsMissing() {
			last, have, run = cells[i], true, 0
			continue
		}
		if !have || (limit > 0 && run >= limit) {
			continue
		}
		out[i] = last
		run++
	}
	return out
}

// statFunc computes a fill value from the present cells of a column.
// It returns false when there is nothing to compute.
type statFunc func(nums []decimal.Decimal) (decimal.Decimal, bool)

func fillNAMean(t *Table, req CleanRequest) (*Table, error) {
	return fillNumericStat(t, req, "mean", mean)
}

func fillNAMedian(t *Table, req CleanRequest) (*Table, error) {
	return fillNumericStat(t, req, "median", median)
}

// fillNumericStat fills each target column with a statistic of its own
// values. Every target column must be numeric; an all-missing column is left
// as it is.
func fillNumericStat(t *Table, req CleanRequest, stat string, fn statFunc) (*Table, error) {
	names := t.targetColumns(req.Column)
	for _, name := range names {
		if isNumericColumn(t.Column(name)) {
			continue
		}
		if req.Column != "" {
			return nil, NewErrorDetails(ErrInvalidOperation,
				fmt.Sprintf("Cannot calculate '%s' for non-numeric column '%s'", stat, name),
				"Column data type: object")
		}
		return nil, NewErrorDetails(ErrInvalidOperation,
			fmt.Sprintf("Cannot calculate '%s' for non-numeric dataset", stat),
			"The dataset contains non-numeric columns")
	}

	out := t.Clone()
	for _, name := range names {
		col := out.Column(name)
		v, ok := fn(numbers(col))
		if !ok {
			continue
		}
		fill := NumberCell(v)
		for i := range col {
			if col[i].IsMissing() {
				col[i] = fill
			}
		}
	}
	return out, nil
}

// fillNAMode fills each target column with its most frequent value.
func fillNAMode(t *Table, req CleanRequest) (*Table, error) {
	out := t.Clone()

	if req.Column != "" {
		col := out.Column(req.Column)
		m, ok := mode(col)
		if !ok {
			return nil, NewErrorDetails(ErrEmptyColumn,
				fmt.Sprintf("Cannot calculate mode for column '%s' because it contains only NaN values", req.Column),
				"The column has no valid values to compute a mode")
		}
		fillMissing(col, m)
		return out, nil
	}

	filled := false
	for _, name := range out.Columns() {
		col := out.Column(name)
		m, ok := mode(col)
		if !ok {
			continue
		}
		fillMissing(col, m)
		filled = true
	}
	if !filled {
		return nil, NewErrorDetails(ErrEmptyDataset,
			"Cannot calculate mode for the dataset because all columns contain only NaN values",
			"The dataset has no valid values to compute mode values")
	}
	return out, nil
}

func fillMissing(col []Cell, v Cell) {
	for i := range col {
		if col[i].IsMissing() {
			col[i] = v
		}
	}
}

// isNumericColumn reports whether every present cell is a Number.
// An all-missing column counts as numeric.
func isNumericColumn(col []Cell) bool {
	for _, c := range col {
		if !c.IsMissing() && c.Kind() != KindNumber {
			return false
		}
	}
	return true
}

func numbers(col []Cell) []decimal.Decimal {
	nums := make([]decimal.Decimal, 0, len(col))
	for _, c := range col {
		if d, ok := c.Number(); ok {
			nums = append(nums, d)
		}
	}
	return nums
}

func mean(nums []decimal.Decimal) (decimal.Decimal, bool) {
	if len(nums) == 0 {
		return decimal.Zero, false
	}
	return decimal.Sum(nums[0], nums[1:]...).Div(decimal.NewFromInt(int64(len(nums)))), true
}

func median(nums []decimal.Decimal) (decimal.Decimal, bool) {
	if len(nums) == 0 {
		return decimal.Zero, false
	}
	sorted := slices.Clone(nums)
	slices.SortFunc(sorted, func(a, b decimal.Decimal) int { return a.Cmp(b) })

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return sorted[mid-1].Add(sorted[mid]).Div(decimal.NewFromInt(2)), true
}

// mode returns the most frequent present value. Ties go to the smallest
// value in natural order.
func mode(col []Cell) (Cell, bool) {
	v, n := mostFrequent(col)
	return v, n > 0
}

// mostFrequent returns the mode of the present cells and its count, or a
// zero count when every cell is missing.
func mostFrequent(col []Cell) (Cell, int) {
	counts := make(map[string]int)
	values := make(map[string]Cell)
	for _, c := range col {
		if c.IsMissing() {
			continue
		}
		k := c.key()
		counts[k]++
		values[k] = c
	}

	var best Cell
	bestCount := 0
	for k, n := range counts {
		v := values[k]
		if n > bestCount || (n == bestCount && compareCells(v, best) < 0) {
			best, bestCount = v, n
		}
	}
	return best, bestCount
}
