package core

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

// AggregateMethod selects the per-group statistics.
type AggregateMethod string

const (
	AggregateSum  AggregateMethod = "sum"
	AggregateMean AggregateMethod = "mean"
	AggregateBoth AggregateMethod = "both"
)

// CountsColumn names the group size column of an aggregation result.
const CountsColumn = "Counts"

// AggregateRequest holds the arguments of an aggregation call.
type AggregateRequest struct {
	Method          string
	TargetColumn    string
	SelectedColumns []string
}

type group struct {
	key   Cell
	count int
	sums  []decimal.Decimal
	n     []int
}

// Aggregate groups rows by the target column and reports, per distinct
// value, the row count and the sum and/or mean of each selected column.
// Groups are ordered by count, largest first; ties keep first appearance.
// Rows whose target value is missing are not counted.
func Aggregate(text string, req AggregateRequest) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = ""
			err = Coalesce(recoverAs(r), ErrUnknown, "An unexpected error occurred during data visualization")
		}
	}()

	if strings.TrimSpace(sanitizeText(text)) == "" {
		return "", emptyDataError()
	}

	t, err := Parse(text)
	if err != nil {
		if IsType(err, ErrInvalidCSV) {
			return "", emptyDataError()
		}
		return "", err
	}

	if !t.HasColumn(req.TargetColumn) {
		return "", NewErrorDetails(ErrInvalidColumn,
			fmt.Sprintf("Target column '%s' not found in data", req.TargetColumn),
			t.availableColumns())
	}

	var selected []string
	for _, name := range req.SelectedColumns {
		if slices.Contains(selected, name) {
			continue
		}
		if !t.HasColumn(name) {
			return "", NewErrorDetails(ErrInvalidColumn,
				fmt.Sprintf("Selected column '%s' not found in data", name),
				t.availableColumns())
		}
		if !isNumericColumn(t.Column(name)) {
			return "", NewErrorDetails(ErrInvalidDataType,
				fmt.Sprintf("Column '%s' must be numeric", name),
				"Current type: object")
		}
		selected = append(selected, name)
	}

	method := AggregateMethod(req.Method)
	switch method {
	case AggregateSum, AggregateMean, AggregateBoth:
	default:
		return "", NewErrorDetails(ErrInvalidMethod,
			"Invalid method specified",
			fmt.Sprintf("Supported methods: sum, mean, both. Received: %s", req.Method))
	}

	groups := groupRows(t, req.TargetColumn, selected)
	return Serialize(aggregateTable(req.TargetColumn, selected, method, groups))
}

func emptyDataError() error {
	return NewErrorDetails(ErrEmptyData, "The input CSV data is empty", "Please provide non-empty CSV data")
}

// groupRows collects per-group counts and sums, ordered by count descending.
func groupRows(t *Table, target string, selected []string) []*group {
	keys := t.Column(target)
	cols := make([][]Cell, len(selected))
	for i, name := range selected {
		cols[i] = t.Column(name)
	}

	var groups []*group
	byKey := make(map[string]*group)
	for r, k := range keys {
		if k.IsMissing() {
			continue
		}
		g, ok := byKey[k.key()]
		if !ok {
			g = &group{
				key:  k,
				sums: make([]decimal.Decimal, len(selected)),
				n:    make([]int, len(selected)),
			}
			byKey[k.key()] = g
			groups = append(groups, g)
		}
		g.count++
		for i, col := range cols {
			if d, ok := col[r].Number(); ok {
				g.sums[i] = g.sums[i].Add(d)
				g.n[i]++
			}
		}
	}

	slices.SortStableFunc(groups, func(a, b *group) int { return b.count - a.count })
	return groups
}

func aggregateTable(target string, selected []string, method AggregateMethod, groups []*group) *Table {
	names := []string{target, CountsColumn}
	cols := [][]Cell{make([]Cell, len(groups)), make([]Cell, len(groups))}
	for r, g := range groups {
		cols[0][r] = g.key
		cols[1][r] = NumberCell(decimal.NewFromInt(int64(g.count)))
	}

	if method == AggregateSum || method == AggregateBoth {
		for i, name := range selected {
			col := make([]Cell, len(groups))
			for r, g := range groups {
				col[r] = NumberCell(g.sums[i])
			}
			names = append(names, name+"_Total")
			cols = append(cols, col)
		}
	}

	if method == AggregateMean || method == AggregateBoth {
		for i, name := range selected {
			col := make([]Cell, len(groups))
			for r, g := range groups {
				if g.n[i] > 0 {
					col[r] = NumberCell(g.sums[i].Div(decimal.NewFromInt(int64(g.n[i]))))
				}
			}
			names = append(names, name+"_Mean")
			cols = append(cols, col)
		}
	}

	return NewTable(names, cols)
}
