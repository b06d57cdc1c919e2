package core

// describe.go builds a per-column profile of a table: counts, distinct
// values, and summary statistics for numeric columns.

import (
	"math"
	"slices"

	"github.com/shopspring/decimal"
)

// notApplicable marks a statistic that does not apply to a column.
const notApplicable = "NA/0"

// profileRows are the statistics reported by Describe, in output order.
var profileRows = []string{
	"count", "unique", "top", "freq",
	"mean", "std", "min", "25%", "50%", "75%", "max",
	"number values", "text values", "bool values", "null value count",
}

var quartiles = map[string]decimal.Decimal{
	"25%": decimal.RequireFromString("0.25"),
	"50%": decimal.RequireFromString("0.5"),
	"75%": decimal.RequireFromString("0.75"),
}

// Describe parses text and returns a CSV profile with one row per statistic
// and one column per input column. The first column holds the statistic
// names under an empty header.
func Describe(text string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = ""
			err = Coalesce(recoverAs(r), ErrUnknown, "An unexpected error occurred")
		}
	}()

	t, err := Parse(text)
	if err != nil {
		return "", err
	}

	columns := t.Columns()
	names := append([]string{""}, columns...)
	cols := make([][]Cell, len(names))

	labels := make([]Cell, len(profileRows))
	for i, row := range profileRows {
		labels[i] = TextCell(row)
	}
	cols[0] = labels

	for i, name := range columns {
		cols[i+1] = profileColumn(t.Column(name))
	}

	return Serialize(NewTable(names, cols))
}

func profileColumn(col []Cell) []Cell {
	stats := make(map[string]Cell, len(profileRows))

	var byKind [4]int
	for _, c := range col {
		byKind[c.Kind()]++
	}
	stats["count"] = intCell(len(col) - byKind[KindMissing])
	stats["number values"] = intCell(byKind[KindNumber])
	stats["text values"] = intCell(byKind[KindText])
	stats["bool values"] = intCell(byKind[KindBool])
	stats["null value count"] = intCell(byKind[KindMissing])

	if isNumericColumn(col) {
		numericStats(numbers(col), stats)
	} else {
		categoricalStats(col, stats)
	}

	out := make([]Cell, len(profileRows))
	for i, row := range profileRows {
		if c, ok := stats[row]; ok {
			out[i] = c
		} else {
			out[i] = TextCell(notApplicable)
		}
	}
	return out
}

func categoricalStats(col []Cell, stats map[string]Cell) {
	distinct := make(map[string]struct{})
	for _, c := range col {
		if !c.IsMissing() {
			distinct[c.key()] = struct{}{}
		}
	}
	stats["unique"] = intCell(len(distinct))

	if top, n := mostFrequent(col); n > 0 {
		stats["top"] = top
		stats["freq"] = intCell(n)
	}
}

func numericStats(nums []decimal.Decimal, stats map[string]Cell) {
	if len(nums) == 0 {
		return
	}

	sorted := slices.Clone(nums)
	slices.SortFunc(sorted, func(a, b decimal.Decimal) int { return a.Cmp(b) })

	m, _ := mean(sorted)
	stats["mean"] = NumberCell(m)
	stats["min"] = NumberCell(sorted[0])
	stats["max"] = NumberCell(sorted[len(sorted)-1])
	for row, q := range quartiles {
		stats[row] = NumberCell(percentile(sorted, q))
	}
	if sd, ok := sampleStdDev(sorted, m); ok {
		stats["std"] = NumberCell(sd)
	}
}

// percentile interpolates linearly between the closest ranks of sorted.
func percentile(sorted []decimal.Decimal, q decimal.Decimal) decimal.Decimal {
	pos := decimal.NewFromInt(int64(len(sorted) - 1)).Mul(q)
	lo := pos.Floor()
	i := int(lo.IntPart())
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos.Sub(lo)
	return sorted[i].Add(sorted[i+1].Sub(sorted[i]).Mul(frac))
}

// sampleStdDev returns the n-1 standard deviation. It needs two values.
func sampleStdDev(nums []decimal.Decimal, m decimal.Decimal) (decimal.Decimal, bool) {
	if len(nums) < 2 {
		return decimal.Zero, false
	}
	sq := decimal.Zero
	for _, d := range nums {
		diff := d.Sub(m)
		sq = sq.Add(diff.Mul(diff))
	}
	variance := sq.Div(decimal.NewFromInt(int64(len(nums) - 1)))
	return decimal.NewFromFloat(math.Sqrt(variance.InexactFloat64())), true
}

func intCell(n int) Cell {
	return NumberCell(decimal.NewFromInt(int64(n)))
}
