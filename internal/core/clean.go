package core

import (
	"fmt"
)

// Method names a cleaning operation.
type Method string

const (
	MethodDropNA       Method = "dropna"
	MethodTypecast     Method = "typecast"
	MethodFillNA       Method = "fillna"
	MethodFFill        Method = "ffill"
	MethodBFill        Method = "bfill"
	MethodFillNAMean   Method = "fillna_mean"
	MethodFillNAMedian Method = "fillna_median"
	MethodFillNAMode   Method = "fillna_mode"
	MethodReplace      Method = "replace"
)

// DefaultMethod is applied when a request names no method.
const DefaultMethod = MethodDropNA

// ValueKind tells which shape a request value arrived in.
type ValueKind int

const (
	ValueNone    ValueKind = iota // absent or null
	ValueScalar                   // string, number or boolean
	ValuePair                     // {"oldVal": ..., "newVal": ...}
	ValueInvalid                  // any other shape (e.g. an array)
)

// Value is the decoded "value" argument of a cleaning request.
type Value struct {
	Kind   ValueKind
	Scalar string
	Old    *string // nil when the pair has no oldVal
	New    *string // nil when the pair has no newVal
}

// ScalarValue builds a scalar Value.
func ScalarValue(s string) Value { return Value{Kind: ValueScalar, Scalar: s} }

// PairValue builds a replacement pair. Either side may be nil.
func PairValue(oldVal, newVal *string) Value {
	return Value{Kind: ValuePair, Old: oldVal, New: newVal}
}

// CleanRequest holds the already-decoded arguments of a cleaning call.
type CleanRequest struct {
	Method     string
	Column     string // empty means every column
	Value      Value
	TargetType string
	Limit      string // raw limit text; empty means unlimited
}

// cleanFunc applies one method. It must not modify t.
type cleanFunc func(t *Table, req CleanRequest) (*Table, error)

var cleaners map[Method]cleanFunc

func init() {
	cleaners = map[Method]cleanFunc{
		MethodDropNA:       dropNA,
		MethodTypecast:     typecast,
		MethodFillNA:       fillNA,
		MethodFFill:        forwardFill,
		MethodBFill:        backwardFill,
		MethodFillNAMean:   fillNAMean,
		MethodFillNAMedian: fillNAMedian,
		MethodFillNAMode:   fillNAMode,
		MethodReplace:      replaceValues,
	}
}

// Methods returns the supported cleaning methods.
func Methods() []Method {
	return []Method{
		MethodDropNA, MethodTypecast, MethodFillNA, MethodFFill, MethodBFill,
		MethodFillNAMean, MethodFillNAMedian, MethodFillNAMode, MethodReplace,
	}
}

// Clean parses text, applies the requested method, and returns the result as
// CSV text.
//
// Checks run in a fixed order: CSV validity, then the column (when given),
// then the method and its arguments. The first failure is returned as an
// *Error; nothing escapes as a panic.
func Clean(text string, req CleanRequest) (result string, err error) {
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

	if err := t.ValidateColumn(req.Column); err != nil {
		return "", err
	}

	method := Method(req.Method)
	if method == "" {
		method = DefaultMethod
	}

	apply, ok := cleaners[method]
	if !ok {
		return "", NewError(ErrInvalidMethod, fmt.Sprintf("Unsupported cleaning method: %s", req.Method))
	}

	out, err := apply(t, req)
	if err != nil {
		return "", Coalesce(err, ErrUnknown, "An unexpected error occurred")
	}

	return Serialize(out)
}

// dropNA removes rows with a missing value in the column, or in any column.
func dropNA(t *Table, req CleanRequest) (*Table, error) {
	out := t.Clone()
	var cols [][]Cell
	for _, name := range out.targetColumns(req.Column) {
		cols = append(cols, out.Column(name))
	}

	out.filterRows(func(r int) bool {
		for _, col := range cols {
			if col[r].IsMissing() {
				return false
			}
		}
		return true
	})
	return out, nil
}

// typecast coerces one column to the requested type, turning values that
// cannot be converted into Missing.
func typecast(t *Table, req CleanRequest) (*Table, error) {
	if req.TargetType == "" {
		return nil, NewError(ErrMissingType, "Target type must be specified for typecast method")
	}
	if req.Column == "" {
		return nil, NewError(ErrMissingColumn, "Column name must be specified for typecast method")
	}

	target, err := ParseTargetType(req.TargetType)
	if err != nil {
		return nil, err
	}

	out := t.Clone()
	cells, err := Coerce(req.Column, out.Column(req.Column), target, PolicyCoerce)
	if err != nil {
		return nil, err
	}
	out.setColumn(req.Column, cells)
	return out, nil
}
