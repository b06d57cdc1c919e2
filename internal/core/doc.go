// Package core provides the CSV cleaning and aggregation engine.
//
// This package holds all domain logic independent of any transport. The HTTP
// server, the MCP tool server and the CLI all call the same operations
// through [Service].
//
// # Data Model
//
// CSV text is parsed into a [Table]: named columns of [Cell] values. A cell is
// Missing, Text, Number (an exact decimal) or Boolean. Parsing infers the
// variant of every field in a fixed order: missing token, integer, float,
// text. [Serialize] writes the table back with canonical formatting, so
// parsing the output again yields the same table.
//
// # Cleaning
//
// [Clean] applies one method to a column or to the whole table:
//
//   - dropna: remove rows with missing values
//   - typecast: coerce a column to int, float, str or bool
//   - fillna: fill missing values with a constant
//   - ffill, bfill: propagate neighbouring values, optionally limited
//   - fillna_mean, fillna_median, fillna_mode: fill with a column statistic
//   - replace: swap exact or substring matches for a new value
//
// The input table is never modified; every method works on a clone.
//
// # Aggregation
//
// [Aggregate] groups rows by a target column and reports counts plus the sum
// and/or mean of selected numeric columns:
//
//	out, err := core.Aggregate(text, core.AggregateRequest{
//	    Method:          "both",
//	    TargetColumn:    "Type",
//	    SelectedColumns: []string{"Value1"},
//	})
//
// # Profiling
//
// [Describe] reports per-column counts, distinct values, numeric statistics
// and value kinds as a CSV table with one row per statistic.
//
// # Error Handling
//
// Every failure is an [*Error] carrying an [ErrorType] tag, a message and
// optional details. Errors are tagged where they are detected; [Coalesce]
// classifies anything else at the boundary, so no panic escapes Clean,
// Aggregate or Describe.
package core
