// Package protocol decodes engine requests from JSON and encodes the
// success and error envelopes every transport returns.
//
// A request is one JSON object. csv_data is required; the remaining fields
// depend on the operation:
//
//	clean:     method, column, value, target_type, limit
//	aggregate: method, target_column, selected_cols
//	describe:  (none)
//
// Decoding failures are reported with the same structured error as engine
// failures, so callers can hand any error to Failure.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/csvclean/internal/core"
)

// Envelope status values.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Response is the envelope written for every request.
type Response struct {
	Status string     `json:"Status"`
	Data   *string    `json:"Data,omitempty"`
	Error  *ErrorBody `json:"Error,omitempty"`
}

// ErrorBody describes a failure. Details is encoded as null when absent.
type ErrorBody struct {
	Type    core.ErrorType `json:"Type"`
	Message string         `json:"Message"`
	Details *string        `json:"Details"`
}

// Success wraps an operation result.
func Success(data string) Response {
	return Response{Status: StatusSuccess, Data: &data}
}

// Failure wraps an error. Errors that are not structured are reported as
// UNKNOWN_ERROR.
func Failure(err error) Response {
	e := core.Coalesce(err, core.ErrUnknown, "An unexpected error occurred")
	if e == nil {
		e = core.NewError(core.ErrUnknown, "An unexpected error occurred")
	}
	return Response{
		Status: StatusError,
		Error: &ErrorBody{
			Type:    e.Type,
			Message: e.Message,
			Details: e.Details,
		},
	}
}

// Result builds the envelope for an operation outcome.
func Result(data string, err error) Response {
	if err != nil {
		return Failure(err)
	}
	return Success(data)
}

// OK reports whether the response is a success.
func (r Response) OK() bool { return r.Status == StatusSuccess }

// Encode writes the response as a single line of JSON.
func (r Response) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	return nil
}

// CleanInput is a decoded cleaning request.
type CleanInput struct {
	CSVData string
	Request core.CleanRequest
}

// AggregateInput is a decoded aggregation request.
type AggregateInput struct {
	CSVData string
	Request core.AggregateRequest
}

// DecodeClean decodes a cleaning request.
func DecodeClean(data []byte) (CleanInput, error) {
	fields, csvData, err := decodeObject(data)
	if err != nil {
		return CleanInput{}, err
	}

	var req core.CleanRequest
	if req.Method, err = stringField(fields, "method"); err != nil {
		return CleanInput{}, err
	}
	if req.Column, err = stringField(fields, "column"); err != nil {
		return CleanInput{}, err
	}
	if req.TargetType, err = stringField(fields, "target_type"); err != nil {
		return CleanInput{}, err
	}
	req.Value = DecodeValue(fields["value"])
	req.Limit = limitText(fields["limit"])

	return CleanInput{CSVData: csvData, Request: req}, nil
}

// DecodeAggregate decodes an aggregation request.
func DecodeAggregate(data []byte) (AggregateInput, error) {
	fields, csvData, err := decodeObject(data)
	if err != nil {
		return AggregateInput{}, err
	}

	var req core.AggregateRequest
	if req.Method, err = stringField(fields, "method"); err != nil {
		return AggregateInput{}, err
	}
	if req.TargetColumn, err = stringField(fields, "target_column"); err != nil {
		return AggregateInput{}, err
	}
	if req.SelectedColumns, err = stringList(fields, "selected_cols"); err != nil {
		return AggregateInput{}, err
	}

	return AggregateInput{CSVData: csvData, Request: req}, nil
}

// DecodeDescribe decodes a profile request and returns its CSV text.
func DecodeDescribe(data []byte) (string, error) {
	_, csvData, err := decodeObject(data)
	return csvData, err
}

// decodeObject parses the top-level object and extracts csv_data.
func decodeObject(data []byte) (map[string]json.RawMessage, string, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, "", core.NewErrorDetails(core.ErrJSONParse, "Empty input", "No input provided")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, "", core.NewErrorDetails(core.ErrJSONParse, "Invalid JSON input", err.Error())
	}

	csvData, err := csvDataField(fields["csv_data"])
	if err != nil {
		return nil, "", err
	}
	return fields, csvData, nil
}

// csvDataField requires a truthy csv_data. A truthy value that is not a
// string is handed on as invalid CSV rather than missing data.
func csvDataField(raw json.RawMessage) (string, error) {
	if isFalsy(raw) {
		return "", core.NewError(core.ErrMissingData, "CSV data is required")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", core.NewErrorDetails(core.ErrInvalidCSV,
			"Invalid CSV data format",
			"CSV data must be a non-empty string")
	}
	return s, nil
}

// isFalsy reports whether a JSON value is absent, null, false, zero, or an
// empty string, array or object.
func isFalsy(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	switch string(raw) {
	case "null", "false", `""`, "[]", "{}":
		return true
	}
	if s, kind := scalarText(raw); kind == scalarNumber {
		d, err := decimal.NewFromString(s)
		return err == nil && d.IsZero()
	}
	return false
}

// stringField reads an optional scalar field as text. Numbers and booleans
// are accepted and rendered as text.
func stringField(fields map[string]json.RawMessage, name string) (string, error) {
	raw, ok := fields[name]
	if !ok {
		return "", nil
	}
	s, kind := scalarText(raw)
	switch kind {
	case scalarNull:
		return "", nil
	case scalarOther:
		return "", core.NewErrorDetails(core.ErrJSONParse,
			"Invalid JSON input",
			fmt.Sprintf("Field '%s' must be a string", name))
	}
	return s, nil
}

// stringList reads an optional array of column names.
func stringList(fields map[string]json.RawMessage, name string) ([]string, error) {
	raw, ok := fields[name]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, core.NewErrorDetails(core.ErrJSONParse,
			"Invalid JSON input",
			fmt.Sprintf("Field '%s' must be an array of strings", name))
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, kind := scalarText(item)
		if kind != scalarString && kind != scalarNumber {
			return nil, core.NewErrorDetails(core.ErrJSONParse,
				"Invalid JSON input",
				fmt.Sprintf("Field '%s' must be an array of strings", name))
		}
		out = append(out, s)
	}
	return out, nil
}
