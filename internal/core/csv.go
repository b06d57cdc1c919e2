package core

// csv.go converts between CSV text and Table.
//
// Parsing is strict about structure and lenient about content:
//   - A UTF-8 BOM (common in Windows exports) is stripped
//   - Invalid UTF-8 bytes are replaced with '?'
//   - Blank lines are skipped; short rows are padded with Missing cells
//   - Rows wider than the header are a PARSE_ERROR
//   - Blank and duplicate header names are renamed so names stay unique
//
// Serialization always emits the header and writes Missing as an empty field.

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

const utf8BOM = "\uFEFF"

// Parse reads CSV text with a header row into a Table, inferring each cell
// with InferCell.
func Parse(text string) (*Table, error) {
	if text == "" {
		return nil, NewErrorDetails(ErrInvalidCSV,
			"Invalid CSV data format",
			"CSV data must be a non-empty string")
	}

	r := csv.NewReader(strings.NewReader(sanitizeText(text)))
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, NewErrorDetails(ErrParse, "Failed to parse CSV data", "No columns to parse from file")
	}
	if err != nil {
		return nil, NewErrorDetails(ErrParse, "Failed to parse CSV data", err.Error())
	}

	names := headerNames(header)
	cols := make([][]Cell, len(names))

	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, NewErrorDetails(ErrParse, "Failed to parse CSV data", err.Error())
		}
		if len(record) > len(names) {
			line, _ := r.FieldPos(0)
			return nil, NewErrorDetails(ErrParse, "Failed to parse CSV data",
				fmt.Sprintf("Expected %d fields in line %d, saw %d", len(names), line, len(record)))
		}
		for i := range names {
			if i < len(record) {
				cols[i] = append(cols[i], InferCell(record[i]))
			} else {
				cols[i] = append(cols[i], MissingCell())
			}
		}
	}

	if len(cols) == 0 || len(cols[0]) == 0 {
		return nil, NewErrorDetails(ErrInvalidCSV, "Empty CSV data", "CSV data contains no rows")
	}

	return NewTable(names, cols), nil
}

// sanitizeText strips a leading BOM and replaces invalid UTF-8 with '?'.
func sanitizeText(s string) string {
	s = strings.TrimPrefix(s, utf8BOM)
	return strings.ToValidUTF8(s, "?")
}

// headerNames makes header fields usable as unique column names.
// Blank names become "Unnamed: <i>"; repeats get ".1", ".2", ... suffixes.
func headerNames(header []string) []string {
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := h
		if strings.TrimSpace(name) == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if seen[name] {
			base := name
			for n := 1; seen[name]; n++ {
				name = fmt.Sprintf("%s.%d", base, n)
			}
		}
		seen[name] = true
		names[i] = name
	}
	return names
}

// Serialize renders the table as CSV text with a header row.
func Serialize(t *Table) (string, error) {
	var b strings.Builder
	if err := WriteCSV(&b, t); err != nil {
		return "", err
	}
	return b.String(), nil
}

// WriteCSV writes the table to w as CSV with a header row.
func WriteCSV(out io.Writer, t *Table) error {
	w := csv.NewWriter(out)
	if err := w.Write(t.names); err != nil {
		return writeError(err)
	}

	record := make([]string, len(t.names))
	for r := 0; r < t.rows; r++ {
		for c := range t.cols {
			record[c] = t.cols[c][r].String()
		}
		// A lone empty field would be a blank line, which readers skip.
		if len(record) == 1 && record[0] == "" {
			w.Flush()
			if err := w.Error(); err != nil {
				return writeError(err)
			}
			if _, err := io.WriteString(out, "\"\"\n"); err != nil {
				return writeError(err)
			}
			continue
		}
		if err := w.Write(record); err != nil {
			return writeError(err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return writeError(err)
	}
	return nil
}

func writeError(err error) error {
	return NewErrorDetails(ErrSystem, "Could not write CSV output", err.Error())
}
