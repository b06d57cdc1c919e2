package core

import (
	"testing"
)

func TestAggregate(t *testing.T) {
	const sample = "Type,Value1,Value2\nA,10,20\nB,15,25\nA,12,22"

	tests := []struct {
		name    string
		input   string
		req     AggregateRequest
		want    string
		wantErr ErrorType
	}{
		{
			name:  "sum",
			input: sample,
			req:   AggregateRequest{Method: "sum", TargetColumn: "Type", SelectedColumns: []string{"Value1", "Value2"}},
			want:  "Type,Counts,Value1_Total,Value2_Total\nA,2,22,42\nB,1,15,25\n",
		},
		{
			name:  "mean",
			input: sample,
			req:   AggregateRequest{Method: "mean", TargetColumn: "Type", SelectedColumns: []string{"Value1"}},
			want:  "Type,Counts,Value1_Mean\nA,2,11\nB,1,15\n",
		},
		{
			name:  "both puts totals before means",
			input: sample,
			req:   AggregateRequest{Method: "both", TargetColumn: "Type", SelectedColumns: []string{"Value1", "Value2"}},
			want:  "Type,Counts,Value1_Total,Value2_Total,Value1_Mean,Value2_Mean\nA,2,22,42,11,21\nB,1,15,25,15,25\n",
		},
		{
			name:  "counts only",
			input: sample,
			req:   AggregateRequest{Method: "sum", TargetColumn: "Type"},
			want:  "Type,Counts\nA,2\nB,1\n",
		},
		{
			name:  "duplicate selections collapse",
			input: sample,
			req:   AggregateRequest{Method: "sum", TargetColumn: "Type", SelectedColumns: []string{"Value1", "Value1"}},
			want:  "Type,Counts,Value1_Total\nA,2,22\nB,1,15\n",
		},
		{
			name:  "ties keep first appearance",
			input: "k,v\nb,1\na,2\nc,3\na,4\n",
			req:   AggregateRequest{Method: "sum", TargetColumn: "k", SelectedColumns: []string{"v"}},
			want:  "k,Counts,v_Total\na,2,6\nb,1,1\nc,1,3\n",
		},
		{
			name:  "missing keys excluded and missing values skipped",
			input: "k,v\nx,1\n,5\nx,\ny,\n",
			req:   AggregateRequest{Method: "both", TargetColumn: "k", SelectedColumns: []string{"v"}},
			want:  "k,Counts,v_Total,v_Mean\nx,2,1,1\ny,1,0,\n",
		},
		{
			name:  "numeric keys",
			input: "k,v\n1,2.5\n1,0.5\n2,1\n",
			req:   AggregateRequest{Method: "mean", TargetColumn: "k", SelectedColumns: []string{"v"}},
			want:  "k,Counts,v_Mean\n1,2,1.5\n2,1,1\n",
		},
		{
			name:    "empty input",
			input:   "",
			req:     AggregateRequest{Method: "sum", TargetColumn: "Type"},
			wantErr: ErrEmptyData,
		},
		{
			name:    "whitespace input",
			input:   " \n\t\n",
			req:     AggregateRequest{Method: "sum", TargetColumn: "Type"},
			wantErr: ErrEmptyData,
		},
		{
			name:    "byte order mark only",
			input:   "\ufeff\n",
			req:     AggregateRequest{Method: "sum", TargetColumn: "Type"},
			wantErr: ErrEmptyData,
		},
		{
			name:    "header only",
			input:   "Type,Value1\n",
			req:     AggregateRequest{Method: "sum", TargetColumn: "Type"},
			wantErr: ErrEmptyData,
		},
		{
			name:    "malformed rows",
			input:   "Type\nA,1\n",
			req:     AggregateRequest{Method: "sum", TargetColumn: "Type"},
			wantErr: ErrParse,
		},
		{
			name:    "unknown target",
			input:   sample,
			req:     AggregateRequest{Method: "sum", TargetColumn: "Kind"},
			wantErr: ErrInvalidColumn,
		},
		{
			name:    "unknown selected column",
			input:   sample,
			req:     AggregateRequest{Method: "sum", TargetColumn: "Type", SelectedColumns: []string{"Value3"}},
			wantErr: ErrInvalidColumn,
		},
		{
			name:    "non-numeric selected column",
			input:   sample,
			req:     AggregateRequest{Method: "sum", TargetColumn: "Value1", SelectedColumns: []string{"Type"}},
			wantErr: ErrInvalidDataType,
		},
		{
			name:    "unknown method",
			input:   sample,
			req:     AggregateRequest{Method: "median", TargetColumn: "Type", SelectedColumns: []string{"Value1"}},
			wantErr: ErrInvalidMethod,
		},
		{
			name:    "columns checked before method",
			input:   sample,
			req:     AggregateRequest{Method: "median", TargetColumn: "Kind"},
			wantErr: ErrInvalidColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Aggregate(tt.input, tt.req)
			if tt.wantErr != "" {
				if !IsType(err, tt.wantErr) {
					t.Fatalf("Aggregate() error = %v, want %s", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Aggregate() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Aggregate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAggregate_ErrorMessages(t *testing.T) {
	const sample = "Type,Value1\nA,10\n"

	tests := []struct {
		name        string
		input       string
		req         AggregateRequest
		wantMessage string
		wantDetails string
	}{
		{
			name:        "empty",
			input:       "",
			wantMessage: "The input CSV data is empty",
			wantDetails: "Please provide non-empty CSV data",
		},
		{
			name:        "target",
			input:       sample,
			req:         AggregateRequest{TargetColumn: "X"},
			wantMessage: "Target column 'X' not found in data",
			wantDetails: "Available columns: Type, Value1",
		},
		{
			name:        "selected",
			input:       sample,
			req:         AggregateRequest{TargetColumn: "Type", SelectedColumns: []string{"Y"}},
			wantMessage: "Selected column 'Y' not found in data",
			wantDetails: "Available columns: Type, Value1",
		},
		{
			name:        "non-numeric",
			input:       sample,
			req:         AggregateRequest{TargetColumn: "Value1", SelectedColumns: []string{"Type"}},
			wantMessage: "Column 'Type' must be numeric",
			wantDetails: "Current type: object",
		},
		{
			name:        "method",
			input:       sample,
			req:         AggregateRequest{Method: "max", TargetColumn: "Type"},
			wantMessage: "Invalid method specified",
			wantDetails: "Supported methods: sum, mean, both. Received: max",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Aggregate(tt.input, tt.req)
			e := Coalesce(err, ErrUnknown, "")
			if e == nil {
				t.Fatal("Aggregate() returned no error")
			}
			if e.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", e.Message, tt.wantMessage)
			}
			if e.DetailText() != tt.wantDetails {
				t.Errorf("Details = %q, want %q", e.DetailText(), tt.wantDetails)
			}
		})
	}
}

func TestAggregate_CountsSumToPresentKeys(t *testing.T) {
	input := "k,v\na,1\nb,2\n,3\na,4\nc,5\nb,6\na,7\n"
	out, err := Aggregate(input, AggregateRequest{Method: "sum", TargetColumn: "k", SelectedColumns: []string{"v"}})
	if err != nil {
		t.Fatalf("Aggregate() error: %v", err)
	}
	table, err := Parse(out)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	total := 0
	prev := -1
	for _, c := range table.Column(CountsColumn) {
		d, ok := c.Number()
		if !ok {
			t.Fatalf("non-numeric count %q", c)
		}
		n := int(d.IntPart())
		if prev >= 0 && n > prev {
			t.Errorf("counts not descending: %d after %d", n, prev)
		}
		prev = n
		total += n
	}
	if total != 6 {
		t.Errorf("counts sum = %d, want 6", total)
	}
}
