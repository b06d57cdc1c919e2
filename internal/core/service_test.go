package core

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestService_Clean(t *testing.T) {
	svc := NewService(nil, 0)

	out, err := svc.Clean(context.Background(), "a,b\n1,\n2,3\n", CleanRequest{})
	if err != nil {
		t.Fatalf("Clean() error: %v", err)
	}
	if out != "a,b\n2,3\n" {
		t.Errorf("Clean() = %q", out)
	}
}

func TestService_AggregateError(t *testing.T) {
	svc := NewService(nil, 0)

	_, err := svc.Aggregate(context.Background(), "", AggregateRequest{Method: "sum"})
	if !IsType(err, ErrEmptyData) {
		t.Errorf("error = %v, want %s", err, ErrEmptyData)
	}
	if svc.LimiterStatus().Active != 0 {
		t.Error("limiter slot not released after an error")
	}
}

func TestService_Describe(t *testing.T) {
	svc := NewService(nil, 0)

	out, err := svc.Describe(context.Background(), "a\n1\n3\n")
	if err != nil {
		t.Fatalf("Describe() error: %v", err)
	}
	if !strings.Contains(out, "\nmean,2\n") {
		t.Errorf("Describe() = %q, want a mean of 2", out)
	}
}

func TestService_InputTooLarge(t *testing.T) {
	svc := NewService(nil, 16)

	_, err := svc.Clean(context.Background(), "a\n"+strings.Repeat("1\n", 20), CleanRequest{})
	if !IsType(err, ErrTooLarge) {
		t.Errorf("error = %v, want %s", err, ErrTooLarge)
	}
}

func TestService_Busy(t *testing.T) {
	limiter := NewLimiter(1, 20*time.Millisecond)
	defer fill(t, limiter, 1)()

	svc := NewService(limiter, 0)
	_, err := svc.Clean(context.Background(), "a\n1\n", CleanRequest{})
	if !IsType(err, ErrServerBusy) {
		t.Errorf("error = %v, want %s", err, ErrServerBusy)
	}
}

func TestService_Cancelled(t *testing.T) {
	limiter := NewLimiter(1, time.Second)
	defer fill(t, limiter, 1)()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewService(limiter, 0)
	_, err := svc.Aggregate(ctx, "a\n1\n", AggregateRequest{Method: "sum", TargetColumn: "a"})
	if !IsType(err, ErrSystem) {
		t.Errorf("error = %v, want %s", err, ErrSystem)
	}
}

func TestMethodLabel(t *testing.T) {
	tests := []struct {
		kind, method, want string
	}{
		{KindClean, "ffill", "ffill"},
		{KindClean, "explode", "unsupported"},
		{KindAggregate, "both", "both"},
		{KindAggregate, "ffill", "unsupported"},
	}
	for _, tt := range tests {
		if got := methodLabel(tt.kind, tt.method); got != tt.want {
			t.Errorf("methodLabel(%q, %q) = %q, want %q", tt.kind, tt.method, got, tt.want)
		}
	}
}
