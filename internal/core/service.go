package core

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/csvclean/internal/logging"
)

// Operation kinds, used in logs and metrics.
const (
	KindClean     = "clean"
	KindAggregate = "aggregate"
	KindDescribe  = "describe"
)

// DefaultMaxInputBytes bounds the CSV text accepted by a Service.
const DefaultMaxInputBytes = 50 << 20

// Service is the entry point transports call. It wraps Clean and Aggregate
// with admission control, logging and metrics. It is safe for concurrent use.
type Service struct {
	limiter       *Limiter
	maxInputBytes int
}

// NewService creates a Service. A nil limiter gets the defaults; a
// non-positive maxInputBytes means DefaultMaxInputBytes.
func NewService(limiter *Limiter, maxInputBytes int) *Service {
	if limiter == nil {
		limiter = NewLimiter(0, 0)
	}
	if maxInputBytes <= 0 {
		maxInputBytes = DefaultMaxInputBytes
	}
	return &Service{limiter: limiter, maxInputBytes: maxInputBytes}
}

// Clean runs a cleaning operation.
func (s *Service) Clean(ctx context.Context, text string, req CleanRequest) (string, error) {
	method := req.Method
	if method == "" {
		method = string(DefaultMethod)
	}
	return s.run(ctx, KindClean, method, text, func() (string, error) {
		return Clean(text, req)
	})
}

// Aggregate runs an aggregation.
func (s *Service) Aggregate(ctx context.Context, text string, req AggregateRequest) (string, error) {
	return s.run(ctx, KindAggregate, req.Method, text, func() (string, error) {
		return Aggregate(text, req)
	})
}

// Describe profiles a table.
func (s *Service) Describe(ctx context.Context, text string) (string, error) {
	return s.run(ctx, KindDescribe, "", text, func() (string, error) {
		return Describe(text)
	})
}

// LimiterStatus reports the admission limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForDrain blocks until in-flight operations finish or ctx is done.
func (s *Service) WaitForDrain(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

func (s *Service) run(ctx context.Context, kind, method, text string, fn func() (string, error)) (string, error) {
	opID := uuid.New().String()
	logger := logging.WithFields(ctx, "op_id", opID, "kind", kind, "method", method)
	start := time.Now()

	inputBytes.Observe(float64(len(text)))

	if len(text) > s.maxInputBytes {
		err := NewErrorDetails(ErrTooLarge,
			"CSV data is too large",
			fmt.Sprintf("Maximum size is %d bytes, got %d", s.maxInputBytes, len(text)))
		s.record(logger, kind, method, start, err)
		return "", err
	}

	release, err := s.limiter.Admit(ctx)
	if err != nil {
		e := Coalesce(err, ErrSystem, "Request cancelled")
		s.record(logger, kind, method, start, e)
		return "", e
	}
	defer release()

	out, err := fn()
	if err != nil {
		e := Coalesce(err, ErrUnknown, "An unexpected error occurred")
		s.record(logger, kind, method, start, e)
		return "", e
	}

	s.record(logger, kind, method, start, nil)
	return out, nil
}

func (s *Service) record(logger *slog.Logger, kind, method string, start time.Time, e *Error) {
	elapsed := time.Since(start)
	operationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	label := methodLabel(kind, method)

	if e == nil {
		operationsTotal.WithLabelValues(kind, label, "success", "").Inc()
		logger.Info("operation completed", "duration", elapsed)
		return
	}

	operationsTotal.WithLabelValues(kind, label, "error", string(e.Type)).Inc()
	logger.Warn("operation failed",
		"error_type", e.Type,
		"error", e.Message,
		"duration", elapsed,
	)
}

// methodLabel keeps metric cardinality bounded: names outside the supported
// set are reported as "unsupported".
func methodLabel(kind, method string) string {
	switch kind {
	case KindClean:
		if slices.Contains(Methods(), Method(method)) {
			return method
		}
	case KindAggregate:
		switch AggregateMethod(method) {
		case AggregateSum, AggregateMean, AggregateBoth:
			return method
		}
	case KindDescribe:
		return ""
	}
	return "unsupported"
}
