package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultMaxConcurrent is the default number of engine calls admitted at once.
const DefaultMaxConcurrent = 8

// DefaultMaxWaitTime is how long a call queues for admission before it is
// turned away as SERVER_BUSY.
const DefaultMaxWaitTime = 10 * time.Second

// Limiter admits engine calls. Cleaning and aggregation hold the whole table
// in memory, so only a fixed number of calls may run at once; the rest queue
// for up to the wait limit.
//
// A Limiter is safe for concurrent use.
type Limiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu      sync.Mutex
	running int
	idle    chan struct{} // closed while running == 0
}

// NewLimiter creates a limiter that runs at most maxConcurrent calls at once.
// Non-positive arguments fall back to the defaults.
func NewLimiter(maxConcurrent int, maxWait time.Duration) *Limiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWaitTime
	}

	idle := make(chan struct{})
	close(idle)
	return &Limiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
		idle:    idle,
	}
}

// Admit queues the call for a slot. On success it returns a release function
// the caller must invoke once the call is done; calling it again is a no-op.
//
// A call still queued after the wait limit fails with SERVER_BUSY. A call
// whose ctx ends first fails with SYSTEM_ERROR.
func (l *Limiter) Admit(ctx context.Context) (release func(), err error) {
	start := time.Now()
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
	case <-ctx.Done():
		limiterWait.Observe(time.Since(start).Seconds())
		return nil, NewErrorDetails(ErrSystem, "Request cancelled", ctx.Err().Error())
	case <-timer.C:
		limiterWait.Observe(time.Since(start).Seconds())
		limiterRejections.Inc()
		return nil, NewErrorDetails(ErrServerBusy,
			"Server is busy",
			fmt.Sprintf("All %d processing slots stayed busy for %s; retry shortly", cap(l.slots), l.maxWait))
	}

	limiterWait.Observe(time.Since(start).Seconds())
	l.enter()

	var once sync.Once
	return func() { once.Do(l.leave) }, nil
}

func (l *Limiter) enter() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running == 0 {
		l.idle = make(chan struct{})
	}
	l.running++
	limiterActive.Set(float64(l.running))
}

func (l *Limiter) leave() {
	l.mu.Lock()
	l.running--
	if l.running == 0 {
		close(l.idle)
	}
	limiterActive.Set(float64(l.running))
	l.mu.Unlock()

	<-l.slots
}

// WaitForDrain blocks until no admitted call is running or ctx is done.
func (l *Limiter) WaitForDrain(ctx context.Context) error {
	l.mu.Lock()
	idle := l.idle
	l.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LimiterStatus is a snapshot of the limiter for health output.
type LimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the current limiter state.
func (l *Limiter) Status() LimiterStatus {
	l.mu.Lock()
	running := l.running
	l.mu.Unlock()

	return LimiterStatus{
		Active:        running,
		Available:     cap(l.slots) - running,
		MaxConcurrent: cap(l.slots),
	}
}
