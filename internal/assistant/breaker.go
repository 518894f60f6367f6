package assistant

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Backland-Labs/travelbuddy/internal/logger"
)

// ErrCircuitOpen is returned while the breaker refuses calls to the remote
var ErrCircuitOpen = errors.New("assistant API circuit open")

// CircuitBreakerState represents the state of the circuit breaker
type CircuitBreakerState int

const (
	// CircuitClosed allows all calls through
	CircuitClosed CircuitBreakerState = iota
	// CircuitOpen blocks all calls
	CircuitOpen
	// CircuitHalfOpen allows a probe call through
	CircuitHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreaker counts consecutive transport failures against the assistant API
type CircuitBreaker struct {
	mu               sync.Mutex
	state            CircuitBreakerState
	failureCount     int
	failureThreshold int
	recoveryTimeout  time.Duration
	lastFailureTime  time.Time
	now              func() time.Time
}

// NewCircuitBreaker creates a new circuit breaker with the specified failure threshold and recovery timeout
func NewCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		state:            CircuitClosed,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		now:              time.Now,
	}
}

// CanCall returns true if the circuit breaker allows the call to proceed
func (cb *CircuitBreaker) CanCall() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed, CircuitHalfOpen:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) >= cb.recoveryTimeout {
			cb.state = CircuitHalfOpen
			return true
		}
		return false
	default:
		return false
	}
}

// RecordSuccess records a successful call and closes the circuit
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.state != CircuitClosed {
		logger.WithField("previous_state", cb.state.String()).Info("Assistant API circuit closed")
	}
	cb.failureCount = 0
	cb.state = CircuitClosed
}

// RecordFailure records a failed call and opens the circuit once the threshold
// is reached. A failed probe in half-open state reopens it immediately.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()

	if cb.state == CircuitHalfOpen || cb.failureCount >= cb.failureThreshold {
		if cb.state != CircuitOpen {
			logger.WithFields(map[string]interface{}{
				"failures": cb.failureCount,
				"cooldown": cb.recoveryTimeout.String(),
			}).Warn("Assistant API circuit opened")
		}
		cb.state = CircuitOpen
	}
}

// GetState returns the current state of the circuit breaker
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// GetFailureCount returns the current failure count
func (cb *CircuitBreaker) GetFailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// BreakerClient guards a Client with a CircuitBreaker
type BreakerClient struct {
	next    Client
	breaker *CircuitBreaker
}

var _ Client = (*BreakerClient)(nil)

// NewBreakerClient wraps next so calls fail fast while breaker is open
func NewBreakerClient(next Client, breaker *CircuitBreaker) *BreakerClient {
	return &BreakerClient{next: next, breaker: breaker}
}

// isTransportFailure reports whether err says the remote is unhealthy.
// Client errors from the API and caller cancellations do not count.
func isTransportFailure(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if remote, ok := AsRemoteError(err); ok {
		return remote.StatusCode >= 500
	}
	return true
}

func guard[T any](b *BreakerClient, call func() (T, error)) (T, error) {
	if !b.breaker.CanCall() {
		var zero T
		return zero, ErrCircuitOpen
	}
	res, err := call()
	if isTransportFailure(err) {
		b.breaker.RecordFailure()
	} else {
		b.breaker.RecordSuccess()
	}
	return res, err
}

func (b *BreakerClient) GetAssistant(ctx context.Context, assistantID string) (*Assistant, error) {
	return guard(b, func() (*Assistant, error) { return b.next.GetAssistant(ctx, assistantID) })
}

func (b *BreakerClient) CreateThread(ctx context.Context) (string, error) {
	return guard(b, func() (string, error) { return b.next.CreateThread(ctx) })
}

func (b *BreakerClient) PostMessage(ctx context.Context, threadID, content string) error {
	_, err := guard(b, func() (struct{}, error) { return struct{}{}, b.next.PostMessage(ctx, threadID, content) })
	return err
}

func (b *BreakerClient) StartRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	return guard(b, func() (*Run, error) { return b.next.StartRun(ctx, threadID, assistantID) })
}

func (b *BreakerClient) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	return guard(b, func() (*Run, error) { return b.next.GetRun(ctx, threadID, runID) })
}

func (b *BreakerClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	return guard(b, func() (*Run, error) { return b.next.SubmitToolOutputs(ctx, threadID, runID, outputs) })
}

func (b *BreakerClient) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	return guard(b, func() ([]Message, error) { return b.next.ListMessages(ctx, threadID) })
}

// BreakerFactory hands out OpenAI clients that share one breaker per API key
type BreakerFactory struct {
	opts      Options
	threshold int
	cooldown  time.Duration

	mu       sync.Mutex
	breakers map[string]*CircuitBreaker
}

// NewBreakerFactory creates a Factory whose clients trip after threshold
// consecutive transport failures and stay open for cooldown
func NewBreakerFactory(opts Options, threshold int, cooldown time.Duration) *BreakerFactory {
	return &BreakerFactory{
		opts:      opts,
		threshold: threshold,
		cooldown:  cooldown,
		breakers:  make(map[string]*CircuitBreaker),
	}
}

// ForKey returns a breaker-guarded client for apiKey
func (f *BreakerFactory) ForKey(apiKey string) Client {
	return NewBreakerClient(NewOpenAIClient(apiKey, f.opts), f.breakerFor(apiKey))
}

func (f *BreakerFactory) breakerFor(apiKey string) *CircuitBreaker {
	f.mu.Lock()
	defer f.mu.Unlock()

	cb, ok := f.breakers[apiKey]
	if !ok {
		cb = NewCircuitBreaker(f.threshold, f.cooldown)
		f.breakers[apiKey] = cb
	}
	return cb
}
