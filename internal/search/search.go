// Package search is the boundary between callers (HTTP, CLI) and the run
// orchestrator. It checks the caller token, cleans the query, applies the
// per-credential concurrency cap and the caller timeout, and turns the
// outcome into the {success, data} envelope the front end expects.
package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/semaphore"

	"github.com/Backland-Labs/travelbuddy/internal/logger"
	"github.com/Backland-Labs/travelbuddy/internal/metrics"
	"github.com/Backland-Labs/travelbuddy/internal/orchestrator"
)

var (
	// ErrInvalidToken is returned when the caller token is missing, unknown or expired
	ErrInvalidToken = errors.New("invalid or expired nonce")
	// ErrQueryMissing is returned when no usable query text remains after sanitizing
	ErrQueryMissing = errors.New("query is missing")
)

// DefaultMaxConcurrent caps simultaneous searches per API key
const DefaultMaxConcurrent = 4

// Request is one search query from a caller
type Request struct {
	Query string `json:"query" form:"query"`
	Token string `json:"nonce" form:"nonce"`
}

// Response is the envelope returned to callers. Data holds the structured
// result on success and a human-readable message on failure.
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`

	// Err is the failure behind an unsuccessful response
	Err error `json:"-"`
}

// Runner executes a cleaned query against the assistant
type Runner interface {
	Run(ctx context.Context, creds orchestrator.Credentials, query string) (any, error)
}

// CredentialsProvider supplies the credentials for the next search
type CredentialsProvider interface {
	Credentials() orchestrator.Credentials
}

// CredentialsFunc adapts a function to CredentialsProvider
type CredentialsFunc func() orchestrator.Credentials

// Credentials calls f
func (f CredentialsFunc) Credentials() orchestrator.Credentials {
	return f()
}

// Verifier checks caller tokens
type Verifier interface {
	Verify(token string) bool
}

// Options configures a Handler
type Options struct {
	// Timeout bounds one whole search; zero means no limit beyond the caller's context
	Timeout time.Duration
	// MaxConcurrent caps simultaneous searches per API key
	MaxConcurrent int
	// Verifier checks Request.Token; nil skips the check
	Verifier Verifier
	// Now is the clock used for the date suffix
	Now func() time.Time
}

// Handler serves search requests
type Handler struct {
	runner   Runner
	creds    CredentialsProvider
	verifier Verifier
	timeout  time.Duration
	limit    int64
	now      func() time.Time

	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

var queryRules = validator.New()

// NewHandler creates a Handler that runs queries with runner using the
// credentials creds returns at request time
func NewHandler(runner Runner, creds CredentialsProvider, opts Options) *Handler {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Handler{
		runner:   runner,
		creds:    creds,
		verifier: opts.Verifier,
		timeout:  opts.Timeout,
		limit:    int64(opts.MaxConcurrent),
		now:      opts.Now,
		sems:     make(map[string]*semaphore.Weighted),
	}
}

// Handle runs req and wraps the outcome in a Response
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	start := time.Now()
	result, err := h.Search(ctx, req)
	elapsed := time.Since(start)

	if err != nil {
		metrics.RecordSearch(Outcome(err), elapsed)
		log := logger.WithFields(map[string]interface{}{
			"outcome":  Outcome(err),
			"duration": elapsed.String(),
			"error":    err.Error(),
		})
		// a caller hanging up or timing out is not a remote fault
		if orchestrator.IsCancelled(err) {
			log.Info("Search cancelled")
		} else {
			log.Warn("Search failed")
		}
		return Response{Success: false, Data: Describe(err), Err: err}
	}

	metrics.RecordSearch(metrics.OutcomeSuccess, elapsed)
	logger.WithField("duration", elapsed.String()).Info("Search completed")
	return Response{Success: true, Data: result}
}

// Search runs req and returns the raw result or a typed error
func (h *Handler) Search(ctx context.Context, req Request) (any, error) {
	if h.verifier != nil && !h.verifier.Verify(req.Token) {
		return nil, ErrInvalidToken
	}

	query := Sanitize(req.Query)
	if err := queryRules.Var(query, "required"); err != nil {
		return nil, ErrQueryMissing
	}

	creds := h.creds.Credentials()
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	sem := h.semaphoreFor(creds.APIKey)
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, &orchestrator.Error{Kind: orchestrator.KindCancelled, Message: "waiting for a free search slot", Err: err}
	}
	defer sem.Release(1)

	return h.runner.Run(ctx, creds, WithDate(query, h.now()))
}

func (h *Handler) semaphoreFor(apiKey string) *semaphore.Weighted {
	h.mu.Lock()
	defer h.mu.Unlock()

	sem, ok := h.sems[apiKey]
	if !ok {
		sem = semaphore.NewWeighted(h.limit)
		h.sems[apiKey] = sem
	}
	return sem
}
