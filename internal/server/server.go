// Package server exposes the search boundary over HTTP for the travel search
// widget: a token endpoint, the search endpoint itself, a health check and
// Prometheus metrics.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/Backland-Labs/travelbuddy/internal/logger"
	"github.com/Backland-Labs/travelbuddy/internal/metrics"
	"github.com/Backland-Labs/travelbuddy/internal/search"
)

// Common errors returned by the server
var (
	// ErrServerRunning is returned when attempting to start an already running server
	ErrServerRunning = errors.New("server is already running")
)

const (
	// DefaultRateLimit is the per-client budget for /search
	DefaultRateLimit = "30-M"
	// DefaultNonceRateLimit is the per-client budget for /nonce
	DefaultNonceRateLimit = "60-M"
)

// Searcher runs one search request
type Searcher interface {
	Handle(ctx context.Context, req search.Request) search.Response
}

// TokenIssuer hands out caller tokens for the search page
type TokenIssuer interface {
	Issue() string
	// TTL is how long an issued token stays valid
	TTL() time.Duration
	// Len is the number of live tokens
	Len() int
}

// Options configures the HTTP server
type Options struct {
	// Port to listen on; 0 picks a free port on localhost
	Port int
	// RateLimit is the per-client budget for /search in limiter format, e.g. "30-M"
	RateLimit string
	// NonceRateLimit is the per-client budget for /nonce; every issued token is held until it expires
	NonceRateLimit string
	// CORSOrigins are the browser origins allowed to call the API; empty disables CORS headers
	CORSOrigins []string
	// TrustForwardHeader keys the rate limit on X-Forwarded-For / X-Real-IP
	TrustForwardHeader bool
}

// Server is the TravelBuddy HTTP server
type Server struct {
	port       int
	httpServer *http.Server
	listener   net.Listener
	mu         sync.Mutex
	running    bool
	startTime  time.Time

	searcher Searcher
	tokens   TokenIssuer
	limiter  *limiter.Limiter
	nonceLim *limiter.Limiter
	cors     *cors.Cors
}

// NewServer creates a server that answers /search with searcher and /nonce
// with tokens. The server is initialized but not started.
func NewServer(searcher Searcher, tokens TokenIssuer, opts Options) (*Server, error) {
	if opts.RateLimit == "" {
		opts.RateLimit = DefaultRateLimit
	}
	if opts.NonceRateLimit == "" {
		opts.NonceRateLimit = DefaultNonceRateLimit
	}
	rate, err := limiter.NewRateFromFormatted(opts.RateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid rate limit %q: %w", opts.RateLimit, err)
	}
	nonceRate, err := limiter.NewRateFromFormatted(opts.NonceRateLimit)
	if err != nil {
		return nil, fmt.Errorf("invalid nonce rate limit %q: %w", opts.NonceRateLimit, err)
	}

	s := &Server{
		port:     opts.Port,
		searcher: searcher,
		tokens:   tokens,
		limiter: limiter.New(memory.NewStore(), rate,
			limiter.WithTrustForwardHeader(opts.TrustForwardHeader)),
		nonceLim: limiter.New(memory.NewStore(), nonceRate,
			limiter.WithTrustForwardHeader(opts.TrustForwardHeader)),
	}
	if len(opts.CORSOrigins) > 0 {
		s.cors = cors.New(cors.Options{
			AllowedOrigins: opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			AllowedHeaders: []string{"Content-Type", logger.RequestIDHeader},
			MaxAge:         600,
		})
	}

	logger.WithFields(map[string]interface{}{
		"port":         opts.Port,
		"rate_limit":   opts.RateLimit,
		"nonce_limit":  opts.NonceRateLimit,
		"cors_origins": opts.CORSOrigins,
	}).Debug("Creating new server")
	return s, nil
}

// Handler returns the fully wired HTTP handler
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	log := logger.GetLogger()
	middleware := logger.HTTPMiddleware(log)
	searchLimit := s.rateLimitMiddleware(s.limiter, MsgRateLimited)
	nonceLimit := s.rateLimitMiddleware(s.nonceLim, MsgNonceRateLimited)

	mux.Handle("/health", middleware(http.HandlerFunc(s.healthHandler)))
	mux.Handle("/nonce", middleware(nonceLimit(http.HandlerFunc(s.nonceHandler))))
	mux.Handle("/search", middleware(searchLimit(http.HandlerFunc(s.searchHandler))))
	mux.Handle("/metrics", metrics.Handler())

	if s.cors != nil {
		return s.cors.Handler(mux)
	}
	return mux
}

// Start begins listening for HTTP requests on the configured port.
// The server runs until the provided context is canceled.
// Returns http.ErrServerClosed on graceful shutdown, or any other error if startup fails.
func (s *Server) Start(ctx context.Context) error {
	logger.WithField("port", s.port).Info("Starting HTTP server")

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		logger.Warn("Attempted to start already running server")
		return ErrServerRunning
	}
	s.running = true
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		s.setStopped()
		logger.Info("Server start canceled due to context cancellation")
		return ctx.Err()
	default:
	}

	addr := fmt.Sprintf("0.0.0.0:%d", s.port)
	if s.port == 0 {
		addr = "localhost:0"
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		s.setStopped()
		logger.WithFields(map[string]interface{}{
			"error":   err.Error(),
			"address": addr,
		}).Error("Failed to create listener")
		return fmt.Errorf("failed to listen: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.startTime = time.Now()
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	logger.WithField("address", listener.Addr().String()).Info("Server listening")

	go func() {
		<-ctx.Done()
		logger.Info("Server shutdown initiated")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.WithField("error", err.Error()).Error("Error during server shutdown")
		}
	}()

	err = httpServer.Serve(listener)
	s.setStopped()

	// http.ErrServerClosed is expected when shutting down gracefully
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shut down gracefully")
		return err
	}
	if err != nil {
		logger.WithField("error", err.Error()).Error("Server error")
	}
	return err
}

func (s *Server) setStopped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.listener = nil
}

// Address returns the actual address the server is listening on.
// Returns empty string if the server is not running.
func (s *Server) Address() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}
