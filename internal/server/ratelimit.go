package server

import (
	"net/http"

	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"

	"github.com/Backland-Labs/travelbuddy/internal/logger"
	"github.com/Backland-Labs/travelbuddy/internal/metrics"
)

// Envelope messages for rejected requests
const (
	MsgRateLimited      = "Too many searches. Please wait a moment and try again."
	MsgNonceRateLimited = "Too many page loads. Please wait a moment and try again."
)

// rateLimitMiddleware caps requests per client IP with l and answers rejected
// requests with the usual envelope carrying msg
func (s *Server) rateLimitMiddleware(l *limiter.Limiter, msg string) func(http.Handler) http.Handler {
	mw := stdlib.NewMiddleware(l,
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.RecordRateLimited(r.URL.Path)
			logger.WithFields(map[string]interface{}{
				"client_ip": l.GetIP(r).String(),
				"path":      r.URL.Path,
			}).Warn("Rate limit reached")
			s.respondEnvelope(w, http.StatusTooManyRequests, false, msg)
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			logger.WithField("error", err.Error()).Error("Rate limiter failed")
			s.respondEnvelope(w, http.StatusInternalServerError, false, "Internal server error")
		}),
	)
	return mw.Handler
}
