package server

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"time"

	"github.com/go-playground/form"

	"github.com/Backland-Labs/travelbuddy/internal/logger"
	"github.com/Backland-Labs/travelbuddy/internal/search"
)

const (
	contentTypeJSON = "application/json"

	// maxBodyBytes bounds the search request body
	maxBodyBytes = 64 << 10
)

// MsgInvalidBody is returned when the search request cannot be decoded
const MsgInvalidBody = "Invalid request body."

var formDecoder = form.NewDecoder()

// healthHandler reports liveness
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":      "healthy",
		"service":     "travelbuddy",
		"uptime":      s.uptime().Round(time.Second).String(),
		"timestamp":   time.Now().Format(time.RFC3339),
		"live_nonces": s.tokens.Len(),
	})
}

// nonceHandler issues a token the search page sends back with each query
func (s *Server) nonceHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"nonce":      s.tokens.Issue(),
		"expires_in": int(s.tokens.TTL().Seconds()),
	})
}

// searchHandler accepts a query as JSON or as form fields and answers with
// the {success, data} envelope
func (s *Server) searchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.respondWithError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, err := decodeSearchRequest(w, r)
	if err != nil {
		logger.WithField("error", err.Error()).Debug("Failed to decode search request")
		s.respondEnvelope(w, http.StatusBadRequest, false, MsgInvalidBody)
		return
	}

	resp := s.searcher.Handle(r.Context(), req)

	status := http.StatusOK
	if errors.Is(resp.Err, search.ErrInvalidToken) {
		status = http.StatusForbidden
	}
	s.respondJSON(w, status, resp)
}

func decodeSearchRequest(w http.ResponseWriter, r *http.Request) (search.Request, error) {
	var req search.Request
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == contentTypeJSON {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, err
		}
		return req, nil
	}

	if err := r.ParseForm(); err != nil {
		return req, err
	}
	if err := formDecoder.Decode(&req, r.PostForm); err != nil {
		return req, err
	}
	return req, nil
}

// respondEnvelope writes a {success, data} body
func (s *Server) respondEnvelope(w http.ResponseWriter, statusCode int, success bool, data any) {
	s.respondJSON(w, statusCode, search.Response{Success: success, Data: data})
}

// respondJSON writes v as JSON with the given status code
func (s *Server) respondJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Errorf("Failed to encode response: %v", err)
	}
}

// respondWithError sends a JSON error response with the specified status code
func (s *Server) respondWithError(w http.ResponseWriter, statusCode int, message string) {
	logger.WithFields(map[string]interface{}{
		"status_code":   statusCode,
		"error_message": message,
	}).Debug("Sending error response")

	s.respondJSON(w, statusCode, map[string]string{"error": message})
}
