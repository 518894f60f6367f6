// Package nonce issues and checks the short-lived tokens the search page
// sends with every query.
//
// Tokens may be reused until they expire, so a page can run several
// searches with the token it was rendered with.
package nonce

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// DefaultTTL is how long an issued token stays valid
const DefaultTTL = 12 * time.Hour

// Store keeps issued tokens in memory until they expire
type Store struct {
	tokens *cache.Cache
	ttl    time.Duration
}

// NewStore creates a Store whose tokens live for ttl
func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		tokens: cache.New(ttl, ttl/4),
		ttl:    ttl,
	}
}

// Issue returns a new token
func (s *Store) Issue() string {
	token := uuid.NewString()
	s.tokens.Set(token, time.Now().Add(s.ttl), cache.DefaultExpiration)
	return token
}

// Verify reports whether token was issued by this store and has not expired
func (s *Store) Verify(token string) bool {
	if token == "" {
		return false
	}
	_, ok := s.tokens.Get(token)
	return ok
}

// TTL returns the lifetime of issued tokens
func (s *Store) TTL() time.Duration {
	return s.ttl
}

// Len returns the number of live tokens
func (s *Store) Len() int {
	return s.tokens.ItemCount()
}
