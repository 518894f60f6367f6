// Package tools produces outputs for the function calls an assistant run
// asks the caller to execute.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Handler produces the output for one function call. The returned value is
// encoded as JSON before it is submitted.
type Handler func(ctx context.Context, arguments json.RawMessage) (any, error)

// FallbackOutput answers function names that have no registered handler
var FallbackOutput = map[string]any{"success": true}

// Registry maps function names to handlers
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register binds name to handler, replacing any earlier binding
func (r *Registry) Register(name string, handler Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[name] = handler
}

// Lookup returns the handler registered for name
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered function names in sorted order
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Output runs the handler for name and returns its JSON-encoded result.
// It never fails: unknown names get FallbackOutput and handler errors are
// reported inside the payload so the run can continue.
func (r *Registry) Output(ctx context.Context, name string, arguments json.RawMessage) string {
	handler, ok := r.Lookup(name)
	if !ok {
		return mustEncode(FallbackOutput)
	}

	value, err := handler(ctx, arguments)
	if err != nil {
		return mustEncode(map[string]any{"success": false, "error": err.Error()})
	}

	data, err := json.Marshal(value)
	if err != nil {
		return mustEncode(map[string]any{"success": false, "error": fmt.Sprintf("encode output: %v", err)})
	}
	return string(data)
}

func mustEncode(v map[string]any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
