// Package orchestrator drives one search query through the remote assistant:
// resolve the assistant, open a thread, post the query, start a run, poll it
// to a terminal state while answering tool calls, and decode the answer from
// the transcript.
//
// Every failure is returned as a tagged *Error. Turning a Kind into a
// user-facing sentence is left to the caller.
package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Backland-Labs/travelbuddy/internal/assistant"
	"github.com/Backland-Labs/travelbuddy/internal/logger"
	"github.com/Backland-Labs/travelbuddy/internal/tools"
)

const (
	// DefaultPollDelay is the wait before each run status check
	DefaultPollDelay = 5 * time.Second
	// DefaultMaxAttempts is the number of status checks allowed per run
	DefaultMaxAttempts = 20
)

// Credentials identify the caller to the remote API. They are passed in
// with every call and never stored.
type Credentials struct {
	APIKey      string
	AssistantID string
}

// Validate reports a missing credential as a KindConfigMissing error
func (c Credentials) Validate() error {
	if c.APIKey == "" {
		return newErrorf(KindConfigMissing, "API key is not configured")
	}
	if c.AssistantID == "" {
		return newErrorf(KindConfigMissing, "Assistant ID is not configured")
	}
	return nil
}

// Orchestrator runs search queries against the assistant API
type Orchestrator struct {
	clients     assistant.Factory
	tools       *tools.Registry
	delay       time.Duration
	maxAttempts int
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithPollDelay sets the wait before each status check
func WithPollDelay(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.delay = d
		}
	}
}

// WithMaxAttempts sets the number of status checks allowed per run
func WithMaxAttempts(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// WithTools replaces the default tool registry
func WithTools(r *tools.Registry) Option {
	return func(o *Orchestrator) {
		if r != nil {
			o.tools = r
		}
	}
}

// New creates an Orchestrator that builds per-key clients from clients
func New(clients assistant.Factory, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		clients:     clients,
		tools:       tools.DefaultRegistry(),
		delay:       DefaultPollDelay,
		maxAttempts: DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// PollCeiling is the longest the poller can spend waiting on one run
func (o *Orchestrator) PollCeiling() time.Duration {
	return o.delay * time.Duration(o.maxAttempts)
}

// Run executes the full pipeline for query and returns the decoded answer.
// The answer is either a JSON value or the NoTextContent sentinel.
func (o *Orchestrator) Run(ctx context.Context, creds Credentials, query string) (any, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	s := o.session(creds)
	timer := s.log.Timed("search")

	result, err := s.run(ctx, query)
	timer.DoneWithError(err)
	return result, err
}

// ResolveAssistant checks that the configured assistant exists
func (o *Orchestrator) ResolveAssistant(ctx context.Context, creds Credentials) error {
	if err := creds.Validate(); err != nil {
		return err
	}
	return o.session(creds).resolveAssistant(ctx)
}

// CreateThread opens a new thread and returns its ID
func (o *Orchestrator) CreateThread(ctx context.Context, creds Credentials) (string, error) {
	if err := creds.Validate(); err != nil {
		return "", err
	}
	return o.session(creds).createThread(ctx)
}

// StartRun posts query to the thread, starts a run and follows it to a result
func (o *Orchestrator) StartRun(ctx context.Context, creds Credentials, threadID, query string) (any, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return o.session(creds).startRun(ctx, threadID, query)
}

// Poll follows an existing run to a result with a fresh attempt budget
func (o *Orchestrator) Poll(ctx context.Context, creds Credentials, threadID, runID string) (any, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	s := o.session(creds)
	return s.poll(ctx, threadID, runID, s.newBudget())
}

// ExtractTranscript decodes the newest message of the thread
func (o *Orchestrator) ExtractTranscript(ctx context.Context, creds Credentials, threadID string) (any, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}
	return o.session(creds).extractTranscript(ctx, threadID)
}

// session binds one query's credentials to a client
type session struct {
	*Orchestrator
	creds  Credentials
	client assistant.Client
	log    *logger.Logger
}

func (o *Orchestrator) session(creds Credentials) *session {
	return &session{
		Orchestrator: o,
		creds:        creds,
		client:       o.clients.ForKey(creds.APIKey),
		log:          logger.WithField("assistant_id", creds.AssistantID),
	}
}

func (s *session) run(ctx context.Context, query string) (any, error) {
	if err := s.resolveAssistant(ctx); err != nil {
		return nil, err
	}

	threadID, err := s.createThread(ctx)
	if err != nil {
		return nil, err
	}

	return s.startRun(ctx, threadID, query)
}

func (s *session) resolveAssistant(ctx context.Context) error {
	a, err := s.client.GetAssistant(ctx, s.creds.AssistantID)
	if err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return cerr
		}
		// The API answered, so the lookup itself was rejected. Only a 404
		// is about the ID; keep the remote message for anything else (bad key,
		// quota, server error).
		if remote, ok := assistant.AsRemoteError(err); ok {
			s.log.WithError(err).Warn("Assistant lookup rejected")
			e := newError(KindAssistantNotFound, err)
			if remote.StatusCode != http.StatusNotFound {
				e.Message = remote.Message
			}
			return e
		}
		s.log.WithError(err).Error("Assistant lookup failed")
		return newError(KindRemoteUnavailable, err)
	}
	if a == nil || a.ID == "" {
		return newError(KindAssistantNotFound, nil)
	}
	return nil
}

func (s *session) createThread(ctx context.Context) (string, error) {
	threadID, err := s.client.CreateThread(ctx)
	if err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return "", cerr
		}
		s.log.WithError(err).Error("Failed to create thread")
		return "", newError(KindThreadCreationFailed, err)
	}
	if threadID == "" {
		return "", newErrorf(KindThreadCreationFailed, "response carried no thread ID")
	}
	s.log.WithField("thread_id", threadID).Debug("Thread created")
	return threadID, nil
}

func (s *session) startRun(ctx context.Context, threadID, query string) (any, error) {
	log := s.log.WithField("thread_id", threadID)

	if err := s.client.PostMessage(ctx, threadID, query); err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return nil, cerr
		}
		log.WithError(err).Error("Failed to post message")
		return nil, newError(KindMessagePostFailed, err)
	}

	run, err := s.client.StartRun(ctx, threadID, s.creds.AssistantID)
	if err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return nil, cerr
		}
		log.WithError(err).Error("Failed to start run")
		return nil, newError(KindRunStartFailed, err)
	}

	log.WithFields(map[string]interface{}{
		"run_id": run.ID,
		"status": string(run.Status),
	}).Debug("Run started")

	switch {
	case run.Status.IsActive():
		return s.poll(ctx, threadID, run.ID, s.newBudget())
	case run.Status == assistant.StatusCompleted:
		return s.extractTranscript(ctx, threadID)
	default:
		return nil, runFailed(run)
	}
}

func runFailed(run *assistant.Run) *Error {
	e := &Error{Kind: KindRunFailedOrCancelled}
	if run.LastError != nil {
		e.Message = run.LastError.Message
	} else {
		e.Message = "run ended with status " + string(run.Status)
	}
	return e
}

// cancelled returns a KindCancelled error once ctx is done
func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return newError(KindCancelled, err)
	}
	return nil
}

// IsCancelled reports whether err is a caller cancellation or timeout
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}
