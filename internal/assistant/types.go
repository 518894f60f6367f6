package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// RunStatus is the lifecycle state reported for a run
type RunStatus string

const (
	StatusQueued         RunStatus = "queued"
	StatusInProgress     RunStatus = "in_progress"
	StatusRunning        RunStatus = "running"
	StatusRequiresAction RunStatus = "requires_action"
	StatusCompleted      RunStatus = "completed"
	StatusFailed         RunStatus = "failed"
	StatusCancelled      RunStatus = "cancelled"
)

// IsActive reports whether the run is still being worked on remotely
func (s RunStatus) IsActive() bool {
	return s == StatusQueued || s == StatusInProgress || s == StatusRunning
}

// ActionSubmitToolOutputs is the only required action the pipeline can satisfy
const ActionSubmitToolOutputs = "submit_tool_outputs"

// ToolTypeFunction marks a tool call that names a function
const ToolTypeFunction = "function"

// ContentTypeText marks a textual message content part
const ContentTypeText = "text"

// Assistant is the remote agent definition
type Assistant struct {
	ID string
}

// Run is one execution of the assistant over a thread
type Run struct {
	ID             string
	ThreadID       string
	Status         RunStatus
	RequiredAction *RequiredAction
	LastError      *RunError
}

// RunError is the failure detail the remote attaches to a failed run
type RunError struct {
	Code    string
	Message string
}

// RequiredAction is what the remote needs from the caller before a run can continue
type RequiredAction struct {
	Type      string
	ToolCalls []ToolCall
}

// ToolCall is a request from the assistant to execute a function
type ToolCall struct {
	ID           string
	Type         string
	FunctionName string
	Arguments    json.RawMessage
}

// ToolOutput answers a single tool call
type ToolOutput struct {
	ToolCallID string
	Output     string
}

// Message is one entry in a thread transcript
type Message struct {
	ID        string
	Role      string
	CreatedAt int64
	Content   []ContentPart
}

// ContentPart is one typed piece of message content
type ContentPart struct {
	Type string
	Text string
}

// FirstText returns the first textual content part of the message
func (m Message) FirstText() (string, bool) {
	for _, part := range m.Content {
		if part.Type == ContentTypeText {
			return part.Text, true
		}
	}
	return "", false
}

// Client is the set of remote operations used by the search pipeline
type Client interface {
	GetAssistant(ctx context.Context, assistantID string) (*Assistant, error)
	CreateThread(ctx context.Context) (string, error)
	PostMessage(ctx context.Context, threadID, content string) error
	StartRun(ctx context.Context, threadID, assistantID string) (*Run, error)
	GetRun(ctx context.Context, threadID, runID string) (*Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error)
	ListMessages(ctx context.Context, threadID string) ([]Message, error)
}

// Factory builds a Client bound to one API key
type Factory interface {
	ForKey(apiKey string) Client
}

// FactoryFunc adapts a function to the Factory interface
type FactoryFunc func(apiKey string) Client

// ForKey calls f(apiKey)
func (f FactoryFunc) ForKey(apiKey string) Client {
	return f(apiKey)
}

// RemoteError is an error object returned by the API
type RemoteError struct {
	StatusCode int
	Type       string
	Code       string
	Message    string
}

func (e *RemoteError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("assistant API error %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("assistant API error %d: %s", e.StatusCode, e.Message)
}

// AsRemoteError extracts a *RemoteError from err's chain
func AsRemoteError(err error) (*RemoteError, bool) {
	var remote *RemoteError
	if errors.As(err, &remote) {
		return remote, true
	}
	return nil, false
}
