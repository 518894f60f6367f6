package orchestrator

import (
	"context"
	"sync"

	"github.com/Backland-Labs/travelbuddy/internal/assistant"
)

// fakeClient is a scripted in-memory assistant.Client
type fakeClient struct {
	mu    sync.Mutex
	calls []string

	assistantID  string
	assistantErr error

	threadID  string
	threadErr error

	postErr  error
	posted   []string
	startRun *assistant.Run
	startErr error

	// runs are returned by successive GetRun calls; the last one repeats
	runs      []*assistant.Run
	getRunErr error
	getRuns   int

	submitErr error
	submitted [][]assistant.ToolOutput

	messages []assistant.Message
	listErr  error
}

var _ assistant.Client = (*fakeClient)(nil)

func newFakeClient() *fakeClient {
	return &fakeClient{
		assistantID: "asst_1",
		threadID:    "t1",
		startRun:    &assistant.Run{ID: "r1", Status: assistant.StatusQueued},
	}
}

func (f *fakeClient) factory() assistant.Factory {
	return assistant.FactoryFunc(func(string) assistant.Client { return f })
}

func (f *fakeClient) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeClient) GetAssistant(ctx context.Context, assistantID string) (*assistant.Assistant, error) {
	f.record("GetAssistant")
	if f.assistantErr != nil {
		return nil, f.assistantErr
	}
	return &assistant.Assistant{ID: f.assistantID}, nil
}

func (f *fakeClient) CreateThread(ctx context.Context) (string, error) {
	f.record("CreateThread")
	return f.threadID, f.threadErr
}

func (f *fakeClient) PostMessage(ctx context.Context, threadID, content string) error {
	f.record("PostMessage")
	f.mu.Lock()
	f.posted = append(f.posted, content)
	f.mu.Unlock()
	return f.postErr
}

func (f *fakeClient) StartRun(ctx context.Context, threadID, assistantID string) (*assistant.Run, error) {
	f.record("StartRun")
	if f.startErr != nil {
		return nil, f.startErr
	}
	return f.startRun, nil
}

func (f *fakeClient) GetRun(ctx context.Context, threadID, runID string) (*assistant.Run, error) {
	f.record("GetRun")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getRunErr != nil {
		return nil, f.getRunErr
	}
	idx := f.getRuns
	if idx >= len(f.runs) {
		idx = len(f.runs) - 1
	}
	f.getRuns++
	return f.runs[idx], nil
}

func (f *fakeClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []assistant.ToolOutput) (*assistant.Run, error) {
	f.record("SubmitToolOutputs")
	f.mu.Lock()
	f.submitted = append(f.submitted, outputs)
	f.mu.Unlock()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return &assistant.Run{ID: runID, Status: assistant.StatusQueued}, nil
}

func (f *fakeClient) ListMessages(ctx context.Context, threadID string) ([]assistant.Message, error) {
	f.record("ListMessages")
	return f.messages, f.listErr
}

func textMessage(id string, createdAt int64, text string) assistant.Message {
	return assistant.Message{
		ID:        id,
		Role:      "assistant",
		CreatedAt: createdAt,
		Content:   []assistant.ContentPart{{Type: assistant.ContentTypeText, Text: text}},
	}
}

func status(s assistant.RunStatus) *assistant.Run {
	return &assistant.Run{ID: "r1", Status: s}
}

func requiresAction(calls ...assistant.ToolCall) *assistant.Run {
	return &assistant.Run{
		ID:     "r1",
		Status: assistant.StatusRequiresAction,
		RequiredAction: &assistant.RequiredAction{
			Type:      assistant.ActionSubmitToolOutputs,
			ToolCalls: calls,
		},
	}
}

func functionCall(id, name string) assistant.ToolCall {
	return assistant.ToolCall{ID: id, Type: assistant.ToolTypeFunction, FunctionName: name, Arguments: []byte(`{}`)}
}
