package assistant

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   map[string]any
}

type fakeAPI struct {
	mu       sync.Mutex
	requests []recordedRequest
	routes   map[string]func(w http.ResponseWriter)
}

func newFakeAPI(t *testing.T) (*fakeAPI, *OpenAIClient) {
	t.Helper()
	api := &fakeAPI{routes: map[string]func(w http.ResponseWriter){}}
	srv := httptest.NewServer(http.HandlerFunc(api.serve))
	t.Cleanup(srv.Close)
	return api, NewOpenAIClient("sk-test", Options{BaseURL: srv.URL + "/v1/"})
}

func (f *fakeAPI) handle(method, path string, status int, body string) {
	f.routes[method+" "+path] = func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func (f *fakeAPI) serve(w http.ResponseWriter, r *http.Request) {
	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Header: r.Header.Clone()}
	if data, _ := io.ReadAll(r.Body); len(data) > 0 {
		_ = json.Unmarshal(data, &rec.Body)
	}
	f.mu.Lock()
	f.requests = append(f.requests, rec)
	route, ok := f.routes[r.Method+" "+r.URL.Path]
	f.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"message":"no route","type":"invalid_request_error"}}`)
		return
	}
	route(w)
}

func (f *fakeAPI) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func TestOpenAIClient_GetAssistant(t *testing.T) {
	api, client := newFakeAPI(t)
	api.handle(http.MethodGet, "/v1/assistants/asst_1", http.StatusOK, `{"id":"asst_1","object":"assistant"}`)

	a, err := client.GetAssistant(context.Background(), "asst_1")
	require.NoError(t, err)
	assert.Equal(t, "asst_1", a.ID)

	req := api.last()
	assert.Equal(t, "Bearer sk-test", req.Header.Get("Authorization"))
	assert.Equal(t, "assistants=v2", req.Header.Get("OpenAI-Beta"))
}

func TestOpenAIClient_RemoteError(t *testing.T) {
	api, client := newFakeAPI(t)
	api.handle(http.MethodGet, "/v1/threads/t1/runs/r1", http.StatusBadRequest,
		`{"error":{"message":"No run found with id 'r1'.","type":"invalid_request_error","code":"not_found"}}`)

	_, err := client.GetRun(context.Background(), "t1", "r1")
	require.Error(t, err)

	remote, ok := AsRemoteError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, remote.StatusCode)
	assert.Equal(t, "No run found with id 'r1'.", remote.Message)
	assert.Equal(t, "not_found", remote.Code)
}

func TestOpenAIClient_TransportError(t *testing.T) {
	client := NewOpenAIClient("sk-test", Options{BaseURL: "http://127.0.0.1:1/v1/"})

	_, err := client.CreateThread(context.Background())
	require.Error(t, err)

	_, isRemote := AsRemoteError(err)
	assert.False(t, isRemote)
}

func TestOpenAIClient_ThreadMessageAndRun(t *testing.T) {
	api, client := newFakeAPI(t)
	api.handle(http.MethodPost, "/v1/threads", http.StatusOK, `{"id":"t1","object":"thread"}`)
	api.handle(http.MethodPost, "/v1/threads/t1/messages", http.StatusOK, `{"id":"m1","object":"thread.message"}`)
	api.handle(http.MethodPost, "/v1/threads/t1/runs", http.StatusOK, `{"id":"r1","object":"thread.run","status":"queued"}`)

	ctx := context.Background()

	threadID, err := client.CreateThread(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", threadID)

	require.NoError(t, client.PostMessage(ctx, "t1", "2BR apartment in SF"))
	msg := api.last()
	assert.Equal(t, "user", msg.Body["role"])
	assert.Equal(t, "2BR apartment in SF", msg.Body["content"])

	run, err := client.StartRun(ctx, "t1", "asst_1")
	require.NoError(t, err)
	assert.Equal(t, "r1", run.ID)
	assert.Equal(t, StatusQueued, run.Status)
	assert.True(t, run.Status.IsActive())
	assert.Nil(t, run.RequiredAction)
	assert.Equal(t, "asst_1", api.last().Body["assistant_id"])
}

func TestOpenAIClient_RequiredAction(t *testing.T) {
	api, client := newFakeAPI(t)
	api.handle(http.MethodGet, "/v1/threads/t1/runs/r1", http.StatusOK, `{
		"id": "r1",
		"status": "requires_action",
		"required_action": {
			"type": "submit_tool_outputs",
			"submit_tool_outputs": {
				"tool_calls": [
					{"id": "call_a", "type": "function", "function": {"name": "parse_apartment_rental", "arguments": "{\"bedrooms\":2}"}},
					{"id": "call_b", "type": "code_interpreter"}
				]
			}
		}
	}`)

	run, err := client.GetRun(context.Background(), "t1", "r1")
	require.NoError(t, err)
	require.NotNil(t, run.RequiredAction)
	assert.Equal(t, ActionSubmitToolOutputs, run.RequiredAction.Type)
	require.Len(t, run.RequiredAction.ToolCalls, 2)

	first := run.RequiredAction.ToolCalls[0]
	assert.Equal(t, "call_a", first.ID)
	assert.Equal(t, ToolTypeFunction, first.Type)
	assert.Equal(t, "parse_apartment_rental", first.FunctionName)
	assert.JSONEq(t, `{"bedrooms":2}`, string(first.Arguments))

	assert.Equal(t, "code_interpreter", run.RequiredAction.ToolCalls[1].Type)
}

func TestOpenAIClient_FailedRunCarriesLastError(t *testing.T) {
	api, client := newFakeAPI(t)
	api.handle(http.MethodGet, "/v1/threads/t1/runs/r1", http.StatusOK,
		`{"id":"r1","status":"failed","last_error":{"code":"server_error","message":"boom"}}`)

	run, err := client.GetRun(context.Background(), "t1", "r1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, run.Status)
	require.NotNil(t, run.LastError)
	assert.Equal(t, "boom", run.LastError.Message)
}

func TestOpenAIClient_SubmitToolOutputs(t *testing.T) {
	api, client := newFakeAPI(t)
	api.handle(http.MethodPost, "/v1/threads/t1/runs/r1/submit_tool_outputs", http.StatusOK,
		`{"id":"r1","status":"queued"}`)

	_, err := client.SubmitToolOutputs(context.Background(), "t1", "r1", []ToolOutput{
		{ToolCallID: "call_a", Output: `{"success":true}`},
		{ToolCallID: "call_b", Output: `{"size":"10x10"}`},
	})
	require.NoError(t, err)

	outputs, ok := api.last().Body["tool_outputs"].([]any)
	require.True(t, ok)
	require.Len(t, outputs, 2)
	assert.Equal(t, map[string]any{"tool_call_id": "call_a", "output": `{"success":true}`}, outputs[0])
	assert.Equal(t, map[string]any{"tool_call_id": "call_b", "output": `{"size":"10x10"}`}, outputs[1])
}

func TestOpenAIClient_ListMessages(t *testing.T) {
	api, client := newFakeAPI(t)
	api.handle(http.MethodGet, "/v1/threads/t1/messages", http.StatusOK, `{
		"object": "list",
		"data": [
			{"id": "m2", "role": "assistant", "created_at": 20, "content": [
				{"type": "image_file", "image_file": {"file_id": "f1"}},
				{"type": "text", "text": {"value": "{\"ok\":true}", "annotations": []}}
			]},
			{"id": "m1", "role": "user", "created_at": 10, "content": [
				{"type": "text", "text": {"value": "hello", "annotations": []}}
			]}
		],
		"has_more": false
	}`)

	messages, err := client.ListMessages(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Contains(t, api.last().Query, "order=desc")

	assert.Equal(t, "m2", messages[0].ID)
	assert.Equal(t, int64(20), messages[0].CreatedAt)
	text, ok := messages[0].FirstText()
	require.True(t, ok)
	assert.Equal(t, `{"ok":true}`, text)
}
