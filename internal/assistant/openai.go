package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/samber/lo"
	"github.com/tidwall/gjson"
)

// Options configures the OpenAI-backed client
type Options struct {
	// BaseURL overrides the API endpoint; empty keeps the SDK default
	BaseURL string
	// HTTPClient replaces the SDK's default HTTP client
	HTTPClient *http.Client
}

// OpenAIClient implements Client with the openai-go SDK
type OpenAIClient struct {
	client openai.Client
}

// NewOpenAIClient creates a client authenticated with apiKey.
// SDK retries are disabled; the run poller is the only retry loop.
func NewOpenAIClient(apiKey string, opts Options) *OpenAIClient {
	reqOpts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		reqOpts = append(reqOpts, option.WithHTTPClient(opts.HTTPClient))
	}
	return &OpenAIClient{client: openai.NewClient(reqOpts...)}
}

// GetAssistant fetches the assistant definition
func (c *OpenAIClient) GetAssistant(ctx context.Context, assistantID string) (*Assistant, error) {
	a, err := c.client.Beta.Assistants.Get(ctx, assistantID)
	if err != nil {
		return nil, translateError("get assistant", err)
	}
	return &Assistant{ID: a.ID}, nil
}

// CreateThread creates an empty thread and returns its ID
func (c *OpenAIClient) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		return "", translateError("create thread", err)
	}
	return thread.ID, nil
}

// PostMessage appends a user message to the thread
func (c *OpenAIClient) PostMessage(ctx context.Context, threadID, content string) error {
	_, err := c.client.Beta.Threads.Messages.New(ctx, threadID, openai.BetaThreadMessageNewParams{
		Role: openai.BetaThreadMessageNewParamsRoleUser,
		Content: openai.BetaThreadMessageNewParamsContentUnion{
			OfString: openai.String(content),
		},
	})
	if err != nil {
		return translateError("post message", err)
	}
	return nil
}

// StartRun starts the assistant over the thread
func (c *OpenAIClient) StartRun(ctx context.Context, threadID, assistantID string) (*Run, error) {
	run, err := c.client.Beta.Threads.Runs.New(ctx, threadID, openai.BetaThreadRunNewParams{
		AssistantID: assistantID,
	})
	if err != nil {
		return nil, translateError("start run", err)
	}
	return convertRun(threadID, run), nil
}

// GetRun fetches the current state of a run
func (c *OpenAIClient) GetRun(ctx context.Context, threadID, runID string) (*Run, error) {
	run, err := c.client.Beta.Threads.Runs.Get(ctx, threadID, runID)
	if err != nil {
		return nil, translateError("get run", err)
	}
	return convertRun(threadID, run), nil
}

// SubmitToolOutputs answers the run's pending tool calls in one request
func (c *OpenAIClient) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []ToolOutput) (*Run, error) {
	params := openai.BetaThreadRunSubmitToolOutputsParams{
		ToolOutputs: lo.Map(outputs, func(o ToolOutput, _ int) openai.BetaThreadRunSubmitToolOutputsParamsToolOutput {
			return openai.BetaThreadRunSubmitToolOutputsParamsToolOutput{
				ToolCallID: openai.String(o.ToolCallID),
				Output:     openai.String(o.Output),
			}
		}),
	}
	run, err := c.client.Beta.Threads.Runs.SubmitToolOutputs(ctx, threadID, runID, params)
	if err != nil {
		return nil, translateError("submit tool outputs", err)
	}
	return convertRun(threadID, run), nil
}

// ListMessages returns the thread's messages, newest first as requested from the API
func (c *OpenAIClient) ListMessages(ctx context.Context, threadID string) ([]Message, error) {
	page, err := c.client.Beta.Threads.Messages.List(ctx, threadID, openai.BetaThreadMessageListParams{
		Order: openai.BetaThreadMessageListParamsOrderDesc,
	})
	if err != nil {
		return nil, translateError("list messages", err)
	}
	if page == nil || page.Data == nil {
		return nil, nil
	}

	return lo.Map(page.Data, func(m openai.Message, _ int) Message {
		return Message{
			ID:        m.ID,
			Role:      string(m.Role),
			CreatedAt: m.CreatedAt,
			Content: lo.Map(m.Content, func(part openai.MessageContentUnion, _ int) ContentPart {
				return ContentPart{Type: part.Type, Text: part.Text.Value}
			}),
		}
	}), nil
}

// convertRun maps the SDK run onto the domain type. The required action is
// read from the raw payload so tool call types other than "function" survive.
func convertRun(threadID string, r *openai.Run) *Run {
	run := &Run{
		ID:       r.ID,
		ThreadID: threadID,
		Status:   RunStatus(r.Status),
	}

	raw := r.RawJSON()
	if action := gjson.Get(raw, "required_action"); action.IsObject() {
		required := &RequiredAction{Type: action.Get("type").String()}
		action.Get("submit_tool_outputs.tool_calls").ForEach(func(_, call gjson.Result) bool {
			required.ToolCalls = append(required.ToolCalls, ToolCall{
				ID:           call.Get("id").String(),
				Type:         call.Get("type").String(),
				FunctionName: call.Get("function.name").String(),
				Arguments:    json.RawMessage(call.Get("function.arguments").String()),
			})
			return true
		})
		run.RequiredAction = required
	}

	if lastErr := gjson.Get(raw, "last_error"); lastErr.IsObject() {
		run.LastError = &RunError{
			Code:    lastErr.Get("code").String(),
			Message: lastErr.Get("message").String(),
		}
	}
	return run
}

func translateError(op string, err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", op, &RemoteError{
			StatusCode: apiErr.StatusCode,
			Type:       apiErr.Type,
			Code:       apiErr.Code,
			Message:    apiErr.Message,
		})
	}
	return fmt.Errorf("%s: %w", op, err)
}
