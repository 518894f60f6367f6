package orchestrator

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Backland-Labs/travelbuddy/internal/assistant"
	"github.com/Backland-Labs/travelbuddy/internal/tools"
)

func TestPoll_TimeoutAfterExactlyMaxAttempts(t *testing.T) {
	for _, attempts := range []int{1, 3, 7} {
		f := newFakeClient()
		f.runs = []*assistant.Run{status(assistant.StatusInProgress)}

		_, err := newTestOrchestrator(f, WithMaxAttempts(attempts)).Poll(context.Background(), testCreds, "t1", "r1")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrPollTimeout)
		assert.Equal(t, attempts, f.getRuns)
	}
}

func TestPoll_QueuedAndRunningKeepPolling(t *testing.T) {
	f := newFakeClient()
	f.runs = []*assistant.Run{
		status(assistant.StatusQueued),
		status(assistant.StatusRunning),
		status(assistant.StatusInProgress),
		status(assistant.StatusCompleted),
	}
	f.messages = []assistant.Message{textMessage("m1", 1, `{"ok":true}`)}

	result, err := newTestOrchestrator(f).Poll(context.Background(), testCreds, "t1", "r1")
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"ok": true}, result)
	assert.Equal(t, 4, f.getRuns)
}

func TestPoll_BudgetSharedAcrossToolRounds(t *testing.T) {
	f := newFakeClient()
	f.runs = []*assistant.Run{
		status(assistant.StatusInProgress),
		requiresAction(functionCall("c1", tools.ParseStorageUnit)),
		status(assistant.StatusInProgress),
		requiresAction(functionCall("c2", tools.ParseVacationRental)),
		status(assistant.StatusInProgress),
	}

	_, err := newTestOrchestrator(f, WithMaxAttempts(4)).Poll(context.Background(), testCreds, "t1", "r1")
	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.Equal(t, 4, f.getRuns, "tool rounds must not reset the attempt budget")
	assert.Len(t, f.submitted, 2)
}

func TestPoll_StatusCheckErrors(t *testing.T) {
	t.Run("transport error", func(t *testing.T) {
		f := newFakeClient()
		f.getRunErr = errors.New("EOF")

		_, err := newTestOrchestrator(f).Poll(context.Background(), testCreds, "t1", "r1")
		assert.ErrorIs(t, err, ErrStatusCheckFailed)
	})

	t.Run("remote error object", func(t *testing.T) {
		f := newFakeClient()
		f.getRunErr = &assistant.RemoteError{StatusCode: http.StatusBadRequest, Message: "No run found with id 'r1'."}

		_, err := newTestOrchestrator(f).Poll(context.Background(), testCreds, "t1", "r1")
		require.ErrorIs(t, err, ErrRemoteRunError)
		var e *Error
		require.ErrorAs(t, err, &e)
		assert.Equal(t, "No run found with id 'r1'.", e.Message)
	})

	t.Run("cancelled status", func(t *testing.T) {
		f := newFakeClient()
		f.runs = []*assistant.Run{status(assistant.StatusCancelled)}

		_, err := newTestOrchestrator(f).Poll(context.Background(), testCreds, "t1", "r1")
		assert.ErrorIs(t, err, ErrRunFailedOrCancelled)
	})
}

func TestPoll_ContextCancellation(t *testing.T) {
	f := newFakeClient()
	f.runs = []*assistant.Run{status(assistant.StatusInProgress)}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := newTestOrchestrator(f, WithPollDelay(time.Hour)).Poll(ctx, testCreds, "t1", "r1")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCancelled)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, IsCancelled(err))
	assert.Less(t, time.Since(start), 10*time.Second)
	assert.Zero(t, f.getRuns)
}

func TestToolCalls_RoundTrip(t *testing.T) {
	f := newFakeClient()
	f.runs = []*assistant.Run{
		requiresAction(
			functionCall("call_a", tools.ParseApartmentRental),
			functionCall("call_b", "unknown_function"),
			assistant.ToolCall{ID: "call_c", Type: "code_interpreter"},
			functionCall("call_d", tools.ParseStorageUnit),
		),
		status(assistant.StatusCompleted),
	}
	f.messages = []assistant.Message{textMessage("m1", 1, `{}`)}

	_, err := newTestOrchestrator(f).Poll(context.Background(), testCreds, "t1", "r1")
	require.NoError(t, err)

	require.Len(t, f.submitted, 1)
	outputs := f.submitted[0]
	require.Len(t, outputs, 3, "only function calls are answered")
	assert.Equal(t, "call_a", outputs[0].ToolCallID)
	assert.Equal(t, "call_b", outputs[1].ToolCallID)
	assert.JSONEq(t, `{"success":true}`, outputs[1].Output)
	assert.Equal(t, "call_d", outputs[2].ToolCallID)
}

func TestToolCalls_CustomRegistry(t *testing.T) {
	registry := tools.NewRegistry()
	registry.Register("lookup_weather", tools.Static(map[string]string{"forecast": "sunny"}))

	f := newFakeClient()
	f.runs = []*assistant.Run{requiresAction(functionCall("c1", "lookup_weather")), status(assistant.StatusCompleted)}
	f.messages = []assistant.Message{textMessage("m1", 1, `{}`)}

	_, err := newTestOrchestrator(f, WithTools(registry)).Poll(context.Background(), testCreds, "t1", "r1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"forecast":"sunny"}`, f.submitted[0][0].Output)
}

func TestToolCalls_UnhandledAction(t *testing.T) {
	f := newFakeClient()
	f.runs = []*assistant.Run{{
		ID:             "r1",
		Status:         assistant.StatusRequiresAction,
		RequiredAction: &assistant.RequiredAction{Type: "approve_payment"},
	}}

	_, err := newTestOrchestrator(f).Poll(context.Background(), testCreds, "t1", "r1")
	assert.ErrorIs(t, err, ErrUnhandledAction)
	assert.Empty(t, f.submitted)
}

func TestToolCalls_SubmissionFailure(t *testing.T) {
	f := newFakeClient()
	f.runs = []*assistant.Run{requiresAction(functionCall("c1", tools.ParseApartmentRental))}
	f.submitErr = errors.New("broken pipe")

	_, err := newTestOrchestrator(f).Poll(context.Background(), testCreds, "t1", "r1")
	assert.ErrorIs(t, err, ErrToolOutputSubmissionFailed)
	assert.Equal(t, 1, f.getRuns)
}
