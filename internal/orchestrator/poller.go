package orchestrator

import (
	"context"
	"time"

	"github.com/samber/lo"

	"github.com/Backland-Labs/travelbuddy/internal/assistant"
	"github.com/Backland-Labs/travelbuddy/internal/metrics"
)

// pollBudget counts status checks for one run, across tool-output rounds
type pollBudget struct {
	max  int
	used int
}

func (s *session) newBudget() *pollBudget {
	return &pollBudget{max: s.maxAttempts}
}

func (b *pollBudget) exhausted() bool {
	return b.used >= b.max
}

func (s *session) poll(ctx context.Context, threadID, runID string, budget *pollBudget) (any, error) {
	log := s.log.WithFields(map[string]interface{}{
		"thread_id": threadID,
		"run_id":    runID,
	})

	for !budget.exhausted() {
		if err := sleep(ctx, s.delay); err != nil {
			log.Debug("Polling interrupted by context cancellation")
			return nil, newError(KindCancelled, err)
		}
		budget.used++

		run, err := s.client.GetRun(ctx, threadID, runID)
		if err != nil {
			if cerr := cancelled(ctx); cerr != nil {
				return nil, cerr
			}
			if remote, ok := assistant.AsRemoteError(err); ok {
				log.WithError(err).Warn("Run status check returned an error")
				return nil, &Error{Kind: KindRemoteRunError, Message: remote.Message, Err: err}
			}
			log.WithError(err).Error("Run status check failed")
			return nil, newError(KindStatusCheckFailed, err)
		}

		metrics.RecordStatusCheck(string(run.Status))
		log.WithFields(map[string]interface{}{
			"attempt": budget.used,
			"status":  string(run.Status),
		}).Debug("Run status checked")

		switch run.Status {
		case assistant.StatusCompleted:
			return s.extractTranscript(ctx, threadID)
		case assistant.StatusFailed, assistant.StatusCancelled:
			return nil, runFailed(run)
		case assistant.StatusRequiresAction:
			return s.submitToolOutputs(ctx, threadID, run, budget)
		}
	}

	log.WithField("attempts", budget.used).Warn("Run did not finish within the attempt budget")
	return nil, newErrorf(KindPollTimeout, "no terminal status after %d checks", budget.used)
}

// submitToolOutputs answers every function call in the run's required
// action and resumes polling with what is left of budget.
func (s *session) submitToolOutputs(ctx context.Context, threadID string, run *assistant.Run, budget *pollBudget) (any, error) {
	action := run.RequiredAction
	if action == nil || action.Type != assistant.ActionSubmitToolOutputs {
		actionType := ""
		if action != nil {
			actionType = action.Type
		}
		return nil, newErrorf(KindUnhandledAction, "required action %q", actionType)
	}

	calls := lo.Filter(action.ToolCalls, func(c assistant.ToolCall, _ int) bool {
		return c.Type == assistant.ToolTypeFunction
	})
	outputs := lo.Map(calls, func(c assistant.ToolCall, _ int) assistant.ToolOutput {
		_, handled := s.tools.Lookup(c.FunctionName)
		metrics.RecordToolCall(c.FunctionName, handled)
		return assistant.ToolOutput{
			ToolCallID: c.ID,
			Output:     s.tools.Output(ctx, c.FunctionName, c.Arguments),
		}
	})

	s.log.WithFields(map[string]interface{}{
		"thread_id": threadID,
		"run_id":    run.ID,
		"functions": lo.Map(calls, func(c assistant.ToolCall, _ int) string { return c.FunctionName }),
	}).Debug("Submitting tool outputs")

	if _, err := s.client.SubmitToolOutputs(ctx, threadID, run.ID, outputs); err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return nil, cerr
		}
		s.log.WithError(err).Error("Failed to submit tool outputs")
		return nil, newError(KindToolOutputSubmissionFailed, err)
	}

	return s.poll(ctx, threadID, run.ID, budget)
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
