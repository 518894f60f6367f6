package search

import (
	"errors"

	"github.com/Backland-Labs/travelbuddy/internal/orchestrator"
)

const (
	MsgInvalidToken = "Invalid or expired nonce."
	MsgQueryMissing = "Query is missing."
	MsgUnknown      = "Search failed."
)

var kindMessages = map[orchestrator.Kind]string{
	orchestrator.KindAssistantNotFound:          "Invalid assistant ID.",
	orchestrator.KindRemoteUnavailable:          "Error fetching assistant.",
	orchestrator.KindThreadCreationFailed:       "Failed to create a thread.",
	orchestrator.KindMessagePostFailed:          "Failed to add message.",
	orchestrator.KindRunStartFailed:             "Failed to run thread.",
	orchestrator.KindRunFailedOrCancelled:       "Run failed or was cancelled.",
	orchestrator.KindStatusCheckFailed:          "Failed to check run status.",
	orchestrator.KindPollTimeout:                "Run did not complete in expected time.",
	orchestrator.KindUnhandledAction:            "Unhandled requires_action.",
	orchestrator.KindToolOutputSubmissionFailed: "Failed to submit tool outputs.",
	orchestrator.KindMessageFetchFailed:         "Failed to fetch messages.",
	orchestrator.KindNoMessagesFound:            "No messages found.",
	orchestrator.KindInvalidTranscriptJSON:      "The assistant's reply could not be read.",
	orchestrator.KindCancelled:                  "The search was cancelled before it finished.",
}

// Describe turns a search error into the sentence shown to the user
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidToken):
		return MsgInvalidToken
	case errors.Is(err, ErrQueryMissing):
		return MsgQueryMissing
	}

	var e *orchestrator.Error
	if !errors.As(err, &e) {
		return MsgUnknown
	}

	switch e.Kind {
	case orchestrator.KindAssistantNotFound:
		if e.Message != "" {
			return "Error fetching assistant: " + e.Message
		}
	case orchestrator.KindRemoteRunError:
		return "Error retrieving run status: " + e.Message
	case orchestrator.KindConfigMissing:
		return e.Message + "."
	}
	if msg, ok := kindMessages[e.Kind]; ok {
		return msg
	}
	return MsgUnknown
}

// Outcome returns a short label for err, used in metrics and logs
func Outcome(err error) string {
	switch {
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrQueryMissing):
		return "query_missing"
	}
	if kind := orchestrator.KindOf(err); kind != "" {
		return string(kind)
	}
	return "unknown"
}
