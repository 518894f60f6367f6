package orchestrator

import (
	"errors"
	"fmt"
)

// Kind tags the stage at which a search failed
type Kind string

const (
	KindAssistantNotFound          Kind = "assistant_not_found"
	KindRemoteUnavailable          Kind = "remote_unavailable"
	KindThreadCreationFailed       Kind = "thread_creation_failed"
	KindMessagePostFailed          Kind = "message_post_failed"
	KindRunStartFailed             Kind = "run_start_failed"
	KindRunFailedOrCancelled       Kind = "run_failed_or_cancelled"
	KindStatusCheckFailed          Kind = "status_check_failed"
	KindRemoteRunError             Kind = "remote_run_error"
	KindPollTimeout                Kind = "poll_timeout"
	KindUnhandledAction            Kind = "unhandled_action"
	KindToolOutputSubmissionFailed Kind = "tool_output_submission_failed"
	KindMessageFetchFailed         Kind = "message_fetch_failed"
	KindNoMessagesFound            Kind = "no_messages_found"
	KindInvalidTranscriptJSON      Kind = "invalid_transcript_json"
	KindConfigMissing              Kind = "config_missing"
	KindCancelled                  Kind = "cancelled"
)

// Error is a tagged pipeline failure. Message carries remote or
// configuration detail where there is any; Err is the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same Kind, so the Err* sentinels work with errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrAssistantNotFound          = &Error{Kind: KindAssistantNotFound}
	ErrRemoteUnavailable          = &Error{Kind: KindRemoteUnavailable}
	ErrThreadCreationFailed       = &Error{Kind: KindThreadCreationFailed}
	ErrMessagePostFailed          = &Error{Kind: KindMessagePostFailed}
	ErrRunStartFailed             = &Error{Kind: KindRunStartFailed}
	ErrRunFailedOrCancelled       = &Error{Kind: KindRunFailedOrCancelled}
	ErrStatusCheckFailed          = &Error{Kind: KindStatusCheckFailed}
	ErrRemoteRunError             = &Error{Kind: KindRemoteRunError}
	ErrPollTimeout                = &Error{Kind: KindPollTimeout}
	ErrUnhandledAction            = &Error{Kind: KindUnhandledAction}
	ErrToolOutputSubmissionFailed = &Error{Kind: KindToolOutputSubmissionFailed}
	ErrMessageFetchFailed         = &Error{Kind: KindMessageFetchFailed}
	ErrNoMessagesFound            = &Error{Kind: KindNoMessagesFound}
	ErrInvalidTranscriptJSON      = &Error{Kind: KindInvalidTranscriptJSON}
	ErrConfigMissing              = &Error{Kind: KindConfigMissing}
	ErrCancelled                  = &Error{Kind: KindCancelled}
)

func newError(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}

func newErrorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if none
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
