package orchestrator

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/Backland-Labs/travelbuddy/internal/assistant"
)

// NoTextContent is returned as the result when the newest message has no
// textual part. It is a soft failure, not an error.
const NoTextContent = "No text content"

func (s *session) extractTranscript(ctx context.Context, threadID string) (any, error) {
	messages, err := s.client.ListMessages(ctx, threadID)
	if err != nil {
		if cerr := cancelled(ctx); cerr != nil {
			return nil, cerr
		}
		s.log.WithError(err).Error("Failed to fetch messages")
		return nil, newError(KindMessageFetchFailed, err)
	}
	if len(messages) == 0 {
		return nil, newError(KindNoMessagesFound, nil)
	}

	newest := newestMessage(messages)
	text, ok := newest.FirstText()
	if !ok {
		s.log.WithField("message_id", newest.ID).Warn("Newest message has no text content")
		return NoTextContent, nil
	}

	var result any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		return nil, &Error{Kind: KindInvalidTranscriptJSON, Message: newest.ID, Err: err}
	}
	return result, nil
}

// newestMessage picks the message with the latest creation time. The API is
// asked for newest-first order; ties keep that order.
func newestMessage(messages []assistant.Message) assistant.Message {
	sorted := make([]assistant.Message, len(messages))
	copy(sorted, messages)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt > sorted[j].CreatedAt
	})
	return sorted[0]
}
