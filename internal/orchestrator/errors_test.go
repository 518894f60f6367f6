package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_IsMatchesKind(t *testing.T) {
	err := fmt.Errorf("search: %w", &Error{Kind: KindPollTimeout, Message: "no terminal status after 20 checks"})

	assert.ErrorIs(t, err, ErrPollTimeout)
	assert.NotErrorIs(t, err, ErrStatusCheckFailed)
	assert.Equal(t, KindPollTimeout, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}

func TestError_UnwrapsCause(t *testing.T) {
	err := newError(KindCancelled, context.Canceled)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, "cancelled: context canceled", err.Error())
}
