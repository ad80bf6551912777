package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewError tests the basic creation of errors.
func TestNewError(t *testing.T) {
	tests := []struct {
		name    string
		code    ErrorCode
		message string
	}{
		{
			name:    "InvalidParameter",
			code:    InvalidParameter,
			message: "num_docs must be positive",
		},
		{
			name:    "CollaboratorFailure",
			code:    CollaboratorFailure,
			message: "llm query failed after retries",
		},
		{
			name:    "ExperimentFailure",
			code:    ExperimentFailure,
			message: "sequential run aborted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message)

			customErr, ok := err.(*Error)
			assert.True(t, ok, "should be a custom *Error")
			assert.Equal(t, tt.code, customErr.Code())
			assert.Equal(t, tt.message, customErr.Error())
		})
	}
}

func TestWrap(t *testing.T) {
	t.Run("WrapsOriginal", func(t *testing.T) {
		orig := stderrors.New("connection refused")
		err := Wrap(orig, LLMGenerationFailed, "query failed")

		require.Error(t, err)
		assert.Equal(t, "query failed: connection refused", err.Error())
		assert.ErrorIs(t, stderrors.Unwrap(err), orig)
	})

	t.Run("NilPassesThrough", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, Unknown, "ignored"))
	})
}

func TestWithFields(t *testing.T) {
	err := WithFields(New(InvalidParameter, "bad position"), Fields{"position": "sideways"})

	var customErr *Error
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, InvalidParameter, customErr.Code())
	assert.Equal(t, "sideways", customErr.Fields()["position"])
	assert.Contains(t, err.Error(), "position=sideways")
}

func TestWithFieldsOnPlainError(t *testing.T) {
	err := WithFields(fmt.Errorf("plain"), Fields{"k": 1})

	var customErr *Error
	require.ErrorAs(t, err, &customErr)
	assert.Equal(t, Unknown, customErr.Code())
	assert.Equal(t, 1, customErr.Fields()["k"])
}

func TestIsMatchesByCode(t *testing.T) {
	err := New(IterationFailure, "worker 2 panicked")
	assert.ErrorIs(t, err, New(IterationFailure, "different message"))
	assert.NotErrorIs(t, err, New(ExperimentFailure, "worker 2 panicked"))
}

func TestCodeOf(t *testing.T) {
	assert.Equal(t, Timeout, CodeOf(New(Timeout, "deadline")))
	assert.Equal(t, Timeout, CodeOf(Wrap(New(Timeout, "deadline"), Timeout, "outer")))
	assert.Equal(t, Unknown, CodeOf(stderrors.New("plain")))
}

func TestCheckContext(t *testing.T) {
	t.Run("ActiveContext", func(t *testing.T) {
		assert.NoError(t, CheckContext(context.Background(), "query"))
	})

	t.Run("CanceledContext", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := CheckContext(ctx, "query")
		require.Error(t, err)
		assert.Equal(t, Canceled, CodeOf(err))
		assert.Contains(t, err.Error(), "query canceled")
	})
}
