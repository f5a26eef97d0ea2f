package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStandardError_Error(t *testing.T) {
	err := NewApplicationNotFoundError("app-1")
	assert.Equal(t, "StandardError[APPLICATION_NOT_FOUND]: Application not found", err.Error())
	assert.Contains(t, err.Details, "app-1")
	assert.False(t, err.Retryable)
	assert.False(t, err.Timestamp.IsZero())
}

func TestCodeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"standard error", NewSweepInProgressError(), ErrCodeSweepInProgress},
		{"wrapped standard error", fmt.Errorf("sweep: %w", NewDatabaseNotConnectedError(errors.New("down"))), ErrCodeDatabaseNotConnected},
		{"plain error", errors.New("boom"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CodeOf(tt.err))
		})
	}
}

func TestIsCode(t *testing.T) {
	err := NewEmailSendFailedError("alice@example.com", errors.New("throttled"))
	assert.True(t, IsCode(err, ErrCodeEmailSendFailed))
	assert.False(t, IsCode(err, ErrCodeEmailNotConfigured))
	assert.True(t, err.Retryable)
}
