package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize(t *testing.T) {
	err := Initialize(true)
	require.NoError(t, err)
	assert.NotNil(t, GetLogger())

	// Second call is a no-op thanks to sync.Once
	err = Initialize(false)
	assert.NoError(t, err)
}

func TestGetLoggerFallback(t *testing.T) {
	// Even before Initialize, GetLogger must never return nil
	assert.NotNil(t, GetLogger())
}

func TestAppendContextFields(t *testing.T) {
	ctx := WithRoomID(WithUserID(context.Background(), 42), 7)
	ctx = context.WithValue(ctx, CorrelationIDKey, "abc-123")

	fields := appendContextFields(ctx, nil)

	// user_id, room_id, correlation_id plus the service field
	assert.Len(t, fields, 4)
}

func TestAppendContextFieldsNilContext(t *testing.T) {
	assert.Nil(t, appendContextFields(nil, nil))
}

func TestLoggingDoesNotPanic(t *testing.T) {
	ctx := WithUserID(context.Background(), 1)
	assert.NotPanics(t, func() {
		Debug(ctx, "debug message")
		Info(ctx, "info message")
		Warn(ctx, "warn message")
		Error(ctx, "error message")
	})
}
