package tracing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartSpan_NoTracer(t *testing.T) {
	SetTracer(nil)

	ctx, span := StartSpan(context.Background(), "test")
	defer span.End()

	assert.NotNil(t, ctx)
	assert.Nil(t, GetActiveSpan(ctx))
	assert.Equal(t, "", GetTraceID(ctx))
}

func TestSetup_Disabled(t *testing.T) {
	shutdown, err := Setup(context.Background(), Config{Enabled: false})

	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))
}
