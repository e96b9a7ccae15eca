package appctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextValues(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", GetRequestID(ctx))
	assert.Equal(t, "", GetUserID(ctx))

	ctx = SetRequestID(ctx, "req-1")
	ctx = SetUserID(ctx, "reviewer-7")
	ctx = SetMethod(ctx, "POST")
	ctx = SetRoute(ctx, "/api/v1/memorials")
	ctx = SetRemoteIP(ctx, "10.0.0.1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "reviewer-7", GetUserID(ctx))
	assert.Equal(t, "POST", GetMethod(ctx))
	assert.Equal(t, "/api/v1/memorials", GetRoute(ctx))
	assert.Equal(t, "10.0.0.1", GetRemoteIP(ctx))
}
