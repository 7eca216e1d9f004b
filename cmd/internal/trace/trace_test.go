package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNextSpanIDIncrementsWithinRequest(t *testing.T) {
	ctx := WithRequestAndSpan(context.Background(), "req-1", 0)

	reqID, span := NextSpanID(ctx)
	assert.Equal(t, "req-1", reqID)
	assert.Equal(t, "1", span)

	_, span = NextSpanID(ctx)
	assert.Equal(t, "2", span)
	assert.Equal(t, "2", CurrentSpanID(ctx))
}

func TestNextSpanIDWithoutTraceInfoGeneratesRequestID(t *testing.T) {
	reqID, span := NextSpanID(context.Background())
	assert.NotEmpty(t, reqID)
	assert.Equal(t, "1", span)
	assert.Equal(t, "0", CurrentSpanID(context.Background()))
}

func TestSessionRoundTrip(t *testing.T) {
	ctx := WithSession(context.Background(), "s-42")
	assert.Equal(t, "s-42", SessionFromContext(ctx))
	assert.Equal(t, "", SessionFromContext(context.Background()))
	assert.Equal(t, context.Background(), WithSession(context.Background(), ""))
}
