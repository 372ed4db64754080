package tracer

import (
	"context"
	"errors"
	"strings"
	"testing"

	opentracing "github.com/opentracing/opentracing-go"
	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartTrace(t *testing.T) {
	mt := mocktracer.New()
	opentracing.SetGlobalTracer(mt)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	parent, ctx := StartTrace(context.Background(), "parent")
	child, _ := StartTrace(ctx, "child")
	child.SetTag("table", "users")
	child.SetError(errors.New("boom"))
	child.Finish(map[string]interface{}{"rows": 2})
	parent.Finish()

	spans := mt.FinishedSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, "child", spans[0].OperationName)
	assert.Equal(t, "users", spans[0].Tag("table"))
	assert.Equal(t, "2", spans[0].Tag("rows"))
	assert.Equal(t, true, spans[0].Tag("error"))
	assert.Equal(t, spans[1].SpanContext.SpanID, spans[0].ParentID)
}

func TestToString(t *testing.T) {
	assert.Equal(t, "text", toString("text"))
	assert.Equal(t, "10", toString(10))
	assert.Equal(t, `{"a":1}`, toString(map[string]int{"a": 1}))
	assert.Equal(t, "boom", toString(errors.New("boom")))
	assert.True(t, strings.HasPrefix(toString(strings.Repeat("x", MaxPacketSize)), "<<Overflow"))
}

func TestStartTraceFromHeader(t *testing.T) {
	mt := mocktracer.New()
	opentracing.SetGlobalTracer(mt)
	defer opentracing.SetGlobalTracer(opentracing.NoopTracer{})

	client, _ := StartTrace(context.Background(), "client")
	header := map[string]string{}
	client.InjectRequestHeader(header)
	client.Finish()

	server, _ := StartTraceFromHeader(context.Background(), "POST /graphql", header)
	server.Finish()

	orphan, _ := StartTraceFromHeader(context.Background(), "orphan", map[string]string{})
	orphan.Finish()

	spans := mt.FinishedSpans()
	require.Len(t, spans, 3)
	assert.Equal(t, spans[0].SpanContext.SpanID, spans[1].ParentID)
	assert.Equal(t, 0, spans[2].ParentID)
}
