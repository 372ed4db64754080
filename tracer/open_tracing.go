package tracer

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/golangid/meshserve/codebase/interfaces"
	opentracing "github.com/opentracing/opentracing-go"
	ext "github.com/opentracing/opentracing-go/ext"
	otlog "github.com/opentracing/opentracing-go/log"
	config "github.com/uber/jaeger-client-go/config"
)

// MaxPacketSize max size of single tag/log value sent to agent (default max packet size of UDP)
var MaxPacketSize = 65000

// InitOpenTracing init jaeger tracing as global tracer, return closer for flushing spans
func InitOpenTracing(serviceName, agentHost string, tags ...opentracing.Tag) (func() error, error) {
	defaultTags := []opentracing.Tag{
		{Key: "num_cpu", Value: runtime.NumCPU()},
		{Key: "go_version", Value: runtime.Version()},
	}
	cfg := &config.Configuration{
		Sampler: &config.SamplerConfig{
			Type:  "const",
			Param: 1,
		},
		Reporter: &config.ReporterConfig{
			LogSpans:            true,
			BufferFlushInterval: 1 * time.Second,
			LocalAgentHostPort:  agentHost,
		},
		ServiceName: serviceName,
		Tags:        append(defaultTags, tags...),
	}
	tracer, closer, err := cfg.NewTracer(config.MaxTagValueLength(math.MaxInt32))
	if err != nil {
		return nil, fmt.Errorf("cannot init opentracing connection: %w", err)
	}
	opentracing.SetGlobalTracer(tracer)
	return closer.Close, nil
}

type jaegerImpl struct {
	ctx  context.Context
	span opentracing.Span
	tags map[string]interface{}
}

// StartTrace starting trace child span from parent span, returning tracer and context carrying the span
func StartTrace(ctx context.Context, operationName string) (interfaces.Tracer, context.Context) {
	var span opentracing.Span
	if parent := opentracing.SpanFromContext(ctx); parent != nil {
		span = opentracing.GlobalTracer().StartSpan(operationName, opentracing.ChildOf(parent.Context()))
	} else {
		span = opentracing.GlobalTracer().StartSpan(operationName)
	}
	ctx = opentracing.ContextWithSpan(ctx, span)
	return &jaegerImpl{ctx: ctx, span: span}, ctx
}

// StartTraceFromHeader starting trace from request header, fallback to StartTrace if header has no span context
func StartTraceFromHeader(ctx context.Context, operationName string, header map[string]string) (interfaces.Tracer, context.Context) {
	globalTracer := opentracing.GlobalTracer()
	spanCtx, err := globalTracer.Extract(opentracing.HTTPHeaders, opentracing.TextMapCarrier(header))
	if err != nil {
		return StartTrace(ctx, operationName)
	}
	span := globalTracer.StartSpan(operationName, ext.RPCServerOption(spanCtx))
	ctx = opentracing.ContextWithSpan(ctx, span)
	return &jaegerImpl{ctx: ctx, span: span}, ctx
}

// Context get active context
func (t *jaegerImpl) Context() context.Context {
	return t.ctx
}

// SetTag set tags in tracer span, written on Finish
func (t *jaegerImpl) SetTag(key string, value interface{}) {
	if t.tags == nil {
		t.tags = make(map[string]interface{})
	}
	t.tags[key] = value
}

// InjectRequestHeader inject span context to given header map
func (t *jaegerImpl) InjectRequestHeader(header map[string]string) {
	ext.SpanKindRPCClient.Set(t.span)
	t.span.Tracer().Inject(
		t.span.Context(),
		opentracing.TextMap,
		opentracing.TextMapCarrier(header),
	)
}

// SetError set error in span
func (t *jaegerImpl) SetError(err error) {
	SetError(t.ctx, err)
}

// Log key value to span
func (t *jaegerImpl) Log(key string, value interface{}) {
	Log(t.ctx, key, value)
}

// Finish trace with additional tags data, must in deferred function
func (t *jaegerImpl) Finish(additionalTags ...map[string]interface{}) {
	defer t.span.Finish()

	for _, tag := range additionalTags {
		for k, v := range tag {
			t.SetTag(k, v)
		}
	}
	for k, v := range t.tags {
		t.span.SetTag(k, toString(v))
	}
}

// Log trace
func Log(ctx context.Context, key string, value interface{}) {
	span := opentracing.SpanFromContext(ctx)
	if span == nil {
		return
	}
	span.LogKV(key, toString(value))
}

// SetError func
func SetError(ctx context.Context, err error) {
	span := opentracing.SpanFromContext(ctx)
	if span == nil || err == nil {
		return
	}

	ext.Error.Set(span, true)
	span.SetTag("error.message", err.Error())
	span.LogFields(otlog.Error(err))
}

func toString(v interface{}) (s string) {
	switch val := v.(type) {
	case error:
		if val != nil {
			s = val.Error()
		}
	case string:
		s = val
	case int:
		s = strconv.Itoa(val)
	case []byte:
		s = string(val)
	default:
		b, _ := json.Marshal(val)
		s = string(b)
	}

	if len(s) >= MaxPacketSize {
		return fmt.Sprintf("<<Overflow, cannot show data. Size is = %d bytes, max packet size = %d bytes>>", len(s), MaxPacketSize)
	}
	return
}
