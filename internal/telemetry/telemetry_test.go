package telemetry

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/grafana/pyroscope-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// withRecorder installs an in-memory span recorder for one test.
func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	setTracer(provider.Tracer(instrumentationName))
	t.Cleanup(func() {
		setTracer(nil)
		_ = provider.Shutdown(context.Background())
	})
	return rec
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.False(t, cfg.Enabled)
	assert.Equal(t, "dittodrive", cfg.ServiceName)
	assert.Equal(t, "localhost:4317", cfg.Endpoint)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, 1.0, cfg.SampleRate)
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{rate: 1, want: "AlwaysOnSampler"},
		{rate: 2, want: "AlwaysOnSampler"},
		{rate: 0, want: "AlwaysOffSampler"},
		{rate: 0.25, want: "TraceIDRatioBased{0.25}"},
	}
	for _, tt := range tests {
		desc := Config{SampleRate: tt.rate}.sampler().Description()
		assert.Contains(t, desc, "ParentBased{root:"+tt.want)
	}
}

func TestInitDisabled(t *testing.T) {
	ctx := context.Background()

	shutdown, err := Init(ctx, DefaultConfig())
	require.NoError(t, err)
	assert.False(t, IsEnabled())
	assert.NoError(t, shutdown(ctx))

	_, span := StartSpan(ctx, "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestStartSpanRecords(t *testing.T) {
	rec := withRecorder(t)
	assert.True(t, IsEnabled())

	ctx, span := StartDriveSpan(context.Background(), SpanUpload, "u-1", Filename("a.txt"))
	assert.NotEmpty(t, TraceID(ctx))
	assert.NotEmpty(t, SpanID(ctx))
	RecordError(ctx, errors.New("disk full"))
	RecordError(ctx, nil)
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, SpanUpload, spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), UserID("u-1"))
	assert.Contains(t, spans[0].Attributes(), Filename("a.txt"))
	assert.Equal(t, "disk full", spans[0].Status().Description)
	assert.Len(t, spans[0].Events(), 1)
}

func TestNamespaceAndContentSpans(t *testing.T) {
	rec := withRecorder(t)
	ctx := context.Background()

	_, span := StartNamespaceSpan(ctx, "move", "/a.txt", NewPath("/docs/a.txt"))
	span.End()
	_, span = StartContentSpan(ctx, "register", "/data/u/a.txt", Digest("abc"), Size(3))
	span.End()

	spans := rec.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, SpanNamespaceMove, spans[0].Name())
	assert.Contains(t, spans[0].Attributes(), Path("/a.txt"))
	assert.Contains(t, spans[0].Attributes(), Operation("move"))
	assert.Equal(t, "content.register", spans[1].Name())
	assert.Contains(t, spans[1].Attributes(), Location("/data/u/a.txt"))
}

func TestExtractHTTP(t *testing.T) {
	header := http.Header{}
	header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")

	ctx := ExtractHTTP(context.Background(), header)
	rec := withRecorder(t)
	ctx, span := StartSpan(ctx, "GET /api/v1/files")
	span.End()

	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", TraceID(ctx))
	require.Len(t, rec.Ended(), 1)
	assert.Equal(t, "00f067aa0ba902b7", rec.Ended()[0].Parent().SpanID().String())
}

func TestTraceIDWithoutSpan(t *testing.T) {
	assert.Empty(t, TraceID(context.Background()))
	assert.Empty(t, SpanID(context.Background()))
}

func TestAttributeHelpers(t *testing.T) {
	assert.Equal(t, AttrKind, string(Kind("folder").Key))
	assert.Equal(t, int64(4096), Size(4096).Value.AsInt64())
	assert.True(t, Reused(true).Value.AsBool())
	assert.False(t, ArchiveCompressed(false).Value.AsBool())
	assert.Equal(t, int64(12), QueuePending(12).Value.AsInt64())
}

func TestParseProfileTypes(t *testing.T) {
	types, err := parseProfileTypes([]string{"cpu", "inuse_space", "mutex_count"})
	require.NoError(t, err)
	assert.Equal(t, []pyroscope.ProfileType{
		pyroscope.ProfileCPU, pyroscope.ProfileInuseSpace, pyroscope.ProfileMutexCount,
	}, types)

	_, err = parseProfileTypes([]string{"cpu", "heap"})
	assert.ErrorContains(t, err, `"heap"`)
}

func TestInitProfilingDisabled(t *testing.T) {
	stop, err := InitProfiling(ProfilingConfig{})
	require.NoError(t, err)
	assert.False(t, IsProfilingEnabled())
	assert.NoError(t, stop())
}

func TestInitProfilingRejectsUnknownType(t *testing.T) {
	_, err := InitProfiling(ProfilingConfig{Enabled: true, ProfileTypes: []string{"bogus"}})
	assert.Error(t, err)
	assert.False(t, IsProfilingEnabled())
}
